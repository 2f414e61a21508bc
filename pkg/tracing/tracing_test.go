package tracing_test

import (
	"context"
	"testing"

	"github.com/okian/trendhub/pkg/tracing"
)

func TestSetupNoopWhenEndpointEmpty(t *testing.T) {
	shutdown, err := tracing.Setup(context.Background(), "trendhub-test", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown error: %v", err)
	}
	if tracing.Tracer() == nil {
		t.Fatal("tracer should never be nil")
	}
}

func TestSetupCreatesProviderWhenEndpointSet(t *testing.T) {
	// Non-routable address so nothing is exported.
	shutdown, err := tracing.Setup(context.Background(), "trendhub-test", "http://192.0.2.1:4318")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, span := tracing.Tracer().Start(context.Background(), "probe")
	if !span.SpanContext().IsValid() {
		t.Error("expected a recording span from the sdk provider")
	}
	span.End()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// A cancelled context bounds the flush against the unreachable endpoint.
	_ = shutdown(ctx)
}
