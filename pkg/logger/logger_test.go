package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize text logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitWithFormat("json"); err != nil {
		t.Fatalf("failed to initialize json logger: %v", err)
	}
	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := InitWithFormat("xml"); err == nil {
		t.Fatal("expected an error for unknown format")
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()
}

func TestLoggerJSONFields(t *testing.T) {
	var buf bytes.Buffer
	if err := initWriter(&buf, "json"); err != nil {
		t.Fatalf("init: %v", err)
	}
	_ = SetLevelString("info")

	Named("aggregation").Info(context.Background(), "fan-out complete",
		String("capability", "trends"),
		Int("results", 3),
		Bool("partial", true),
		Duration("took", 2*time.Second),
		Error(errors.New("boom")),
	)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not json: %v (%s)", err, buf.String())
	}
	if entry["msg"] != "fan-out complete" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["component"] != "aggregation" {
		t.Errorf("unexpected component: %v", entry["component"])
	}
	if entry["capability"] != "trends" {
		t.Errorf("unexpected capability: %v", entry["capability"])
	}
	if caller, _ := entry["caller"].(string); !strings.Contains(caller, "logger_test.go") {
		t.Errorf("caller should point at the test file, got %q", caller)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	if err := initWriter(&buf, "text"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("set level: %v", err)
	}
	defer func() { _ = SetLevelString("info") }()

	log := Get().With(String("source", "github"))
	log.Info(context.Background(), "hidden")
	log.Warn(context.Background(), "shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info line should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "source=github") {
		t.Errorf("warn line missing or lacks bound field: %s", out)
	}

	if err := SetLevelString("loud"); err == nil {
		t.Error("expected an error for unknown level")
	}
}

func TestNopLogger(t *testing.T) {
	l := Nop()
	l.Error(context.Background(), "discarded")
	l.Named("x").With(String("k", "v")).Info(nil, "discarded") //nolint:staticcheck // nil ctx is tolerated
}
