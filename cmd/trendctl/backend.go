package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/okian/trendhub/internal/domain/collection"
	"github.com/okian/trendhub/internal/domain/model"
	"github.com/okian/trendhub/internal/domain/types"
)

// Backend is the part of the service the commands use.
type Backend interface {
	Collect(ctx context.Context, capability model.Capability, params model.Params) collection.Collection
	ScoredTrends(ctx context.Context, params model.Params, limit int) types.ScoredResponse
	Status() types.APIStatusResponse
}

func params() model.Params {
	if flagQuery == "" {
		return nil
	}
	return model.Params{"q": flagQuery}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
