package ports

import (
	"context"
	"encoding/json"
)

// AssetHandler consumes one decoded listing entry. Model and image
// ingestion are two implementations of this interface; the pagination
// loop stays agnostic of what happens to each entry.
//
// A returned error marks the entry as skipped. It never aborts the loop;
// transport failures are surfaced by the collector itself.
type AssetHandler interface {
	HandleEntry(ctx context.Context, entry json.RawMessage) error
}

// AssetHandlerFunc adapts a plain function to AssetHandler.
type AssetHandlerFunc func(ctx context.Context, entry json.RawMessage) error

func (f AssetHandlerFunc) HandleEntry(ctx context.Context, entry json.RawMessage) error {
	return f(ctx, entry)
}
