// Package source fans a topic search out to the registered paper sources and
// merges the results.
package source

import (
	"context"
	"log/slog"
	"strings"

	"paperscout/internal/paper"
)

// Adapter is one paper source. ID is the stable identifier callers use to
// request the source; Name is the human-readable label stamped on results.
type Adapter interface {
	ID() string
	Name() string
	Search(ctx context.Context, query string, limit int) ([]paper.Document, error)
}

// Aggregator resolves requested source ids and collects documents from each.
type Aggregator struct {
	adapters map[string]Adapter
}

func NewAggregator(adapters ...Adapter) *Aggregator {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.ID()] = a
	}
	return &Aggregator{adapters: m}
}

// Aggregate searches every requested source for the query and concatenates
// the results in request order. Unknown ids and failing sources are logged
// and skipped; one bad source never poisons the batch.
func (ag *Aggregator) Aggregate(ctx context.Context, query string, sourceIDs []string, perSourceLimit int) []paper.Document {
	var docs []paper.Document
	for _, raw := range sourceIDs {
		id := strings.ToLower(strings.TrimSpace(raw))
		adapter, ok := ag.adapters[id]
		if !ok {
			slog.WarnContext(ctx, "unknown paper source requested, skipping", "source", id)
			continue
		}

		found, err := adapter.Search(ctx, query, perSourceLimit)
		if err != nil {
			slog.ErrorContext(ctx, "paper source search failed", "source", id, "error", err)
			continue
		}
		slog.InfoContext(ctx, "paper source search completed", "source", id, "papers", len(found))
		docs = append(docs, found...)
	}
	return docs
}
