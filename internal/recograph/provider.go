// Package recograph answers the autoplay-recommendation open question from
// spec §9: a configurable fn(just_finished_metadata) -> Option<QueryKind>.
// The primary implementation is a Neo4j co-listen graph; when the graph has
// no edge for the finished track it falls back to an LLM-seeded suggestion.
package recograph

import (
	"context"

	"cracktunes/internal/types"
)

// Provider resolves the next autoplay candidate given the track that just
// finished. Returning (nil, nil) means "no recommendation available".
type Provider interface {
	Recommend(ctx context.Context, finished types.TrackMetadata, history map[string]struct{}) (types.QueryKind, error)
}

// Chain tries each provider in order, falling back to the next on a nil
// result (not an error — an error short-circuits, since it likely means
// the whole recommendation path is unavailable right now).
type Chain struct {
	Providers []Provider
}

func (c Chain) Recommend(ctx context.Context, finished types.TrackMetadata, history map[string]struct{}) (types.QueryKind, error) {
	for _, p := range c.Providers {
		q, err := p.Recommend(ctx, finished, history)
		if err != nil {
			return nil, err
		}
		if q != nil {
			return q, nil
		}
	}
	return nil, nil
}
