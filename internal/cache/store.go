// Package cache is the explicit collection store the aggregator and the
// decision dispatcher share. Every collection lives under one partition
// key; Get serves a cached snapshot or fetches through, Invalidate
// drops a partition, and Refetch drops it and awaits a fresh fetch —
// the dispatcher's happens-before guarantee after a mutation.
//
// No component edits a cached record in place: mutations go upstream
// and come back through Refetch, so the cache can never disagree with
// the backend about a record's state for longer than one refetch.
package cache

import (
	"context"

	"github.com/aquagrid/approval-engine/internal/domain"
)

// Fetch loads a partition's records from the upstream backend.
type Fetch func(ctx context.Context, partition string) ([]domain.Record, error)

// Store is the collection cache interface. Implementations: Memory
// (single instance) and Redis (shared across portal instances).
type Store interface {
	Get(ctx context.Context, partition string) ([]domain.Record, error)
	Invalidate(ctx context.Context, partition string) error
	Refetch(ctx context.Context, partition string) ([]domain.Record, error)
}

func cloneRecords(records []domain.Record) []domain.Record {
	out := make([]domain.Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
