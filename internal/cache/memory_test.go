package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aquagrid/approval-engine/internal/cache"
	"github.com/aquagrid/approval-engine/internal/domain"
)

// countingFetch counts fetches per partition and serves canned records.
type countingFetch struct {
	calls   map[string]int
	records map[string][]domain.Record
	err     error
}

func newCountingFetch() *countingFetch {
	return &countingFetch{
		calls: make(map[string]int),
		records: map[string][]domain.Record{
			"consumption": {{"id": float64(1), "status": "pending"}},
			"users":       {{"account": "ACC-1"}},
		},
	}
}

func (f *countingFetch) fetch(_ context.Context, partition string) ([]domain.Record, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.calls[partition]++
	return f.records[partition], nil
}

func TestMemory_GetFetchesThroughOnce(t *testing.T) {
	f := newCountingFetch()
	store := cache.NewMemory(f.fetch, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		records, err := store.Get(ctx, "consumption")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("expected 1 record, got %d", len(records))
		}
	}

	if f.calls["consumption"] != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", f.calls["consumption"])
	}
}

func TestMemory_InvalidateForcesFetch(t *testing.T) {
	f := newCountingFetch()
	store := cache.NewMemory(f.fetch, time.Minute)
	ctx := context.Background()

	_, _ = store.Get(ctx, "consumption")
	if err := store.Invalidate(ctx, "consumption"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = store.Get(ctx, "consumption")

	if f.calls["consumption"] != 2 {
		t.Fatalf("expected 2 fetches after invalidation, got %d", f.calls["consumption"])
	}
}

func TestMemory_InvalidationIsPerPartition(t *testing.T) {
	f := newCountingFetch()
	store := cache.NewMemory(f.fetch, time.Minute)
	ctx := context.Background()

	_, _ = store.Get(ctx, "consumption")
	_, _ = store.Get(ctx, "users")
	_ = store.Invalidate(ctx, "consumption")
	_, _ = store.Get(ctx, "consumption")
	_, _ = store.Get(ctx, "users")

	if f.calls["consumption"] != 2 {
		t.Fatalf("expected consumption refetched, got %d", f.calls["consumption"])
	}
	if f.calls["users"] != 1 {
		t.Fatalf("users partition must not be touched by a consumption invalidation, got %d fetches", f.calls["users"])
	}
}

func TestMemory_RefetchBypassesFreshEntry(t *testing.T) {
	f := newCountingFetch()
	store := cache.NewMemory(f.fetch, time.Minute)
	ctx := context.Background()

	_, _ = store.Get(ctx, "consumption")
	if _, err := store.Refetch(ctx, "consumption"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.calls["consumption"] != 2 {
		t.Fatalf("expected refetch to hit upstream, got %d fetches", f.calls["consumption"])
	}
}

func TestMemory_FetchErrorPropagates(t *testing.T) {
	f := newCountingFetch()
	f.err = errors.New("backend down")
	store := cache.NewMemory(f.fetch, time.Minute)

	if _, err := store.Get(context.Background(), "consumption"); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestMemory_ReturnedRecordsDoNotAliasCache(t *testing.T) {
	f := newCountingFetch()
	store := cache.NewMemory(f.fetch, time.Minute)
	ctx := context.Background()

	first, _ := store.Get(ctx, "consumption")
	first[0]["status"] = "tampered"

	second, _ := store.Get(ctx, "consumption")
	if second[0].String("status") != "pending" {
		t.Fatal("local edits must not leak into the cache")
	}
}
