package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/aquagrid/approval-engine/internal/cache"
)

func setupRedisStore(t *testing.T, f *countingFetch) (*cache.Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := cache.NewRedisFromURL("redis://"+mr.Addr(), f.fetch, time.Minute)
	if err != nil {
		t.Fatalf("failed to create redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

func TestRedis_GetFetchesThroughOnce(t *testing.T) {
	f := newCountingFetch()
	store, _ := setupRedisStore(t, f)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		records, err := store.Get(ctx, "consumption")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(records) != 1 || records[0].String("status") != "pending" {
			t.Fatalf("unexpected records: %v", records)
		}
	}

	if f.calls["consumption"] != 1 {
		t.Fatalf("expected a single upstream fetch, got %d", f.calls["consumption"])
	}
}

func TestRedis_SnapshotExpires(t *testing.T) {
	f := newCountingFetch()
	store, mr := setupRedisStore(t, f)
	ctx := context.Background()

	_, _ = store.Get(ctx, "consumption")
	mr.FastForward(2 * time.Minute)
	_, _ = store.Get(ctx, "consumption")

	if f.calls["consumption"] != 2 {
		t.Fatalf("expected refetch after TTL, got %d fetches", f.calls["consumption"])
	}
}

func TestRedis_InvalidateDropsOnlyThatPartition(t *testing.T) {
	f := newCountingFetch()
	store, _ := setupRedisStore(t, f)
	ctx := context.Background()

	_, _ = store.Get(ctx, "consumption")
	_, _ = store.Get(ctx, "users")
	if err := store.Invalidate(ctx, "consumption"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, _ = store.Get(ctx, "consumption")
	_, _ = store.Get(ctx, "users")

	if f.calls["consumption"] != 2 || f.calls["users"] != 1 {
		t.Fatalf("unexpected fetch counts: %v", f.calls)
	}
}

func TestRedis_CorruptSnapshotRecovers(t *testing.T) {
	f := newCountingFetch()
	store, mr := setupRedisStore(t, f)
	ctx := context.Background()

	if err := mr.Set("collection:consumption", "{not json"); err != nil {
		t.Fatalf("seed corrupt snapshot: %v", err)
	}

	records, err := store.Get(ctx, "consumption")
	if err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected fetched records, got %v", records)
	}
}
