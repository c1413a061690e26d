package cache

import (
	"context"
	"sync"
	"time"

	"github.com/aquagrid/approval-engine/internal/domain"
)

type memoryEntry struct {
	records   []domain.Record
	fetchedAt time.Time
}

// Memory is the in-process store used when no Redis URL is configured.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	fetch   Fetch
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(fetch Fetch, ttl time.Duration) *Memory {
	return &Memory{
		entries: make(map[string]memoryEntry),
		fetch:   fetch,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, partition string) ([]domain.Record, error) {
	m.mu.RLock()
	entry, ok := m.entries[partition]
	m.mu.RUnlock()

	if ok && m.now().Sub(entry.fetchedAt) < m.ttl {
		return cloneRecords(entry.records), nil
	}
	return m.Refetch(ctx, partition)
}

func (m *Memory) Invalidate(_ context.Context, partition string) error {
	m.mu.Lock()
	delete(m.entries, partition)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Refetch(ctx context.Context, partition string) ([]domain.Record, error) {
	records, err := m.fetch(ctx, partition)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.entries[partition] = memoryEntry{records: cloneRecords(records), fetchedAt: m.now()}
	m.mu.Unlock()

	return records, nil
}

// compile-time check that Memory implements Store
var _ Store = (*Memory)(nil)
