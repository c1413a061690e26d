package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/aquagrid/approval-engine/internal/domain"
)

// MockDecisionRepository is a hand-written, in-memory implementation of
// DecisionRepository used in unit tests. No mock-generation library needed.
type MockDecisionRepository struct {
	mu      sync.RWMutex
	entries []*domain.DecisionEntry

	// Optional error overrides — set in tests to simulate failure paths.
	RecordErr error
	ListErr   error
}

func NewMockDecisionRepository() *MockDecisionRepository {
	return &MockDecisionRepository{}
}

func (m *MockDecisionRepository) Record(_ context.Context, e *domain.DecisionEntry) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *e
	m.entries = append(m.entries, &clone)
	return nil
}

func (m *MockDecisionRepository) ListRecent(_ context.Context, limit int) ([]*domain.DecisionEntry, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.DecisionEntry, 0, len(m.entries))
	for _, e := range m.entries {
		clone := *e
		out = append(out, &clone)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DecidedAt.After(out[j].DecidedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Count returns the number of recorded decisions.
func (m *MockDecisionRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
