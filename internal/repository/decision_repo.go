package repository

import (
	"context"

	"github.com/aquagrid/approval-engine/internal/domain"
)

// DecisionRepository persists the approval history: every decision the
// upstream backend accepted, recorded locally so reviewers can audit
// past outcomes. The pgx implementation is in pg_decision_repo.go.
// Tests use a hand-written mock (mock_decision_repo.go).
type DecisionRepository interface {
	Record(ctx context.Context, e *domain.DecisionEntry) error

	// ListRecent returns up to limit entries, newest first. Filtering
	// happens in the service layer as a pure conjunction over this list.
	ListRecent(ctx context.Context, limit int) ([]*domain.DecisionEntry, error)
}
