package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/aquagrid/approval-engine/internal/domain"
)

type pgDecisionRepository struct {
	pool *pgxpool.Pool
}

// NewPgDecisionRepository returns a DecisionRepository backed by PostgreSQL.
func NewPgDecisionRepository(pool *pgxpool.Pool) DecisionRepository {
	return &pgDecisionRepository{pool: pool}
}

func (r *pgDecisionRepository) Record(ctx context.Context, e *domain.DecisionEntry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO decision_log
			(id, kind, source_id, summary, decision, reviewer, comments, decided_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		e.ID, e.Kind, e.SourceID, e.Summary, e.Decision, e.Reviewer, e.Comments, e.DecidedAt,
	)
	if err != nil {
		return fmt.Errorf("insert decision: %w", err)
	}
	return nil
}

func (r *pgDecisionRepository) ListRecent(ctx context.Context, limit int) ([]*domain.DecisionEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, kind, source_id, summary, decision, reviewer, comments, decided_at
		FROM decision_log
		ORDER BY decided_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var entries []*domain.DecisionEntry
	for rows.Next() {
		var e domain.DecisionEntry
		if err := rows.Scan(&e.ID, &e.Kind, &e.SourceID, &e.Summary,
			&e.Decision, &e.Reviewer, &e.Comments, &e.DecidedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}
