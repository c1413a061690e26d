package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aquagrid/approval-engine/internal/cache"
	"github.com/aquagrid/approval-engine/internal/domain"
	"github.com/aquagrid/approval-engine/internal/metrics"
	"github.com/aquagrid/approval-engine/internal/repository"
	"github.com/aquagrid/approval-engine/internal/upstream"
)

// Outcome is the terminal state of a dispatched decision.
type Outcome string

const (
	// OutcomeApplied: the backend accepted this reviewer's decision.
	OutcomeApplied Outcome = "applied"
	// OutcomeAlreadyReviewed: another reviewer got there first. Treated
	// as success — the item is gone from the queue either way.
	OutcomeAlreadyReviewed Outcome = "already-reviewed"
)

// historyWindow bounds how far back the history view reaches.
const historyWindow = 1000

// DecisionService dispatches reviewer decisions to the kind-specific
// upstream mutation, records them in the decision log, and refetches
// exactly the cache partition owned by the mutated kind before
// returning — the caller's next aggregation pass is therefore
// guaranteed to reflect the backend's new state.
type DecisionService struct {
	store     cache.Store
	client    upstream.Client
	decisions repository.DecisionRepository
	metrics   *metrics.Metrics
	logger    *zap.Logger
}

func NewDecisionService(
	store cache.Store,
	client upstream.Client,
	decisions repository.DecisionRepository,
	m *metrics.Metrics,
	logger *zap.Logger,
) *DecisionService {
	return &DecisionService{store: store, client: client, decisions: decisions, metrics: m, logger: logger}
}

// Decide routes one (kind, decision) pair to its upstream mutation:
//
//	Consumption          approve → approve mutation   reject → reject mutation
//	ScoringRuleset       approve → publish            reject → status "rejected"
//	CustomerActivation   approve → status "Active"    reject → status "Inactive"
//
// Preconditions are checked before any network call: the reviewer
// identity is required for every kind, and activation items must carry
// their account identifier (the numeric id is a sentinel, never used
// for the mutation).
func (s *DecisionService) Decide(
	ctx context.Context,
	item domain.QueueItem,
	decision domain.Decision,
	reviewer, comments string,
) (Outcome, error) {
	if !decision.IsValid() {
		return "", domain.ErrInvalidDecision
	}
	if strings.TrimSpace(reviewer) == "" {
		return "", domain.ErrNoReviewer
	}

	var err error
	switch item.Kind {
	case domain.KindConsumption:
		if decision == domain.DecisionApprove {
			err = s.client.ApproveConsumption(ctx, item.RecordID, reviewer, comments)
		} else {
			err = s.client.RejectConsumption(ctx, item.RecordID, reviewer, comments)
		}
	case domain.KindScoringRuleset:
		if decision == domain.DecisionApprove {
			err = s.client.PublishRuleset(ctx, item.RecordID)
		} else {
			err = s.client.UpdateRulesetStatus(ctx, item.RecordID, "rejected")
		}
	case domain.KindCustomerActivation:
		if item.Account == "" {
			return "", domain.ErrNoAccount
		}
		if decision == domain.DecisionApprove {
			err = s.client.UpdateUserStatus(ctx, item.Account, "Active")
		} else {
			// Rejection re-asserts the inactive state. Idempotent on purpose.
			err = s.client.UpdateUserStatus(ctx, item.Account, "Inactive")
		}
	default:
		return "", domain.ErrUnknownKind
	}

	partition := partitionFor(item.Kind)

	if err != nil {
		if upstream.IsAlreadyReviewed(err) {
			// Two reviewers raced; the other one won. The item has left
			// the queue, so refresh our view and report success.
			s.logger.Info("decision raced with another reviewer",
				zap.String("item_id", item.ID), zap.String("reviewer", reviewer))
			s.refresh(ctx, partition)
			s.metrics.ObserveDecision(item.Kind, decision, "conflict")
			return OutcomeAlreadyReviewed, nil
		}
		s.metrics.ObserveDecision(item.Kind, decision, "error")
		return "", fmt.Errorf("dispatch %s on %s: %w", decision, item.ID, err)
	}

	s.record(ctx, item, decision, reviewer, comments)

	// Await the refetch so the caller observes the post-decision state.
	s.refresh(ctx, partition)

	s.metrics.ObserveDecision(item.Kind, decision, "applied")
	return OutcomeApplied, nil
}

// record appends the accepted decision to the local history. A logging
// failure must not undo a decision the backend already accepted, so it
// only warns.
func (s *DecisionService) record(ctx context.Context, item domain.QueueItem, decision domain.Decision, reviewer, comments string) {
	entry := &domain.DecisionEntry{
		ID:        uuid.New().String(),
		Kind:      item.Kind,
		SourceID:  item.SourceID,
		Summary:   item.Summary,
		Decision:  decision,
		Reviewer:  reviewer,
		Comments:  comments,
		DecidedAt: time.Now().UTC(),
	}
	if err := s.decisions.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record decision in history",
			zap.String("item_id", item.ID), zap.Error(err))
	}
}

// refresh refetches one partition. The mutation already succeeded, so a
// refetch failure leaves the queue stale for at most one pass; warn and
// move on rather than reporting a failure for an applied decision.
func (s *DecisionService) refresh(ctx context.Context, partition string) {
	if _, err := s.store.Refetch(ctx, partition); err != nil {
		s.logger.Warn("post-decision refetch failed, queue may lag one pass",
			zap.String("partition", partition), zap.Error(err))
	}
}

// History returns the filtered approval history, newest first. The
// filter applies as a pure conjunction over the recent window; see
// FilterHistory.
func (s *DecisionService) History(ctx context.Context, f domain.HistoryFilter) ([]*domain.DecisionEntry, int, error) {
	entries, err := s.decisions.ListRecent(ctx, historyWindow)
	if err != nil {
		return nil, 0, fmt.Errorf("load decision history: %w", err)
	}

	filtered := FilterHistory(entries, f)
	total := len(filtered)

	page, limit := f.Page, f.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit
	if offset >= len(filtered) {
		return []*domain.DecisionEntry{}, total, nil
	}
	end := offset + limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

// FilterHistory applies kind, decision, and substring search as a pure
// conjunction. The search matches case-insensitively against the kind
// label, the summary, and the formatted decision timestamp — the three
// columns the history table renders.
func FilterHistory(entries []*domain.DecisionEntry, f domain.HistoryFilter) []*domain.DecisionEntry {
	needle := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]*domain.DecisionEntry, 0, len(entries))
	for _, e := range entries {
		if f.Kind != nil && e.Kind != *f.Kind {
			continue
		}
		if f.Decision != nil && e.Decision != *f.Decision {
			continue
		}
		if needle != "" && !matchesSearch(e, needle) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func matchesSearch(e *domain.DecisionEntry, needle string) bool {
	haystacks := []string{
		strings.ToLower(e.Kind.Label()),
		strings.ToLower(e.Summary),
		e.DecidedAt.UTC().Format("2006-01-02 15:04"),
	}
	for _, h := range haystacks {
		if strings.Contains(h, needle) {
			return true
		}
	}
	return false
}

func partitionFor(kind domain.Kind) string {
	switch kind {
	case domain.KindConsumption:
		return upstream.PartitionConsumption
	case domain.KindScoringRuleset:
		return upstream.PartitionZoneScoring
	case domain.KindCustomerActivation:
		return upstream.PartitionUsers
	}
	return ""
}
