package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/aquagrid/approval-engine/internal/cache"
	"github.com/aquagrid/approval-engine/internal/domain"
	"github.com/aquagrid/approval-engine/internal/metrics"
	"github.com/aquagrid/approval-engine/internal/normalize"
	"github.com/aquagrid/approval-engine/internal/upstream"
)

// QueueService computes the unified approval queue. The queue is
// derived state: every call recomputes it in full from the current
// collection snapshots, so there is no incremental patching to drift
// out of sync with the backing collections.
type QueueService struct {
	store   cache.Store
	client  upstream.Client
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewQueueService(
	store cache.Store,
	client upstream.Client,
	m *metrics.Metrics,
	logger *zap.Logger,
) *QueueService {
	return &QueueService{store: store, client: client, metrics: m, logger: logger}
}

// Aggregate runs one full pass: fetch the collection snapshots,
// normalize the queue-eligible records of each kind, merge, and sort by
// submission time descending with timestamp-less items last. The counts
// are tallied from the returned slice, so they always equal what the
// portal renders.
func (s *QueueService) Aggregate(ctx context.Context) ([]domain.QueueItem, domain.QueueCounts, error) {
	start := time.Now()

	consumptions, err := s.store.Get(ctx, upstream.PartitionConsumption)
	if err != nil {
		return nil, domain.QueueCounts{}, fmt.Errorf("load consumption collection: %w", err)
	}
	rulesets, err := s.store.Get(ctx, upstream.PartitionZoneScoring)
	if err != nil {
		return nil, domain.QueueCounts{}, fmt.Errorf("load zone-scoring collection: %w", err)
	}
	users, err := s.store.Get(ctx, upstream.PartitionUsers)
	if err != nil {
		return nil, domain.QueueCounts{}, fmt.Errorf("load users collection: %w", err)
	}

	nctx := normalize.Context{
		Customers: users,
		Admins:    s.reference(ctx, upstream.PartitionAdmins),
		Areas:     s.reference(ctx, upstream.PartitionAreas),
		Zones:     s.reference(ctx, upstream.PartitionZones),
		Meters:    s.reference(ctx, upstream.PartitionMeters),
	}

	var items []domain.QueueItem
	for _, raw := range consumptions {
		if item, ok := normalize.Consumption(raw, nctx); ok {
			items = append(items, item)
		}
	}
	for _, raw := range rulesets {
		if item, ok := normalize.ScoringRuleset(raw); ok {
			items = append(items, item)
		}
	}
	for _, raw := range users {
		if item, ok := normalize.CustomerActivation(raw, nctx); ok {
			items = append(items, item)
		}
	}

	sortQueue(items)

	counts := domain.CountQueue(items)
	s.metrics.ObserveAggregation(counts, time.Since(start))
	return items, counts, nil
}

// reference loads a lookup-only collection. A failure here degrades
// cross-reference resolution to placeholders instead of blocking the
// whole queue.
func (s *QueueService) reference(ctx context.Context, partition string) []domain.Record {
	records, err := s.store.Get(ctx, partition)
	if err != nil {
		s.logger.Warn("reference collection unavailable, resolving with placeholders",
			zap.String("partition", partition), zap.Error(err))
		return nil
	}
	return records
}

// GetItem finds a single queue item by its composite id, recomputing
// the queue so the answer reflects the current collection state.
func (s *QueueService) GetItem(ctx context.Context, id string) (domain.QueueItem, error) {
	items, _, err := s.Aggregate(ctx)
	if err != nil {
		return domain.QueueItem{}, err
	}
	for _, item := range items {
		if item.ID == id {
			return item, nil
		}
	}
	return domain.QueueItem{}, domain.ErrNotFound
}

// Enrich re-fetches the authoritative full record before a review.
// Customer activations are always re-fetched — their list view is
// structurally incomplete (meter linkage and zone can be missing at
// list time). Other kinds re-fetch only when the snapshot is empty.
// On fetch failure the known snapshot is kept and stale=true is
// returned so the caller can surface a non-fatal notice instead of
// blocking the reviewer.
func (s *QueueService) Enrich(ctx context.Context, item domain.QueueItem) (domain.QueueItem, bool) {
	var (
		full domain.Record
		err  error
	)

	switch item.Kind {
	case domain.KindCustomerActivation:
		full, err = s.client.GetUserByAccount(ctx, item.Account)
	case domain.KindConsumption:
		if len(item.NewSnapshot) > 0 {
			return item, false
		}
		full, err = s.client.GetConsumption(ctx, item.RecordID)
	case domain.KindScoringRuleset:
		if len(item.NewSnapshot) > 0 {
			return item, false
		}
		full, err = s.client.GetRuleset(ctx, item.RecordID)
	default:
		return item, false
	}

	if err != nil {
		s.logger.Warn("detail fetch failed, presenting list-level snapshot",
			zap.String("item_id", item.ID), zap.Error(err))
		return item, true
	}

	item.NewSnapshot = full
	return item, false
}

// sortQueue orders newest first; items without a timestamp are treated
// as earliest, not as errors, and sink to the end. Ties fall back to
// the composite id so the order is stable across passes.
func sortQueue(items []domain.QueueItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].SubmittedAt, items[j].SubmittedAt
		switch {
		case a == nil && b == nil:
			return items[i].ID < items[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.After(*b)
		}
		return items[i].ID < items[j].ID
	})
}
