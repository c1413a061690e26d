package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/aquagrid/approval-engine/internal/cache"
	"github.com/aquagrid/approval-engine/internal/upstream"
)

// RefreshWorker keeps the collection cache warm by refetching every
// partition on a fixed interval. Reviewers then see near-current queue
// state without each page load paying the full upstream round trip.
//
// A decision already refetches its own partition synchronously; this
// worker covers changes made outside the portal (submissions, direct
// backend edits) that no local decision would surface.
type RefreshWorker struct {
	store    cache.Store
	interval time.Duration
	logger   *zap.Logger
}

func NewRefreshWorker(store cache.Store, interval time.Duration, logger *zap.Logger) *RefreshWorker {
	return &RefreshWorker{store: store, interval: interval, logger: logger}
}

// Run refetches all partitions once at startup, then on every tick.
// Stops cleanly when ctx is cancelled.
func (rw *RefreshWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(rw.interval)
	defer ticker.Stop()

	rw.logger.Info("refresh worker started", zap.Duration("interval", rw.interval))

	rw.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			rw.logger.Info("refresh worker stopping")
			return
		case <-ticker.C:
			rw.sweep(ctx)
		}
	}
}

// sweep refetches every partition. One failing partition must not stop
// the others from refreshing; its cached snapshot simply ages one more
// interval.
func (rw *RefreshWorker) sweep(ctx context.Context) {
	start := time.Now()
	refreshed := 0

	for _, partition := range upstream.Partitions() {
		if ctx.Err() != nil {
			return
		}
		if _, err := rw.store.Refetch(ctx, partition); err != nil {
			rw.logger.Warn("partition refresh failed",
				zap.String("partition", partition), zap.Error(err))
			continue
		}
		refreshed++
	}

	rw.logger.Debug("cache sweep complete",
		zap.Int("refreshed", refreshed),
		zap.Duration("elapsed", time.Since(start)))
}
