package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// CollectionLimiters holds one token bucket per upstream collection.
// The billing backend throttles bursty callers, so every fetch and
// mutation waits for a token before leaving this process.
// Burst is set equal to the rate so no extra burst capacity is allowed
// beyond the configured per-second maximum.
type CollectionLimiters struct {
	limiters map[string]*rate.Limiter
	fallback *rate.Limiter
}

// New creates a CollectionLimiters with ratePerSec tokens per second for
// each named collection partition. Unknown partitions share a fallback
// limiter rather than going unthrottled.
func New(ratePerSec int, partitions []string) *CollectionLimiters {
	r := rate.Limit(ratePerSec)
	burst := ratePerSec // burst == rate: prevents any "saved up" burst above the limit

	limiters := make(map[string]*rate.Limiter, len(partitions))
	for _, p := range partitions {
		limiters[p] = rate.NewLimiter(r, burst)
	}
	return &CollectionLimiters{
		limiters: limiters,
		fallback: rate.NewLimiter(r, burst),
	}
}

// Wait blocks until the collection's limiter grants a token.
// Returns a non-nil error only if ctx is cancelled while waiting.
func (cl *CollectionLimiters) Wait(ctx context.Context, partition string) error {
	if l, ok := cl.limiters[partition]; ok {
		return l.Wait(ctx)
	}
	return cl.fallback.Wait(ctx)
}
