package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aquagrid/approval-engine/internal/domain"
)

// Redis shares collection snapshots across portal instances, so an
// invalidation issued by one instance's dispatcher is seen by all of
// them. Snapshots are stored as JSON under a "collection:" prefix with
// the configured TTL.
type Redis struct {
	client *redis.Client
	fetch  Fetch
	ttl    time.Duration
	prefix string
}

// NewRedis creates a store from an existing Redis client.
func NewRedis(client *redis.Client, fetch Fetch, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		fetch:  fetch,
		ttl:    ttl,
		prefix: "collection:",
	}
}

// NewRedisFromURL connects to the given redis:// URL and verifies
// connectivity before returning the store.
func NewRedisFromURL(redisURL string, fetch Fetch, ttl time.Duration) (*Redis, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedis(client, fetch, ttl), nil
}

func (r *Redis) key(partition string) string {
	return r.prefix + partition
}

func (r *Redis) Get(ctx context.Context, partition string) ([]domain.Record, error) {
	raw, err := r.client.Get(ctx, r.key(partition)).Bytes()
	if errors.Is(err, redis.Nil) {
		return r.Refetch(ctx, partition)
	}
	if err != nil {
		return nil, fmt.Errorf("read partition %s: %w", partition, err)
	}

	var records []domain.Record
	if err := json.Unmarshal(raw, &records); err != nil {
		// A corrupt snapshot is recoverable: drop it and fetch through.
		return r.Refetch(ctx, partition)
	}
	return records, nil
}

func (r *Redis) Invalidate(ctx context.Context, partition string) error {
	if err := r.client.Del(ctx, r.key(partition)).Err(); err != nil {
		return fmt.Errorf("invalidate partition %s: %w", partition, err)
	}
	return nil
}

func (r *Redis) Refetch(ctx context.Context, partition string) ([]domain.Record, error) {
	if err := r.Invalidate(ctx, partition); err != nil {
		return nil, err
	}

	records, err := r.fetch(ctx, partition)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("marshal partition %s: %w", partition, err)
	}
	if err := r.client.Set(ctx, r.key(partition), raw, r.ttl).Err(); err != nil {
		return nil, fmt.Errorf("store partition %s: %w", partition, err)
	}
	return records, nil
}

// Close releases the underlying Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// compile-time check that Redis implements Store
var _ Store = (*Redis)(nil)
