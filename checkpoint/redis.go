package checkpoint

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL is the spec's reference TTL for the shared key-value cache
// backend: long enough that a running pipeline never sees its own
// checkpoint evicted, short enough to eventually reclaim abandoned
// pipelines.
const DefaultTTL = 365 * 24 * time.Hour

// RedisStore is the reference checkpoint store backend described by
// spec.md §4.2/§9: a shared key-value cache with a per-deployment key
// prefix and an optional TTL.
//
// TTL exists to reclaim abandoned pipelines, not for correctness: a Load
// that misses because the key expired is indistinguishable from a pipeline
// that has never saved a checkpoint, and the runtime treats both the same
// way (source started with fromCheckpoint = nil). Callers needing
// durability stronger than TTL eviction should use SQLiteStore/MySQLStore
// instead.
type RedisStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithRedisKeyPrefix namespaces all keys written by this store, so that
// multiple deployments (or pipeline families) can share one Redis
// instance without colliding.
func WithRedisKeyPrefix(prefix string) RedisStoreOption {
	return func(s *RedisStore) { s.keyPrefix = prefix }
}

// WithRedisTTL overrides DefaultTTL. A zero duration disables expiry.
func WithRedisTTL(ttl time.Duration) RedisStoreOption {
	return func(s *RedisStore) { s.ttl = ttl }
}

// NewRedisStore wraps an existing *redis.Client. The caller owns the
// client's lifecycle (construction, auth, and Close).
func NewRedisStore(client *redis.Client, opts ...RedisStoreOption) *RedisStore {
	s := &RedisStore{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *RedisStore) key(pipelineID string) string {
	if s.keyPrefix == "" {
		return "ingestrt:checkpoint:" + pipelineID
	}
	return s.keyPrefix + ":ingestrt:checkpoint:" + pipelineID
}

// Load returns (nil, nil) both when the pipeline has never saved a
// checkpoint and when the cache has evicted it — the two are
// indistinguishable by design.
func (s *RedisStore) Load(ctx context.Context, pipelineID string) (Checkpoint, error) {
	raw, err := s.client.Get(ctx, s.key(pipelineID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: redis load %q: %w", pipelineID, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal %q: %w", pipelineID, err)
	}
	return cp, nil
}

// Save atomically overwrites the cached checkpoint with a fresh TTL.
func (s *RedisStore) Save(ctx context.Context, pipelineID string, cp Checkpoint) error {
	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal %q: %w", pipelineID, err)
	}

	if err := s.client.Set(ctx, s.key(pipelineID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("checkpoint: redis save %q: %w", pipelineID, err)
	}
	return nil
}
