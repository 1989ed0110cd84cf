// Package checkpoint provides the per-pipeline checkpoint store contract
// (C2) and its backends: an in-process map for tests, SQLite/MySQL-backed
// stores for a single durable process, and a Redis-backed store matching
// the spec's reference "shared key-value cache with TTL" design.
package checkpoint

import "context"

// Checkpoint is an opaque, provider-defined keyed container. The runtime
// never interprets its contents; it only stores and restores it.
type Checkpoint map[string]any

// Store persists and loads a per-pipeline cursor value.
//
// Load returns (nil, nil) when nothing has ever been saved for the given
// pipeline id, or when the store has since evicted the value (e.g. TTL
// expiry on a cache-backed store) — the two cases are indistinguishable,
// by design (see spec.md §9): a restart after eviction looks exactly like
// a cold start.
//
// Save must be ordering-safe: consecutive saves from a single processor
// instance are serialized by the caller (the event processor never issues
// concurrent saves for the same pipeline id), but implementations must
// still guarantee that a failed save never leaves a value observable by a
// subsequent Load that is neither the previous value nor the new one.
type Store interface {
	Load(ctx context.Context, pipelineID string) (Checkpoint, error)
	Save(ctx context.Context, pipelineID string, cp Checkpoint) error
}
