// Package cache provides the injectable cache used by the read-side
// services. Implementations must be safe for concurrent use; callers
// treat every cache failure as a miss.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented cache with per-entry TTL and explicit
// invalidation. Services receive it via injection so tests can swap in
// Noop and deployments can choose redis or in-process memory.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Noop discards every write and always misses.
type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) Get(ctx context.Context, key string) ([]byte, bool, error) { return nil, false, nil }

func (Noop) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error { return nil }

func (Noop) Delete(ctx context.Context, keys ...string) error { return nil }
