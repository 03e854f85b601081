package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or its entry has expired.
var ErrMiss = errors.New("cache: key not found")

// Cache is a distributed key-value store with per-key sliding expiration:
// a successful Get renews the entry's window to slide.
type Cache interface {
	Get(ctx context.Context, key string, slide time.Duration) (string, error)
	Set(ctx context.Context, key, value string, expiry time.Duration) error
	// Incr atomically increments the integer stored at key, creating it at 1,
	// and renews the expiry window.
	Incr(ctx context.Context, key string, expiry time.Duration) (int64, error)
	Delete(ctx context.Context, keys ...string) error
}
