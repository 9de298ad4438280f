// Package cache holds short-lived keys: resend cooldowns and authorization
// lookups. Redis backs it when configured, an in-process map otherwise.
package cache

import (
	"context"
	"errors"
	"time"
)

var ErrMiss = errors.New("cache miss")

type Store interface {
	// Get returns ErrMiss for absent or expired keys.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetNX stores value only if key is absent and reports whether it did.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// TTL returns the time left on key, or zero when it is absent.
	TTL(ctx context.Context, key string) (time.Duration, error)
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
