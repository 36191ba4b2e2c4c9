// Package cache contains a byte cache interface shared by feed pages and http responses.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned when key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Storage ...
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, content []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
}
