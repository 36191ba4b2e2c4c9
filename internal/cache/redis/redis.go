// Package redis is implementation of cache storage over redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/socialconnect/feed/internal/cache"
)

type storage struct {
	c      redis.UniversalClient
	prefix string
}

// New creates new instance of redis cache storage. All keys are prefixed with prefix.
func New(c redis.UniversalClient, prefix string) cache.Storage {
	return storage{
		c:      c,
		prefix: prefix,
	}
}

func (s storage) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.c.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, cache.ErrMiss
		}

		return nil, fmt.Errorf("failed to get: %w", err)
	}

	return b, nil
}

func (s storage) Set(ctx context.Context, key string, content []byte, ttl time.Duration) error {
	if err := s.c.Set(ctx, s.prefix+key, content, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set: %w", err)
	}

	return nil
}

func (s storage) Ping(ctx context.Context) error {
	if err := s.c.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping: %w", err)
	}

	return nil
}
