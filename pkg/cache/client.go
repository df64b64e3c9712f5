package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Cache stores string values under keys with a time-to-live. Implementations
// return ErrMiss from Get for absent or expired keys.
type Cache interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}

// GetJSON reads key and decodes it into a T. A decode failure is returned
// as an error, not as a miss.
func GetJSON[T any](ctx context.Context, c Cache, key string) (T, error) {
	var v T

	raw, err := c.Get(ctx, key)
	if err != nil {
		return v, err
	}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return v, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return v, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON[T any](ctx context.Context, c Cache, key string, v T, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s for cache: %w", key, err)
	}
	return c.Set(ctx, key, string(b), ttl)
}
