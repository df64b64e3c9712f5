package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "flightsync:"

// RedisConfig holds connection settings for NewRedisCache.
type RedisConfig struct {
	Addr         string
	Password     string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type redisCache struct {
	client *redis.Client
}

// NewRedisCache returns a Cache implemented with Redis. Keys are stored
// under the "flightsync:" namespace. Zero timeouts keep the go-redis
// defaults. Failed commands are not retried.
func NewRedisCache(cfg RedisConfig) Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   -1,
	})
	return &redisCache{client: rdb}
}

func (r *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, keyPrefix+key, value, ttl).Err()
}

func (r *redisCache) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return val, err
}

func (r *redisCache) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, keyPrefix+key).Err()
}
