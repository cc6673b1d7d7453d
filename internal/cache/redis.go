package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewRedisCache(client *redis.Client, baseTTL time.Duration, logger *zap.Logger) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: baseTTL,
		logger:  logger,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
	logger  *zap.Logger
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	if err := r.client.Set(ctx, redisKey(key), value, r.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCache) Generation(ctx context.Context, key string) (int64, error) {
	gen, err := r.client.Get(ctx, generationKey(key)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get generation failed: %w", err)
	}
	return gen, nil
}

// SetAt writes value inside a WATCH on the generation key, so a concurrent
// Invalidate aborts the write.
func (r *RedisCache) SetAt(ctx context.Context, key string, gen int64, value []byte) (bool, error) {
	genKey := generationKey(key)
	stored := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, redisKey(key), value, r.ttl())
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, genKey)

	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis set failed: %w", err)
	}
	return stored, nil
}

// Invalidate deletes the value and bumps its generation in one transaction.
func (r *RedisCache) Invalidate(ctx context.Context, key string) {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, redisKey(key))
		pipe.Incr(ctx, generationKey(key))
		return nil
	})
	if err != nil {
		r.logger.Warn("redis delete failed", zap.String("key", key), zap.Error(err))
	}
}

func (r *RedisCache) ttl() time.Duration {
	jitter := time.Duration(rand.Intn(30)) * time.Second
	return r.baseTTL + jitter
}

func redisKey(key string) string {
	return fmt.Sprintf("catalog:%s", key)
}

func generationKey(key string) string {
	return fmt.Sprintf("catalog:%s:gen", key)
}
