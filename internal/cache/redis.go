// Package cache provides the Redis-backed read-through cache used for the
// product catalog.
//
// Entries are written under "<namespace>:g<generation>:<key>". Invalidate
// bumps the generation counter, so every earlier entry becomes unreachable
// at once and simply ages out through its TTL.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/safar/go-storefront/internal/logger"
)

const generationKey = "generation"

type Options struct {
	RedisURL  string
	Namespace string
	TTL       time.Duration
	Logger    *logger.Logger
}

type Redis struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	log       *logger.Logger
}

func NewRedis(ctx context.Context, opts Options) (*Redis, error) {
	if opts.RedisURL == "" {
		return nil, errors.New("redis URL is required")
	}

	redisOpt, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	client := redis.NewClient(redisOpt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if opts.TTL <= 0 {
		opts.TTL = time.Minute
	}

	r := &Redis{
		client:    client,
		namespace: opts.Namespace,
		ttl:       opts.TTL,
		log:       opts.Logger,
	}

	r.log.Info("Redis cache connected",
		zap.String("namespace", r.namespace),
		zap.Int("db", redisOpt.DB),
		zap.Duration("ttl", r.ttl))

	return r, nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) formatKey(key string) string {
	if r.namespace != "" {
		return fmt.Sprintf("%s:%s", r.namespace, key)
	}
	return key
}

// Generation returns the current cache generation. Entries are read and
// written under an explicit generation so a fill that started before an
// Invalidate lands in the retired generation.
func (r *Redis) Generation(ctx context.Context) (int64, error) {
	gen, err := r.client.Get(ctx, r.formatKey(generationKey)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		r.log.Warn("cache generation lookup failed", zap.Error(err))
		return 0, err
	}
	return gen, nil
}

func (r *Redis) entryKey(gen int64, key string) string {
	return r.formatKey(fmt.Sprintf("g%d:%s", gen, key))
}

// Get decodes the JSON cached for key in generation gen into dst. A miss
// returns false and no error.
func (r *Redis) Get(ctx context.Context, gen int64, key string, dst interface{}) (bool, error) {
	fullKey := r.entryKey(gen, key)

	data, err := r.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		r.log.Warn("cache get failed", zap.String("key", fullKey), zap.Error(err))
		return false, err
	}

	if err := json.Unmarshal(data, dst); err != nil {
		r.log.Warn("cache entry undecodable", zap.String("key", fullKey), zap.Error(err))
		return false, err
	}

	return true, nil
}

func (r *Redis) Set(ctx context.Context, gen int64, key string, value interface{}) error {
	fullKey := r.entryKey(gen, key)

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := r.client.Set(ctx, fullKey, data, r.ttl).Err(); err != nil {
		r.log.Warn("cache set failed", zap.String("key", fullKey), zap.Error(err))
		return err
	}

	return nil
}

func (r *Redis) Invalidate(ctx context.Context) error {
	if err := r.client.Incr(ctx, r.formatKey(generationKey)).Err(); err != nil {
		r.log.Error("cache invalidation failed", zap.Error(err))
		return err
	}
	return nil
}
