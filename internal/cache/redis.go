package cache

import (
	"context"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// redisClient implementa Client sobre Redis.
type redisClient struct {
	c      *rdb.Client
	prefix string
}

func newRedis(addr string, db int, prefix string) *redisClient {
	if prefix == "" {
		prefix = "admind:"
	}
	return &redisClient{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, DB: db}),
		prefix: prefix,
	}
}

func (r *redisClient) key(k string) string { return r.prefix + k }

func (r *redisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Get(ctx, r.key(key)).Result()
	if errors.Is(err, rdb.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.c.Set(ctx, r.key(key), value, ttl).Err()
}

func (r *redisClient) Delete(ctx context.Context, key string) error {
	return r.c.Del(ctx, r.key(key)).Err()
}

func (r *redisClient) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	k := r.key(key)
	pipe := r.c.TxPipeline()
	incr := pipe.Incr(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	// expiry solo en el primer hit de la ventana
	if incr.Val() == 1 && ttl > 0 {
		_ = r.c.Expire(ctx, k, ttl).Err()
	}
	return incr.Val(), nil
}

func (r *redisClient) Ping(ctx context.Context) error { return r.c.Ping(ctx).Err() }
func (r *redisClient) Close() error                   { return r.c.Close() }
