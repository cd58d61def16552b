package credentials

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vishvjeettanwar1623/ProfileAuditor/internal/types"
)

// RedisStore shares handles between processes through Redis. Keys expire
// after the configured TTL so abandoned sessions do not linger.
type RedisStore struct {
	rdb     redis.Cmdable
	session string
	ttl     time.Duration
}

// NewRedisStore wraps an existing client. A ttl of zero keeps keys forever.
func NewRedisStore(rdb redis.Cmdable, session string, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, session: session, ttl: ttl}
}

// OpenRedis connects to the Redis server at url and checks it responds.
func OpenRedis(ctx context.Context, url, session string, ttl time.Duration) (*RedisStore, *redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, nil, fmt.Errorf("credentials: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("credentials: ping redis: %w", err)
	}
	return NewRedisStore(client, session, ttl), client, nil
}

func (r *RedisStore) key(p types.Provider) string {
	return "profile_auditor:" + r.session + ":" + p.StorageKey()
}

func (r *RedisStore) Get(ctx context.Context, p types.Provider) (string, error) {
	v, err := r.rdb.Get(ctx, r.key(p)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

func (r *RedisStore) Set(ctx context.Context, p types.Provider, value string) error {
	if value == "" {
		return r.rdb.Del(ctx, r.key(p)).Err()
	}
	return r.rdb.Set(ctx, r.key(p), value, r.ttl).Err()
}

func (r *RedisStore) Clear(ctx context.Context) error {
	keys := make([]string, 0, len(types.Providers))
	for _, p := range types.Providers {
		keys = append(keys, r.key(p))
	}
	return r.rdb.Del(ctx, keys...).Err()
}
