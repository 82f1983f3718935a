package lease

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ceyewan/leaseflake/xerrors"
)

// RedisStore 基于 Redis 的租约存储
type RedisStore struct {
	client redis.Cmdable
}

// NewRedisStore 创建 Redis 租约存储，client 的生命周期由调用方管理
func NewRedisStore(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, xerrors.Wrapf(xerrors.Combine(ErrStore, err), "redis setnx %s", key)
	}
	return ok, nil
}

func (s *RedisStore) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.Expire(ctx, key, ttl).Result()
	if err != nil {
		return false, xerrors.Wrapf(xerrors.Combine(ErrStore, err), "redis expire %s", key)
	}
	return ok, nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, xerrors.Wrapf(xerrors.Combine(ErrStore, err), "redis del %s", key)
	}
	return n > 0, nil
}
