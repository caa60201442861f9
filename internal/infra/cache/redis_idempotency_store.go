package cache

import (
	"context"
	"time"

	"oms/internal/usecase"

	"github.com/redis/go-redis/v9"
)

// 重複チェックアウト送信のガード。キーは呼び出し側が付ける。
type RedisIdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisIdempotencyStore(rdb *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{rdb: rdb, ttl: ttl}
}

// TryLock は同じキーの同時実行を1つに制限する
func (s *RedisIdempotencyStore) TryLock(ctx context.Context, scope string, key string) (bool, error) {
	return s.rdb.SetNX(ctx, "idemp:"+scope+":"+key, "1", s.ttl).Result()
}

// Unlock はロックを外す。失敗したチェックアウトは同じキーで再試行できる。
func (s *RedisIdempotencyStore) Unlock(ctx context.Context, scope string, key string) error {
	return s.rdb.Del(ctx, "idemp:"+scope+":"+key).Err()
}

// Remember は完了した結果（注文ID）をキーに紐付ける
func (s *RedisIdempotencyStore) Remember(ctx context.Context, scope string, key string, value string) error {
	return s.rdb.Set(ctx, "idemp:map:"+scope+":"+key, value, s.ttl).Err()
}

// Recall は同じキーの過去の結果を引く
func (s *RedisIdempotencyStore) Recall(ctx context.Context, scope string, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, "idemp:map:"+scope+":"+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

var _ usecase.IdempotencyStore = (*RedisIdempotencyStore)(nil)
