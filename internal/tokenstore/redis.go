package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyResetToken = "reset_token:%s"

// RedisStore keeps reset tokens as keys that expire after ttl
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisClient connects to addr and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        addr,
		Password:    password,
		DB:          db,
		DialTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NewRedisStore creates a Redis backed store
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Replace overwrites the key, which also drops the previous token
func (s *RedisStore) Replace(ctx context.Context, userID, hash string) error {
	return s.rdb.Set(ctx, fmt.Sprintf(keyResetToken, userID), hash, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, userID string) (string, error) {
	hash, err := s.rdb.Get(ctx, fmt.Sprintf(keyResetToken, userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrTokenNotFound
	}
	return hash, err
}

func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, fmt.Sprintf(keyResetToken, userID)).Err()
}
