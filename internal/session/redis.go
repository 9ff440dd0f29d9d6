package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps bag snapshots in Redis. Every read or write slides the expiry.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a store whose sessions expire after ttl of inactivity.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisClient connects to Redis and verifies the connection.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (s *RedisStore) LoadBag(ctx context.Context, sessionID string) ([]byte, error) {
	key := bagKey(sessionID)

	data, err := s.client.GetEx(ctx, key, s.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

func (s *RedisStore) SaveBag(ctx context.Context, sessionID string, bag []byte) error {
	if err := s.client.Set(ctx, bagKey(sessionID), bag, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearBag(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, bagKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func bagKey(sessionID string) string {
	return fmt.Sprintf("session:%s:bag", sessionID)
}
