// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "session:"

// RedisStore keeps sessions in Redis with a TTL matching the session lifetime.
type RedisStore struct {
	client *redis.Client
}

// NewRedisClient parses url, connects and pings the server.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return client, nil
}

// NewRedisStore creates a store using the given client.
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Load(ctx context.Context, id string) (map[string]string, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	values := make(map[string]string)
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return values, nil
}

func (s *RedisStore) Save(ctx context.Context, id string, values map[string]string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return s.Delete(ctx, id)
	}
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return s.client.Set(ctx, redisKeyPrefix+id, data, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, redisKeyPrefix+id).Err()
}
