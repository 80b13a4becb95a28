package ratelimit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps window records as JSON strings with a TTL, so expiry is
// handled entirely by Redis.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) (*Window, error) {
	data, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var w Window
	if err := json.Unmarshal([]byte(data), &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (s *RedisStore) Put(ctx context.Context, key string, w Window, ttl time.Duration) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}
