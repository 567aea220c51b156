package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisTimeout = 5 * time.Second

// RedisStore keeps tokens in Redis so operators on several machines can
// share one session. Keys expire together with the token when its exp
// claim can be read.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore returns a store using client with keys under prefix
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "botadmin"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(server string) string {
	return fmt.Sprintf("%s:token:%s", s.prefix, server)
}

// SaveToken stores the token for server
func (s *RedisStore) SaveToken(server, token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	var ttl time.Duration
	if info, err := InspectToken(token); err == nil && !info.ExpiresAt.IsZero() {
		ttl = time.Until(info.ExpiresAt)
		if ttl <= 0 {
			return fmt.Errorf("failed to save token: token already expired")
		}
	}

	if err := s.client.Set(ctx, s.key(server), token, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken reads the token for server
func (s *RedisStore) LoadToken(server string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	token, err := s.client.Get(ctx, s.key(server)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token for server
func (s *RedisStore) DeleteToken(server string) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	if err := s.client.Del(ctx, s.key(server)).Err(); err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool
func (s *RedisStore) Close() error {
	return s.client.Close()
}
