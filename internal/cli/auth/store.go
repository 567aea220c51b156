package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/koinsera/botadmin/internal/config"
)

// ErrNotAuthenticated is returned by LoadToken when no token is stored
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'botadmin login' first")

// TokenStore defines the interface for token storage operations.
// Tokens are keyed by server base URL.
type TokenStore interface {
	SaveToken(server, token string) error
	LoadToken(server string) (string, error)
	DeleteToken(server string) error
}

// Open returns the token store selected by cfg
func Open(cfg config.TokenStoreConfig) (TokenStore, error) {
	switch cfg.Backend {
	case "", config.StoreKeyring:
		return NewKeyringStore(), nil
	case config.StoreFile:
		return NewFileStore(cfg.SessionFile), nil
	case config.StoreRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddress})
		ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to connect to token store at %s: %w", cfg.RedisAddress, err)
		}
		return NewRedisStore(client, cfg.RedisPrefix), nil
	case config.StoreMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown token store %q", cfg.Backend)
	}
}
