package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redisclient "github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/angelmondragon/storefront-backend/pkg/security"
	"github.com/google/uuid"
)

const sessionTokenBytes = 24

// SessionStore maps opaque client tokens onto cart session ids.
type SessionStore interface {
	Lookup(ctx context.Context, token string) (string, bool, error)
	Mint(ctx context.Context) (token, sessionID string, err error)
	Clear(ctx context.Context, token string) error
}

type sessionBackend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	CartSessionKey(token string) string
}

// RedisSessionStore keeps session pointers in Redis with a sliding TTL.
type RedisSessionStore struct {
	backend sessionBackend
	ttl     time.Duration
}

// NewRedisSessionStore builds a session store over the shared redis client.
func NewRedisSessionStore(backend sessionBackend, ttl time.Duration) (*RedisSessionStore, error) {
	if backend == nil {
		return nil, fmt.Errorf("redis backend required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cart session ttl must be positive")
	}
	return &RedisSessionStore{backend: backend, ttl: ttl}, nil
}

// Lookup resolves token and slides its expiry. Unknown or expired tokens report false.
func (s *RedisSessionStore) Lookup(ctx context.Context, token string) (string, bool, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false, nil
	}
	key := s.backend.CartSessionKey(token)
	sessionID, err := s.backend.Get(ctx, key)
	if err != nil {
		if redisclient.IsNil(err) {
			return "", false, nil
		}
		return "", false, err
	}
	if _, err := s.backend.Expire(ctx, key, s.ttl); err != nil {
		return "", false, err
	}
	return sessionID, true, nil
}

// Mint creates a fresh token and session id pair.
func (s *RedisSessionStore) Mint(ctx context.Context) (string, string, error) {
	token, err := security.RandomToken(sessionTokenBytes)
	if err != nil {
		return "", "", err
	}
	sessionID := uuid.NewString()
	if err := s.backend.Set(ctx, s.backend.CartSessionKey(token), sessionID, s.ttl); err != nil {
		return "", "", err
	}
	return token, sessionID, nil
}

// Clear drops the pointer so the token no longer resolves.
func (s *RedisSessionStore) Clear(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return errors.New("session token required")
	}
	return s.backend.Del(ctx, s.backend.CartSessionKey(token))
}
