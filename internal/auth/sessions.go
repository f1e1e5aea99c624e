package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionTTL is the fixed lifetime of a login session. Use does not extend it.
const SessionTTL = 24 * time.Hour

const sessionKeyPrefix = "auth_"

// ErrSessionNotFound is returned by Revoke for tokens that resolve to nothing.
var ErrSessionNotFound = errors.New("session not found")

// Sessions maps opaque tokens to user ids in redis.
type Sessions struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewSessions(rdb redis.Cmdable) *Sessions {
	return &Sessions{rdb: rdb, ttl: SessionTTL}
}

func (s *Sessions) key(token string) string {
	return sessionKeyPrefix + token
}

// Create issues a new token for userID.
func (s *Sessions) Create(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return "", errors.New("invalid user id")
	}
	tok, err := NewToken()
	if err != nil {
		return "", err
	}
	if err := s.rdb.Set(ctx, s.key(tok), strconv.FormatInt(userID, 10), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return tok, nil
}

// Resolve returns the user id behind token. ok is false for unknown,
// revoked and expired tokens.
func (s *Sessions) Resolve(ctx context.Context, token string) (int64, bool, error) {
	if token == "" {
		return 0, false, nil
	}
	v, err := s.rdb.Get(ctx, s.key(token)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve session: %w", err)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		// A corrupt value never authenticates anyone.
		return 0, false, nil
	}
	return id, true, nil
}

// Revoke deletes the token. It reports ErrSessionNotFound when the token did
// not resolve, so logout with a stale token stays unauthorized.
func (s *Sessions) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrSessionNotFound
	}
	n, err := s.rdb.Del(ctx, s.key(token)).Result()
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}
