package blacklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nexlify/authcore/internal"
	"github.com/nexlify/authcore/jwt"
)

// Reason records why an access token was revoked before its natural
// expiry.
type Reason string

const (
	ReasonLogout         Reason = "logout"
	ReasonSecurityBreach Reason = "security_breach"
	ReasonPasswordChange Reason = "password_change"
	ReasonAdminRevoke    Reason = "admin_revoke"
)

// Entry is one revoked access token. Entries are immutable: created
// once, then removed by Redis key expiry at the token's own exp claim.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	UserID        string    `json:"user_id"`
	Reason        Reason    `json:"reason"`
	BlacklistedAt int64     `json:"blacklisted_at"`
	ExpiresAt     int64     `json:"expires_at"`
}

// ErrRedisUnavailable marks a backend outage, never an authorization
// decision.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrNotFound is returned by [Store.Get] when no entry exists.
var ErrNotFound = errors.New("blacklist entry not found")

// Store persists the set of explicitly revoked access tokens. Keys are
// SHA-256 hashes of the raw token value; each key's TTL equals the
// token's remaining signed validity, so cleanup can never open a window
// where a revoked-but-unexpired token is re-accepted.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a blacklist [Store] backed by the given Redis
// client. prefix sets the key namespace.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "abl"
	}
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *Store) key(token string) string {
	return s.prefix + ":" + internal.HashToken(token)
}

// Add records the token as revoked. The entry's lifetime is decoded
// from the token's own exp claim. The signature is not re-verified
// because the caller has either already established the token's
// validity or is actively invalidating it. Undecodable tokens fail
// with the jwt malformed-token error. A token past its exp is not
// persisted; the returned entry reflects what would have been stored.
// Inserts are idempotent: the token hash is the key, so a duplicate
// Add overwrites an identical entry.
func (s *Store) Add(ctx context.Context, token, userID string, reason Reason) (*Entry, error) {
	claims, err := jwt.DecodeUnverified(token)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &Entry{
		ID:            uuid.New(),
		UserID:        userID,
		Reason:        reason,
		BlacklistedAt: now.Unix(),
		ExpiresAt:     claims.ExpiresAt.Unix(),
	}

	ttl := claims.ExpiresAt.Sub(now)
	if ttl <= 0 {
		return entry, nil
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	if err := s.redis.Set(ctx, s.key(token), data, ttl).Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return entry, nil
}

// IsBlacklisted reports whether the token has been explicitly revoked.
// One EXISTS against the hashed key, safe on the hot path.
func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Get fetches the entry for a token, primarily for audit surfaces and
// tests. Hot-path callers use [Store.IsBlacklisted].
func (s *Store) Get(ctx context.Context, token string) (*Entry, error) {
	data, err := s.redis.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return &entry, nil
}
