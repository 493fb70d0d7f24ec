package refresh

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nexlify/authcore/device"
	"github.com/nexlify/authcore/internal"
)

// ErrNotFound is returned when a presented token is unknown, already
// revoked terminally, or expired. The three causes collapse to one
// outcome so a caller cannot distinguish "never existed" from
// "already used".
var ErrNotFound = errors.New("refresh token not found")

// ErrReuseDetected is returned when a presented token was already
// retired by rotation. Externally this must be reported identically to
// [ErrNotFound]; the distinct value exists so the engine can count and
// escalate the replay signal.
var ErrReuseDetected = errors.New("refresh token reuse detected")

// ErrCorruptRecord is returned when a stored record cannot be decoded.
var ErrCorruptRecord = errors.New("refresh record corrupt")

// ErrRedisUnavailable marks a backend outage, never an authorization
// decision.
var ErrRedisUnavailable = errors.New("redis unavailable")

const (
	revokeStatusNotFound int64 = 0
	revokeStatusExpired  int64 = 1
	revokeStatusReplaced int64 = 2
	revokeStatusDone     int64 = 3
	revokeStatusCorrupt  int64 = 4
	revokeStatusTerminal int64 = 5
)

// revokeScript applies the terminal revocation transition iff the
// record is still active and unexpired. Revoked records keep their
// remaining TTL so the row disappears exactly when the token would
// have expired anyway.
const revokeScript = `
local key = KEYS[1]
local user_prefix = ARGV[1]
local token_hash = ARGV[2]
local now = tonumber(ARGV[3])
local ip = ARGV[4]

local data = redis.call("GET", key)
if not data then
  return {0}
end

local ok, rec = pcall(cjson.decode, data)
if not ok or type(rec) ~= "table" or not rec.user_id then
  return {4}
end
local user_key = user_prefix .. rec.user_id

if not rec.active then
  redis.call("SREM", user_key, token_hash)
  if rec.replaced_by and rec.replaced_by ~= "" then
    return {2}
  end
  return {5}
end

if rec.expires_at and rec.expires_at <= now then
  redis.call("SREM", user_key, token_hash)
  return {1}
end

local ttl = redis.call("PTTL", key)
if ttl <= 0 then
  redis.call("SREM", user_key, token_hash)
  return {1}
end

rec.active = false
rec.revoked_at = now
if ip ~= "" then
  rec.revoked_by_ip = ip
end

redis.call("SET", key, cjson.encode(rec), "PX", ttl)
redis.call("SREM", user_key, token_hash)
return {3, rec.user_id}
`

var revokeLua = redis.NewScript(revokeScript)

// rotateScript is the single-winner compare-and-swap at the heart of
// the rotation protocol: revoke the old record with a forward link and
// persist its successor in one atomic step. Two concurrent rotations
// of the same token cannot both reach the SET calls.
const rotateScript = `
local old_key = KEYS[1]
local new_key = KEYS[2]
local user_prefix = ARGV[1]
local old_hash = ARGV[2]
local new_hash = ARGV[3]
local now = tonumber(ARGV[4])
local ip = ARGV[5]
local new_record = ARGV[6]
local new_ttl_ms = tonumber(ARGV[7])

local data = redis.call("GET", old_key)
if not data then
  return {0}
end

local ok, rec = pcall(cjson.decode, data)
if not ok or type(rec) ~= "table" or not rec.user_id then
  return {4}
end
local user_key = user_prefix .. rec.user_id

if not rec.active then
  redis.call("SREM", user_key, old_hash)
  if rec.replaced_by and rec.replaced_by ~= "" then
    return {2, rec.user_id}
  end
  return {5}
end

if rec.expires_at and rec.expires_at <= now then
  redis.call("SREM", user_key, old_hash)
  return {1}
end

local ttl = redis.call("PTTL", old_key)
if ttl <= 0 then
  redis.call("SREM", user_key, old_hash)
  return {1}
end

rec.active = false
rec.revoked_at = now
rec.replaced_by = new_hash
if ip ~= "" then
  rec.revoked_by_ip = ip
end

redis.call("SET", old_key, cjson.encode(rec), "PX", ttl)
redis.call("SET", new_key, new_record, "PX", new_ttl_ms)
redis.call("SREM", user_key, old_hash)
redis.call("SADD", user_key, new_hash)
return {3, rec.user_id}
`

var rotateLua = redis.NewScript(rotateScript)

// Store persists refresh-token records in Redis. Records expire through
// native key TTLs; every read re-checks expiry against the clock so
// eviction latency can never re-admit a stale token.
type Store struct {
	redis      redis.UniversalClient
	prefix     string
	userPrefix string
}

// NewStore creates a refresh token [Store] backed by the given Redis
// client. prefix sets the record key namespace; the per-user index uses
// prefix+"u".
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = "arf"
	}
	return &Store{
		redis:      redisClient,
		prefix:     prefix,
		userPrefix: prefix + "u",
	}
}

func (s *Store) key(tokenHash string) string {
	return s.prefix + ":" + tokenHash
}

func (s *Store) userKey(userID string) string {
	return s.userPrefix + ":" + userID
}

func (s *Store) newRecord(userID, ip string, dev device.Info, ttl time.Duration, now time.Time) *Token {
	return &Token{
		ID:          uuid.New(),
		UserID:      userID,
		Active:      true,
		CreatedAt:   now.Unix(),
		ExpiresAt:   now.Add(ttl).Unix(),
		CreatedByIP: ip,
		Device:      dev,
	}
}

// Create mints a new active record bound to the issuing IP and device
// classification and returns it with the opaque plaintext value. The
// value is not recoverable afterwards.
func (s *Store) Create(ctx context.Context, userID, ip string, dev device.Info, ttl time.Duration) (*Token, string, error) {
	value, err := internal.NewRefreshValue()
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	rec := s.newRecord(userID, ip, dev, ttl, now)

	data, err := encodeToken(rec)
	if err != nil {
		return nil, "", err
	}

	tokenHash := internal.HashToken(value)
	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(tokenHash), data, ttl)
		pipe.SAdd(ctx, s.userKey(userID), tokenHash)
		return nil
	})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return rec, value, nil
}

// LookupActive resolves a presented value to its record iff the record
// is active and unexpired. Unknown, revoked, and expired all collapse
// to [ErrNotFound].
func (s *Store) LookupActive(ctx context.Context, value string) (*Token, error) {
	rec, err := s.Peek(ctx, value)
	if err != nil {
		return nil, err
	}
	if !rec.UsableAt(time.Now()) {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Peek fetches a record in any state without mutating it. Intended for
// replay inspection and tests, not for the rotation hot path.
func (s *Store) Peek(ctx context.Context, value string) (*Token, error) {
	data, err := s.redis.Get(ctx, s.key(internal.HashToken(value))).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	rec, err := decodeToken(data)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Rotate retires the record behind oldValue and persists its successor
// in one atomic compare-and-swap. Exactly one concurrent caller
// observes success; the others see [ErrNotFound] or [ErrReuseDetected].
// The successor belongs to userID (the old record's resolved owner) and
// is bound to the rotating IP and device classification.
func (s *Store) Rotate(ctx context.Context, oldValue, userID, ip string, dev device.Info, ttl time.Duration) (*Token, string, error) {
	newValue, err := internal.NewRefreshValue()
	if err != nil {
		return nil, "", err
	}

	oldHash := internal.HashToken(oldValue)
	newHash := internal.HashToken(newValue)

	now := time.Now()
	successor := s.newRecord(userID, ip, dev, ttl, now)
	data, err := encodeToken(successor)
	if err != nil {
		return nil, "", err
	}

	result, err := rotateLua.Run(
		ctx,
		s.redis,
		[]string{s.key(oldHash), s.key(newHash)},
		s.userPrefix+":",
		oldHash,
		newHash,
		now.Unix(),
		ip,
		data,
		ttl.Milliseconds(),
	).Result()
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	code, err := scriptStatus(result)
	if err != nil {
		return nil, "", err
	}

	switch code {
	case revokeStatusDone:
		return successor, newValue, nil
	case revokeStatusReplaced:
		return nil, "", ErrReuseDetected
	case revokeStatusNotFound, revokeStatusExpired, revokeStatusTerminal:
		return nil, "", ErrNotFound
	case revokeStatusCorrupt:
		return nil, "", errors.Join(ErrRedisUnavailable, ErrCorruptRecord)
	default:
		return nil, "", fmt.Errorf("%w: unknown rotate script status %d", ErrRedisUnavailable, code)
	}
}

// Revoke applies the terminal revocation transition to the record
// behind value. Only an active, unexpired record transitions; anything
// else reports [ErrNotFound] or [ErrReuseDetected].
func (s *Store) Revoke(ctx context.Context, value, ip string) error {
	return s.revokeByHash(ctx, internal.HashToken(value), ip)
}

func (s *Store) revokeByHash(ctx context.Context, tokenHash, ip string) error {
	result, err := revokeLua.Run(
		ctx,
		s.redis,
		[]string{s.key(tokenHash)},
		s.userPrefix+":",
		tokenHash,
		time.Now().Unix(),
		ip,
	).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	code, err := scriptStatus(result)
	if err != nil {
		return err
	}

	switch code {
	case revokeStatusDone:
		return nil
	case revokeStatusReplaced:
		return ErrReuseDetected
	case revokeStatusNotFound, revokeStatusExpired, revokeStatusTerminal:
		return ErrNotFound
	case revokeStatusCorrupt:
		return errors.Join(ErrRedisUnavailable, ErrCorruptRecord)
	default:
		return fmt.Errorf("%w: unknown revoke script status %d", ErrRedisUnavailable, code)
	}
}

// RevokeAllForUser marks every active record for the user
// inactive-terminal and returns how many transitioned. Already-inactive
// records are skipped, so the call is idempotent.
func (s *Store) RevokeAllForUser(ctx context.Context, userID, ip string) (int, error) {
	userKey := s.userKey(userID)

	hashes, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	revoked := 0
	for _, tokenHash := range hashes {
		err := s.revokeByHash(ctx, tokenHash, ip)
		switch {
		case err == nil:
			revoked++
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrReuseDetected):
			// Stale index entry; the script already pruned it.
		default:
			return revoked, err
		}
	}

	return revoked, nil
}

// ActiveCount returns the number of indexed token hashes for a user.
// The index is pruned lazily, so this is an upper bound, not an audit.
func (s *Store) ActiveCount(ctx context.Context, userID string) (int, error) {
	count, err := s.redis.SCard(ctx, s.userKey(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(count), nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func scriptStatus(result interface{}) (int64, error) {
	parts, ok := result.([]interface{})
	if !ok || len(parts) == 0 {
		return 0, fmt.Errorf("%w: invalid script response", ErrRedisUnavailable)
	}
	code, ok := parts[0].(int64)
	if !ok {
		return 0, fmt.Errorf("%w: invalid script status", ErrRedisUnavailable)
	}
	return code, nil
}
