package authcore

import (
	"errors"
	"fmt"
	"time"
)

// The error set below is closed: every failure Verify, Rotate, and
// Revoke can return matches exactly one of these values under
// errors.Is. Callers branch on identity, never on error strings.
var (
	// ErrNoToken is returned when a request carries no bearer token.
	ErrNoToken = errors.New("no bearer token")
	// ErrTokenInvalid is returned when an access token's signature or structure fails verification.
	ErrTokenInvalid = errors.New("invalid access token")
	// ErrTokenExpired is returned when an access token is past its signed expiry.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenRevoked is returned when an access token has been explicitly blacklisted.
	ErrTokenRevoked = errors.New("access token revoked")
	// ErrTokenMalformed is returned when a token cannot be decoded into a claims structure at all.
	ErrTokenMalformed = errors.New("malformed access token")
	// ErrUserGone is returned when the token's subject no longer exists.
	ErrUserGone = errors.New("user no longer exists")
	// ErrUserNotFound is the value a [UserProvider] must return for a missing user,
	// so the engine can tell absence apart from a backend outage.
	ErrUserNotFound = errors.New("user not found")
	// ErrPasswordChanged is returned when an access token predates the
	// subject's most recent password change. The token is blacklisted as
	// a side effect.
	ErrPasswordChanged = errors.New("access token predates password change")
	// ErrAccountLocked is the errors.Is target for [LockedError].
	ErrAccountLocked = errors.New("account locked")
	// ErrRefreshInvalid is returned for any unusable refresh token:
	// unknown, already rotated, revoked, or expired. The causes collapse
	// deliberately so they cannot be told apart from outside.
	ErrRefreshInvalid = errors.New("invalid refresh token")
	// ErrRotateRateLimited is returned when the optional rotation throttle trips.
	ErrRotateRateLimited = errors.New("rotation rate limited")
	// ErrInvalidScope is returned when Revoke is called with an unusable scope/argument combination.
	ErrInvalidScope = errors.New("invalid revocation scope")
	// ErrStoreUnavailable marks an infrastructure outage. It is never
	// returned for an authorization decision, so a caller cannot mistake
	// a Redis failure for "this user is unauthorized".
	ErrStoreUnavailable = errors.New("auth store unavailable")
	// ErrEngineNotReady is returned when an Engine method is called on a nil or unbuilt engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// LockedError is the one structured failure kind: a temporary rejection
// carrying when the lock lifts. It matches [ErrAccountLocked] under
// errors.Is.
type LockedError struct {
	Until time.Time
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.Format(time.RFC3339))
}

// Is reports whether target is [ErrAccountLocked].
func (e *LockedError) Is(target error) bool {
	return target == ErrAccountLocked
}

func wrapUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
