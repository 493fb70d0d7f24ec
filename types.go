package authcore

import (
	"context"
	"time"

	"github.com/nexlify/authcore/blacklist"
	"github.com/nexlify/authcore/device"
	"github.com/nexlify/authcore/refresh"
)

// UserRecord is the user-state surface the engine reads. The engine
// never owns users: it consumes identity, role, password-change and
// lock state, and writes nothing back except the best-effort
// last-active touch.
type UserRecord struct {
	ID                string
	Role              string
	PasswordChangedAt time.Time
	Locked            bool
	LockUntil         time.Time
}

// UserProvider is the interface callers implement to integrate authcore
// with their user database.
//
// GetUserByID must return [ErrUserNotFound] (possibly wrapped) when the
// user does not exist; any other error is treated as a backend outage
// and surfaces as [ErrStoreUnavailable]. TouchLastActive is best-effort:
// the engine logs a failure and moves on, it never fails a request.
type UserProvider interface {
	GetUserByID(ctx context.Context, userID string) (UserRecord, error)
	TouchLastActive(ctx context.Context, userID string) error
}

// Identity is the verified result attached to a request after a
// successful [Engine.Verify]. Token carries the raw access token value
// because logout needs the exact token to blacklist it.
type Identity struct {
	UserID    string
	Role      string
	Token     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is the result of [Engine.Issue] and [Engine.Rotate]: a
// signed access token and its paired opaque refresh token, with both
// expiry instants.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// RevocationScope selects the logout mode. The two scopes are mutually
// exclusive: single-device retires one named refresh token, all-devices
// retires every active refresh token the user holds.
type RevocationScope uint8

const (
	// ScopeSingle revokes the one refresh token named in the call.
	ScopeSingle RevocationScope = iota
	// ScopeAllDevices revokes every active refresh token for the user.
	ScopeAllDevices
)

// RevocationReason records why an access token was blacklisted.
type RevocationReason = blacklist.Reason

const (
	// ReasonLogout is an ordinary user-initiated logout.
	ReasonLogout = blacklist.ReasonLogout
	// ReasonSecurityBreach marks tokens invalidated after a detected compromise.
	ReasonSecurityBreach = blacklist.ReasonSecurityBreach
	// ReasonPasswordChange marks tokens proactively invalidated by a password change.
	ReasonPasswordChange = blacklist.ReasonPasswordChange
	// ReasonAdminRevoke marks tokens revoked by an operator.
	ReasonAdminRevoke = blacklist.ReasonAdminRevoke
)

// BlacklistEntry is the persisted record of one revoked access token.
type BlacklistEntry = blacklist.Entry

// RefreshToken is the persisted record of one opaque refresh token.
type RefreshToken = refresh.Token

// DeviceInfo is the best-effort device classification bound to a
// refresh record at creation.
type DeviceInfo = device.Info
