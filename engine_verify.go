package authcore

import (
	"context"
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/nexlify/authcore/blacklist"
)

// Verify runs the per-request verification pipeline on an access token
// and returns the authenticated identity. The pipeline is ordered and
// short-circuiting:
//
//  1. missing token: [ErrNoToken]
//  2. blacklist membership: [ErrTokenRevoked]; checked before the
//     signature so a stolen-but-well-formed revoked token is rejected
//     uniformly
//  3. signature and expiry: [ErrTokenInvalid] / [ErrTokenExpired] /
//     [ErrTokenMalformed]
//  4. subject existence: [ErrUserGone]
//  5. issued-at vs the subject's last password change: the stale
//     token is blacklisted on the spot, then [ErrPasswordChanged]
//  6. account lock: [*LockedError]
//  7. success: best-effort last-active touch, identity attached
func (e *Engine) Verify(ctx context.Context, accessToken string) (*Identity, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	if accessToken == "" {
		e.metricInc(MetricVerifyFailure)
		return nil, ErrNoToken
	}

	revoked, err := e.blacklistStore.IsBlacklisted(ctx, accessToken)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	if revoked {
		e.metricInc(MetricVerifyRevoked)
		e.metricInc(MetricVerifyFailure)
		return nil, ErrTokenRevoked
	}

	claims, err := e.jwtManager.ParseAccess(accessToken)
	if err != nil {
		e.metricInc(MetricVerifyFailure)
		return nil, mapParseError(err)
	}

	user, err := e.userProvider.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			e.metricInc(MetricVerifyFailure)
			return nil, ErrUserGone
		}
		return nil, wrapUnavailable(err)
	}

	if !user.PasswordChangedAt.IsZero() &&
		claims.IssuedAt != nil &&
		claims.IssuedAt.Time.Before(user.PasswordChangedAt) {
		// Close the window: without this, a token minted before the
		// password change would stay valid until its natural expiry.
		if _, blErr := e.blacklistStore.Add(ctx, accessToken, user.ID, blacklist.ReasonPasswordChange); blErr != nil {
			e.warn("proactive blacklist insert failed",
				zap.String("user_id", user.ID),
				zap.Error(blErr),
			)
		}
		e.metricInc(MetricPasswordChangeInvalidated)
		e.metricInc(MetricVerifyFailure)
		return nil, ErrPasswordChanged
	}

	if user.Locked && (user.LockUntil.IsZero() || user.LockUntil.After(time.Now())) {
		e.metricInc(MetricVerifyFailure)
		return nil, &LockedError{Until: user.LockUntil}
	}

	if err := e.userProvider.TouchLastActive(ctx, user.ID); err != nil {
		e.warn("last-active touch failed",
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
	}

	e.metricInc(MetricVerifySuccess)

	identity := &Identity{
		UserID: user.ID,
		Role:   claims.Role,
		Token:  accessToken,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpiresAt = claims.ExpiresAt.Time
	}

	return identity, nil
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, jwtlib.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwtlib.ErrTokenMalformed):
		return ErrTokenMalformed
	default:
		return ErrTokenInvalid
	}
}
