package authcore

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/nexlify/authcore/blacklist"
	"github.com/nexlify/authcore/jwt"
	"github.com/nexlify/authcore/refresh"
)

// Revoke ends a session: blacklist the caller's current access token
// immediately, then revoke refresh state according to scope.
// [ScopeSingle] retires the one named refresh token terminally;
// [ScopeAllDevices] retires every active refresh token the subject
// holds. The scopes are mutually exclusive and selected explicitly:
// ScopeSingle with an empty refresh token is [ErrInvalidScope].
//
// The access token's expiry claim is decoded without re-verifying the
// signature: the caller is actively invalidating the token, so whether
// it would still verify is irrelevant.
func (e *Engine) Revoke(ctx context.Context, accessToken, refreshToken string, scope RevocationScope) error {
	if e == nil || e.blacklistStore == nil {
		return ErrEngineNotReady
	}

	if accessToken == "" {
		return ErrNoToken
	}

	switch scope {
	case ScopeSingle:
		if refreshToken == "" {
			return ErrInvalidScope
		}
	case ScopeAllDevices:
	default:
		return ErrInvalidScope
	}

	claims, err := jwt.DecodeUnverified(accessToken)
	if err != nil {
		return ErrTokenMalformed
	}

	if _, err := e.blacklistStore.Add(ctx, accessToken, claims.Subject, blacklist.ReasonLogout); err != nil {
		return wrapUnavailable(err)
	}

	ip := clientIPFromContext(ctx)

	if scope == ScopeAllDevices {
		n, err := e.refreshStore.RevokeAllForUser(ctx, claims.Subject, ip)
		if err != nil {
			return wrapUnavailable(err)
		}
		e.metricInc(MetricRevokeAll)
		e.logger.Debug("all-devices logout",
			zap.String("user_id", claims.Subject),
			zap.Int("revoked", n),
		)
		return nil
	}

	if err := e.refreshStore.Revoke(ctx, refreshToken, ip); err != nil {
		switch {
		case errors.Is(err, refresh.ErrNotFound), errors.Is(err, refresh.ErrReuseDetected):
			return ErrRefreshInvalid
		default:
			return wrapUnavailable(err)
		}
	}

	e.metricInc(MetricRevoke)
	return nil
}

// RevokeAll marks every active refresh token for the user
// inactive-terminal and returns how many transitioned. This is the
// admin surface behind global logout and the reuse escalation hook; it
// does not touch the blacklist; access tokens already in the wild are
// handled by [Engine.Blacklist] or expire naturally.
func (e *Engine) RevokeAll(ctx context.Context, userID string) (int, error) {
	if e == nil || e.refreshStore == nil {
		return 0, ErrEngineNotReady
	}

	n, err := e.refreshStore.RevokeAllForUser(ctx, userID, clientIPFromContext(ctx))
	if err != nil {
		return n, wrapUnavailable(err)
	}

	e.metricInc(MetricRevokeAll)
	return n, nil
}

// Blacklist revokes a single access token ahead of its natural expiry
// without touching refresh state. reason is recorded on the entry;
// use [ReasonAdminRevoke] or [ReasonSecurityBreach] for operator
// action. Undecodable tokens fail with [ErrTokenMalformed].
func (e *Engine) Blacklist(ctx context.Context, accessToken string, reason RevocationReason) (*BlacklistEntry, error) {
	if e == nil || e.blacklistStore == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := jwt.DecodeUnverified(accessToken)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	entry, err := e.blacklistStore.Add(ctx, accessToken, claims.Subject, reason)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return entry, nil
}
