package authcore

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/nexlify/authcore/device"
	"github.com/nexlify/authcore/internal"
	"github.com/nexlify/authcore/internal/rate"
	"github.com/nexlify/authcore/refresh"
)

// Rotate exchanges a refresh token for a fresh access+refresh pair and
// retires the presented token with a forward link to its successor.
//
// Every unusable presentation (unknown, already rotated, revoked, or
// expired) collapses to [ErrRefreshInvalid], so a probing caller
// cannot tell "never existed" from "already used". Internally, a
// presentation of an already-rotated token is a structural replay
// signal: it is counted, logged, and optionally escalated to a
// revoke-all for the owner (Security.RevokeAllOnReuse).
//
// The revoke-old and persist-new steps execute as one atomic store
// operation keyed on the old record still being active, so two
// concurrent rotations of the same token yield exactly one winner.
func (e *Engine) Rotate(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	if refreshToken == "" {
		e.metricInc(MetricRotateFailure)
		return nil, ErrRefreshInvalid
	}

	ip := clientIPFromContext(ctx)

	if e.rotateLimiter != nil {
		if err := e.rotateLimiter.CheckRotate(ctx, internal.HashToken(refreshToken)); err != nil {
			if errors.Is(err, rate.ErrRateLimited) {
				e.metricInc(MetricRotateRateLimited)
				e.metricInc(MetricRotateFailure)
				return nil, ErrRotateRateLimited
			}
			return nil, wrapUnavailable(err)
		}
	}

	rec, err := e.refreshStore.Peek(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, refresh.ErrNotFound) {
			e.metricInc(MetricRotateFailure)
			return nil, ErrRefreshInvalid
		}
		return nil, wrapUnavailable(err)
	}

	now := time.Now()
	if !rec.UsableAt(now) {
		if rec.Replaced() {
			e.onReuseDetected(ctx, rec)
		}
		e.metricInc(MetricRotateFailure)
		return nil, ErrRefreshInvalid
	}

	user, err := e.userProvider.GetUserByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// Owner is gone; retire the orphaned record so it cannot be
			// probed again.
			if rvErr := e.refreshStore.Revoke(ctx, refreshToken, ip); rvErr != nil &&
				!errors.Is(rvErr, refresh.ErrNotFound) && !errors.Is(rvErr, refresh.ErrReuseDetected) {
				e.warn("orphaned refresh token revocation failed", zap.Error(rvErr))
			}
			e.metricInc(MetricRotateFailure)
			return nil, ErrRefreshInvalid
		}
		return nil, wrapUnavailable(err)
	}

	// Sign before the store swap: a signing failure here leaves no
	// partial state to reconcile.
	access, err := e.jwtManager.CreateAccess(user.ID, user.Role)
	if err != nil {
		e.metricInc(MetricRotateFailure)
		return nil, err
	}

	dev := device.Classify(userAgentFromContext(ctx))
	successor, value, err := e.refreshStore.Rotate(ctx, refreshToken, user.ID, ip, dev, e.config.Refresh.TTL)
	if err != nil {
		switch {
		case errors.Is(err, refresh.ErrReuseDetected):
			// Lost the swap to a rotation that already happened.
			e.onReuseDetected(ctx, rec)
			e.metricInc(MetricRotateFailure)
			return nil, ErrRefreshInvalid
		case errors.Is(err, refresh.ErrNotFound):
			e.metricInc(MetricRotateFailure)
			return nil, ErrRefreshInvalid
		default:
			return nil, wrapUnavailable(err)
		}
	}

	if e.rotateLimiter != nil {
		if err := e.rotateLimiter.Reset(ctx, internal.HashToken(refreshToken)); err != nil {
			e.warn("rotation throttle reset failed", zap.Error(err))
		}
	}

	e.metricInc(MetricRotateSuccess)

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     value,
		AccessExpiresAt:  now.Add(e.config.JWT.AccessTTL),
		RefreshExpiresAt: time.Unix(successor.ExpiresAt, 0),
	}, nil
}

// onReuseDetected handles the replay signal from a revoked-replaced
// token: always count and log; escalate to a family-wide revoke only
// when configured.
func (e *Engine) onReuseDetected(ctx context.Context, rec *refresh.Token) {
	e.metricInc(MetricRotateReuseDetected)
	e.warn("refresh token reuse detected",
		zap.String("user_id", rec.UserID),
		zap.String("client_ip", clientIPFromContext(ctx)),
	)

	if !e.config.Security.RevokeAllOnReuse {
		return
	}

	n, err := e.refreshStore.RevokeAllForUser(ctx, rec.UserID, clientIPFromContext(ctx))
	if err != nil {
		e.warn("reuse escalation revoke-all failed",
			zap.String("user_id", rec.UserID),
			zap.Error(err),
		)
		return
	}
	e.metricInc(MetricRevokeAll)
	e.warn("reuse escalation revoked all sessions",
		zap.String("user_id", rec.UserID),
		zap.Int("revoked", n),
	)
}
