package authcore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nexlify/authcore/device"
)

// Issue mints a signed access token and a paired opaque refresh token
// for the user. The refresh record is created active with the
// configured lifetime, bound to the issuing IP and a best-effort device
// classification taken from the context User-Agent.
//
// Issue has no authorization failure mode: the caller (a login or
// registration path) has already authenticated the user. The only
// errors are store or signing-key failures.
func (e *Engine) Issue(ctx context.Context, user UserRecord) (*TokenPair, error) {
	if e == nil || e.jwtManager == nil {
		return nil, ErrEngineNotReady
	}

	access, err := e.jwtManager.CreateAccess(user.ID, user.Role)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		return nil, err
	}

	ip := clientIPFromContext(ctx)
	dev := device.Classify(userAgentFromContext(ctx))

	rec, value, err := e.refreshStore.Create(ctx, user.ID, ip, dev, e.config.Refresh.TTL)
	if err != nil {
		e.metricInc(MetricIssueFailure)
		return nil, wrapUnavailable(err)
	}

	e.metricInc(MetricIssueSuccess)
	e.logger.Debug("token pair issued",
		zap.String("user_id", user.ID),
		zap.String("device", dev.String()),
	)

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     value,
		AccessExpiresAt:  time.Now().Add(e.config.JWT.AccessTTL),
		RefreshExpiresAt: time.Unix(rec.ExpiresAt, 0),
	}, nil
}
