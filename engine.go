package authcore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/nexlify/authcore/blacklist"
	"github.com/nexlify/authcore/internal/rate"
	"github.com/nexlify/authcore/jwt"
	"github.com/nexlify/authcore/refresh"
)

// Engine is the authentication token lifecycle core. All methods are
// safe for concurrent use after initialization through [Builder.Build];
// the engine holds no mutable state outside its stores.
type Engine struct {
	config         Config
	jwtManager     *jwt.Manager
	refreshStore   *refresh.Store
	blacklistStore *blacklist.Store
	rotateLimiter  *rate.Limiter
	userProvider   UserProvider
	logger         *zap.Logger
	metrics        *Metrics
}

// MetricsSnapshot returns a point-in-time copy of the engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

// Ping checks store availability and returns the round-trip latency.
func (e *Engine) Ping(ctx context.Context) (time.Duration, error) {
	if e == nil || e.refreshStore == nil {
		return 0, ErrEngineNotReady
	}
	d, err := e.refreshStore.Ping(ctx)
	if err != nil {
		return d, wrapUnavailable(err)
	}
	return d, nil
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) warn(msg string, fields ...zap.Field) {
	if e == nil || e.logger == nil {
		return
	}
	e.logger.Warn(msg, fields...)
}
