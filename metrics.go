package authcore

import "sync/atomic"

// MetricID identifies a specific counter in the in-process metrics
// system.
type MetricID uint16

const (
	// MetricIssueSuccess counts issued access+refresh pairs.
	MetricIssueSuccess MetricID = iota
	// MetricIssueFailure counts failed issuance attempts.
	MetricIssueFailure
	// MetricVerifySuccess counts access tokens that passed the full pipeline.
	MetricVerifySuccess
	// MetricVerifyFailure counts access tokens rejected for any reason.
	MetricVerifyFailure
	// MetricVerifyRevoked counts blacklist hits on the verify path.
	MetricVerifyRevoked
	// MetricPasswordChangeInvalidated counts tokens proactively blacklisted
	// because they predate a password change.
	MetricPasswordChangeInvalidated
	// MetricRotateSuccess counts successful rotations.
	MetricRotateSuccess
	// MetricRotateFailure counts rejected rotation attempts.
	MetricRotateFailure
	// MetricRotateReuseDetected counts presentations of already-replaced
	// refresh tokens, the structural replay signal.
	MetricRotateReuseDetected
	// MetricRotateRateLimited counts rotations stopped by the throttle.
	MetricRotateRateLimited
	// MetricRevoke counts single-device logouts.
	MetricRevoke
	// MetricRevokeAll counts all-devices revocations.
	MetricRevokeAll
	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds cache-line-padded atomic counters. When disabled, all
// operations are no-ops.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a [Metrics] instance configured by cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Enabled reports whether counters are recording.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments a counter. Safe for concurrent use.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Value reads one counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot returns a point-in-time copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}

	s := MetricsSnapshot{Counters: make(map[MetricID]uint64, int(metricIDCount))}
	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return s
}
