package rate

import "errors"

var (
	// ErrRateLimited is returned when the rotation attempt budget is exhausted.
	ErrRateLimited = errors.New("rate limited")
	// ErrRedisUnavailable marks a backend outage, never an authorization decision.
	ErrRedisUnavailable = errors.New("redis unavailable")
)
