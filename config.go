package authcore

import (
	"errors"
	"time"
)

// Config carries every tunable of the engine. Instances are set once,
// cloned by the [Builder], and treated as immutable afterwards.
type Config struct {
	JWT       JWTConfig
	Refresh   RefreshConfig
	Blacklist BlacklistConfig
	Security  SecurityConfig
	Metrics   MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig configures access-token signing and claim policy.
//
// MaxFutureIAT bounds how far in the future an issued-at claim may lie
// before the token is rejected. Zero selects the 10-minute default; the
// bound must stay within 24 hours.
type JWTConfig struct {
	AccessTTL     time.Duration
	SigningMethod string // "ed25519" (default), "hs256" optional
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
	MaxFutureIAT  time.Duration
}

/*
====================================
REFRESH CONFIG
====================================
*/

// RefreshConfig configures the opaque refresh-token store.
type RefreshConfig struct {
	TTL         time.Duration
	RedisPrefix string
}

/*
====================================
BLACKLIST CONFIG
====================================
*/

// BlacklistConfig configures the revoked-access-token store.
type BlacklistConfig struct {
	RedisPrefix string
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig groups the hardening knobs.
//
// RevokeAllOnReuse controls the response to refresh-token replay: when
// a token that was already retired by rotation is presented again, the
// engine always counts and logs the signal; with this flag set it also
// revokes every active refresh token of the owner. The caller-visible
// result is [ErrRefreshInvalid] either way.
type SecurityConfig struct {
	RevokeAllOnReuse     bool
	EnableRotateThrottle bool
	MaxRotateAttempts    int
	RotateCooldown       time.Duration
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig enables the in-process atomic counters.
type MetricsConfig struct {
	Enabled bool
}

// DefaultConfig returns the design defaults: 15-minute access tokens,
// 7-day refresh tokens, throttle and reuse escalation off.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:     15 * time.Minute,
			SigningMethod: "ed25519",
		},
		Refresh: RefreshConfig{
			TTL:         7 * 24 * time.Hour,
			RedisPrefix: "arf",
		},
		Blacklist: BlacklistConfig{
			RedisPrefix: "abl",
		},
		Security: SecurityConfig{
			MaxRotateAttempts: 10,
			RotateCooldown:    time.Minute,
		},
	}
}

// Validate checks the configuration for internal consistency. Key
// material is validated separately by the jwt manager at Build.
func (c Config) Validate() error {
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT.AccessTTL must be positive")
	}
	if c.Refresh.TTL <= 0 {
		return errors.New("Refresh.TTL must be positive")
	}
	if c.Refresh.TTL <= c.JWT.AccessTTL {
		return errors.New("Refresh.TTL must exceed JWT.AccessTTL")
	}
	if c.Security.EnableRotateThrottle {
		if c.Security.MaxRotateAttempts <= 0 {
			return errors.New("Security.MaxRotateAttempts must be positive when throttling is enabled")
		}
		if c.Security.RotateCooldown <= 0 {
			return errors.New("Security.RotateCooldown must be positive when throttling is enabled")
		}
	}
	return nil
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.PrivateKey = cloneBytes(cfg.JWT.PrivateKey)
	out.JWT.PublicKey = cloneBytes(cfg.JWT.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
