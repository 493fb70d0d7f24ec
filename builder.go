package authcore

import (
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nexlify/authcore/blacklist"
	"github.com/nexlify/authcore/internal/rate"
	"github.com/nexlify/authcore/jwt"
	"github.com/nexlify/authcore/refresh"
)

// Builder assembles an immutable [Engine]. A builder is single-use:
// Build succeeds at most once.
type Builder struct {
	config Config
	redis  redis.UniversalClient
	logger *zap.Logger

	userProvider UserProvider

	built bool
}

// New creates a [Builder] preloaded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a clone of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the Redis client backing both stores and the throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserProvider sets the user-state lookup the verify pipeline uses.
func (b *Builder) WithUserProvider(up UserProvider) *Builder {
	b.userProvider = up
	return b
}

// WithLogger sets the structured logger. Defaults to zap.NewNop.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration, wires the stores and signing
// manager, and returns a ready [Engine].
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}
	if b.userProvider == nil {
		return nil, errors.New("user provider required")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	jm, err := jwt.NewManager(jwt.Config{
		AccessTTL:     cfg.JWT.AccessTTL,
		SigningMethod: jwt.SigningMethod(cfg.JWT.SigningMethod),
		PrivateKey:    cloneBytes(cfg.JWT.PrivateKey),
		PublicKey:     cloneBytes(cfg.JWT.PublicKey),
		Issuer:        cfg.JWT.Issuer,
		Audience:      cfg.JWT.Audience,
		Leeway:        cfg.JWT.Leeway,
		MaxFutureIAT:  cfg.JWT.MaxFutureIAT,
	})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	engine := &Engine{
		config:         cfg,
		jwtManager:     jm,
		refreshStore:   refresh.NewStore(b.redis, cfg.Refresh.RedisPrefix),
		blacklistStore: blacklist.NewStore(b.redis, cfg.Blacklist.RedisPrefix),
		userProvider:   b.userProvider,
		logger:         logger,
		metrics:        NewMetrics(cfg.Metrics),
	}

	if cfg.Security.EnableRotateThrottle {
		engine.rotateLimiter = rate.New(b.redis, rate.Config{
			Enabled:     true,
			MaxAttempts: cfg.Security.MaxRotateAttempts,
			Cooldown:    cfg.Security.RotateCooldown,
		})
	}

	b.built = true

	return engine, nil
}
