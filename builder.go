package goLogin

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/MrEthical07/goLogin/internal/secrets"
)

// Builder defines a public type used by goLogin APIs.
//
// Builder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Builder struct {
	config Config

	secretStore secrets.Store
	tokenStore  secrets.TokenStore
	decoder     ArtifactDecoder
	auditSink   AuditSink
	logger      *zap.Logger
	clock       func() time.Time

	built bool
}

// New describes the new operation and its observable behavior.
//
// New does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig describes the withconfig operation and its observable behavior.
//
// WithConfig does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithSecretStore describes the withsecretstore operation and its observable behavior.
//
// WithSecretStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithSecretStore(store secrets.Store) *Builder {
	b.secretStore = store
	return b
}

// WithTokenStore describes the withtokenstore operation and its observable behavior.
//
// WithTokenStore does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithTokenStore(store secrets.TokenStore) *Builder {
	b.tokenStore = store
	return b
}

// WithArtifactDecoder describes the withartifactdecoder operation and its observable behavior.
//
// WithArtifactDecoder does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithArtifactDecoder(d ArtifactDecoder) *Builder {
	b.decoder = d
	return b
}

// WithAuditSink describes the withauditsink operation and its observable behavior.
//
// WithAuditSink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithLogger describes the withlogger operation and its observable behavior.
//
// WithLogger does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLogger(logger *zap.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock injects a time source, replacing time.Now. Deterministic
// clocks pair with the scripted probe in tests.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled describes the withmetricsenabled operation and its observable behavior.
//
// WithMetricsEnabled does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms describes the withlatencyhistograms operation and its observable behavior.
//
// WithLatencyHistograms does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build describes the build operation and its observable behavior.
//
// Build may return an error when input validation, dependency calls, or security checks fail.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.secretStore == nil {
		return nil, errors.New("secret store required")
	}

	engine := &Engine{
		config:      cfg,
		totp:        newTOTPManager(cfg.TOTP),
		secretStore: b.secretStore,
		tokenStore:  b.tokenStore,
		decoder:     b.decoder,
		audit:       newAuditDispatcher(cfg.Audit, b.auditSink),
		metrics:     NewMetrics(cfg.Metrics),
		logger:      b.logger,
		now:         b.clock,
	}
	if engine.logger == nil {
		engine.logger = zap.NewNop()
	}
	if engine.now == nil {
		engine.now = time.Now
	}

	b.built = true

	return engine, nil
}
