package tenauth

import (
	"errors"

	"github.com/hexlane/tenauth/backend"
	"github.com/hexlane/tenauth/internal/pacing"
	"github.com/hexlane/tenauth/session"
	"github.com/hexlane/tenauth/vault"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an Engine from configuration and injected
// dependencies. A Builder is single use.
type Builder struct {
	config Config

	redis   redis.UniversalClient
	store   session.Store
	backend Backend

	biometric vault.Provider
	auditSink AuditSink

	built bool
}

// New returns a Builder seeded with the default configuration.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the builder's configuration with a copy of cfg.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis makes the engine persist sessions in redis, keyed by the
// configured prefix and environment.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithStore injects a session store directly. Takes precedence over
// WithRedis. The engine does not close injected stores.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithBackend injects the authentication backend. When omitted, an HTTP
// client is built from Config.Backend.
func (b *Builder) WithBackend(be Backend) *Builder {
	b.backend = be
	return b
}

// WithBiometricProvider injects the platform biometric capability used
// to gate stored-credential retrieval.
func (b *Builder) WithBiometricProvider(p vault.Provider) *Builder {
	b.biometric = p
	return b
}

// WithAuditSink sets the destination for audit events.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// WithMetricsEnabled toggles counter collection.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles login latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration, wires every subsystem, and returns
// a ready Engine. The builder cannot be reused afterwards.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	store := b.store
	ownsStore := false
	if store == nil {
		if b.redis == nil {
			return nil, errors.New("session store or redis client required")
		}
		store = session.NewRedisStore(b.redis, session.Keys{
			Prefix:      cfg.Session.KeyPrefix,
			Environment: cfg.Session.Environment,
		})
		ownsStore = true
	}

	// -------- BACKEND --------
	be := b.backend
	if be == nil {
		if cfg.Backend.BaseURL == "" {
			return nil, errors.New("backend or Backend.BaseURL required")
		}
		be = backend.NewClient(backend.Config{
			BaseURL:    cfg.Backend.BaseURL,
			PortalType: cfg.Backend.PortalType,
			Timeout:    cfg.Backend.Timeout,
		})
	}

	engine := &Engine{
		config:    cfg,
		store:     store,
		backend:   be,
		ownsStore: ownsStore,
	}

	// -------- BIOMETRIC VAULT --------
	if cfg.Biometric.Enabled {
		if b.biometric == nil {
			return nil, errors.New("Biometric.Enabled requires a biometric provider")
		}
		v, err := vault.New(b.biometric, store, cfg.Biometric.DeviceKey)
		if err != nil {
			return nil, err
		}
		engine.vault = v
	}

	// -------- PACING --------
	if cfg.Pacing.Enabled {
		engine.pacer = pacing.New(pacing.Config{
			RequestsPerSecond: cfg.Pacing.RequestsPerSecond,
			Burst:             cfg.Pacing.Burst,
			BackoffBase:       cfg.Pacing.BackoffBase,
			BackoffMax:        cfg.Pacing.BackoffMax,
		})
	}

	engine.audit = newAuditDispatcher(cfg.Audit, b.auditSink)
	engine.metrics = NewMetrics(cfg.Metrics)

	b.built = true

	return engine, nil
}
