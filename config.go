package tenauth

import (
	"errors"
	"time"
)

// Config defines the engine's tuning surface. Instances are configured
// during initialization and treated as immutable afterwards.
type Config struct {
	Backend   BackendConfig
	Session   SessionConfig
	Biometric BiometricConfig
	Pacing    PacingConfig
	Audit     AuditConfig
	Metrics   MetricsConfig
}

/*
====================================
BACKEND CONFIG
====================================
*/

// BackendConfig configures the default HTTP backend client. Ignored when a
// custom [Backend] is supplied through the builder.
type BackendConfig struct {
	BaseURL string
	// PortalType discriminates which class of frontend is logging in and
	// is passed through on every login call.
	PortalType string
	Timeout    time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls durable session persistence.
type SessionConfig struct {
	// KeyPrefix namespaces all storage keys. Defaults to "tenauth".
	KeyPrefix string
	// Environment namespaces keys per deployment so a staging and a
	// production session never collide on one device. Defaults to
	// "production".
	Environment string
}

/*
====================================
BIOMETRIC CONFIG
====================================
*/

// BiometricConfig controls the credential vault. Enabled has no effect
// unless a provider is supplied through the builder.
type BiometricConfig struct {
	Enabled bool
	// DeviceKey seeds credential sealing; it should come from a platform
	// keystore and must be at least 16 bytes.
	DeviceKey []byte
	// PromptReason is shown on the OS biometric prompt.
	PromptReason string
}

/*
====================================
PACING CONFIG
====================================
*/

// PacingConfig controls the call-spacing policy in front of the backend.
type PacingConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
	BackoffBase       time.Duration
	BackoffMax        time.Duration
}

/*
====================================
AUDIT / METRICS CONFIG
====================================
*/

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is full;
	// drops are counted and reported by [Engine.AuditDropped].
	DropIfFull bool
}

// MetricsConfig controls the in-process metrics counters.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistograms additionally tracks login completion latency.
	EnableLatencyHistograms bool
}

// DefaultConfig returns the configuration the builder starts from:
// production key namespacing, pacing at 2 requests per second, audit
// and metrics enabled.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		Backend: BackendConfig{
			Timeout: 30 * time.Second,
		},
		Session: SessionConfig{
			KeyPrefix:   "tenauth",
			Environment: "production",
		},
		Biometric: BiometricConfig{
			PromptReason: "Unlock your saved sign-in",
		},
		Pacing: PacingConfig{
			Enabled:           true,
			RequestsPerSecond: 2,
			Burst:             2,
			BackoffBase:       500 * time.Millisecond,
			BackoffMax:        30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:    true,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Biometric.DeviceKey = cloneBytes(cfg.Biometric.DeviceKey)
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

// Validate checks the configuration for values that cannot produce a
// working engine.
func (c *Config) Validate() error {
	if c.Backend.Timeout < 0 {
		return errors.New("backend timeout must not be negative")
	}
	if c.Pacing.Enabled {
		if c.Pacing.RequestsPerSecond < 0 {
			return errors.New("pacing requests per second must not be negative")
		}
		if c.Pacing.Burst < 0 {
			return errors.New("pacing burst must not be negative")
		}
		if c.Pacing.BackoffBase < 0 || c.Pacing.BackoffMax < 0 {
			return errors.New("pacing backoff durations must not be negative")
		}
		if c.Pacing.BackoffMax > 0 && c.Pacing.BackoffBase > c.Pacing.BackoffMax {
			return errors.New("pacing backoff base exceeds backoff max")
		}
	}
	if c.Biometric.Enabled && len(c.Biometric.DeviceKey) > 0 && len(c.Biometric.DeviceKey) < 16 {
		return errors.New("biometric device key must be at least 16 bytes")
	}
	if c.Audit.Enabled && c.Audit.BufferSize < 0 {
		return errors.New("audit buffer size must not be negative")
	}
	return nil
}
