package tenauth

import (
	"sync/atomic"
	"time"
)

// MetricID identifies a single counter or histogram tracked by the engine.
//
// MetricID values are stable across a process lifetime and safe to export.
type MetricID uint16

const (
	// MetricAuthProbeSuccess counts credential probes the backend accepted.
	MetricAuthProbeSuccess MetricID = iota
	// MetricAuthProbeFailure counts rejected or failed credential probes.
	MetricAuthProbeFailure
	// MetricLoginSuccess counts completed session establishments.
	MetricLoginSuccess
	// MetricLoginFailure counts session completions the backend rejected.
	MetricLoginFailure
	// MetricLoginRateLimited counts login attempts classified as rate limited.
	MetricLoginRateLimited
	// MetricTenantAutoSelected counts flows resolved without user selection.
	MetricTenantAutoSelected
	// MetricTenantSelectionRequired counts flows paused for tenant selection.
	MetricTenantSelectionRequired
	// MetricTenantSelected counts explicit tenant selections.
	MetricTenantSelected
	// MetricNoCompany counts flows terminated for lack of a tenant.
	MetricNoCompany
	// MetricSessionPersisted counts sessions written to the store.
	MetricSessionPersisted
	// MetricSessionRestored counts sessions recovered from the store.
	MetricSessionRestored
	// MetricSessionCorrupted counts partial store states cleared on restore.
	MetricSessionCorrupted
	// MetricLogout counts explicit logouts.
	MetricLogout
	// MetricSwitchSuccess counts company switches the backend confirmed.
	MetricSwitchSuccess
	// MetricSwitchDegraded counts local-only company switches.
	MetricSwitchDegraded
	// MetricSwitchFailure counts company switches rejected outright.
	MetricSwitchFailure
	// MetricProfileRefreshed counts profile updates persisted.
	MetricProfileRefreshed
	// MetricBiometricLoginSuccess counts logins completed via stored credentials.
	MetricBiometricLoginSuccess
	// MetricBiometricLoginFailure counts biometric logins that did not complete.
	MetricBiometricLoginFailure
	// MetricBiometricEnabled counts credential saves into the vault.
	MetricBiometricEnabled
	// MetricBiometricDisabled counts vault purges.
	MetricBiometricDisabled
	// MetricLoginLatency is the histogram of end-to-end login durations.
	MetricLoginLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds the engine's counters and histograms. All methods are
// safe for concurrent use; a nil receiver is inert.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of all counters and histograms.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds a Metrics instance from configuration. A disabled
// instance accepts all calls and records nothing.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are being recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether latency histograms are being recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter. Out-of-range IDs are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a duration into the histogram for id. Only
// MetricLoginLatency is histogram-backed.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricLoginLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of a single counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram into maps safe for the
// caller to retain.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricLoginLatency].buckets[i])
		}
		s.Histograms[MetricLoginLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 25:
		return 0
	case ms <= 50:
		return 1
	case ms <= 100:
		return 2
	case ms <= 250:
		return 3
	case ms <= 500:
		return 4
	case ms <= 1000:
		return 5
	case ms <= 2500:
		return 6
	default:
		return 7
	}
}
