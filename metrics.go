package authcore

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by authcore APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricLoginSuccess is an exported constant or variable used by the authentication core.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure is an exported constant or variable used by the authentication core.
	MetricLoginFailure
	// MetricLoginDisabledAccount is an exported constant or variable used by the authentication core.
	MetricLoginDisabledAccount
	// MetricMFARequired is an exported constant or variable used by the authentication core.
	MetricMFARequired
	// MetricMFASuccess is an exported constant or variable used by the authentication core.
	MetricMFASuccess
	// MetricMFAFailure is an exported constant or variable used by the authentication core.
	MetricMFAFailure
	// MetricOTPIssued is an exported constant or variable used by the authentication core.
	MetricOTPIssued
	// MetricOTPResent is an exported constant or variable used by the authentication core.
	MetricOTPResent
	// MetricOTPCooldownHit is an exported constant or variable used by the authentication core.
	MetricOTPCooldownHit
	// MetricOTPInvalidCode is an exported constant or variable used by the authentication core.
	MetricOTPInvalidCode
	// MetricOTPExpired is an exported constant or variable used by the authentication core.
	MetricOTPExpired
	// MetricOTPAttemptsExceeded is an exported constant or variable used by the authentication core.
	MetricOTPAttemptsExceeded
	// MetricOTPDeliveryFailure is an exported constant or variable used by the authentication core.
	MetricOTPDeliveryFailure
	// MetricRegistrationSuccess is an exported constant or variable used by the authentication core.
	MetricRegistrationSuccess
	// MetricRegistrationDuplicate is an exported constant or variable used by the authentication core.
	MetricRegistrationDuplicate
	// MetricPasswordResetRequest is an exported constant or variable used by the authentication core.
	MetricPasswordResetRequest
	// MetricPasswordResetSuccess is an exported constant or variable used by the authentication core.
	MetricPasswordResetSuccess
	// MetricPasswordResetFailure is an exported constant or variable used by the authentication core.
	MetricPasswordResetFailure
	// MetricPasswordChangeSuccess is an exported constant or variable used by the authentication core.
	MetricPasswordChangeSuccess
	// MetricPasswordChangeInvalidCurrent is an exported constant or variable used by the authentication core.
	MetricPasswordChangeInvalidCurrent
	// MetricPasswordPolicyRejected is an exported constant or variable used by the authentication core.
	MetricPasswordPolicyRejected
	// MetricInstructorProvisioned is an exported constant or variable used by the authentication core.
	MetricInstructorProvisioned
	// MetricOTPVerifyLatency is an exported constant or variable used by the authentication core.
	MetricOTPVerifyLatency
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

// Metrics defines a public type used by authcore APIs.
//
// Metrics instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by authcore APIs.
//
// MetricsSnapshot instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics builds the counter set for the given configuration. A disabled
// instance keeps every operation a no-op.
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

// LatencyEnabled reports whether histogram observation is being recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter. Unknown IDs and disabled instances are ignored.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample into the histogram for id.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricOTPVerifyLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current count for a single metric.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and histogram into plain maps for exporters.
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
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricOTPVerifyLatency].buckets[i])
		}
		s.Histograms[MetricOTPVerifyLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
