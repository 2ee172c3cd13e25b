package goLogin

import (
	"sync/atomic"
	"time"
)

// MetricID defines a public type used by goLogin APIs.
//
// MetricID instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type MetricID uint16

const (
	// MetricAttemptStarted counts started login attempts.
	MetricAttemptStarted MetricID = iota
	// MetricAttemptSuccess counts login attempts resolved as success.
	MetricAttemptSuccess
	// MetricAttemptFailure counts login attempts resolved as failure.
	MetricAttemptFailure
	// MetricAttemptTimedOut counts login attempts resolved as timed out.
	MetricAttemptTimedOut
	// MetricAttemptsExhausted counts logins abandoned after the retry budget.
	MetricAttemptsExhausted
	// MetricAlreadyAuthenticated counts logins short-circuited by a
	// persisted session.
	MetricAlreadyAuthenticated
	// MetricDetectTick counts detector polling ticks.
	MetricDetectTick
	// MetricStaySignedInClicked counts dismissals of the post-auth
	// interstitial.
	MetricStaySignedInClicked
	// MetricProbeFault counts attempts aborted by unexpected probe errors.
	MetricProbeFault
	// MetricCodeGenerated counts generated one-time codes.
	MetricCodeGenerated
	// MetricProvisionSuccess counts successful secret provisionings.
	MetricProvisionSuccess
	// MetricProvisionFailure counts failed secret provisionings.
	MetricProvisionFailure
	// MetricTokenCaptured counts captured post-login session tokens.
	MetricTokenCaptured
	// MetricDetectLatency is the detection-duration histogram.
	MetricDetectLatency
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

// Metrics is the engine's lock-free counter registry. All methods are safe
// for concurrent use.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot defines a public type used by goLogin APIs.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates a Metrics registry honoring cfg.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether the registry records anything.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// Inc increments the counter for id.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a detection duration into the latency histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricDetectLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value reads the current counter value for id.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies the current counter and histogram state.
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
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricDetectLatency].buckets[i])
		}
		s.Histograms[MetricDetectLatency] = buckets
	}

	return s
}

// Detection latencies are dominated by the poll interval, so the buckets
// are second-scaled rather than the millisecond scale a server would use.
func bucketIndex(d time.Duration) int {
	s := d.Seconds()

	switch {
	case s <= 1:
		return 0
	case s <= 2:
		return 1
	case s <= 5:
		return 2
	case s <= 10:
		return 3
	case s <= 15:
		return 4
	case s <= 20:
		return 5
	case s <= 30:
		return 6
	default:
		return 7
	}
}
