// Package telemetry owns the Prometheus registry and the OpenTelemetry
// tracer provider shared by the reply pipeline, the session loop and the
// HTTP gateway.
package telemetry

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "autoreply"

// Metrics records reply and dispatch counters. A nil *Metrics is valid and
// records nothing, so components can treat metrics as optional.
type Metrics struct {
	registry *prometheus.Registry

	replies      *prometheus.CounterVec
	tierFailures *prometheus.CounterVec
	messages     *prometheus.CounterVec
	storeFaults  prometheus.Counter
	inFlight     prometheus.Gauge
	latency      prometheus.Histogram

	// Mirrors for the status snapshot; Prometheus collectors are write-only.
	total        atomic.Int64
	fallbacks    atomic.Int64
	faults       atomic.Int64
	totalLatency atomic.Int64 // nanoseconds
}

// NewMetrics creates a private registry with the reply collectors and the
// standard Go and process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "replies_total",
			Help:      "Replies produced, by the tier that satisfied them.",
		}, []string{"tier"}),
		tierFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tier_failures_total",
			Help:      "Tier attempts that failed and fell through, by tier and failure kind.",
		}, []string{"tier", "kind"}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "inbound_messages_total",
			Help:      "Inbound messages dispatched, by source.",
		}, []string{"source"}),
		storeFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_faults_total",
			Help:      "History appends rejected by an internal store fault.",
		}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatches_in_flight",
			Help:      "Messages currently being processed.",
		}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generate_duration_seconds",
			Help:      "Time spent producing a reply across all tiers.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),
	}
	reg.MustRegister(
		m.replies,
		m.tierFailures,
		m.messages,
		m.storeFaults,
		m.inFlight,
		m.latency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry exposes the underlying registry for tests and custom exporters.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordReply records a completed Generate call.
func (m *Metrics) RecordReply(tier string, latency time.Duration) {
	if m == nil {
		return
	}
	m.replies.WithLabelValues(tier).Inc()
	m.latency.Observe(latency.Seconds())
	m.total.Add(1)
	m.totalLatency.Add(int64(latency))
	if tier == "fallback" {
		m.fallbacks.Add(1)
	}
}

// RecordTierFailure records a tier that failed and fell through.
func (m *Metrics) RecordTierFailure(tier, kind string) {
	if m == nil {
		return
	}
	m.tierFailures.WithLabelValues(tier, kind).Inc()
}

// RecordMessage records an inbound message from source.
func (m *Metrics) RecordMessage(source string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(source).Inc()
}

// RecordStoreFault records a rejected history append.
func (m *Metrics) RecordStoreFault() {
	if m == nil {
		return
	}
	m.storeFaults.Inc()
	m.faults.Add(1)
}

// DispatchStarted increments the in-flight gauge.
func (m *Metrics) DispatchStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// DispatchDone decrements the in-flight gauge.
func (m *Metrics) DispatchDone() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}

// Snapshot returns a point-in-time view of the reply counters.
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	total := m.total.Load()
	snap := Snapshot{
		Replies:     total,
		Fallbacks:   m.fallbacks.Load(),
		StoreFaults: m.faults.Load(),
	}
	if total > 0 {
		snap.AvgLatency = time.Duration(m.totalLatency.Load() / total)
	}
	return snap
}

// Snapshot is a serializable metrics view.
type Snapshot struct {
	Replies     int64         `json:"replies"`
	Fallbacks   int64         `json:"fallbacks"`
	StoreFaults int64         `json:"store_faults"`
	AvgLatency  time.Duration `json:"avg_latency_ns"`
}
