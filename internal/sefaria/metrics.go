// SPDX-License-Identifier: Apache-2.0

package sefaria

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records capability call counts and latencies.
type Metrics struct {
	calls    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics creates the capability metrics and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "torah_mcp",
			Name:      "capability_calls_total",
			Help:      "Retrieval service capability calls by outcome.",
		}, []string{"capability", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "torah_mcp",
			Name:      "capability_call_seconds",
			Help:      "Latency of retrieval service capability calls.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"capability"}),
	}
	if reg != nil {
		reg.MustRegister(m.calls, m.duration)
	}
	return m
}

// Outcome labels.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeUnavailable = "unavailable"
)

func (m *Metrics) observe(capability, outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(capability, outcome).Inc()
	if outcome != OutcomeUnavailable {
		m.duration.WithLabelValues(capability).Observe(seconds)
	}
}
