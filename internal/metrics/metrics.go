// Package metrics holds the Prometheus collectors shared by the saga services.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Metrics struct {
	sagaSteps       *prometheus.CounterVec
	outbound        *prometheus.CounterVec
	outboundLatency *prometheus.HistogramVec
	payments        *prometheus.CounterVec
	tokenRefresh    *prometheus.CounterVec
}

// New creates the collectors and registers them on reg. Tests pass a fresh
// prometheus.NewRegistry() so repeated construction does not collide.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sagaSteps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "saga_steps_total",
			Help: "Orchestrator operations by service, step and outcome.",
		}, []string{"service", "step", "outcome"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "outbound_requests_total",
			Help: "Calls made to peer services.",
		}, []string{"peer", "endpoint", "outcome"}),
		outboundLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "outbound_request_duration_seconds",
			Help:    "Latency of calls made to peer services.",
			Buckets: prometheus.DefBuckets,
		}, []string{"peer", "endpoint"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payments_total",
			Help: "Payments by terminal status.",
		}, []string{"status"}),
		tokenRefresh: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "service_token_refresh_total",
			Help: "Machine credential refreshes by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.sagaSteps, m.outbound, m.outboundLatency, m.payments, m.tokenRefresh)
	}
	return m
}

// NewRegistry returns a registry that already carries the Go runtime and
// process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func (m *Metrics) Step(service, step, outcome string) {
	if m == nil {
		return
	}
	m.sagaSteps.WithLabelValues(service, step, outcome).Inc()
}

func (m *Metrics) Outbound(peer, endpoint, outcome string, took time.Duration) {
	if m == nil {
		return
	}
	m.outbound.WithLabelValues(peer, endpoint, outcome).Inc()
	m.outboundLatency.WithLabelValues(peer, endpoint).Observe(took.Seconds())
}

func (m *Metrics) Payment(status string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(status).Inc()
}

func (m *Metrics) TokenRefresh(outcome string) {
	if m == nil {
		return
	}
	m.tokenRefresh.WithLabelValues(outcome).Inc()
}

// Outcome maps an error to the label value used across collectors.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
