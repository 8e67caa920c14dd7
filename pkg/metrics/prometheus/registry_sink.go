// Package prometheus provides the concrete Prometheus-backed sinks
// maidnode's registries and demultiplexer export their counters through,
// registered against the registry installed via pkg/metrics.Init.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/maidnode/pkg/metrics"
)

// RegistrySink is the registry.Sink implementation backing
// pkg/registry.Registry's completion and occupancy metrics: per-family
// pending-op gauges, and counters for quorum completions, fallback
// completions, and timeouts.
type RegistrySink struct {
	pending     *prometheus.GaugeVec
	completions *prometheus.CounterVec
	timeouts    *prometheus.CounterVec
}

// NewRegistrySink creates the Prometheus-backed registry.Sink. Returns nil
// if metrics are not enabled (metrics.Init not called), matching
// pkg/registry.Registry.SetSink's nil-restores-noop contract.
func NewRegistrySink() *RegistrySink {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &RegistrySink{
		pending: promauto.With(reg).NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "maidnode_pending_operations",
				Help: "Number of pending operations awaiting a reply, by payload family",
			},
			[]string{"family"},
		),
		completions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "maidnode_operation_completions_total",
				Help: "Completed operations by payload family and completion path",
			},
			[]string{"family", "path"},
		),
		timeouts: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "maidnode_operation_timeouts_total",
				Help: "Operations forced to completion by deadline expiry, by payload family",
			},
			[]string{"family"},
		),
	}
}

// ObserveCompletion implements registry.Sink.
func (s *RegistrySink) ObserveCompletion(family string, viaFallback bool) {
	if s == nil {
		return
	}
	path := "quorum"
	if viaFallback {
		path = "fallback"
	}
	s.completions.WithLabelValues(family, path).Inc()
}

// ObserveTimeout implements registry.Sink.
func (s *RegistrySink) ObserveTimeout(family string) {
	if s == nil {
		return
	}
	s.timeouts.WithLabelValues(family).Inc()
}

// SetPending implements registry.Sink.
func (s *RegistrySink) SetPending(family string, n int) {
	if s == nil {
		return
	}
	s.pending.WithLabelValues(family).Set(float64(n))
}
