package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/maidnode/pkg/metrics"
)

// ServiceSink is the service.Sink implementation counting every inbound
// message a Demultiplexer drops, by reason (parse_error, misaddressed,
// source_persona_mismatch, reply_parse_error).
type ServiceSink struct {
	dropped *prometheus.CounterVec
}

// NewServiceSink creates the Prometheus-backed service.Sink. Returns nil if
// metrics are not enabled.
func NewServiceSink() *ServiceSink {
	if !metrics.IsEnabled() {
		return nil
	}
	reg := metrics.GetRegistry()

	return &ServiceSink{
		dropped: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "maidnode_inbound_dropped_total",
				Help: "Inbound messages dropped by the demultiplexer, by reason",
			},
			[]string{"reason"},
		),
	}
}

// IncDropped implements service.Sink.
func (s *ServiceSink) IncDropped(reason string) {
	if s == nil {
		return
	}
	s.dropped.WithLabelValues(reason).Inc()
}
