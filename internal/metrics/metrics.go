// Package metrics records message generation counters in Prometheus format.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"cold-message/internal/domain"
	"cold-message/internal/usecase"
)

// Prom implements usecase.Recorder backed by Prometheus collectors registered
// on its own registry.
type Prom struct {
	registry      *prometheus.Registry
	messages      *prometheus.CounterVec
	modelFailures *prometheus.CounterVec
	modelLatency  prometheus.Histogram
}

func NewProm(namespace string) *Prom {
	p := &Prom{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Messages generated by source and message type",
		}, []string{"source", "message_type"}),
		modelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_failures_total",
			Help:      "Model load and invocation failures by kind and reason",
		}, []string{"kind", "reason"}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_latency_seconds",
			Help:      "Model invocation latency",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
	}
	p.registry.MustRegister(p.messages, p.modelFailures, p.modelLatency)
	return p
}

func (p *Prom) IncMessages(source domain.Source, messageType domain.MessageType) {
	p.messages.WithLabelValues(string(source), string(messageType)).Inc()
}

func (p *Prom) IncModelFailures(code usecase.ErrorCode, reason string) {
	p.modelFailures.WithLabelValues(string(code), reason).Inc()
}

func (p *Prom) ObserveModelLatency(seconds float64) {
	p.modelLatency.Observe(seconds)
}

// Gatherer exposes the registry, e.g. for tests or an HTTP handler.
func (p *Prom) Gatherer() prometheus.Gatherer {
	return p.registry
}

// WriteTextfile writes the current values in the Prometheus text format,
// suitable for the node_exporter textfile collector.
func (p *Prom) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics: textfile path must not be empty")
	}
	return prometheus.WriteToTextfile(path, p.registry)
}
