// Package metrics exposes prometheus instruments for the webhook
// pipeline, served from the /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

var Module = fx.Provide(Default)

// Metrics holds the pipeline counters.
type Metrics struct {
	received   *prometheus.CounterVec
	dispatched *prometheus.CounterVec
	rejections *prometheus.CounterVec
}

func Default() *Metrics {
	return New(prometheus.DefaultRegisterer)
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollhook_webhooks_received_total",
			Help: "Inbound webhook deliveries by integration and result.",
		}, []string{"integration", "result"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollhook_orders_dispatched_total",
			Help: "Orders scheduled for asynchronous processing.",
		}, []string{"integration", "action"}),
		rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "enrollhook_webhook_rejections_total",
			Help: "Rejected webhook deliveries by reason.",
		}, []string{"integration", "reason"}),
	}

	reg.MustRegister(m.received, m.dispatched, m.rejections)
	return m
}

func (m *Metrics) RecordReceived(integration, result string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(integration, result).Inc()
}

func (m *Metrics) RecordDispatched(integration, action string) {
	if m == nil {
		return
	}
	m.dispatched.WithLabelValues(integration, action).Inc()
}

func (m *Metrics) RecordRejection(integration, reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(integration, reason).Inc()
}
