package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts calculation outcomes per provider.
type Metrics struct {
	calculations *prometheus.CounterVec
	capped       *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		calculations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taxengine_calculations_total",
			Help: "Tax calculations by provider and outcome.",
		}, []string{"provider", "outcome"}),
		capped: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taxengine_capped_results_total",
			Help: "Calculations clamped by the over-taxation safety cap.",
		}, []string{"provider"}),
	}
}

func (m *Metrics) RecordCalculation(provider, outcome string) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) RecordCapped(provider string) {
	if m == nil {
		return
	}
	m.capped.WithLabelValues(provider).Inc()
}
