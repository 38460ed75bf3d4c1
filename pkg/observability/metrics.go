package observability

import (
	"context"

	"github.com/aretw0/docmerge/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine collectors.
type Metrics struct {
	Forms        *prometheus.CounterVec
	FormDuration prometheus.Histogram
	Placeholders *prometheus.CounterVec
	Instances    prometheus.Histogram
	RowsCloned   prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Forms: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docmerge_forms_total",
				Help: "Forms generated, by result",
			},
			[]string{"result"},
		),
		FormDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docmerge_form_duration_seconds",
				Help:    "Time to merge, replicate and lay out one form",
				Buckets: prometheus.DefBuckets,
			},
		),
		Placeholders: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "docmerge_placeholders_total",
				Help: "Placeholders dispatched, by directive and outcome",
			},
			[]string{"directive", "outcome"},
		),
		Instances: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "docmerge_form_instances",
				Help:    "Document instances needed per form",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		RowsCloned: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "docmerge_rows_cloned_total",
				Help: "Schedule table rows added by the row cloner",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(m.Forms, m.FormDuration, m.Placeholders, m.Instances, m.RowsCloned)
	}
	return m
}

// Hooks records events into the collectors.
func (m *Metrics) Hooks() domain.MergeHooks {
	return domain.MergeHooks{
		OnFormComplete: func(_ context.Context, e *domain.FormEvent) {
			result := "ok"
			if e.Errors > 0 {
				result = "error"
			}
			m.Forms.WithLabelValues(result).Inc()
			m.FormDuration.Observe(e.Duration.Seconds())
		},
		OnPlaceholder: func(_ context.Context, e *domain.PlaceholderEvent) {
			m.Placeholders.WithLabelValues(e.Directive, string(e.Outcome)).Inc()
		},
		OnInstances: func(_ context.Context, e *domain.InstancesEvent) {
			m.Instances.Observe(float64(e.Instances))
		},
		OnRowsCloned: func(_ context.Context, e *domain.RowsClonedEvent) {
			m.RowsCloned.Add(float64(e.Rows))
		},
	}
}
