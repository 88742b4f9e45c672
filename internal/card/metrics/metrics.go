package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the card graph engine.
type Metrics struct {
	CardsCreated       prometheus.Counter
	ParentLinksCreated prometheus.Counter
	CrossLinksCreated  prometheus.Counter
	GraphConflicts     *prometheus.CounterVec
	RecomputeDuration  prometheus.Histogram
}

// New creates a new Metrics instance with all card module metrics registered.
func New() *Metrics {
	return &Metrics{
		CardsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_cards_created_total",
			Help: "Total number of cards created",
		}),
		ParentLinksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_parent_links_created_total",
			Help: "Total number of parent/child links established",
		}),
		CrossLinksCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_cross_links_created_total",
			Help: "Total number of related-feedback cross links established",
		}),
		GraphConflicts: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "retroboard_graph_conflicts_total",
			Help: "Structural violations rejected by the graph engine",
		}, []string{"reason"}),
		RecomputeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "retroboard_aggregation_recompute_duration_seconds",
			Help:    "Duration of reaction aggregation recomputes",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		}),
	}
}

// IncrementCardsCreated records a successful card creation.
func (m *Metrics) IncrementCardsCreated() {
	m.CardsCreated.Inc()
}

// IncrementParentLinks records a successful parent link.
func (m *Metrics) IncrementParentLinks() {
	m.ParentLinksCreated.Inc()
}

// IncrementCrossLinks records a successful cross link.
func (m *Metrics) IncrementCrossLinks() {
	m.CrossLinksCreated.Inc()
}

// IncrementGraphConflict records a rejected structural violation.
func (m *Metrics) IncrementGraphConflict(reason string) {
	m.GraphConflicts.WithLabelValues(reason).Inc()
}

// ObserveRecompute records the duration of an aggregation recompute.
// Call with time.Now() at the start of the recompute.
func (m *Metrics) ObserveRecompute(start time.Time) {
	m.RecomputeDuration.Observe(time.Since(start).Seconds())
}
