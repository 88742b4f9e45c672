package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the reaction ledger.
type Metrics struct {
	ReactionsAdded     prometheus.Counter
	ReactionsRemoved   prometheus.Counter
	DuplicateReactions prometheus.Counter
	LimitRejections    prometheus.Counter
}

// New creates a new Metrics instance with all reaction module metrics registered.
func New() *Metrics {
	return &Metrics{
		ReactionsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_reactions_added_total",
			Help: "Total number of reactions stored",
		}),
		ReactionsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_reactions_removed_total",
			Help: "Total number of reactions removed",
		}),
		DuplicateReactions: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_reactions_duplicate_total",
			Help: "Reactions absorbed as no-ops by the uniqueness constraint",
		}),
		LimitRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_reaction_limit_rejections_total",
			Help: "Reactions rejected by the per-user board limit",
		}),
	}
}

// IncrementAdded records a newly stored reaction.
func (m *Metrics) IncrementAdded() {
	m.ReactionsAdded.Inc()
}

// IncrementRemoved records a removed reaction.
func (m *Metrics) IncrementRemoved() {
	m.ReactionsRemoved.Inc()
}

// IncrementDuplicate records an upsert that matched an existing tuple.
func (m *Metrics) IncrementDuplicate() {
	m.DuplicateReactions.Inc()
}

// IncrementLimitRejection records a per-user limit rejection.
func (m *Metrics) IncrementLimitRejection() {
	m.LimitRejections.Inc()
}
