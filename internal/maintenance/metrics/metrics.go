package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for maintenance operations.
type Metrics struct {
	BoardsCleared prometheus.Counter
	BoardsReset   prometheus.Counter
	BoardsSeeded  prometheus.Counter
	SeedDuration  prometheus.Histogram
}

// New creates a new Metrics instance with all maintenance metrics registered.
func New() *Metrics {
	return &Metrics{
		BoardsCleared: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_boards_cleared_total",
			Help: "Total number of board content wipes",
		}),
		BoardsReset: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_boards_reset_total",
			Help: "Total number of board resets",
		}),
		BoardsSeeded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_boards_seeded_total",
			Help: "Total number of test data seeds",
		}),
		SeedDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "retroboard_seed_duration_seconds",
			Help:    "Duration of test data seeding",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// IncrementCleared records a board wipe.
func (m *Metrics) IncrementCleared() {
	m.BoardsCleared.Inc()
}

// IncrementReset records a board reset.
func (m *Metrics) IncrementReset() {
	m.BoardsReset.Inc()
}

// IncrementSeeded records a test data seed.
func (m *Metrics) IncrementSeeded() {
	m.BoardsSeeded.Inc()
}

// ObserveSeed records how long a seed took. Call with time.Now() taken at
// the start.
func (m *Metrics) ObserveSeed(start time.Time) {
	m.SeedDuration.Observe(time.Since(start).Seconds())
}
