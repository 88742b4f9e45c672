package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the board module.
type Metrics struct {
	BoardsCreated   prometheus.Counter
	BoardsClosed    prometheus.Counter
	BoardsJoined    prometheus.Counter
	GetBoardLatency prometheus.Histogram
}

// New creates a new Metrics instance with all board module metrics registered.
func New() *Metrics {
	return &Metrics{
		BoardsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_boards_created_total",
			Help: "Total number of boards created",
		}),
		BoardsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_boards_closed_total",
			Help: "Total number of boards closed by an admin",
		}),
		BoardsJoined: promauto.NewCounter(prometheus.CounterOpts{
			Name: "retroboard_board_joins_total",
			Help: "Total number of participant joins (new sessions only)",
		}),
		GetBoardLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "retroboard_get_board_duration_seconds",
			Help:    "Duration of board fetches (read hot path)",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementBoardsCreated records a successful board creation.
func (m *Metrics) IncrementBoardsCreated() {
	m.BoardsCreated.Inc()
}

// IncrementBoardsClosed records a board close.
func (m *Metrics) IncrementBoardsClosed() {
	m.BoardsClosed.Inc()
}

// IncrementBoardsJoined records a new participant session.
func (m *Metrics) IncrementBoardsJoined() {
	m.BoardsJoined.Inc()
}

// ObserveGetBoard records the duration of a board fetch.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveGetBoard(start time.Time) {
	m.GetBoardLatency.Observe(time.Since(start).Seconds())
}
