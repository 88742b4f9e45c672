// Package service implements the card graph engine.
//
// Cards form a forest with depth-1 parent chains plus a flat symmetric set
// of cross links. Every mutation revalidates the structural invariants
// against current persisted state under a per-board lock, then recomputes
// the affected aggregated reaction counts before returning, so a caller's
// response never shows a count that will be corrected later.
package service

import (
	"context"
	"errors"
	"log/slog"

	boardmodels "retroboard/internal/board/models"
	cardmetrics "retroboard/internal/card/metrics"
	cardstore "retroboard/internal/card/store"
	reactionstore "retroboard/internal/reaction/store"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/keyedmutex"
	"retroboard/pkg/platform/sentinel"
)

// BoardReader is the slice of the board store the graph engine needs.
type BoardReader interface {
	FindByID(ctx context.Context, boardID id.BoardID) (*boardmodels.Board, error)
}

// Service is the card graph engine.
type Service struct {
	cards     cardstore.CardStore
	reactions reactionstore.ReactionStore
	boards    BoardReader
	locks     *keyedmutex.Map
	logger    *slog.Logger
	metrics   *cardmetrics.Metrics
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the service metrics.
func WithMetrics(m *cardmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the card graph engine. The keyed mutex map must be the
// same instance shared with the reaction ledger so graph and ledger writes
// to one board serialize against each other.
func New(cards cardstore.CardStore, reactions reactionstore.ReactionStore, boards BoardReader, locks *keyedmutex.Map, opts ...Option) *Service {
	s := &Service{
		cards:     cards,
		reactions: reactions,
		boards:    boards,
		locks:     locks,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// lockBoard serializes graph mutations per board. Reads never take this
// lock; they tolerate being at most one recompute cycle behind.
func (s *Service) lockBoard(ctx context.Context, boardID id.BoardID) (func(), error) {
	release, err := s.locks.Lock(ctx, boardID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "board lock interrupted")
	}
	return release, nil
}

func (s *Service) conflict(code dErrors.Code, message string) error {
	if s.metrics != nil {
		s.metrics.IncrementGraphConflict(string(code))
	}
	return dErrors.New(code, message)
}

func wrapCardErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "card not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "card already exists")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "card store failure")
	}
}

func wrapBoardErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "board not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "board store failure")
}
