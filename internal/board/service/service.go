// Package service implements the board lifecycle manager: state transitions,
// membership, and per-board limits.
package service

import (
	"errors"
	"log/slog"

	boardmetrics "retroboard/internal/board/metrics"
	"retroboard/internal/board/models"
	boardstore "retroboard/internal/board/store"
	sessionstore "retroboard/internal/session/store"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/sentinel"
)

// Service orchestrates board lifecycle management.
type Service struct {
	boards   boardstore.BoardStore
	sessions sessionstore.SessionStore
	logger   *slog.Logger
	metrics  *boardmetrics.Metrics
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the service metrics.
func WithMetrics(m *boardmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the board lifecycle service.
func New(boards boardstore.BoardStore, sessions sessionstore.SessionStore, opts ...Option) *Service {
	s := &Service{
		boards:   boards,
		sessions: sessions,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssertActive fails with board_closed when a mutating operation targets a
// closed board.
func AssertActive(board *models.Board) error {
	if !board.IsActive() {
		return dErrors.New(dErrors.CodeBoardClosed, "board is closed")
	}
	return nil
}

// AssertUnderCardLimit enforces card_limit_per_user when the board sets one.
// currentCount is the number of cards the user already authored on the board.
func AssertUnderCardLimit(board *models.Board, currentCount int) error {
	if board.CardLimitPerUser != nil && currentCount >= *board.CardLimitPerUser {
		return dErrors.New(dErrors.CodeCardLimitReached, "per-user card limit reached for this board")
	}
	return nil
}

// AssertUnderReactionLimit enforces reaction_limit_per_user when the board
// sets one. currentCount is the user's distinct reactions across the board.
func AssertUnderReactionLimit(board *models.Board, currentCount int) error {
	if board.ReactionLimitPerUser != nil && currentCount >= *board.ReactionLimitPerUser {
		return dErrors.New(dErrors.CodeReactionLimitReached, "per-user reaction limit reached for this board")
	}
	return nil
}

// wrapBoardErr translates store sentinels into domain errors.
func wrapBoardErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "board not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "board already exists")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "board store failure")
	}
}
