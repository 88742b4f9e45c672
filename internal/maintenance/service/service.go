// Package service implements maintenance operations: wiping a board's
// content, resetting it for reuse, and seeding deterministic-shaped test
// data. These are admin operations and never run on the hot path.
package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"

	boardmodels "retroboard/internal/board/models"
	cardstore "retroboard/internal/card/store"
	"retroboard/internal/maintenance/metrics"
	reactionstore "retroboard/internal/reaction/store"
	sessionstore "retroboard/internal/session/store"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/keyedmutex"
	"retroboard/pkg/platform/sentinel"
)

// BoardLifecycle is the slice of the board service maintenance needs.
type BoardLifecycle interface {
	GetBoard(ctx context.Context, boardID id.BoardID) (*boardmodels.Board, error)
	ReopenBoard(ctx context.Context, boardID id.BoardID) (*boardmodels.Board, error)
}

// Service runs maintenance operations against one board at a time.
type Service struct {
	boards    BoardLifecycle
	cards     cardstore.CardStore
	reactions reactionstore.ReactionStore
	sessions  sessionstore.SessionStore
	locks     *keyedmutex.Map
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures optional service dependencies.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics sets the service metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// New constructs the maintenance service. The keyed mutex map must be shared
// with the graph engine and reaction ledger.
func New(boards BoardLifecycle, cards cardstore.CardStore, reactions reactionstore.ReactionStore, sessions sessionstore.SessionStore, locks *keyedmutex.Map, opts ...Option) *Service {
	s := &Service{
		boards:    boards,
		cards:     cards,
		reactions: reactions,
		sessions:  sessions,
		locks:     locks,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ClearResult reports what a wipe removed.
type ClearResult struct {
	CardsDeleted     int `json:"cards_deleted"`
	ReactionsDeleted int `json:"reactions_deleted"`
	SessionsDeleted  int `json:"sessions_deleted"`
}

// ClearBoard removes every card, reaction, and session on the board. The
// board row itself, including its closed/active state, is untouched. The
// three wipes are independent tables and run concurrently.
func (s *Service) ClearBoard(ctx context.Context, boardID id.BoardID) (*ClearResult, error) {
	if _, err := s.boards.GetBoard(ctx, boardID); err != nil {
		return nil, err
	}

	release, err := s.locks.Lock(ctx, boardID.String())
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "board lock interrupted")
	}
	defer release()

	var result ClearResult
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.reactions.DeleteByBoard(gctx, boardID)
		result.ReactionsDeleted = n
		return err
	})
	g.Go(func() error {
		n, err := s.cards.DeleteByBoard(gctx, boardID)
		result.CardsDeleted = n
		return err
	})
	g.Go(func() error {
		n, err := s.sessions.DeleteByBoard(gctx, boardID)
		result.SessionsDeleted = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, wrapMaintenanceErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementCleared()
	}
	s.logger.InfoContext(ctx, "board cleared",
		"board_id", boardID,
		"cards_deleted", result.CardsDeleted,
		"reactions_deleted", result.ReactionsDeleted,
		"sessions_deleted", result.SessionsDeleted,
	)
	return &result, nil
}

// ResetResult reports a reset's effects.
type ResetResult struct {
	ClearResult
	Reopened bool `json:"reopened"`
}

// ResetBoard wipes the board's content and, when the board is closed,
// reopens it. Resetting an active board only wipes.
func (s *Service) ResetBoard(ctx context.Context, boardID id.BoardID) (*ResetResult, error) {
	board, err := s.boards.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	cleared, err := s.ClearBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}

	result := &ResetResult{ClearResult: *cleared}
	if !board.IsActive() {
		if _, err := s.boards.ReopenBoard(ctx, boardID); err != nil {
			return nil, err
		}
		result.Reopened = true
	}

	if s.metrics != nil {
		s.metrics.IncrementReset()
	}
	return result, nil
}

func wrapMaintenanceErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "board not found")
	}
	var de *dErrors.Error
	if errors.As(err, &de) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "maintenance operation failed")
}
