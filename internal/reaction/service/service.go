// Package service implements the reaction ledger.
//
// The ledger owns reaction rows and nothing else. Count side effects on
// cards flow through the graph engine's ApplyReactionDelta so aggregation
// stays in one place.
package service

import (
	"context"
	"errors"
	"log/slog"

	boardmodels "retroboard/internal/board/models"
	boardservice "retroboard/internal/board/service"
	cardmodels "retroboard/internal/card/models"
	"retroboard/internal/reaction/metrics"
	"retroboard/internal/reaction/models"
	"retroboard/internal/reaction/store"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/keyedmutex"
	"retroboard/pkg/platform/sentinel"
	"retroboard/pkg/requestcontext"
)

// CardReader resolves cards so the ledger can locate the owning board.
type CardReader interface {
	FindByID(ctx context.Context, cardID id.CardID) (*cardmodels.Card, error)
}

// BoardReader is the slice of the board store the ledger needs.
type BoardReader interface {
	FindByID(ctx context.Context, boardID id.BoardID) (*boardmodels.Board, error)
}

// Aggregator applies reaction count deltas to the card graph.
type Aggregator interface {
	ApplyReactionDelta(ctx context.Context, cardID id.CardID, delta int) (*cardmodels.Card, error)
}

// Service is the reaction ledger.
type Service struct {
	reactions store.ReactionStore
	cards     CardReader
	boards    BoardReader
	graph     Aggregator
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

// New constructs the reaction ledger. The keyed mutex map must be the same
// instance the graph engine uses so ledger writes to a board serialize with
// graph writes.
func New(reactions store.ReactionStore, cards CardReader, boards BoardReader, graph Aggregator, locks *keyedmutex.Map, opts ...Option) *Service {
	s := &Service{
		reactions: reactions,
		cards:     cards,
		boards:    boards,
		graph:     graph,
		locks:     locks,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddReaction records a (card, user, type) reaction. Re-reacting with the
// same tuple is a no-op that returns created=false and leaves all counts
// untouched. The returned card carries post-recompute counts.
func (s *Service) AddReaction(ctx context.Context, cardID id.CardID, userHash, reactionType string) (*cardmodels.Card, bool, error) {
	if err := models.ValidateReactionType(reactionType); err != nil {
		return nil, false, err
	}

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, false, wrapReactionErr(err)
	}
	board, err := s.boards.FindByID(ctx, card.BoardID)
	if err != nil {
		return nil, false, wrapBoardErr(err)
	}
	if err := boardservice.AssertActive(board); err != nil {
		return nil, false, err
	}

	created, err := func() (bool, error) {
		release, err := s.locks.Lock(ctx, card.BoardID.String())
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "board lock interrupted")
		}
		defer release()

		placed, err := s.reactions.CountByBoardAndUser(ctx, card.BoardID, userHash)
		if err != nil {
			return false, wrapReactionErr(err)
		}
		if err := boardservice.AssertUnderReactionLimit(board, placed); err != nil {
			if s.metrics != nil {
				s.metrics.IncrementLimitRejection()
			}
			return false, err
		}

		reaction, err := models.NewReaction(id.NewReactionID(), cardID, card.BoardID, userHash, reactionType, requestcontext.Now(ctx))
		if err != nil {
			return false, err
		}
		return s.reactions.Upsert(ctx, reaction)
	}()
	if err != nil {
		return nil, false, err
	}

	if !created {
		if s.metrics != nil {
			s.metrics.IncrementDuplicate()
		}
		return card, false, nil
	}

	card, err = s.graph.ApplyReactionDelta(ctx, cardID, 1)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.IncrementAdded()
	}
	return card, true, nil
}

// RemoveReaction deletes the (card, user, type) tuple if present. Removing
// an absent reaction is a no-op that returns removed=false.
func (s *Service) RemoveReaction(ctx context.Context, cardID id.CardID, userHash, reactionType string) (*cardmodels.Card, bool, error) {
	if err := models.ValidateReactionType(reactionType); err != nil {
		return nil, false, err
	}

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, false, wrapReactionErr(err)
	}
	board, err := s.boards.FindByID(ctx, card.BoardID)
	if err != nil {
		return nil, false, wrapBoardErr(err)
	}
	if err := boardservice.AssertActive(board); err != nil {
		return nil, false, err
	}

	deleted, err := func() (bool, error) {
		release, err := s.locks.Lock(ctx, card.BoardID.String())
		if err != nil {
			return false, dErrors.Wrap(err, dErrors.CodeInternal, "board lock interrupted")
		}
		defer release()

		return s.reactions.Delete(ctx, cardID, userHash, reactionType)
	}()
	if err != nil {
		return nil, false, wrapReactionErr(err)
	}
	if !deleted {
		return card, false, nil
	}

	card, err = s.graph.ApplyReactionDelta(ctx, cardID, -1)
	if err != nil {
		return nil, false, err
	}
	if s.metrics != nil {
		s.metrics.IncrementRemoved()
	}
	return card, true, nil
}

// ListReactions returns every reaction on a card.
func (s *Service) ListReactions(ctx context.Context, cardID id.CardID) ([]*models.Reaction, error) {
	if _, err := s.cards.FindByID(ctx, cardID); err != nil {
		return nil, wrapReactionErr(err)
	}
	reactions, err := s.reactions.ListByCard(ctx, cardID)
	if err != nil {
		return nil, wrapReactionErr(err)
	}
	return reactions, nil
}

func wrapReactionErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "card not found")
	default:
		var de *dErrors.Error
		if errors.As(err, &de) {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "reaction store failure")
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
