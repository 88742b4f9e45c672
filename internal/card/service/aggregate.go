package service

import (
	"context"
	"time"

	"retroboard/internal/card/models"
	id "retroboard/pkg/domain"
)

// recompute rebuilds a card's aggregated reaction count from scratch: its
// own direct count plus the direct counts of its current children. The
// result is persisted and returned. Callers must hold the board lock.
func (s *Service) recompute(ctx context.Context, cardID id.CardID) (int, error) {
	start := time.Now()

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return 0, wrapCardErr(err)
	}
	children, err := s.cards.ListChildren(ctx, cardID)
	if err != nil {
		return 0, wrapCardErr(err)
	}

	aggregated := card.DirectReactionCount
	for _, child := range children {
		aggregated += child.DirectReactionCount
	}
	if err := s.cards.SetAggregatedCount(ctx, cardID, aggregated); err != nil {
		return 0, wrapCardErr(err)
	}

	if s.metrics != nil {
		s.metrics.ObserveRecompute(start)
	}
	return aggregated, nil
}

// RecomputeAggregation recalculates one card's aggregated count under the
// board lock. Exposed for the reaction ledger, which adjusts direct counts
// and then needs the affected card and its parent brought back in line.
func (s *Service) RecomputeAggregation(ctx context.Context, cardID id.CardID) (int, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return 0, wrapCardErr(err)
	}

	release, err := s.lockBoard(ctx, card.BoardID)
	if err != nil {
		return 0, err
	}
	defer release()

	return s.recompute(ctx, cardID)
}

// ApplyReactionDelta shifts a card's direct reaction count by delta and
// recomputes the aggregation of the card and, when the card is a child, of
// its parent. This is the only path by which the reaction ledger touches
// count state; the ledger never writes card rows itself.
func (s *Service) ApplyReactionDelta(ctx context.Context, cardID id.CardID, delta int) (*models.Card, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, wrapCardErr(err)
	}

	release, err := s.lockBoard(ctx, card.BoardID)
	if err != nil {
		return nil, err
	}
	defer release()

	card, err = s.cards.AdjustDirectCount(ctx, cardID, delta)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	aggregated, err := s.recompute(ctx, cardID)
	if err != nil {
		return nil, err
	}
	card.AggregatedReactionCount = aggregated

	if card.ParentCardID != nil {
		if _, err := s.recompute(ctx, *card.ParentCardID); err != nil {
			return nil, err
		}
	}
	return card, nil
}

// RecomputeBoard rebuilds every aggregated count on a board. Used by
// maintenance after bulk writes that bypass the incremental path.
func (s *Service) RecomputeBoard(ctx context.Context, boardID id.BoardID) error {
	release, err := s.lockBoard(ctx, boardID)
	if err != nil {
		return err
	}
	defer release()

	cards, err := s.cards.ListByBoard(ctx, boardID)
	if err != nil {
		return wrapCardErr(err)
	}

	// Children first, so each parent pass reads settled direct counts.
	direct := make(map[id.CardID]int, len(cards))
	for _, card := range cards {
		direct[card.ID] = card.DirectReactionCount
	}
	for _, card := range cards {
		aggregated := card.DirectReactionCount
		for _, other := range cards {
			if other.ParentCardID != nil && *other.ParentCardID == card.ID {
				aggregated += direct[other.ID]
			}
		}
		if card.AggregatedReactionCount == aggregated {
			continue
		}
		if err := s.cards.SetAggregatedCount(ctx, card.ID, aggregated); err != nil {
			return wrapCardErr(err)
		}
	}
	return nil
}
