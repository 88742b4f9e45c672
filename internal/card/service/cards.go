package service

import (
	"context"

	boardservice "retroboard/internal/board/service"
	"retroboard/internal/card/models"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/requestcontext"
)

// CreateCard validates column membership, board state, and the per-user card
// limit, then persists a new root card with zero counts.
func (s *Service) CreateCard(ctx context.Context, boardID id.BoardID, columnID id.ColumnID, content string, cardType models.CardType, anonymous bool, authorHash, authorAlias string) (*models.Card, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return nil, wrapBoardErr(err)
	}
	if err := boardservice.AssertActive(board); err != nil {
		return nil, err
	}
	if !board.HasColumn(columnID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "column does not belong to this board")
	}

	release, err := s.lockBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	defer release()

	authored, err := s.cards.CountByBoardAndAuthor(ctx, boardID, authorHash)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	if err := boardservice.AssertUnderCardLimit(board, authored); err != nil {
		return nil, err
	}

	card, err := models.NewCard(id.NewCardID(), boardID, columnID, content, cardType, anonymous, authorHash, authorAlias, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.cards.Create(ctx, card); err != nil {
		return nil, wrapCardErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementCardsCreated()
	}
	return card, nil
}

// GetCard fetches a single card.
func (s *Service) GetCard(ctx context.Context, cardID id.CardID) (*models.Card, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	return card, nil
}

// ListCards returns every card on a board in creation order.
func (s *Service) ListCards(ctx context.Context, boardID id.BoardID) ([]*models.Card, error) {
	if _, err := s.boards.FindByID(ctx, boardID); err != nil {
		return nil, wrapBoardErr(err)
	}
	cards, err := s.cards.ListByBoard(ctx, boardID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	return cards, nil
}

// MoveCard changes a card's column. No graph effect.
func (s *Service) MoveCard(ctx context.Context, cardID id.CardID, newColumnID id.ColumnID) (*models.Card, error) {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	board, err := s.boards.FindByID(ctx, card.BoardID)
	if err != nil {
		return nil, wrapBoardErr(err)
	}
	if err := boardservice.AssertActive(board); err != nil {
		return nil, err
	}
	if !board.HasColumn(newColumnID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "column does not belong to this board")
	}

	release, err := s.lockBoard(ctx, card.BoardID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Re-read under the lock; a concurrent delete may have won.
	card, err = s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	card.ColumnID = newColumnID
	now := requestcontext.Now(ctx)
	card.UpdatedAt = &now
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, wrapCardErr(err)
	}
	return card, nil
}

// UpdateCardContent rewrites a card's text. Only the author may edit.
func (s *Service) UpdateCardContent(ctx context.Context, cardID id.CardID, content, actorHash string) (*models.Card, error) {
	if content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "card content cannot be empty")
	}
	if len(content) > 5000 {
		return nil, dErrors.New(dErrors.CodeValidation, "card content must be 5000 characters or less")
	}

	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	board, err := s.boards.FindByID(ctx, card.BoardID)
	if err != nil {
		return nil, wrapBoardErr(err)
	}
	if err := boardservice.AssertActive(board); err != nil {
		return nil, err
	}
	if card.CreatedByHash != actorHash && !board.IsAdmin(actorHash) {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the author or an admin may edit a card")
	}

	release, err := s.lockBoard(ctx, card.BoardID)
	if err != nil {
		return nil, err
	}
	defer release()

	card, err = s.cards.FindByID(ctx, cardID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	card.Content = content
	now := requestcontext.Now(ctx)
	card.UpdatedAt = &now
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, wrapCardErr(err)
	}
	return card, nil
}

// DeleteCard removes a card and repairs the graph around it: children become
// roots with their aggregation cleared to their own direct count, cross-link
// partners forget the card, reactions on it are removed, and a former parent
// is recomputed.
func (s *Service) DeleteCard(ctx context.Context, cardID id.CardID, actorHash string) error {
	card, err := s.cards.FindByID(ctx, cardID)
	if err != nil {
		return wrapCardErr(err)
	}
	board, err := s.boards.FindByID(ctx, card.BoardID)
	if err != nil {
		return wrapBoardErr(err)
	}
	if card.CreatedByHash != actorHash && !board.IsAdmin(actorHash) {
		return dErrors.New(dErrors.CodeForbidden, "only the author or an admin may delete a card")
	}

	release, err := s.lockBoard(ctx, card.BoardID)
	if err != nil {
		return err
	}
	defer release()

	card, err = s.cards.FindByID(ctx, cardID)
	if err != nil {
		return wrapCardErr(err)
	}

	// Orphan the children first so nothing points at the doomed card.
	children, err := s.cards.ListChildren(ctx, cardID)
	if err != nil {
		return wrapCardErr(err)
	}
	for _, child := range children {
		child.ParentCardID = nil
		child.AggregatedReactionCount = child.DirectReactionCount
		if err := s.cards.Update(ctx, child); err != nil {
			return wrapCardErr(err)
		}
	}

	// Remove the card from every cross-link partner.
	for _, partnerID := range card.LinkedFeedbackIDs {
		partner, err := s.cards.FindByID(ctx, partnerID)
		if err != nil {
			continue // partner already gone; nothing to repair
		}
		partner.RemoveLink(cardID)
		if err := s.cards.Update(ctx, partner); err != nil {
			return wrapCardErr(err)
		}
	}

	if _, err := s.reactions.DeleteByCards(ctx, []id.CardID{cardID}); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete card reactions")
	}
	if err := s.cards.Delete(ctx, cardID); err != nil {
		return wrapCardErr(err)
	}

	if card.ParentCardID != nil {
		if _, err := s.recompute(ctx, *card.ParentCardID); err != nil {
			return err
		}
	}

	s.logger.InfoContext(ctx, "card deleted",
		"card_id", cardID,
		"board_id", card.BoardID,
		"orphaned_children", len(children),
	)
	return nil
}
