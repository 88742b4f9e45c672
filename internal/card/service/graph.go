package service

import (
	"context"

	"retroboard/internal/card/models"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/requestcontext"
)

// SetParentLink establishes child.ParentCardID = parentID.
//
// All structural checks run against current persisted state under the board
// lock, never against a caller snapshot: two concurrent links must not both
// pass validation and jointly violate an invariant. Re-parenting an
// already-parented child is allowed; the old parent is recomputed after the
// move.
func (s *Service) SetParentLink(ctx context.Context, childID, parentID id.CardID) (*models.Card, error) {
	if childID == parentID {
		return nil, s.conflict(dErrors.CodeCircularRelationship, "a card cannot be its own parent")
	}

	// Resolve the board before locking; both cards must agree on it.
	child, err := s.cards.FindByID(ctx, childID)
	if err != nil {
		return nil, wrapCardErr(err)
	}

	release, err := s.lockBoard(ctx, child.BoardID)
	if err != nil {
		return nil, err
	}
	defer release()

	// Reload both cards under the lock.
	child, err = s.cards.FindByID(ctx, childID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	parent, err := s.cards.FindByID(ctx, parentID)
	if err != nil {
		return nil, wrapCardErr(err)
	}

	if child.BoardID != parent.BoardID {
		return nil, dErrors.New(dErrors.CodeValidation, "cards must belong to the same board")
	}
	if child.HasLink(parentID) {
		return nil, s.conflict(dErrors.CodeConflict, "cards already linked as related feedback")
	}

	// Depth cap: the designated parent may not itself be a child.
	if parent.ParentCardID != nil {
		return nil, s.conflict(dErrors.CodeParentCannotBeChild, "parent card is already a child of another card")
	}

	// Depth cap, other direction: a card that already has children may not
	// acquire a parent.
	grandchildren, err := s.cards.ListChildren(ctx, childID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	if len(grandchildren) > 0 {
		return nil, s.conflict(dErrors.CodeChildCannotBeParent, "card already has children and cannot become a child")
	}

	// Walk the parent's ancestor chain. The depth cap makes a chain of any
	// length impossible today, but the walk is kept bounded by board size so
	// a future relaxation of the cap cannot loop forever.
	boardCards, err := s.cards.CountByBoard(ctx, child.BoardID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	cursor := parent
	for steps := 0; cursor.ParentCardID != nil && steps < boardCards; steps++ {
		if *cursor.ParentCardID == childID {
			return nil, s.conflict(dErrors.CodeCircularRelationship, "linking these cards would create a cycle")
		}
		cursor, err = s.cards.FindByID(ctx, *cursor.ParentCardID)
		if err != nil {
			return nil, wrapCardErr(err)
		}
	}

	oldParentID := child.ParentCardID
	child.ParentCardID = &parentID
	now := requestcontext.Now(ctx)
	child.UpdatedAt = &now
	if err := s.cards.Update(ctx, child); err != nil {
		return nil, wrapCardErr(err)
	}

	// A freshly linked child never aggregates beyond itself.
	child.AggregatedReactionCount = child.DirectReactionCount
	if err := s.cards.SetAggregatedCount(ctx, childID, child.AggregatedReactionCount); err != nil {
		return nil, wrapCardErr(err)
	}

	if _, err := s.recompute(ctx, parentID); err != nil {
		return nil, err
	}
	if oldParentID != nil && *oldParentID != parentID {
		if _, err := s.recompute(ctx, *oldParentID); err != nil {
			return nil, err
		}
	}

	if s.metrics != nil {
		s.metrics.IncrementParentLinks()
	}
	s.logger.InfoContext(ctx, "parent link set",
		"child_id", childID,
		"parent_id", parentID,
		"board_id", child.BoardID,
	)
	return child, nil
}

// RemoveParentLink clears the child's parent pointer and recomputes the
// former parent's aggregation. Unlinking a card that has no parent is a
// no-op.
func (s *Service) RemoveParentLink(ctx context.Context, childID id.CardID) (*models.Card, error) {
	child, err := s.cards.FindByID(ctx, childID)
	if err != nil {
		return nil, wrapCardErr(err)
	}

	release, err := s.lockBoard(ctx, child.BoardID)
	if err != nil {
		return nil, err
	}
	defer release()

	child, err = s.cards.FindByID(ctx, childID)
	if err != nil {
		return nil, wrapCardErr(err)
	}
	if child.ParentCardID == nil {
		return child, nil
	}

	formerParent := *child.ParentCardID
	child.ParentCardID = nil
	now := requestcontext.Now(ctx)
	child.UpdatedAt = &now
	if err := s.cards.Update(ctx, child); err != nil {
		return nil, wrapCardErr(err)
	}

	child.AggregatedReactionCount = child.DirectReactionCount
	if err := s.cards.SetAggregatedCount(ctx, childID, child.AggregatedReactionCount); err != nil {
		return nil, wrapCardErr(err)
	}
	if _, err := s.recompute(ctx, formerParent); err != nil {
		return nil, err
	}
	return child, nil
}

// AddCrossLink inserts a symmetric related-feedback edge between two cards.
// Idempotent on repeat. A pair in a parent/child relation may not also be
// cross-linked; the two relationship kinds are mutually exclusive.
func (s *Service) AddCrossLink(ctx context.Context, cardAID, cardBID id.CardID) (*models.Card, *models.Card, error) {
	if cardAID == cardBID {
		return nil, nil, s.conflict(dErrors.CodeValidation, "a card cannot be linked to itself")
	}

	probe, err := s.cards.FindByID(ctx, cardAID)
	if err != nil {
		return nil, nil, wrapCardErr(err)
	}

	release, err := s.lockBoard(ctx, probe.BoardID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	cardA, err := s.cards.FindByID(ctx, cardAID)
	if err != nil {
		return nil, nil, wrapCardErr(err)
	}
	cardB, err := s.cards.FindByID(ctx, cardBID)
	if err != nil {
		return nil, nil, wrapCardErr(err)
	}
	if cardA.BoardID != cardB.BoardID {
		return nil, nil, dErrors.New(dErrors.CodeValidation, "cards must belong to the same board")
	}
	if cardA.IsChildOf(cardBID) || cardB.IsChildOf(cardAID) {
		return nil, nil, s.conflict(dErrors.CodeConflict, "cards in a parent/child relation cannot also be cross-linked")
	}

	if cardA.HasLink(cardBID) && cardB.HasLink(cardAID) {
		return cardA, cardB, nil
	}

	cardA.AddLink(cardBID)
	cardB.AddLink(cardAID)
	if err := s.cards.Update(ctx, cardA); err != nil {
		return nil, nil, wrapCardErr(err)
	}
	if err := s.cards.Update(ctx, cardB); err != nil {
		return nil, nil, wrapCardErr(err)
	}

	if s.metrics != nil {
		s.metrics.IncrementCrossLinks()
	}
	return cardA, cardB, nil
}

// RemoveCrossLink removes the symmetric edge from both cards. No-op when
// the edge does not exist.
func (s *Service) RemoveCrossLink(ctx context.Context, cardAID, cardBID id.CardID) (*models.Card, *models.Card, error) {
	probe, err := s.cards.FindByID(ctx, cardAID)
	if err != nil {
		return nil, nil, wrapCardErr(err)
	}

	release, err := s.lockBoard(ctx, probe.BoardID)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	cardA, err := s.cards.FindByID(ctx, cardAID)
	if err != nil {
		return nil, nil, wrapCardErr(err)
	}
	cardB, err := s.cards.FindByID(ctx, cardBID)
	if err != nil {
		return nil, nil, wrapCardErr(err)
	}

	cardA.RemoveLink(cardBID)
	cardB.RemoveLink(cardAID)
	if err := s.cards.Update(ctx, cardA); err != nil {
		return nil, nil, wrapCardErr(err)
	}
	if err := s.cards.Update(ctx, cardB); err != nil {
		return nil, nil, wrapCardErr(err)
	}
	return cardA, cardB, nil
}
