package store

import (
	"context"

	"retroboard/internal/reaction/models"
	id "retroboard/pkg/domain"
)

// ReactionStore persists reactions under the (card, user, type) uniqueness
// constraint.
type ReactionStore interface {
	// Upsert stores the reaction. Returns created=false when the same
	// (card, user, type) tuple already exists; the stored row keeps its
	// original timestamp in that case.
	Upsert(ctx context.Context, reaction *models.Reaction) (created bool, err error)

	// Delete removes the reaction if present. Returns deleted=false when no
	// matching tuple exists; this is not an error.
	Delete(ctx context.Context, cardID id.CardID, userHash, reactionType string) (deleted bool, err error)

	ListByCard(ctx context.Context, cardID id.CardID) ([]*models.Reaction, error)

	// CountByBoardAndUser counts distinct reactions one user has placed
	// across the board, for reaction_limit_per_user enforcement.
	CountByBoardAndUser(ctx context.Context, boardID id.BoardID, userHash string) (int, error)

	// DeleteByCards bulk-removes reactions on the given cards, returning the
	// count removed. Callers wiping a board skip aggregation recompute.
	DeleteByCards(ctx context.Context, cardIDs []id.CardID) (int, error)

	// BulkInsert writes generated reactions in one round trip for seeding.
	// Input must already satisfy the uniqueness constraint.
	BulkInsert(ctx context.Context, reactions []*models.Reaction) error

	// DeleteByBoard removes every reaction on the board, returning the count.
	DeleteByBoard(ctx context.Context, boardID id.BoardID) (int, error)
}
