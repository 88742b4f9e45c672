package store

import (
	"context"

	"retroboard/internal/card/models"
	id "retroboard/pkg/domain"
)

// CardStore persists cards as a flat indexed table: parent pointers and
// cross-link sets are plain columns, never nested objects, so any card can
// be looked up, moved, and relinked independently.
//
// Implementations return sentinel errors for infrastructure facts; the graph
// engine translates them into domain errors.
type CardStore interface {
	Create(ctx context.Context, card *models.Card) error
	FindByID(ctx context.Context, cardID id.CardID) (*models.Card, error)
	Update(ctx context.Context, card *models.Card) error
	Delete(ctx context.Context, cardID id.CardID) error

	ListByBoard(ctx context.Context, boardID id.BoardID) ([]*models.Card, error)
	// ListChildren returns every card whose parent pointer references parentID.
	ListChildren(ctx context.Context, parentID id.CardID) ([]*models.Card, error)
	CountByBoard(ctx context.Context, boardID id.BoardID) (int, error)
	CountByBoardAndAuthor(ctx context.Context, boardID id.BoardID, authorHash string) (int, error)

	// AdjustDirectCount applies a reaction delta to one card's direct count
	// and returns the updated card. The aggregated count is the graph
	// engine's responsibility.
	AdjustDirectCount(ctx context.Context, cardID id.CardID, delta int) (*models.Card, error)
	// SetAggregatedCount overwrites a card's aggregated count.
	SetAggregatedCount(ctx context.Context, cardID id.CardID, count int) error

	// BulkInsert writes generated cards in one round trip for seeding.
	BulkInsert(ctx context.Context, cards []*models.Card) error
	// DeleteByBoard removes every card on the board, returning the count.
	DeleteByBoard(ctx context.Context, boardID id.BoardID) (int, error)
}
