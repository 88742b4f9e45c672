package store

import (
	"context"

	"retroboard/internal/board/models"
	id "retroboard/pkg/domain"
)

// BoardStore persists boards. Implementations return sentinel errors for
// infrastructure facts; services translate them into domain errors.
type BoardStore interface {
	Create(ctx context.Context, board *models.Board) error
	FindByID(ctx context.Context, boardID id.BoardID) (*models.Board, error)
	Update(ctx context.Context, board *models.Board) error

	// Execute atomically validates and mutates a board. The implementation
	// holds its lock (mutex or FOR UPDATE) across both callbacks so no
	// concurrent writer can interleave between validation and mutation.
	// When validate returns nil and mutate is applied, the updated board is
	// persisted and returned.
	Execute(ctx context.Context, boardID id.BoardID, validate func(*models.Board) error, mutate func(*models.Board)) (*models.Board, error)
}
