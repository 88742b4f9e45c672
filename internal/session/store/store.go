package store

import (
	"context"

	"retroboard/internal/session/models"
	id "retroboard/pkg/domain"
)

// SessionStore persists board memberships.
type SessionStore interface {
	// Upsert creates the session or refreshes the alias of an existing one.
	// Returns true when a new session row was created.
	Upsert(ctx context.Context, session *models.UserSession) (created bool, err error)
	Find(ctx context.Context, boardID id.BoardID, userHash string) (*models.UserSession, error)
	ListByBoard(ctx context.Context, boardID id.BoardID) ([]*models.UserSession, error)
	CountByBoard(ctx context.Context, boardID id.BoardID) (int, error)

	// BulkInsert writes generated sessions in one round trip. Used by the
	// maintenance seeder; duplicate (board, user) pairs are rejected.
	BulkInsert(ctx context.Context, sessions []*models.UserSession) error

	// DeleteByBoard removes every session for the board, returning the count.
	DeleteByBoard(ctx context.Context, boardID id.BoardID) (int, error)
}
