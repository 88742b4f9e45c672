package service

import (
	"context"
	"errors"

	"retroboard/internal/board/models"
	sessionmodels "retroboard/internal/session/models"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/sentinel"
	"retroboard/pkg/requestcontext"
)

// CreateBoard validates and persists a new active board. The creator gets a
// session and becomes the board's first admin.
func (s *Service) CreateBoard(ctx context.Context, name string, columns []models.Column, cardLimit, reactionLimit *int, creatorHash, creatorAlias string) (*models.Board, error) {
	now := requestcontext.Now(ctx)

	board, err := models.NewBoard(id.NewBoardID(), name, columns, cardLimit, reactionLimit, creatorHash, now)
	if err != nil {
		return nil, err
	}
	if err := s.boards.Create(ctx, board); err != nil {
		return nil, wrapBoardErr(err)
	}

	session := &sessionmodels.UserSession{
		BoardID:  board.ID,
		UserHash: creatorHash,
		Alias:    creatorAlias,
		JoinedAt: now,
	}
	if _, err := s.sessions.Upsert(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create creator session")
	}

	if s.metrics != nil {
		s.metrics.IncrementBoardsCreated()
	}
	return board, nil
}

// GetBoard fetches a board by ID.
func (s *Service) GetBoard(ctx context.Context, boardID id.BoardID) (*models.Board, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return nil, wrapBoardErr(err)
	}
	return board, nil
}

// JoinBoard creates (or refreshes) a participant session on an active board.
func (s *Service) JoinBoard(ctx context.Context, boardID id.BoardID, userHash, alias string) (*sessionmodels.UserSession, error) {
	board, err := s.boards.FindByID(ctx, boardID)
	if err != nil {
		return nil, wrapBoardErr(err)
	}
	if err := AssertActive(board); err != nil {
		return nil, err
	}

	session := &sessionmodels.UserSession{
		BoardID:  boardID,
		UserHash: userHash,
		Alias:    alias,
		JoinedAt: requestcontext.Now(ctx),
	}
	created, err := s.sessions.Upsert(ctx, session)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to join board")
	}
	if created && s.metrics != nil {
		s.metrics.IncrementBoardsJoined()
	}
	return session, nil
}

// CloseBoard transitions a board to closed. Requires the actor to be a board
// admin. Re-closing an already-closed board is a harmless no-op that returns
// the current state.
func (s *Service) CloseBoard(ctx context.Context, boardID id.BoardID, actorHash string) (*models.Board, error) {
	now := requestcontext.Now(ctx)

	board, err := s.boards.Execute(ctx, boardID,
		func(b *models.Board) error {
			if !b.IsAdmin(actorHash) {
				return dErrors.New(dErrors.CodeForbidden, "only a board admin may close the board")
			}
			return nil
		},
		func(b *models.Board) {
			if b.IsActive() {
				b.ApplyClose(now)
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, wrapBoardErr(err)
		}
		var de *dErrors.Error
		if errors.As(err, &de) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to close board")
	}

	if s.metrics != nil {
		s.metrics.IncrementBoardsClosed()
	}
	s.logger.InfoContext(ctx, "board closed",
		"board_id", boardID,
		"actor_hash", actorHash,
	)
	return board, nil
}

// ReopenBoard transitions a closed board back to active and clears its
// closed timestamp. It is only reachable through the maintenance reset
// operation and is deliberately not routed as a bare user action.
func (s *Service) ReopenBoard(ctx context.Context, boardID id.BoardID) (*models.Board, error) {
	board, err := s.boards.Execute(ctx, boardID,
		func(b *models.Board) error { return nil },
		func(b *models.Board) {
			if !b.IsActive() {
				b.ApplyReopen()
			}
		},
	)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, wrapBoardErr(err)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to reopen board")
	}
	return board, nil
}
