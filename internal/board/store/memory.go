package store

import (
	"context"
	"sync"

	"retroboard/internal/board/models"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/sentinel"
)

// InMemory keeps boards in a map. It favors clarity over performance and is
// the store used by unit tests and dependency-free local runs.
type InMemory struct {
	mu     sync.RWMutex
	boards map[id.BoardID]*models.Board
}

func NewInMemory() *InMemory {
	return &InMemory{boards: make(map[id.BoardID]*models.Board)}
}

func (s *InMemory) Create(_ context.Context, board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.boards[board.ID]; exists {
		return sentinel.ErrConflict
	}
	s.boards[board.ID] = cloneBoard(board)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, boardID id.BoardID) (*models.Board, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	board, ok := s.boards[boardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneBoard(board), nil
}

func (s *InMemory) Update(_ context.Context, board *models.Board) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.boards[board.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.boards[board.ID] = cloneBoard(board)
	return nil
}

func (s *InMemory) Execute(_ context.Context, boardID id.BoardID, validate func(*models.Board) error, mutate func(*models.Board)) (*models.Board, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	board, ok := s.boards[boardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := cloneBoard(board)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.boards[boardID] = working
	return cloneBoard(working), nil
}

// cloneBoard copies the board so callers cannot mutate stored state through
// shared slices.
func cloneBoard(b *models.Board) *models.Board {
	cp := *b
	cp.Columns = append([]models.Column(nil), b.Columns...)
	cp.Admins = append([]string(nil), b.Admins...)
	if b.CardLimitPerUser != nil {
		v := *b.CardLimitPerUser
		cp.CardLimitPerUser = &v
	}
	if b.ReactionLimitPerUser != nil {
		v := *b.ReactionLimitPerUser
		cp.ReactionLimitPerUser = &v
	}
	if b.ClosedAt != nil {
		t := *b.ClosedAt
		cp.ClosedAt = &t
	}
	return &cp
}
