package store

import (
	"context"
	"sync"

	"retroboard/internal/session/models"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/sentinel"
)

type sessionKey struct {
	board id.BoardID
	user  string
}

// InMemory keeps sessions keyed by (board, user).
type InMemory struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*models.UserSession
}

func NewInMemory() *InMemory {
	return &InMemory{sessions: make(map[sessionKey]*models.UserSession)}
}

func (s *InMemory) Upsert(_ context.Context, session *models.UserSession) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionKey{board: session.BoardID, user: session.UserHash}
	existing, ok := s.sessions[key]
	if ok {
		existing.Alias = session.Alias
		return false, nil
	}
	cp := *session
	s.sessions[key] = &cp
	return true, nil
}

func (s *InMemory) Find(_ context.Context, boardID id.BoardID, userHash string) (*models.UserSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[sessionKey{board: boardID, user: userHash}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *session
	return &cp, nil
}

func (s *InMemory) ListByBoard(_ context.Context, boardID id.BoardID) ([]*models.UserSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.UserSession
	for key, session := range s.sessions {
		if key.board == boardID {
			cp := *session
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) CountByBoard(_ context.Context, boardID id.BoardID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for key := range s.sessions {
		if key.board == boardID {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) BulkInsert(_ context.Context, sessions []*models.UserSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range sessions {
		key := sessionKey{board: session.BoardID, user: session.UserHash}
		if _, exists := s.sessions[key]; exists {
			return sentinel.ErrAlreadyUsed
		}
	}
	for _, session := range sessions {
		cp := *session
		s.sessions[sessionKey{board: session.BoardID, user: session.UserHash}] = &cp
	}
	return nil
}

func (s *InMemory) DeleteByBoard(_ context.Context, boardID id.BoardID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key := range s.sessions {
		if key.board == boardID {
			delete(s.sessions, key)
			deleted++
		}
	}
	return deleted, nil
}
