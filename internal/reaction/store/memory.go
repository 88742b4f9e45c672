package store

import (
	"context"
	"sync"

	"retroboard/internal/reaction/models"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/sentinel"
)

type reactionKey struct {
	card id.CardID
	user string
	typ  string
}

// InMemory keeps reactions keyed by their uniqueness tuple.
type InMemory struct {
	mu        sync.RWMutex
	reactions map[reactionKey]*models.Reaction
}

func NewInMemory() *InMemory {
	return &InMemory{reactions: make(map[reactionKey]*models.Reaction)}
}

func key(r *models.Reaction) reactionKey {
	return reactionKey{card: r.CardID, user: r.UserHash, typ: r.Type}
}

func (s *InMemory) Upsert(_ context.Context, reaction *models.Reaction) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.reactions[key(reaction)]; exists {
		return false, nil
	}
	cp := *reaction
	s.reactions[key(reaction)] = &cp
	return true, nil
}

func (s *InMemory) Delete(_ context.Context, cardID id.CardID, userHash, reactionType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := reactionKey{card: cardID, user: userHash, typ: reactionType}
	if _, exists := s.reactions[k]; !exists {
		return false, nil
	}
	delete(s.reactions, k)
	return true, nil
}

func (s *InMemory) ListByCard(_ context.Context, cardID id.CardID) ([]*models.Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Reaction
	for k, reaction := range s.reactions {
		if k.card == cardID {
			cp := *reaction
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemory) CountByBoardAndUser(_ context.Context, boardID id.BoardID, userHash string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, reaction := range s.reactions {
		if reaction.BoardID == boardID && reaction.UserHash == userHash {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) DeleteByCards(_ context.Context, cardIDs []id.CardID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	targets := make(map[id.CardID]struct{}, len(cardIDs))
	for _, cardID := range cardIDs {
		targets[cardID] = struct{}{}
	}
	deleted := 0
	for k := range s.reactions {
		if _, ok := targets[k.card]; ok {
			delete(s.reactions, k)
			deleted++
		}
	}
	return deleted, nil
}

func (s *InMemory) BulkInsert(_ context.Context, reactions []*models.Reaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, reaction := range reactions {
		if _, exists := s.reactions[key(reaction)]; exists {
			return sentinel.ErrAlreadyUsed
		}
	}
	for _, reaction := range reactions {
		cp := *reaction
		s.reactions[key(reaction)] = &cp
	}
	return nil
}

func (s *InMemory) DeleteByBoard(_ context.Context, boardID id.BoardID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for k, reaction := range s.reactions {
		if reaction.BoardID == boardID {
			delete(s.reactions, k)
			deleted++
		}
	}
	return deleted, nil
}
