package store

import (
	"context"
	"sort"
	"sync"

	"retroboard/internal/card/models"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/sentinel"
)

// InMemory keeps cards in a map keyed by card ID. All lookups copy, so
// callers never share state with the store.
type InMemory struct {
	mu    sync.RWMutex
	cards map[id.CardID]*models.Card
}

func NewInMemory() *InMemory {
	return &InMemory{cards: make(map[id.CardID]*models.Card)}
}

func (s *InMemory) Create(_ context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.cards[card.ID]; exists {
		return sentinel.ErrConflict
	}
	s.cards[card.ID] = cloneCard(card)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, cardID id.CardID) (*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	card, ok := s.cards[cardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return cloneCard(card), nil
}

func (s *InMemory) Update(_ context.Context, card *models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[card.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.cards[card.ID] = cloneCard(card)
	return nil
}

func (s *InMemory) Delete(_ context.Context, cardID id.CardID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[cardID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.cards, cardID)
	return nil
}

func (s *InMemory) ListByBoard(_ context.Context, boardID id.BoardID) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Card
	for _, card := range s.cards {
		if card.BoardID == boardID {
			out = append(out, cloneCard(card))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) ListChildren(_ context.Context, parentID id.CardID) ([]*models.Card, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Card
	for _, card := range s.cards {
		if card.IsChildOf(parentID) {
			out = append(out, cloneCard(card))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemory) CountByBoard(_ context.Context, boardID id.BoardID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, card := range s.cards {
		if card.BoardID == boardID {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) CountByBoardAndAuthor(_ context.Context, boardID id.BoardID, authorHash string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, card := range s.cards {
		if card.BoardID == boardID && card.CreatedByHash == authorHash {
			count++
		}
	}
	return count, nil
}

func (s *InMemory) AdjustDirectCount(_ context.Context, cardID id.CardID, delta int) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[cardID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	card.DirectReactionCount += delta
	if card.DirectReactionCount < 0 {
		card.DirectReactionCount = 0
	}
	return cloneCard(card), nil
}

func (s *InMemory) SetAggregatedCount(_ context.Context, cardID id.CardID, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	card, ok := s.cards[cardID]
	if !ok {
		return sentinel.ErrNotFound
	}
	card.AggregatedReactionCount = count
	return nil
}

func (s *InMemory) BulkInsert(_ context.Context, cards []*models.Card) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, card := range cards {
		if _, exists := s.cards[card.ID]; exists {
			return sentinel.ErrConflict
		}
	}
	for _, card := range cards {
		s.cards[card.ID] = cloneCard(card)
	}
	return nil
}

func (s *InMemory) DeleteByBoard(_ context.Context, boardID id.BoardID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for cardID, card := range s.cards {
		if card.BoardID == boardID {
			delete(s.cards, cardID)
			deleted++
		}
	}
	return deleted, nil
}

func cloneCard(c *models.Card) *models.Card {
	cp := *c
	cp.LinkedFeedbackIDs = append([]id.CardID(nil), c.LinkedFeedbackIDs...)
	if c.ParentCardID != nil {
		p := *c.ParentCardID
		cp.ParentCardID = &p
	}
	if c.UpdatedAt != nil {
		t := *c.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}
