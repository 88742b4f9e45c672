package models

import (
	"time"

	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
)

// CardType distinguishes plain feedback from action items.
type CardType string

const (
	CardTypeFeedback CardType = "feedback"
	CardTypeAction   CardType = "action"
)

const maxContentLen = 5000

// ParseCardType validates a card type arriving over the wire.
func ParseCardType(s string) (CardType, error) {
	switch CardType(s) {
	case CardTypeFeedback, CardTypeAction:
		return CardType(s), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "card_type must be feedback or action")
	}
}

// Card is a single feedback or action item on a board.
//
// Relationship invariants (enforced by the graph engine, restated here
// because every mutation must preserve them):
//   - ParentCardID, when set, references a card on the same board and never
//     the card itself; parent chains are capped at depth 1
//   - LinkedFeedbackIDs is a symmetric set, never contains the card itself,
//     and is mutually exclusive with a parent/child relation on a pair
//   - AggregatedReactionCount = DirectReactionCount + sum of children's
//     DirectReactionCount
type Card struct {
	ID                      id.CardID   `json:"id"`
	BoardID                 id.BoardID  `json:"board_id"`
	ColumnID                id.ColumnID `json:"column_id"`
	Content                 string      `json:"content"`
	Type                    CardType    `json:"card_type"`
	IsAnonymous             bool        `json:"is_anonymous"`
	CreatedByHash           string      `json:"created_by_hash"`
	CreatedByAlias          string      `json:"created_by_alias,omitempty"`
	CreatedAt               time.Time   `json:"created_at"`
	UpdatedAt               *time.Time  `json:"updated_at,omitempty"`
	ParentCardID            *id.CardID  `json:"parent_card_id,omitempty"`
	LinkedFeedbackIDs       []id.CardID `json:"linked_feedback_ids,omitempty"`
	DirectReactionCount     int         `json:"direct_reaction_count"`
	AggregatedReactionCount int         `json:"aggregated_reaction_count"`
}

// NewCard validates and constructs a root card with zero counts.
// Anonymous cards never carry an author alias.
func NewCard(cardID id.CardID, boardID id.BoardID, columnID id.ColumnID, content string, cardType CardType, anonymous bool, authorHash, authorAlias string, now time.Time) (*Card, error) {
	if content == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "card content cannot be empty")
	}
	if len(content) > maxContentLen {
		return nil, dErrors.New(dErrors.CodeValidation, "card content must be 5000 characters or less")
	}
	if authorHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "author hash is required")
	}
	alias := authorAlias
	if anonymous {
		alias = ""
	}
	return &Card{
		ID:             cardID,
		BoardID:        boardID,
		ColumnID:       columnID,
		Content:        content,
		Type:           cardType,
		IsAnonymous:    anonymous,
		CreatedByHash:  authorHash,
		CreatedByAlias: alias,
		CreatedAt:      now,
	}, nil
}

// HasLink reports whether other is in the card's cross-link set.
func (c *Card) HasLink(other id.CardID) bool {
	for _, linked := range c.LinkedFeedbackIDs {
		if linked == other {
			return true
		}
	}
	return false
}

// AddLink inserts other into the cross-link set. Idempotent.
func (c *Card) AddLink(other id.CardID) {
	if !c.HasLink(other) {
		c.LinkedFeedbackIDs = append(c.LinkedFeedbackIDs, other)
	}
}

// RemoveLink removes other from the cross-link set. No-op when absent.
func (c *Card) RemoveLink(other id.CardID) {
	for i, linked := range c.LinkedFeedbackIDs {
		if linked == other {
			c.LinkedFeedbackIDs = append(c.LinkedFeedbackIDs[:i], c.LinkedFeedbackIDs[i+1:]...)
			return
		}
	}
}

// IsChildOf reports whether the card's parent pointer references parentID.
func (c *Card) IsChildOf(parentID id.CardID) bool {
	return c.ParentCardID != nil && *c.ParentCardID == parentID
}
