package models

import (
	"time"

	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
)

const maxReactionTypeLen = 32

// Reaction is one user's reaction of one type on one card.
// Unique on (CardID, UserHash, Type); re-reacting is an upsert.
//
// BoardID is denormalized onto the row so per-user board-wide limits can be
// counted without joining through cards.
type Reaction struct {
	ID        id.ReactionID `json:"id"`
	CardID    id.CardID     `json:"card_id"`
	BoardID   id.BoardID    `json:"board_id"`
	UserHash  string        `json:"user_hash"`
	Type      string        `json:"reaction_type"`
	CreatedAt time.Time     `json:"created_at"`
}

// NewReaction validates and constructs a reaction.
func NewReaction(reactionID id.ReactionID, cardID id.CardID, boardID id.BoardID, userHash, reactionType string, now time.Time) (*Reaction, error) {
	if userHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "user hash is required")
	}
	if err := ValidateReactionType(reactionType); err != nil {
		return nil, err
	}
	return &Reaction{
		ID:        reactionID,
		CardID:    cardID,
		BoardID:   boardID,
		UserHash:  userHash,
		Type:      reactionType,
		CreatedAt: now,
	}, nil
}

// ValidateReactionType checks the wire-level shape of a reaction type.
// The set of types is a product concern; the core only requires a short,
// non-empty token.
func ValidateReactionType(reactionType string) error {
	if reactionType == "" {
		return dErrors.New(dErrors.CodeValidation, "reaction_type is required")
	}
	if len(reactionType) > maxReactionTypeLen {
		return dErrors.New(dErrors.CodeValidation, "reaction_type must be 32 characters or less")
	}
	return nil
}
