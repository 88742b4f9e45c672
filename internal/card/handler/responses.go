package handler

import (
	"time"

	"retroboard/internal/card/models"
)

// CardResponse is the wire shape for a card. Author hash is only exposed on
// non-anonymous cards.
type CardResponse struct {
	ID                      string     `json:"id"`
	BoardID                 string     `json:"board_id"`
	ColumnID                string     `json:"column_id"`
	Content                 string     `json:"content"`
	CardType                string     `json:"card_type"`
	IsAnonymous             bool       `json:"is_anonymous"`
	CreatedByAlias          string     `json:"created_by_alias,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               *time.Time `json:"updated_at,omitempty"`
	ParentCardID            string     `json:"parent_card_id,omitempty"`
	LinkedFeedbackIDs       []string   `json:"linked_feedback_ids,omitempty"`
	DirectReactionCount     int        `json:"direct_reaction_count"`
	AggregatedReactionCount int        `json:"aggregated_reaction_count"`
}

// FromCard maps a card model to its wire shape.
func FromCard(c *models.Card) CardResponse {
	resp := CardResponse{
		ID:                      c.ID.String(),
		BoardID:                 c.BoardID.String(),
		ColumnID:                c.ColumnID.String(),
		Content:                 c.Content,
		CardType:                string(c.Type),
		IsAnonymous:             c.IsAnonymous,
		CreatedByAlias:          c.CreatedByAlias,
		CreatedAt:               c.CreatedAt,
		UpdatedAt:               c.UpdatedAt,
		DirectReactionCount:     c.DirectReactionCount,
		AggregatedReactionCount: c.AggregatedReactionCount,
	}
	if c.ParentCardID != nil {
		resp.ParentCardID = c.ParentCardID.String()
	}
	for _, linked := range c.LinkedFeedbackIDs {
		resp.LinkedFeedbackIDs = append(resp.LinkedFeedbackIDs, linked.String())
	}
	return resp
}

// FromCards maps a card list to wire shapes.
func FromCards(cards []*models.Card) []CardResponse {
	out := make([]CardResponse, 0, len(cards))
	for _, c := range cards {
		out = append(out, FromCard(c))
	}
	return out
}

// LinkedPairResponse is returned from cross-link operations: both updated
// endpoints of the symmetric edge.
type LinkedPairResponse struct {
	Cards []CardResponse `json:"cards"`
}
