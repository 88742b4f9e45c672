package handler

import (
	"time"

	"retroboard/internal/board/models"
)

// BoardResponse is the wire shape for a board.
type BoardResponse struct {
	ID                   string           `json:"id"`
	Name                 string           `json:"name"`
	Columns              []ColumnResponse `json:"columns"`
	State                string           `json:"state"`
	CardLimitPerUser     *int             `json:"card_limit_per_user,omitempty"`
	ReactionLimitPerUser *int             `json:"reaction_limit_per_user,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
	ClosedAt             *time.Time       `json:"closed_at,omitempty"`
}

// ColumnResponse is one column inside BoardResponse.
type ColumnResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// FromBoard maps a board model to its wire shape. Creator hash and the admin
// list stay server-side.
func FromBoard(b *models.Board) BoardResponse {
	columns := make([]ColumnResponse, 0, len(b.Columns))
	for _, c := range b.Columns {
		columns = append(columns, ColumnResponse{
			ID:    c.ID.String(),
			Name:  c.Name,
			Color: c.Color,
		})
	}
	return BoardResponse{
		ID:                   b.ID.String(),
		Name:                 b.Name,
		Columns:              columns,
		State:                string(b.State),
		CardLimitPerUser:     b.CardLimitPerUser,
		ReactionLimitPerUser: b.ReactionLimitPerUser,
		CreatedAt:            b.CreatedAt,
		ClosedAt:             b.ClosedAt,
	}
}

// CreateBoardResponse is returned from POST /boards: the board plus the
// creator's participant token.
type CreateBoardResponse struct {
	Board BoardResponse `json:"board"`
	Token string        `json:"token"`
}

// JoinBoardResponse is returned from POST /boards/{boardID}/join.
type JoinBoardResponse struct {
	Board BoardResponse `json:"board"`
	Token string        `json:"token"`
	Alias string        `json:"alias"`
}
