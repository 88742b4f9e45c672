package models

import (
	"time"

	id "retroboard/pkg/domain"
)

// UserSession records a participant's membership on a board.
// Unique on (BoardID, UserHash): joining twice refreshes the alias rather
// than creating a second row.
type UserSession struct {
	BoardID  id.BoardID `json:"board_id"`
	UserHash string     `json:"user_hash"`
	Alias    string     `json:"alias,omitempty"`
	JoinedAt time.Time  `json:"joined_at"`
}
