package models

import (
	"regexp"
	"time"

	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
)

// BoardState is the lifecycle state of a board.
type BoardState string

const (
	BoardStateActive BoardState = "active"
	BoardStateClosed BoardState = "closed"
)

const (
	maxBoardNameLen = 128
	minColumns      = 1
	maxColumns      = 10
)

var hexColorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Column is a named bucket cards are placed into.
type Column struct {
	ID    id.ColumnID `json:"id"`
	Name  string      `json:"name"`
	Color string      `json:"color,omitempty"`
}

// Board is the aggregate root for a retrospective.
//
// Invariants:
//   - Name is non-empty and at most 128 characters
//   - Between 1 and 10 columns, each with a unique ID within the board
//   - ClosedAt is set iff State is closed
//   - CardLimitPerUser / ReactionLimitPerUser, when set, are positive
type Board struct {
	ID                   id.BoardID `json:"id"`
	Name                 string     `json:"name"`
	Columns              []Column   `json:"columns"`
	State                BoardState `json:"state"`
	CardLimitPerUser     *int       `json:"card_limit_per_user,omitempty"`
	ReactionLimitPerUser *int       `json:"reaction_limit_per_user,omitempty"`
	CreatedByHash        string     `json:"created_by_hash"`
	Admins               []string   `json:"admins"`
	CreatedAt            time.Time  `json:"created_at"`
	ClosedAt             *time.Time `json:"closed_at,omitempty"`
}

func (b *Board) IsActive() bool {
	return b.State == BoardStateActive
}

// IsAdmin reports whether hash may perform admin actions on the board.
// The creator is always an admin.
func (b *Board) IsAdmin(hash string) bool {
	if hash == "" {
		return false
	}
	if hash == b.CreatedByHash {
		return true
	}
	for _, a := range b.Admins {
		if a == hash {
			return true
		}
	}
	return false
}

// HasColumn reports whether columnID belongs to this board.
func (b *Board) HasColumn(columnID id.ColumnID) bool {
	for _, c := range b.Columns {
		if c.ID == columnID {
			return true
		}
	}
	return false
}

// ApplyClose transitions the board to closed. Callers check IsActive first;
// re-closing is a harmless no-op at the service layer.
func (b *Board) ApplyClose(now time.Time) {
	b.State = BoardStateClosed
	b.ClosedAt = &now
}

// ApplyReopen transitions the board back to active and clears ClosedAt,
// preserving the closed_at ⟺ closed invariant.
func (b *Board) ApplyReopen() {
	b.State = BoardStateActive
	b.ClosedAt = nil
}

// NewBoard validates and constructs an active board. Column IDs are
// generated here so callers only supply names and colors.
func NewBoard(boardID id.BoardID, name string, columns []Column, cardLimit, reactionLimit *int, createdByHash string, now time.Time) (*Board, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "board name cannot be empty")
	}
	if len(name) > maxBoardNameLen {
		return nil, dErrors.New(dErrors.CodeValidation, "board name must be 128 characters or less")
	}
	if len(columns) < minColumns || len(columns) > maxColumns {
		return nil, dErrors.New(dErrors.CodeValidation, "a board needs between 1 and 10 columns")
	}
	if createdByHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "creator hash is required")
	}
	if err := validateLimit(cardLimit, "card_limit_per_user"); err != nil {
		return nil, err
	}
	if err := validateLimit(reactionLimit, "reaction_limit_per_user"); err != nil {
		return nil, err
	}

	cols := make([]Column, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "column name cannot be empty")
		}
		if c.Color != "" && !hexColorPattern.MatchString(c.Color) {
			return nil, dErrors.New(dErrors.CodeValidation, "column color must be a #rrggbb hex value")
		}
		cols[i] = Column{ID: id.NewColumnID(), Name: c.Name, Color: c.Color}
	}

	return &Board{
		ID:                   boardID,
		Name:                 name,
		Columns:              cols,
		State:                BoardStateActive,
		CardLimitPerUser:     cardLimit,
		ReactionLimitPerUser: reactionLimit,
		CreatedByHash:        createdByHash,
		Admins:               []string{createdByHash},
		CreatedAt:            now,
	}, nil
}

func validateLimit(limit *int, field string) error {
	if limit != nil && *limit <= 0 {
		return dErrors.New(dErrors.CodeValidation, field+" must be positive when set")
	}
	return nil
}
