// Package domain defines the typed identifiers shared across modules.
//
// Each ID is a distinct uuid-backed type so a card ID can never be passed
// where a board ID is expected. Import as id:
//
//	id "retroboard/pkg/domain"
package domain

import (
	"github.com/google/uuid"

	dErrors "retroboard/pkg/domain-errors"
)

// BoardID identifies a retrospective board.
type BoardID uuid.UUID

// ColumnID identifies a column within a board.
type ColumnID uuid.UUID

// CardID identifies a card.
type CardID uuid.UUID

// ReactionID identifies a reaction row.
type ReactionID uuid.UUID

func (b BoardID) String() string    { return uuid.UUID(b).String() }
func (c ColumnID) String() string   { return uuid.UUID(c).String() }
func (c CardID) String() string     { return uuid.UUID(c).String() }
func (r ReactionID) String() string { return uuid.UUID(r).String() }

func (b BoardID) IsZero() bool    { return uuid.UUID(b) == uuid.Nil }
func (c ColumnID) IsZero() bool   { return uuid.UUID(c) == uuid.Nil }
func (c CardID) IsZero() bool     { return uuid.UUID(c) == uuid.Nil }
func (r ReactionID) IsZero() bool { return uuid.UUID(r) == uuid.Nil }

// MarshalText renders the ID in canonical uuid form for JSON payloads.
func (b BoardID) MarshalText() ([]byte, error)    { return []byte(b.String()), nil }
func (c ColumnID) MarshalText() ([]byte, error)   { return []byte(c.String()), nil }
func (c CardID) MarshalText() ([]byte, error)     { return []byte(c.String()), nil }
func (r ReactionID) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// UnmarshalText parses a canonical uuid. Used by JSON decoding in tests and
// seed tooling; HTTP handlers parse explicitly via the Parse helpers.
func (b *BoardID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "board id must be a uuid")
	}
	*b = BoardID(u)
	return nil
}

func (c *ColumnID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "column id must be a uuid")
	}
	*c = ColumnID(u)
	return nil
}

func (c *CardID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "card id must be a uuid")
	}
	*c = CardID(u)
	return nil
}

func (r *ReactionID) UnmarshalText(text []byte) error {
	u, err := uuid.Parse(string(text))
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "reaction id must be a uuid")
	}
	*r = ReactionID(u)
	return nil
}

// NewBoardID generates a fresh board ID.
func NewBoardID() BoardID { return BoardID(uuid.New()) }

// NewColumnID generates a fresh column ID.
func NewColumnID() ColumnID { return ColumnID(uuid.New()) }

// NewCardID generates a fresh card ID.
func NewCardID() CardID { return CardID(uuid.New()) }

// NewReactionID generates a fresh reaction ID.
func NewReactionID() ReactionID { return ReactionID(uuid.New()) }

// ParseBoardID parses a board ID arriving over the wire.
func ParseBoardID(s string) (BoardID, error) {
	u, err := parseUUID(s, "board id")
	return BoardID(u), err
}

// ParseColumnID parses a column ID arriving over the wire.
func ParseColumnID(s string) (ColumnID, error) {
	u, err := parseUUID(s, "column id")
	return ColumnID(u), err
}

// ParseCardID parses a card ID arriving over the wire.
func ParseCardID(s string) (CardID, error) {
	u, err := parseUUID(s, "card id")
	return CardID(u), err
}

// ParseReactionID parses a reaction ID arriving over the wire.
func ParseReactionID(s string) (ReactionID, error) {
	u, err := parseUUID(s, "reaction id")
	return ReactionID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, label+" must be a uuid")
	}
	return u, nil
}
