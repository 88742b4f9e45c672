package handler

import (
	"strings"

	"retroboard/internal/card/models"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
)

// CreateCardRequest is the HTTP request body for POST /boards/{boardID}/cards.
type CreateCardRequest struct {
	ColumnID    string `json:"column_id"`
	Content     string `json:"content"`
	CardType    string `json:"card_type"`
	IsAnonymous bool   `json:"is_anonymous"`

	parsedColumnID id.ColumnID
	parsedType     models.CardType
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateCardRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}

	columnID, err := id.ParseColumnID(r.ColumnID)
	if err != nil {
		return err
	}
	r.parsedColumnID = columnID

	if r.CardType == "" {
		r.CardType = string(models.CardTypeFeedback)
	}
	cardType, err := models.ParseCardType(r.CardType)
	if err != nil {
		return err
	}
	r.parsedType = cardType
	return nil
}

// ParsedColumnID returns the validated column ID.
func (r *CreateCardRequest) ParsedColumnID() id.ColumnID {
	return r.parsedColumnID
}

// ParsedType returns the validated card type.
func (r *CreateCardRequest) ParsedType() models.CardType {
	return r.parsedType
}

// UpdateCardRequest is the HTTP request body for PATCH /cards/{cardID}.
type UpdateCardRequest struct {
	Content string `json:"content"`
}

// Validate validates the request.
func (r *UpdateCardRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Content = strings.TrimSpace(r.Content)
	if r.Content == "" {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	return nil
}

// MoveCardRequest is the HTTP request body for POST /cards/{cardID}/move.
type MoveCardRequest struct {
	ColumnID string `json:"column_id"`

	parsedColumnID id.ColumnID
}

// Validate validates and parses the request.
func (r *MoveCardRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	columnID, err := id.ParseColumnID(r.ColumnID)
	if err != nil {
		return err
	}
	r.parsedColumnID = columnID
	return nil
}

// ParsedColumnID returns the validated column ID.
func (r *MoveCardRequest) ParsedColumnID() id.ColumnID {
	return r.parsedColumnID
}

// SetParentRequest is the HTTP request body for PUT /cards/{cardID}/parent.
type SetParentRequest struct {
	ParentCardID string `json:"parent_card_id"`

	parsedParentID id.CardID
}

// Validate validates and parses the request.
func (r *SetParentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	parentID, err := id.ParseCardID(r.ParentCardID)
	if err != nil {
		return err
	}
	r.parsedParentID = parentID
	return nil
}

// ParsedParentID returns the validated parent card ID.
func (r *SetParentRequest) ParsedParentID() id.CardID {
	return r.parsedParentID
}

// CrossLinkRequest is the HTTP request body for POST /cards/{cardID}/links.
type CrossLinkRequest struct {
	TargetCardID string `json:"target_card_id"`

	parsedTargetID id.CardID
}

// Validate validates and parses the request.
func (r *CrossLinkRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	targetID, err := id.ParseCardID(r.TargetCardID)
	if err != nil {
		return err
	}
	r.parsedTargetID = targetID
	return nil
}

// ParsedTargetID returns the validated target card ID.
func (r *CrossLinkRequest) ParsedTargetID() id.CardID {
	return r.parsedTargetID
}
