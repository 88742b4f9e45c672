package handler

import (
	"strings"

	"retroboard/internal/board/models"
	dErrors "retroboard/pkg/domain-errors"
)

// CreateBoardRequest is the HTTP request body for POST /boards.
type CreateBoardRequest struct {
	Name                 string          `json:"name"`
	Columns              []ColumnRequest `json:"columns"`
	CardLimitPerUser     *int            `json:"card_limit_per_user,omitempty"`
	ReactionLimitPerUser *int            `json:"reaction_limit_per_user,omitempty"`
	CreatorAlias         string          `json:"creator_alias"`
}

// ColumnRequest is one column definition inside CreateBoardRequest.
type ColumnRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Validate validates the request. Structural rules (name length, column
// count, color format) are enforced by the board model; this only catches
// what must fail before the model is built.
func (r *CreateBoardRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	r.CreatorAlias = strings.TrimSpace(r.CreatorAlias)
	if len(r.CreatorAlias) > 64 {
		return dErrors.New(dErrors.CodeValidation, "creator_alias must be at most 64 characters")
	}
	for i := range r.Columns {
		r.Columns[i].Name = strings.TrimSpace(r.Columns[i].Name)
		r.Columns[i].Color = strings.TrimSpace(r.Columns[i].Color)
	}
	return nil
}

// DomainColumns converts the request columns to model columns.
func (r *CreateBoardRequest) DomainColumns() []models.Column {
	columns := make([]models.Column, 0, len(r.Columns))
	for _, c := range r.Columns {
		columns = append(columns, models.Column{Name: c.Name, Color: c.Color})
	}
	return columns
}

// JoinBoardRequest is the HTTP request body for POST /boards/{boardID}/join.
type JoinBoardRequest struct {
	Alias string `json:"alias"`
}

// Validate validates the request.
func (r *JoinBoardRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Alias = strings.TrimSpace(r.Alias)
	if r.Alias == "" {
		return dErrors.New(dErrors.CodeValidation, "alias is required")
	}
	if len(r.Alias) > 64 {
		return dErrors.New(dErrors.CodeValidation, "alias must be at most 64 characters")
	}
	return nil
}
