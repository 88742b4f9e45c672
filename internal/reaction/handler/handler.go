package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"retroboard/internal/broadcast"
	cardhandler "retroboard/internal/card/handler"
	cardmodels "retroboard/internal/card/models"
	"retroboard/internal/reaction/models"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/httputil"
	"retroboard/pkg/requestcontext"
)

// Service defines the reaction ledger operations the handler needs.
type Service interface {
	AddReaction(ctx context.Context, cardID id.CardID, userHash, reactionType string) (*cardmodels.Card, bool, error)
	RemoveReaction(ctx context.Context, cardID id.CardID, userHash, reactionType string) (*cardmodels.Card, bool, error)
	ListReactions(ctx context.Context, cardID id.CardID) ([]*models.Reaction, error)
}

// Handler wires reaction endpoints to the reaction ledger.
type Handler struct {
	service     Service
	broadcaster broadcast.Broadcaster
	logger      *slog.Logger
}

// New constructs a reaction handler with its dependencies.
func New(service Service, broadcaster broadcast.Broadcaster, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Register mounts reaction endpoints. All of them require a participant
// token.
func (h *Handler) Register(r chi.Router, requireParticipant func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireParticipant)
		r.Get("/cards/{cardID}/reactions", h.HandleListReactions)
		r.Post("/cards/{cardID}/reactions", h.HandleAddReaction)
		r.Delete("/cards/{cardID}/reactions/{reactionType}", h.HandleRemoveReaction)
	})
}

// AddReactionRequest is the HTTP request body for POST /cards/{cardID}/reactions.
type AddReactionRequest struct {
	ReactionType string `json:"reaction_type"`
}

// Validate validates the request.
func (r *AddReactionRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.ReactionType = strings.TrimSpace(r.ReactionType)
	return models.ValidateReactionType(r.ReactionType)
}

// ReactionResponse is the wire shape for one reaction.
type ReactionResponse struct {
	CardID       string `json:"card_id"`
	UserHash     string `json:"user_hash"`
	ReactionType string `json:"reaction_type"`
}

// CardCountsResponse is returned from reaction mutations: the affected card
// with its post-recompute counts plus what the mutation did.
type CardCountsResponse struct {
	Card    cardhandler.CardResponse `json:"card"`
	Applied bool                     `json:"applied"`
}

// HandleAddReaction handles POST /cards/{cardID}/reactions requests.
// Re-reacting with the same type is acknowledged with applied=false.
func (h *Handler) HandleAddReaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*AddReactionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	card, created, err := h.service.AddReaction(ctx, cardID, requestcontext.UserHash(ctx), req.ReactionType)
	if err != nil {
		h.logger.WarnContext(ctx, "reaction rejected",
			"request_id", requestID,
			"card_id", cardID,
			"reaction_type", req.ReactionType,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := CardCountsResponse{Card: cardhandler.FromCard(card), Applied: created}
	if created {
		h.publish(ctx, card.BoardID, "reaction_added", resp)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleRemoveReaction handles DELETE /cards/{cardID}/reactions/{reactionType}
// requests. Removing an absent reaction is acknowledged with applied=false.
func (h *Handler) HandleRemoveReaction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reactionType := chi.URLParam(r, "reactionType")

	card, removed, err := h.service.RemoveReaction(ctx, cardID, requestcontext.UserHash(ctx), reactionType)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := CardCountsResponse{Card: cardhandler.FromCard(card), Applied: removed}
	if removed {
		h.publish(ctx, card.BoardID, "reaction_removed", resp)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleListReactions handles GET /cards/{cardID}/reactions requests.
func (h *Handler) HandleListReactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	reactions, err := h.service.ListReactions(ctx, cardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]ReactionResponse, 0, len(reactions))
	for _, re := range reactions {
		out = append(out, ReactionResponse{
			CardID:       re.CardID.String(),
			UserHash:     re.UserHash,
			ReactionType: re.Type,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) publish(ctx context.Context, boardID id.BoardID, eventType string, payload any) {
	if h.broadcaster == nil {
		return
	}
	event := broadcast.Event{Type: eventType, BoardID: boardID.String(), Payload: payload}
	if err := h.broadcaster.Publish(ctx, boardID, event); err != nil {
		h.logger.WarnContext(ctx, "broadcast publish failed",
			"board_id", boardID,
			"event_type", eventType,
			"error", err,
		)
	}
}
