package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"retroboard/internal/broadcast"
	"retroboard/internal/card/models"
	id "retroboard/pkg/domain"
	"retroboard/pkg/platform/httputil"
	"retroboard/pkg/requestcontext"
)

// Service defines the card graph operations the handler needs.
type Service interface {
	CreateCard(ctx context.Context, boardID id.BoardID, columnID id.ColumnID, content string, cardType models.CardType, anonymous bool, authorHash, authorAlias string) (*models.Card, error)
	GetCard(ctx context.Context, cardID id.CardID) (*models.Card, error)
	ListCards(ctx context.Context, boardID id.BoardID) ([]*models.Card, error)
	MoveCard(ctx context.Context, cardID id.CardID, newColumnID id.ColumnID) (*models.Card, error)
	UpdateCardContent(ctx context.Context, cardID id.CardID, content, actorHash string) (*models.Card, error)
	DeleteCard(ctx context.Context, cardID id.CardID, actorHash string) error
	SetParentLink(ctx context.Context, childID, parentID id.CardID) (*models.Card, error)
	RemoveParentLink(ctx context.Context, childID id.CardID) (*models.Card, error)
	AddCrossLink(ctx context.Context, cardAID, cardBID id.CardID) (*models.Card, *models.Card, error)
	RemoveCrossLink(ctx context.Context, cardAID, cardBID id.CardID) (*models.Card, *models.Card, error)
}

// Handler wires card and relationship endpoints to the graph engine.
type Handler struct {
	service     Service
	broadcaster broadcast.Broadcaster
	logger      *slog.Logger
}

// New constructs a card handler with its dependencies.
func New(service Service, broadcaster broadcast.Broadcaster, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Register mounts card endpoints. All of them require a participant token.
func (h *Handler) Register(r chi.Router, requireParticipant func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireParticipant)

		r.Post("/boards/{boardID}/cards", h.HandleCreateCard)
		r.Get("/boards/{boardID}/cards", h.HandleListCards)

		r.Get("/cards/{cardID}", h.HandleGetCard)
		r.Patch("/cards/{cardID}", h.HandleUpdateCard)
		r.Delete("/cards/{cardID}", h.HandleDeleteCard)
		r.Post("/cards/{cardID}/move", h.HandleMoveCard)

		r.Put("/cards/{cardID}/parent", h.HandleSetParent)
		r.Delete("/cards/{cardID}/parent", h.HandleRemoveParent)
		r.Post("/cards/{cardID}/links", h.HandleAddCrossLink)
		r.Delete("/cards/{cardID}/links/{targetID}", h.HandleRemoveCrossLink)
	})
}

// HandleCreateCard handles POST /boards/{boardID}/cards requests.
func (h *Handler) HandleCreateCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*CreateCardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	card, err := h.service.CreateCard(ctx, boardID, req.ParsedColumnID(), req.Content, req.ParsedType(), req.IsAnonymous,
		requestcontext.UserHash(ctx), requestcontext.Alias(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "card creation rejected",
			"request_id", requestID,
			"board_id", boardID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, boardID, "card_created", FromCard(card))
	httputil.WriteJSON(w, http.StatusCreated, FromCard(card))
}

// HandleListCards handles GET /boards/{boardID}/cards requests.
func (h *Handler) HandleListCards(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cards, err := h.service.ListCards(ctx, boardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCards(cards))
}

// HandleGetCard handles GET /cards/{cardID} requests.
func (h *Handler) HandleGetCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	card, err := h.service.GetCard(ctx, cardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromCard(card))
}

// HandleUpdateCard handles PATCH /cards/{cardID} requests.
func (h *Handler) HandleUpdateCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*UpdateCardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	card, err := h.service.UpdateCardContent(ctx, cardID, req.Content, requestcontext.UserHash(ctx))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, card.BoardID, "card_updated", FromCard(card))
	httputil.WriteJSON(w, http.StatusOK, FromCard(card))
}

// HandleDeleteCard handles DELETE /cards/{cardID} requests.
func (h *Handler) HandleDeleteCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Resolve the board before the card disappears.
	card, err := h.service.GetCard(ctx, cardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeleteCard(ctx, cardID, requestcontext.UserHash(ctx)); err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, card.BoardID, "card_deleted", map[string]any{"card_id": cardID.String()})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMoveCard handles POST /cards/{cardID}/move requests.
func (h *Handler) HandleMoveCard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*MoveCardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	card, err := h.service.MoveCard(ctx, cardID, req.ParsedColumnID())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, card.BoardID, "card_moved", FromCard(card))
	httputil.WriteJSON(w, http.StatusOK, FromCard(card))
}

// HandleSetParent handles PUT /cards/{cardID}/parent requests. The path
// card becomes the child.
func (h *Handler) HandleSetParent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	childID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*SetParentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	card, err := h.service.SetParentLink(ctx, childID, req.ParsedParentID())
	if err != nil {
		h.logger.WarnContext(ctx, "parent link rejected",
			"request_id", requestID,
			"child_id", childID,
			"parent_id", req.ParsedParentID(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, card.BoardID, "parent_link_set", FromCard(card))
	httputil.WriteJSON(w, http.StatusOK, FromCard(card))
}

// HandleRemoveParent handles DELETE /cards/{cardID}/parent requests.
func (h *Handler) HandleRemoveParent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	childID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	card, err := h.service.RemoveParentLink(ctx, childID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, card.BoardID, "parent_link_removed", FromCard(card))
	httputil.WriteJSON(w, http.StatusOK, FromCard(card))
}

// HandleAddCrossLink handles POST /cards/{cardID}/links requests.
func (h *Handler) HandleAddCrossLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*CrossLinkRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	cardA, cardB, err := h.service.AddCrossLink(ctx, cardID, req.ParsedTargetID())
	if err != nil {
		h.logger.WarnContext(ctx, "cross link rejected",
			"request_id", requestID,
			"card_id", cardID,
			"target_id", req.ParsedTargetID(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	resp := LinkedPairResponse{Cards: []CardResponse{FromCard(cardA), FromCard(cardB)}}
	h.publish(ctx, cardA.BoardID, "cards_linked", resp)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// HandleRemoveCrossLink handles DELETE /cards/{cardID}/links/{targetID}
// requests.
func (h *Handler) HandleRemoveCrossLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cardID, err := id.ParseCardID(chi.URLParam(r, "cardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	targetID, err := id.ParseCardID(chi.URLParam(r, "targetID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cardA, cardB, err := h.service.RemoveCrossLink(ctx, cardID, targetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	resp := LinkedPairResponse{Cards: []CardResponse{FromCard(cardA), FromCard(cardB)}}
	h.publish(ctx, cardA.BoardID, "cards_unlinked", resp)
	httputil.WriteJSON(w, http.StatusOK, resp)
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
