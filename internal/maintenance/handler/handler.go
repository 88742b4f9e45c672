package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"retroboard/internal/broadcast"
	"retroboard/internal/maintenance/service"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/httputil"
	"retroboard/pkg/requestcontext"
)

// Service defines the maintenance operations the handler needs.
type Service interface {
	ClearBoard(ctx context.Context, boardID id.BoardID) (*service.ClearResult, error)
	ResetBoard(ctx context.Context, boardID id.BoardID) (*service.ResetResult, error)
	SeedTestData(ctx context.Context, boardID id.BoardID, params service.SeedParams) (*service.SeedResult, error)
}

// Handler wires maintenance endpoints to the maintenance service.
type Handler struct {
	service     Service
	broadcaster broadcast.Broadcaster
	logger      *slog.Logger
}

// New constructs a maintenance handler with its dependencies.
func New(service Service, broadcaster broadcast.Broadcaster, logger *slog.Logger) *Handler {
	return &Handler{
		service:     service,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// Register mounts maintenance endpoints. They require an admin participant
// token on top of the usual participant requirement.
func (h *Handler) Register(r chi.Router, requireParticipant func(http.Handler) http.Handler) {
	r.Group(func(r chi.Router) {
		r.Use(requireParticipant)
		r.Use(requireAdmin)
		r.Post("/boards/{boardID}/clear", h.HandleClearBoard)
		r.Post("/boards/{boardID}/reset", h.HandleResetBoard)
		r.Post("/boards/{boardID}/seed", h.HandleSeedTestData)
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !requestcontext.IsAdmin(r.Context()) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "admin token required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SeedRequest is the HTTP request body for POST /boards/{boardID}/seed.
type SeedRequest struct {
	NumUsers            int  `json:"num_users"`
	NumCards            int  `json:"num_cards"`
	NumActionCards      int  `json:"num_action_cards"`
	NumReactions        int  `json:"num_reactions"`
	CreateRelationships bool `json:"create_relationships"`
}

// Validate validates the request. Range checks live on SeedParams so the
// service enforces them regardless of entry point.
func (r *SeedRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return r.Params().Validate()
}

// Params converts the request to service parameters.
func (r *SeedRequest) Params() service.SeedParams {
	return service.SeedParams{
		NumUsers:            r.NumUsers,
		NumCards:            r.NumCards,
		NumActionCards:      r.NumActionCards,
		NumReactions:        r.NumReactions,
		CreateRelationships: r.CreateRelationships,
	}
}

// HandleClearBoard handles POST /boards/{boardID}/clear requests.
func (h *Handler) HandleClearBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ClearBoard(ctx, boardID)
	if err != nil {
		h.logger.ErrorContext(ctx, "board clear failed",
			"request_id", requestID,
			"board_id", boardID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, boardID, "board_cleared", result)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleResetBoard handles POST /boards/{boardID}/reset requests.
func (h *Handler) HandleResetBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.ResetBoard(ctx, boardID)
	if err != nil {
		h.logger.ErrorContext(ctx, "board reset failed",
			"request_id", requestID,
			"board_id", boardID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, boardID, "board_reset", result)
	httputil.WriteJSON(w, http.StatusOK, result)
}

// HandleSeedTestData handles POST /boards/{boardID}/seed requests.
func (h *Handler) HandleSeedTestData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*SeedRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.SeedTestData(ctx, boardID, req.Params())
	if err != nil {
		h.logger.ErrorContext(ctx, "board seed failed",
			"request_id", requestID,
			"board_id", boardID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "board seeded",
		"request_id", requestID,
		"board_id", boardID,
		"cards", result.CardsCreated,
		"reactions", result.ReactionsCreated,
	)
	h.publish(ctx, boardID, "board_seeded", result)
	httputil.WriteJSON(w, http.StatusOK, result)
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
