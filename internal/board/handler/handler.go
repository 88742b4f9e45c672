package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	boardmetrics "retroboard/internal/board/metrics"
	"retroboard/internal/board/models"
	"retroboard/internal/broadcast"
	sessionmodels "retroboard/internal/session/models"
	"retroboard/internal/platform/middleware"
	id "retroboard/pkg/domain"
	dErrors "retroboard/pkg/domain-errors"
	"retroboard/pkg/platform/httputil"
	"retroboard/pkg/requestcontext"
)

// Service defines the board lifecycle operations the handler needs.
type Service interface {
	CreateBoard(ctx context.Context, name string, columns []models.Column, cardLimit, reactionLimit *int, creatorHash, creatorAlias string) (*models.Board, error)
	GetBoard(ctx context.Context, boardID id.BoardID) (*models.Board, error)
	JoinBoard(ctx context.Context, boardID id.BoardID, userHash, alias string) (*sessionmodels.UserSession, error)
	CloseBoard(ctx context.Context, boardID id.BoardID, actorHash string) (*models.Board, error)
}

// Handler wires board lifecycle endpoints to the board service.
type Handler struct {
	service     Service
	tokens      *middleware.TokenIssuer
	broadcaster broadcast.Broadcaster
	logger      *slog.Logger
	metrics     *boardmetrics.Metrics
}

// New constructs a board handler with its dependencies.
func New(service Service, tokens *middleware.TokenIssuer, broadcaster broadcast.Broadcaster, logger *slog.Logger, metrics *boardmetrics.Metrics) *Handler {
	return &Handler{
		service:     service,
		tokens:      tokens,
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     metrics,
	}
}

// Register mounts board endpoints. Create and join bootstrap identity and
// are therefore open; everything else requires a participant token.
func (h *Handler) Register(r chi.Router, requireParticipant func(http.Handler) http.Handler) {
	r.Post("/boards", h.HandleCreateBoard)
	r.Post("/boards/{boardID}/join", h.HandleJoinBoard)

	r.Group(func(r chi.Router) {
		r.Use(requireParticipant)
		r.Get("/boards/{boardID}", h.HandleGetBoard)
		r.Post("/boards/{boardID}/close", h.HandleCloseBoard)
	})
}

// HandleCreateBoard handles POST /boards requests. The creator receives an
// admin participant token alongside the board.
func (h *Handler) HandleCreateBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[*CreateBoardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	creatorHash := uuid.NewString()
	board, err := h.service.CreateBoard(ctx, req.Name, req.DomainColumns(), req.CardLimitPerUser, req.ReactionLimitPerUser, creatorHash, req.CreatorAlias)
	if err != nil {
		h.logger.ErrorContext(ctx, "board creation failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.Issue(creatorHash, req.CreatorAlias, true, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue participant token"))
		return
	}

	h.logger.InfoContext(ctx, "board created",
		"request_id", requestID,
		"board_id", board.ID,
		"columns", len(board.Columns),
	)
	httputil.WriteJSON(w, http.StatusCreated, CreateBoardResponse{
		Board: FromBoard(board),
		Token: token,
	})
}

// HandleGetBoard handles GET /boards/{boardID} requests.
func (h *Handler) HandleGetBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	start := time.Now()

	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	board, err := h.service.GetBoard(ctx, boardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveGetBoard(start)
	}
	httputil.WriteJSON(w, http.StatusOK, FromBoard(board))
}

// HandleJoinBoard handles POST /boards/{boardID}/join requests. Joining
// mints a fresh pseudonymous identity; rejoining under an old alias is just
// another join.
func (h *Handler) HandleJoinBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[*JoinBoardRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	userHash := uuid.NewString()
	session, err := h.service.JoinBoard(ctx, boardID, userHash, req.Alias)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	board, err := h.service.GetBoard(ctx, boardID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	token, err := h.tokens.Issue(userHash, session.Alias, false, requestcontext.Now(ctx))
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue participant token"))
		return
	}

	h.publish(ctx, boardID, "participant_joined", map[string]any{"alias": session.Alias})
	httputil.WriteJSON(w, http.StatusOK, JoinBoardResponse{
		Board: FromBoard(board),
		Token: token,
		Alias: session.Alias,
	})
}

// HandleCloseBoard handles POST /boards/{boardID}/close requests.
func (h *Handler) HandleCloseBoard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	boardID, err := id.ParseBoardID(chi.URLParam(r, "boardID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	board, err := h.service.CloseBoard(ctx, boardID, requestcontext.UserHash(ctx))
	if err != nil {
		h.logger.WarnContext(ctx, "board close rejected",
			"request_id", requestID,
			"board_id", boardID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.publish(ctx, boardID, "board_closed", nil)
	httputil.WriteJSON(w, http.StatusOK, FromBoard(board))
}

// publish fans an event out to board subscribers. Broadcast failures are
// logged, never surfaced: the mutation already committed.
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
