package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	boardhandler "retroboard/internal/board/handler"
	boardmetrics "retroboard/internal/board/metrics"
	boardservice "retroboard/internal/board/service"
	boardstore "retroboard/internal/board/store"
	"retroboard/internal/broadcast"
	cardhandler "retroboard/internal/card/handler"
	cardmetrics "retroboard/internal/card/metrics"
	cardservice "retroboard/internal/card/service"
	cardstore "retroboard/internal/card/store"
	maintenancehandler "retroboard/internal/maintenance/handler"
	maintenancemetrics "retroboard/internal/maintenance/metrics"
	maintenanceservice "retroboard/internal/maintenance/service"
	"retroboard/internal/platform/config"
	"retroboard/internal/platform/httpserver"
	"retroboard/internal/platform/logger"
	"retroboard/internal/platform/middleware"
	"retroboard/internal/platform/postgres"
	platformredis "retroboard/internal/platform/redis"
	reactionhandler "retroboard/internal/reaction/handler"
	reactionmetrics "retroboard/internal/reaction/metrics"
	reactionservice "retroboard/internal/reaction/service"
	reactionstore "retroboard/internal/reaction/store"
	sessionstore "retroboard/internal/session/store"
	"retroboard/pkg/platform/keyedmutex"
)

// main wires storage, services, and transport. Business rules live in the
// internal service packages; main only composes them.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}

	var (
		boards    boardstore.BoardStore
		cards     cardstore.CardStore
		reactions reactionstore.ReactionStore
		sessions  sessionstore.SessionStore
	)
	if db != nil {
		boards = boardstore.NewPostgres(db)
		cards = cardstore.NewPostgres(db)
		reactions = reactionstore.NewPostgres(db)
		sessions = sessionstore.NewPostgres(db)
		log.Info("using postgres storage")
	} else {
		boards = boardstore.NewInMemory()
		cards = cardstore.NewInMemory()
		reactions = reactionstore.NewInMemory()
		sessions = sessionstore.NewInMemory()
		log.Info("using in-memory storage")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	var broadcaster broadcast.Broadcaster = broadcast.Noop{}
	if redisClient != nil {
		broadcaster = broadcast.NewRedisPublisher(redisClient.Client, log)
		log.Info("broadcasting over redis")
	}

	// One lock map for every per-board writer: graph, ledger, maintenance.
	locks := keyedmutex.New()

	boardMetrics := boardmetrics.New()
	boardSvc := boardservice.New(boards, sessions,
		boardservice.WithLogger(log),
		boardservice.WithMetrics(boardMetrics),
	)
	cardSvc := cardservice.New(cards, reactions, boards, locks,
		cardservice.WithLogger(log),
		cardservice.WithMetrics(cardmetrics.New()),
	)
	reactionSvc := reactionservice.New(reactions, cards, boards, cardSvc, locks,
		reactionservice.WithLogger(log),
		reactionservice.WithMetrics(reactionmetrics.New()),
	)
	maintenanceSvc := maintenanceservice.New(boardSvc, cards, reactions, sessions, locks,
		maintenanceservice.WithLogger(log),
		maintenanceservice.WithMetrics(maintenancemetrics.New()),
	)

	tokens := middleware.NewTokenIssuer(cfg.TokenSigningKey, cfg.TokenTTL)
	requireParticipant := middleware.RequireParticipant(tokens, log)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RequestTime)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.Timeout(30 * time.Second))

	router.Get("/healthz", healthz(db, redisClient))
	router.Method(http.MethodGet, "/metrics", promhttp.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ContentTypeJSON)
		boardhandler.New(boardSvc, tokens, broadcaster, log, boardMetrics).Register(r, requireParticipant)
		cardhandler.New(cardSvc, broadcaster, log).Register(r, requireParticipant)
		reactionhandler.New(reactionSvc, broadcaster, log).Register(r, requireParticipant)
		maintenancehandler.New(maintenanceSvc, broadcaster, log).Register(r, requireParticipant)
	})

	srv := httpserver.New(cfg.Addr, router)
	go func() {
		log.Info("starting retroboard", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	if db != nil {
		_ = db.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	log.Info("retroboard stopped")
}

// healthz reports process liveness plus backing store health when they are
// configured.
func healthz(db *sql.DB, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if db != nil {
			if err := db.PingContext(ctx); err != nil {
				http.Error(w, `{"status":"degraded","postgres":"unreachable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, `{"status":"degraded","redis":"unreachable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}
}
