package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nikhilbhutani/sketchstories/internal/api"
	"github.com/nikhilbhutani/sketchstories/internal/api/handlers"
	"github.com/nikhilbhutani/sketchstories/internal/app"
	"github.com/nikhilbhutani/sketchstories/internal/auth"
	"github.com/nikhilbhutani/sketchstories/internal/config"
	"github.com/nikhilbhutani/sketchstories/internal/logger"
	"github.com/nikhilbhutani/sketchstories/internal/queue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("api", logger.Config{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New("api", logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.NewCore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build services")
	}
	defer core.Close()

	store, err := app.NewStore(ctx, cfg, core)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open drawing store")
	}
	defer store.Close()

	tasks := queue.NewClient(cfg.Redis)
	defer tasks.Close()

	router := api.NewRouter(api.Deps{
		Log:     log,
		Metrics: core.Metrics,
		Auth:    auth.NewJWTMiddleware(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
		Health: map[string]handlers.Pinger{
			"database": store.Pool,
			"redis":    core.Cache,
		},
		Drawings:       store.Drawings,
		Teller:         store.Teller,
		Queue:          tasks,
		Analyzer:       core.Analyzer,
		Stories:        core.Stories,
		Filter:         core.Filter,
		Validator:      core.Validator,
		DefaultAge:     core.DefaultAge,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RateLimit:      cfg.RateLimit,
	})
	defer router.Close()

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting API server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server error")
			stop()
		}
	}()

	<-ctx.Done()

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}
	log.Info().Msg("server stopped")
}
