package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/sketchstories/internal/app"
	"github.com/nikhilbhutani/sketchstories/internal/config"
	"github.com/nikhilbhutani/sketchstories/internal/logger"
	"github.com/nikhilbhutani/sketchstories/internal/queue"
	"github.com/nikhilbhutani/sketchstories/internal/queue/workers"
)

const concurrency = 10

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("worker", logger.Config{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New("worker", logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
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

	srv := asynq.NewServer(queue.RedisOpt(cfg.Redis), asynq.Config{
		Concurrency: concurrency,
		Queues:      queue.Queues(),
		Logger:      asynqLogger{log: log.With().Str("component", "asynq").Logger()},
	})

	registry := queue.NewHandlersRegistry(log)
	registry.Register(queue.TypeStoryGenerate, workers.NewStoryWorker(store.Teller, log))
	registry.Register(queue.TypeThumbnailRender, workers.NewThumbnailWorker(store.Drawings, log))

	log.Info().Int("concurrency", concurrency).Msg("starting worker")
	if err := srv.Start(registry.Mux()); err != nil {
		log.Fatal().Err(err).Msg("worker error")
	}

	<-ctx.Done()
	log.Info().Msg("shutting down worker")
	srv.Shutdown()
}
