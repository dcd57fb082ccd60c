package main

import (
	"context"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/nikhilbhutani/sketchstories/internal/app"
	"github.com/nikhilbhutani/sketchstories/internal/config"
	"github.com/nikhilbhutani/sketchstories/internal/logger"
	"github.com/nikhilbhutani/sketchstories/internal/telegram"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("bot", logger.Config{})
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logger.New("bot", logger.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	if err := cfg.ValidateBot(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, err := app.NewCore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build services")
	}
	defer core.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Fatal().Err(err).Msg("telegram login failed")
	}
	api.Debug = cfg.Telegram.Debug
	log.Info().Str("username", api.Self.UserName).Msg("bot authorized")

	bot := telegram.NewBot(api, core.Analyzer, core.Stories, core.Cache, core.DefaultAge,
		telegram.WithObserver(core.Metrics),
		telegram.WithLogger(log),
	)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := api.GetUpdatesChan(u)

	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()

	bot.Run(ctx, updates)
	log.Info().Msg("bot stopped")
}
