package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"budget-bot/internal/config"
	"budget-bot/internal/handlers"
	"budget-bot/internal/logger"
	"budget-bot/internal/storage"
	"budget-bot/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	db, err := storage.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("failed to connect to telegram: %w", err)
	}
	api.Debug = cfg.BotDebug

	log.Infow("Bot started", "username", api.Self.UserName, "db_path", cfg.DBPath, "env", cfg.Env)
	if err := setupBot(api, db, log, cfg.PollTimeout).Run(ctx); err != nil {
		return err
	}
	log.Info("Bot stopped")
	return nil
}

func setupBot(api telegram.API, db handlers.Ledger, log *zap.SugaredLogger, pollTimeout int) *telegram.Bot {
	return telegram.NewBot(api, handlers.NewHandlers(db, log), log, pollTimeout)
}
