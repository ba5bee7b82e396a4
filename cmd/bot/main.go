// Package main is the entry point for the Telegram casino bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-casino-bot/internal/bot"
	"telegram-casino-bot/internal/config"
	"telegram-casino-bot/internal/game/basketball"
	"telegram-casino-bot/internal/game/mines"
	"telegram-casino-bot/internal/game/roulette"
	"telegram-casino-bot/internal/jobs"
	"telegram-casino-bot/internal/pkg/db"
	"telegram-casino-bot/internal/repository"
	"telegram-casino-bot/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	log.Info().Msg("configuration loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer dbPool.Close()

	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("failed to run database migrations")
	}

	userRepo := repository.NewUserRepository(dbPool.Pool)
	historyRepo := repository.NewHistoryRepository(dbPool.Pool)
	transferRepo := repository.NewTransferRepository(dbPool.Pool)

	accountService := service.NewAccountService(userRepo, cfg.Bonus.Amount, cfg.Bonus.CooldownHours)
	transferService := service.NewTransferService(transferRepo)
	rankingService := service.NewRankingService(historyRepo)
	adminService := service.NewAdminService(userRepo, historyRepo)

	bettingWindow := time.Duration(cfg.Games.Roulette.BettingWindowSeconds) * time.Second
	rouletteGame := roulette.New(userRepo, historyRepo, bettingWindow)
	minesGame := mines.New(userRepo, historyRepo)
	basketballGame := basketball.New(userRepo, historyRepo)

	telegramBot, err := bot.New(&bot.Dependencies{
		Config:          cfg,
		AccountService:  accountService,
		TransferService: transferService,
		RankingService:  rankingService,
		AdminService:    adminService,
		Roulette:        rouletteGame,
		Mines:           minesGame,
		Basketball:      basketballGame,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create bot")
	}

	scheduler := jobs.NewScheduler(rankingService, log.Logger)
	if err := scheduler.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go telegramBot.Start()

	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	telegramBot.Stop()
	scheduler.Stop()
	log.Info().Msg("shut down gracefully")
}

// runMigrations creates the schema. Statements are idempotent so a restart
// is always safe.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("running database migrations")

	migrations := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				telegram_id BIGINT PRIMARY KEY,
				username VARCHAR(255) NOT NULL DEFAULT '',
				full_name VARCHAR(255) NOT NULL DEFAULT '',
				balance BIGINT NOT NULL DEFAULT 0,
				banned BOOLEAN NOT NULL DEFAULT FALSE,
				last_bonus TIMESTAMPTZ NOT NULL DEFAULT 'epoch',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_users_balance ON users(balance DESC);
		`},
		{"transfers", `
			CREATE TABLE IF NOT EXISTS transfers (
				id BIGSERIAL PRIMARY KEY,
				from_id BIGINT NOT NULL REFERENCES users(telegram_id),
				from_name VARCHAR(255) NOT NULL DEFAULT '',
				to_id BIGINT NOT NULL REFERENCES users(telegram_id),
				to_name VARCHAR(255) NOT NULL DEFAULT '',
				amount BIGINT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_transfers_from_time ON transfers(from_id, created_at DESC);
			CREATE INDEX IF NOT EXISTS idx_transfers_to_time ON transfers(to_id, created_at DESC);
		`},
		{"last_wagers", `
			CREATE TABLE IF NOT EXISTS last_wagers (
				user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
				wagers JSONB NOT NULL,
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`},
		{"spin_log", `
			CREATE TABLE IF NOT EXISTS spin_log (
				id BIGSERIAL PRIMARY KEY,
				chat_id BIGINT NOT NULL,
				number INT NOT NULL,
				color VARCHAR(16) NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_spin_log_chat_time ON spin_log(chat_id, created_at DESC, id DESC);
		`},
		{"chat_settings", `
			CREATE TABLE IF NOT EXISTS chat_settings (
				chat_id BIGINT PRIMARY KEY,
				games_enabled BOOLEAN NOT NULL DEFAULT TRUE
			);
		`},
		{"daily_stats", `
			CREATE TABLE IF NOT EXISTS daily_stats (
				user_id BIGINT PRIMARY KEY REFERENCES users(telegram_id),
				winnings BIGINT NOT NULL DEFAULT 0
			);
		`},
	}

	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return err
		}
		log.Info().Str("migration", m.name).Msg("migration applied")
	}
	return nil
}
