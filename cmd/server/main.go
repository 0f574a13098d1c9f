// TradeKeeper is a trading-journal service: accounts and trades with a
// many-to-many association, partial updates, and a scheduled sweep that
// closes stale trades.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/tradekeeper/tradekeeper/internal/config"
	"github.com/tradekeeper/tradekeeper/internal/database"
	"github.com/tradekeeper/tradekeeper/internal/modules/account"
	accounthandlers "github.com/tradekeeper/tradekeeper/internal/modules/account/handlers"
	"github.com/tradekeeper/tradekeeper/internal/modules/trade"
	tradehandlers "github.com/tradekeeper/tradekeeper/internal/modules/trade/handlers"
	"github.com/tradekeeper/tradekeeper/internal/scheduler"
	"github.com/tradekeeper/tradekeeper/internal/server"
	"github.com/tradekeeper/tradekeeper/pkg/logger"
	"github.com/tradekeeper/tradekeeper/pkg/validate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to load configuration:", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().
		Str("data_dir", cfg.DataDir).
		Int("port", cfg.Port).
		Bool("dev_mode", cfg.DevMode).
		Msg("Starting TradeKeeper")

	db, err := database.New(database.Config{
		Path: filepath.Join(cfg.DataDir, "journal.db"),
		Name: "journal",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open journal database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate journal database")
	}

	// Repositories and services. The cross-module interfaces (account's
	// TradeLister, trade's AccountFinder) are satisfied by the other
	// module's repository.
	accountRepo := account.NewRepository(db.Conn(), log)
	tradeRepo := trade.NewRepository(db.Conn(), log)

	accountService := account.NewService(accountRepo, tradeRepo, log)
	tradeService := trade.NewService(tradeRepo, accountRepo, log)

	v := validate.New()
	accountHandlers := accounthandlers.NewHandler(accountService, v, log)
	tradeHandlers := tradehandlers.NewHandler(tradeService, v, log)

	sched := scheduler.New(log)
	sweepJob := scheduler.NewCloseStaleTradesJob(tradeService, log)
	if err := sched.AddJob(cfg.SweepSchedule, sweepJob); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("Failed to register sweep job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:             log,
		DB:              db,
		DataDir:         cfg.DataDir,
		Port:            cfg.Port,
		DevMode:         cfg.DevMode,
		AccountHandlers: accountHandlers,
		TradeHandlers:   tradeHandlers,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("Server stopped unexpectedly")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}

	log.Info().Msg("TradeKeeper stopped")
}
