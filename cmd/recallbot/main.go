// Package main contains the entrypoint for the RecallBot SMS relay.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/edgard/recallbot/internal/agent"
	"github.com/edgard/recallbot/internal/agent/tasks"
	"github.com/edgard/recallbot/internal/config"
	"github.com/edgard/recallbot/internal/database"
	"github.com/edgard/recallbot/internal/gemini"
	"github.com/edgard/recallbot/internal/logger"
	"github.com/edgard/recallbot/internal/pending"
	"github.com/edgard/recallbot/internal/relay"
	"github.com/edgard/recallbot/internal/sanitize"
	"github.com/edgard/recallbot/internal/twilio"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop() // Ensure context cancellation is signaled before exit
	os.Exit(exitCode)
}

// run initializes and starts all application components (config, logger,
// stores, gateways, webhook server, scheduler), handles graceful shutdown,
// and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	// A local .env file is a development convenience; deployments set the
	// environment directly.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to load .env file", "error", err)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.NewLogger(cfg.Logger.Level, cfg.Logger.JSON)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Logger.Level, "json", cfg.Logger.JSON)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db) // Ensure DB is closed on function exit
	store := database.NewStore(db, log)

	pendingStore, err := pending.New(cfg.Pending, log)
	if err != nil {
		log.Error("Failed to initialize pending-link store", "backend", cfg.Pending.Backend, "error", err)
		return 1
	}
	defer func() {
		if err := pendingStore.Close(); err != nil {
			log.Error("Failed to close pending-link store", "error", err)
		}
	}()

	gemClient, err := gemini.NewClient(ctx, cfg.Gemini, log)
	if err != nil {
		log.Error("Failed to initialize Gemini client", "error", err)
		return 1
	}
	// Note: Gemini client does not have an explicit Close method in the SDK used.

	correlator := relay.NewCorrelator(log, pendingStore, gemClient, store, sanitize.NewSMSPolicy(), cfg.Messages)
	server := twilio.NewServer(cfg.Server, cfg.Twilio, cfg.Messages, correlator, log)

	tDeps := tasks.TaskDeps{
		Logger:  log,
		Store:   store,
		Pending: pendingStore,
	}

	sched, err := agent.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	app := agent.NewAgent(log, server, sched, cfg.Server.ShutdownTimeout)

	log.Info("Starting RecallBot...", "sender_number", cfg.Twilio.PhoneNumber)
	runErr := app.Run(ctx) // Run blocks until context is cancelled or an error occurs
	log.Info("Run loop finished. Initiating shutdown...")

	// Check if the error is significant (not just context cancellation)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("RecallBot stopped due to error", "error", runErr)
		// Allow logs to flush before exiting on error
		time.Sleep(time.Second)
		return 1
	}

	log.Info("RecallBot stopped gracefully.")
	time.Sleep(time.Second)
	return 0
}
