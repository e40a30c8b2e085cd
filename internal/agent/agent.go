// Package agent implements the application lifecycle: it runs the webhook
// server and the background task scheduler, and coordinates their graceful
// shutdown.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/recallbot/internal/twilio"
)

// Agent ties the webhook server and the scheduler together under one
// run loop.
type Agent struct {
	logger          *slog.Logger
	server          *twilio.Server
	scheduler       *Scheduler
	shutdownTimeout time.Duration
}

// NewAgent creates a new agent managing the given server and scheduler.
func NewAgent(logger *slog.Logger, server *twilio.Server, scheduler *Scheduler, shutdownTimeout time.Duration) *Agent {
	return &Agent{
		logger:          logger.With("component", "agent"),
		server:          server,
		scheduler:       scheduler,
		shutdownTimeout: shutdownTimeout,
	}
}

// Run starts all components and blocks until the context is cancelled or a
// component fails. Shutdown is graceful: in-flight webhook requests get
// shutdownTimeout to finish, and the scheduler waits for running tasks.
func (a *Agent) Run(ctx context.Context) error {
	a.logger.Info("Starting agent...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Webhook server failed", "error", err)
			return fmt.Errorf("webhook server failed: %w", err)
		}
		a.logger.Info("Webhook server stopped.")
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping webhook server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error shutting down webhook server", "error", err)
			return fmt.Errorf("failed to shut down webhook server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("Starting scheduler...")
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	a.logger.Info("Agent running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("Agent stopped due to error", "error", err)
		return err
	}

	a.logger.Info("Agent stopped gracefully.")
	return nil
}
