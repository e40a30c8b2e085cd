// Package twilio provides the HTTP transport for Twilio SMS webhooks. It
// receives inbound messages as form-encoded POSTs and replies with TwiML.
package twilio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/edgard/recallbot/internal/config"
	"github.com/edgard/recallbot/internal/logger"
	"github.com/edgard/recallbot/internal/relay"
)

// MessageHandler produces the reply text for one inbound message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg relay.InboundMessage) (string, error)
}

// Server is the webhook HTTP server.
type Server struct {
	mux     *http.ServeMux
	server  *http.Server
	logger  *slog.Logger
	handler MessageHandler

	messages          config.MessagesConfig
	authToken         string
	publicURL         string
	validateSignature bool
}

// NewServer creates the webhook server. The webhook route comes from
// cfg.WebhookPath; a liveness endpoint is registered at the root.
func NewServer(cfg config.ServerConfig, twilioCfg config.TwilioConfig, messages config.MessagesConfig, handler MessageHandler, log *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		mux:               mux,
		logger:            log.With("component", "http_server"),
		handler:           handler,
		messages:          messages,
		authToken:         twilioCfg.AuthToken,
		publicURL:         cfg.PublicURL,
		validateSignature: cfg.ValidateSignature,
	}

	s.registerRoutes(cfg.WebhookPath)

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      logger.Middleware(log)(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes(webhookPath string) {
	s.mux.HandleFunc("POST "+webhookPath, s.handleWebhook)
	s.mux.HandleFunc("GET /{$}", s.handleHealth)
}

// handleHealth answers the liveness probe with the fixed health string.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, s.messages.Health)
}

// Start starts the webhook server and blocks until it stops.
func (s *Server) Start() error {
	s.logger.Info("Starting webhook server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down webhook server")
	return s.server.Shutdown(ctx)
}
