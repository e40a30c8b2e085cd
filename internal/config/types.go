// Package config manages application configuration from default values,
// an optional YAML file, and environment variables.
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config holds the full application configuration. Values can be set via
// config.yaml or environment variables prefixed with RECALLBOT_
// (e.g. RECALLBOT_GEMINI_API_KEY); the canonical unprefixed names used by
// typical deployments (TWILIO_ACCOUNT_SID, GEMINI_API_KEY, PORT, ...) are
// bound as aliases.
type Config struct {
	Logger    LoggerConfig    `mapstructure:"logger"`
	Server    ServerConfig    `mapstructure:"server"`
	Twilio    TwilioConfig    `mapstructure:"twilio"`
	Gemini    GeminiConfig    `mapstructure:"gemini"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Pending   PendingConfig   `mapstructure:"pending"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Messages  MessagesConfig  `mapstructure:"messages"`
}

// LoggerConfig controls log output.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// ServerConfig controls the HTTP webhook server.
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	WebhookPath       string        `mapstructure:"webhook_path" validate:"required,startswith=/"`
	PublicURL         string        `mapstructure:"public_url" validate:"omitempty,url"`
	ValidateSignature bool          `mapstructure:"validate_signature"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" validate:"required,min=1s"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" validate:"required,min=1s"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" validate:"required,min=1s"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"required,min=1s"`
}

// TwilioConfig holds the SMS transport credentials. PhoneNumber is the
// outbound sender address shown to users.
type TwilioConfig struct {
	AccountSID  string `mapstructure:"account_sid" validate:"required"`
	AuthToken   string `mapstructure:"auth_token" validate:"required"`
	PhoneNumber string `mapstructure:"phone_number" validate:"required"`
}

// GeminiConfig holds settings for the Gemini API client.
type GeminiConfig struct {
	APIKey            string        `mapstructure:"api_key" validate:"required"`
	Model             string        `mapstructure:"model" validate:"required"`
	Temperature       float32       `mapstructure:"temperature" validate:"min=0,max=2"`
	ClassifyMaxTokens int32         `mapstructure:"classify_max_tokens" validate:"required,min=1"`
	AnswerMaxTokens   int32         `mapstructure:"answer_max_tokens" validate:"required,min=1"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=0"`
	RetryDelay        time.Duration `mapstructure:"retry_delay" validate:"min=0"`
	Breaker           BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig controls the circuit breaker wrapped around Gemini calls.
type BreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests" validate:"required,min=1"`
	Interval         time.Duration `mapstructure:"interval" validate:"required,min=1s"`
	Timeout          time.Duration `mapstructure:"timeout" validate:"required,min=1s"`
	FailureThreshold uint32        `mapstructure:"failure_threshold" validate:"required,min=1"`
}

// DatabaseConfig holds settings for the SQLite item database.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// PendingConfig controls the pending-link store. TTL is the window within
// which a parked link can still be attached to a follow-up message.
type PendingConfig struct {
	Backend string        `mapstructure:"backend" validate:"required,oneof=memory badger"`
	TTL     time.Duration `mapstructure:"ttl" validate:"required,min=1s"`
	Path    string        `mapstructure:"path" validate:"required_if=Backend badger"`
}

// SchedulerConfig holds the background task definitions keyed by task name.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig defines a single scheduled task.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required"`
}

// MessagesConfig holds the fixed user-visible reply strings.
type MessagesConfig struct {
	Ack          string `mapstructure:"ack" validate:"required"`
	NothingSaved string `mapstructure:"nothing_saved" validate:"required"`
	GeneralError string `mapstructure:"general_error" validate:"required"`
	Health       string `mapstructure:"health" validate:"required"`
}

// Validate checks the configuration against the struct validation tags.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}
