package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads and validates configuration from:
// 1. Default values
// 2. The YAML file at path (optional; missing file is not an error)
// 3. RECALLBOT_* environment variables and their canonical aliases
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay, we'll use defaults and env
	}

	v.SetEnvPrefix("RECALLBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvAliases(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// bindEnvAliases binds the unprefixed environment variable names that SMS
// deployments conventionally use.
func bindEnvAliases(v *viper.Viper) {
	aliases := map[string]string{
		"twilio.account_sid":  "TWILIO_ACCOUNT_SID",
		"twilio.auth_token":   "TWILIO_AUTH_TOKEN",
		"twilio.phone_number": "TWILIO_PHONE_NUMBER",
		"gemini.api_key":      "GEMINI_API_KEY",
		"server.port":         "PORT",
	}
	for key, env := range aliases {
		// BindEnv only errors on an empty key
		_ = v.BindEnv(key, env)
	}
}

// setDefaults sets default values for all configuration parameters. Secrets
// default to empty strings so environment overrides are picked up during
// unmarshalling; validation rejects them if they stay empty.
func setDefaults(v *viper.Viper) {
	// Logger defaults
	v.SetDefault("logger.level", DefaultLogLevel)
	v.SetDefault("logger.json", DefaultLogJSON)

	// Server defaults
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.webhook_path", DefaultWebhookPath)
	v.SetDefault("server.public_url", "")
	v.SetDefault("server.validate_signature", false)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.idle_timeout", DefaultIdleTimeout)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)

	// Twilio defaults
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.phone_number", "")

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model", DefaultGeminiModel)
	v.SetDefault("gemini.temperature", DefaultGeminiTemperature)
	v.SetDefault("gemini.classify_max_tokens", DefaultClassifyMaxTokens)
	v.SetDefault("gemini.answer_max_tokens", DefaultAnswerMaxTokens)
	v.SetDefault("gemini.max_retries", DefaultMaxRetries)
	v.SetDefault("gemini.retry_delay", DefaultRetryDelay)
	v.SetDefault("gemini.breaker.enabled", DefaultBreakerEnabled)
	v.SetDefault("gemini.breaker.max_requests", DefaultBreakerMaxRequests)
	v.SetDefault("gemini.breaker.interval", DefaultBreakerInterval)
	v.SetDefault("gemini.breaker.timeout", DefaultBreakerTimeout)
	v.SetDefault("gemini.breaker.failure_threshold", DefaultBreakerFailureThreshold)

	// Database defaults
	v.SetDefault("database.path", DefaultDatabasePath)

	// Pending store defaults
	v.SetDefault("pending.backend", DefaultPendingBackend)
	v.SetDefault("pending.ttl", DefaultPendingTTL)
	v.SetDefault("pending.path", DefaultPendingPath)

	// Scheduler defaults
	v.SetDefault("scheduler.tasks", DefaultSchedulerTasks)

	// Messages defaults
	v.SetDefault("messages.ack", DefaultMessages.Ack)
	v.SetDefault("messages.nothing_saved", DefaultMessages.NothingSaved)
	v.SetDefault("messages.general_error", DefaultMessages.GeneralError)
	v.SetDefault("messages.health", DefaultMessages.Health)
}
