package config

import "time"

// Default values for configuration
const (
	// Logger defaults
	DefaultLogLevel = "info"
	DefaultLogJSON  = false

	// Server defaults
	DefaultServerPort      = 5000
	DefaultWebhookPath     = "/sms"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second

	// Gemini defaults
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiTemperature = 0.2 // Low temperature keeps classification output stable
	DefaultClassifyMaxTokens = 500
	DefaultAnswerMaxTokens   = 300
	DefaultMaxRetries        = 2
	DefaultRetryDelay        = 5 * time.Second

	// Circuit breaker defaults
	DefaultBreakerEnabled          = true
	DefaultBreakerMaxRequests      = 1
	DefaultBreakerInterval         = 60 * time.Second
	DefaultBreakerTimeout          = 30 * time.Second
	DefaultBreakerFailureThreshold = 5

	// Database defaults
	DefaultDatabasePath = "storage/recallbot.db"

	// Pending store defaults
	DefaultPendingBackend = "memory"
	DefaultPendingTTL     = 2 * time.Minute
	DefaultPendingPath    = "storage/pending"
)

// DefaultMessages holds the default user-visible reply strings.
var DefaultMessages = MessagesConfig{
	Ack:          "✓",
	NothingSaved: "You haven't saved anything yet! Text me links to save them.",
	GeneralError: "An error occurred. Please try again later.",
	Health:       "RecallBot is running!",
}

// DefaultSchedulerTasks holds the default background task definitions.
var DefaultSchedulerTasks = map[string]TaskConfig{
	"pending_purge":   {Enabled: true, Schedule: "*/5 * * * *"},
	"sql_maintenance": {Enabled: true, Schedule: "0 5 * * *"},
}
