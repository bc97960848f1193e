package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database"`
	Store    StoreConfig    `mapstructure:"store" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Workflow WorkflowConfig `mapstructure:"workflow" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// CORSAllowedOrigins lists the browser origins allowed to call the API.
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
}

// DatabaseConfig contains all database-related configuration settings.
// URL is required when the postgres store backend is selected.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"omitempty,url"`
}

// Store backends
const (
	StoreBackendPostgres = "postgres"
	StoreBackendFile     = "file"
	StoreBackendMemory   = "memory"
)

// StoreConfig selects where checklist documents live.
type StoreConfig struct {
	Backend string `mapstructure:"backend" validate:"required,oneof=postgres file memory"`
	// Dir is the document directory of the file backend.
	Dir string `mapstructure:"dir"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
	// TokenLifetimeMinutes is the lifetime of tokens minted by checklistctl.
	TokenLifetimeMinutes int `mapstructure:"token_lifetime_minutes" validate:"gt=0,lte=44640"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name" validate:"required"`
	// PromptTemplatePath optionally replaces the built-in execution prompt.
	PromptTemplatePath string `mapstructure:"prompt_template_path"`
	MaxRetries         int    `mapstructure:"max_retries" validate:"gte=0,lte=10"`
	RetryDelaySeconds  int    `mapstructure:"retry_delay_seconds" validate:"gte=1,lte=60"`
}

// WorkflowConfig tunes the execution queue and the workflow state machine.
type WorkflowConfig struct {
	// StaleAfter is how long a remark may stay running before a load resets it.
	StaleAfter time.Duration `mapstructure:"stale_after" validate:"gt=0"`
	// RetryCooldown gates re-enqueueing a completed ai-todo.
	RetryCooldown time.Duration `mapstructure:"retry_cooldown" validate:"gte=0"`
	// ExecutionTimeout bounds one executor call; zero means no deadline.
	ExecutionTimeout time.Duration `mapstructure:"execution_timeout" validate:"gte=0"`
	// WriteRetryDelay is the pause before retrying a failed running-state write.
	WriteRetryDelay time.Duration `mapstructure:"write_retry_delay" validate:"gt=0"`
	// QueueSize caps the number of waiting executions.
	QueueSize int `mapstructure:"queue_size" validate:"gt=0"`
}
