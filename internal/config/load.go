package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// CHECKLIST_SERVER_PORT for server.port.
const EnvPrefix = "CHECKLIST"

// keys lists every setting so that environment variables are honoured even
// for keys without a default.
var keys = []string{
	"server.port",
	"server.log_level",
	"server.cors_allowed_origins",
	"database.url",
	"store.backend",
	"store.dir",
	"auth.jwt_secret",
	"auth.token_lifetime_minutes",
	"llm.gemini_api_key",
	"llm.model_name",
	"llm.prompt_template_path",
	"llm.max_retries",
	"llm.retry_delay_seconds",
	"workflow.stale_after",
	"workflow.retry_cooldown",
	"workflow.execution_timeout",
	"workflow.write_retry_delay",
	"workflow.queue_size",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("store.backend", StoreBackendPostgres)
	v.SetDefault("store.dir", "data")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("llm.model_name", "gemini-2.0-flash")
	v.SetDefault("llm.max_retries", 3)
	v.SetDefault("llm.retry_delay_seconds", 2)
	v.SetDefault("workflow.stale_after", 30*time.Minute)
	v.SetDefault("workflow.retry_cooldown", 5*time.Minute)
	v.SetDefault("workflow.execution_timeout", 10*time.Minute)
	v.SetDefault("workflow.write_retry_delay", 5*time.Second)
	v.SetDefault("workflow.queue_size", 100)
}

// Load configuration from environment variables and optionally a config.yaml
// in the working directory. Environment variables take precedence over values
// from the config file. Returns a populated Config struct or an error if
// loading/validation fails.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file. An empty path searches the
// working directory for config.yaml and tolerates its absence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks field constraints plus the rules that span sections.
func Validate(cfg *Config) error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterStructValidation(validateStore, Config{})

	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

func validateStore(sl validator.StructLevel) {
	cfg := sl.Current().Interface().(Config)

	switch cfg.Store.Backend {
	case StoreBackendPostgres:
		if cfg.Database.URL == "" {
			sl.ReportError(cfg.Database.URL, "Database.URL", "URL", "required_with_postgres", "")
		}
	case StoreBackendFile:
		if cfg.Store.Dir == "" {
			sl.ReportError(cfg.Store.Dir, "Store.Dir", "Dir", "required_with_file", "")
		}
	}
}
