// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.planit/config.yaml or ./config.yaml)
//  3. Default values
//
// Sensitive values (passwords) are masked in MarshalJSON and String, so a
// Config can be logged safely. Validation returns sentinel errors usable
// with errors.Is().
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required provider API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates the model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidProvider indicates the AI provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidPostgres indicates a bad PostgreSQL setting.
	ErrInvalidPostgres = errors.New("invalid PostgreSQL configuration")

	// ErrInvalidSessionBackend indicates an unknown session store backend.
	ErrInvalidSessionBackend = errors.New("invalid session backend")

	// ErrInvalidLimit indicates a numeric limit is out of range.
	ErrInvalidLimit = errors.New("invalid limit")
)

// AI provider identifiers used in Config.Provider.
const (
	ProviderGemini   = "gemini"
	ProviderOllama   = "ollama"
	ProviderOpenAI   = "openai"
	ProviderGoogleAI = "googleai"
)

// Session store backends used in Config.SessionBackend.
const (
	SessionBackendMemory   = "memory"
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"
)

// Config stores application configuration.
// Sensitive fields are masked in MarshalJSON; update it when adding secrets.
type Config struct {
	// AI provider and model configuration
	Provider       string   `mapstructure:"provider" json:"provider"`
	ModelName      string   `mapstructure:"model_name" json:"model_name"`
	FallbackModels []string `mapstructure:"fallback_models" json:"fallback_models"` // tried in order after ModelName
	Temperature    float32  `mapstructure:"temperature" json:"temperature"`
	MaxTokens      int      `mapstructure:"max_tokens" json:"max_tokens"`
	OllamaHost     string   `mapstructure:"ollama_host" json:"ollama_host"`

	// Generation limits
	GenerateTimeout time.Duration `mapstructure:"generate_timeout" json:"generate_timeout"`
	MaxRetries      int           `mapstructure:"max_retries" json:"max_retries"`
	GenerateRPS     float64       `mapstructure:"generate_rps" json:"generate_rps"` // provider calls per second

	// Knowledge retrieval configuration
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`
	KnowledgeTopK int    `mapstructure:"knowledge_top_k" json:"knowledge_top_k"`

	// Conversational agent configuration
	MaxChatCycles int `mapstructure:"max_chat_cycles" json:"max_chat_cycles"`

	// Session configuration
	SessionBackend string        `mapstructure:"session_backend" json:"session_backend"`
	SessionTTL     time.Duration `mapstructure:"session_ttl" json:"session_ttl"`

	// HTTP server configuration
	ListenAddr string  `mapstructure:"listen_addr" json:"listen_addr"`
	RequestRPS float64 `mapstructure:"request_rps" json:"request_rps"` // per-client rate limit

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	RedisAddr     string `mapstructure:"redis_addr" json:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password" json:"redis_password"` // SENSITIVE: masked in MarshalJSON
	RedisDB       int    `mapstructure:"redis_db" json:"redis_db"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".planit")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// AI defaults
	viper.SetDefault("provider", ProviderGemini)
	viper.SetDefault("model_name", "gemini-2.5-flash")
	viper.SetDefault("fallback_models", []string{"gemini-2.0-flash"})
	viper.SetDefault("temperature", 0.7)
	viper.SetDefault("max_tokens", 4096)
	viper.SetDefault("ollama_host", "http://localhost:11434")

	// Generation limits
	viper.SetDefault("generate_timeout", "30s")
	viper.SetDefault("max_retries", 2)
	viper.SetDefault("generate_rps", 2.0)

	// Knowledge retrieval defaults
	viper.SetDefault("embedder_model", "gemini-embedding-001")
	viper.SetDefault("knowledge_top_k", 5)

	// Conversational agent defaults
	viper.SetDefault("max_chat_cycles", 4)

	// Session defaults
	viper.SetDefault("session_backend", SessionBackendMemory)
	viper.SetDefault("session_ttl", "24h")

	// HTTP server defaults
	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("request_rps", 5.0)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "planit")
	viper.SetDefault("postgres_password", "planit_dev_password")
	viper.SetDefault("postgres_db_name", "planit")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Redis defaults
	viper.SetDefault("redis_addr", "localhost:6379")
	viper.SetDefault("redis_password", "")
	viper.SetDefault("redis_db", 0)
}

// bindEnvVariables binds environment overrides explicitly.
// Provider API keys (GEMINI_API_KEY, OPENAI_API_KEY) are read directly by
// the Genkit plugins, not via Viper; Validate checks their presence.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug.
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("provider", "PLANIT_PROVIDER")
	mustBind("model_name", "PLANIT_MODEL_NAME")
	mustBind("ollama_host", "PLANIT_OLLAMA_HOST")
	mustBind("listen_addr", "PLANIT_LISTEN_ADDR")
	mustBind("session_backend", "PLANIT_SESSION_BACKEND")
	mustBind("redis_addr", "PLANIT_REDIS_ADDR")
	mustBind("redis_password", "PLANIT_REDIS_PASSWORD")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Short secrets are
// fully masked; longer ones keep two characters on each end for debugging.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.RedisPassword = maskSecret(a.RedisPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// FullModelName returns the provider-qualified name for a model.
// Examples: "googleai/gemini-2.5-flash", "ollama/llama3.3", "openai/gpt-4o".
// Names that already contain "/" are returned as-is.
func (c *Config) FullModelName(model string) string {
	if strings.Contains(model, "/") {
		return model
	}
	switch c.Provider {
	case ProviderOllama:
		return ProviderOllama + "/" + model
	case ProviderOpenAI:
		return ProviderOpenAI + "/" + model
	default:
		return ProviderGoogleAI + "/" + model
	}
}

// ModelChain returns the primary model followed by the fallbacks, each
// provider-qualified, deduplicated in order.
func (c *Config) ModelChain() []string {
	seen := make(map[string]struct{}, 1+len(c.FallbackModels))
	chain := make([]string, 0, 1+len(c.FallbackModels))
	for _, m := range append([]string{c.ModelName}, c.FallbackModels...) {
		full := c.FullModelName(m)
		if _, ok := seen[full]; ok {
			continue
		}
		seen[full] = struct{}{}
		chain = append(chain, full)
	}
	return chain
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
