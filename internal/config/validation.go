package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	switch c.Provider {
	case ProviderGemini, ProviderGoogleAI:
		if os.Getenv("GEMINI_API_KEY") == "" {
			return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
				"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
				ErrMissingAPIKey)
		}
	case ProviderOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY environment variable is required", ErrMissingAPIKey)
		}
	case ProviderOllama:
		if c.OllamaHost == "" {
			return fmt.Errorf("%w: ollama_host cannot be empty when provider is ollama", ErrInvalidProvider)
		}
	default:
		return fmt.Errorf("%w: %q is not one of gemini, googleai, openai, ollama", ErrInvalidProvider, c.Provider)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}
	for _, m := range c.FallbackModels {
		if m == "" {
			return fmt.Errorf("%w: fallback_models contains an empty entry", ErrInvalidModelName)
		}
	}

	// Temperature range per the Gemini API documentation.
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: temperature must be between 0.0 and 2.0, got %.2f", ErrInvalidLimit, c.Temperature)
	}
	if c.MaxTokens < 1 {
		return fmt.Errorf("%w: max_tokens must be positive, got %d", ErrInvalidLimit, c.MaxTokens)
	}
	if c.GenerateTimeout <= 0 {
		return fmt.Errorf("%w: generate_timeout must be positive, got %s", ErrInvalidLimit, c.GenerateTimeout)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must not be negative, got %d", ErrInvalidLimit, c.MaxRetries)
	}
	if c.GenerateRPS <= 0 {
		return fmt.Errorf("%w: generate_rps must be positive, got %.2f", ErrInvalidLimit, c.GenerateRPS)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}
	if c.KnowledgeTopK < 1 || c.KnowledgeTopK > 20 {
		return fmt.Errorf("%w: knowledge_top_k must be between 1 and 20, got %d", ErrInvalidLimit, c.KnowledgeTopK)
	}

	if c.MaxChatCycles < 1 || c.MaxChatCycles > 10 {
		return fmt.Errorf("%w: max_chat_cycles must be between 1 and 10, got %d", ErrInvalidLimit, c.MaxChatCycles)
	}

	validBackends := []string{SessionBackendMemory, SessionBackendPostgres, SessionBackendRedis}
	if !slices.Contains(validBackends, c.SessionBackend) {
		return fmt.Errorf("%w: %q is not one of %v", ErrInvalidSessionBackend, c.SessionBackend, validBackends)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("%w: session_ttl must be positive, got %s", ErrInvalidLimit, c.SessionTTL)
	}

	if c.ListenAddr == "" {
		return fmt.Errorf("%w: listen_addr cannot be empty", ErrInvalidLimit)
	}
	if c.RequestRPS <= 0 {
		return fmt.Errorf("%w: request_rps must be positive, got %.2f", ErrInvalidLimit, c.RequestRPS)
	}

	// Postgres settings only matter when something will dial it, but a bad
	// value is a config bug either way, so check unconditionally.
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgres)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port must be between 1 and 65535, got %d", ErrInvalidPostgres, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgres)
	}
	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set", ErrInvalidPostgres)
	}
	if c.PostgresPassword == "planit_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"warning", "change postgres_password for production deployments")
	}

	// Modern SSL modes only; allow/prefer are deprecated.
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: ssl mode %q is not valid, must be one of: %v",
			ErrInvalidPostgres, c.PostgresSSLMode, validSSLModes)
	}

	if c.SessionBackend == SessionBackendRedis && c.RedisAddr == "" {
		return fmt.Errorf("%w: redis_addr cannot be empty when session_backend is redis", ErrInvalidSessionBackend)
	}

	return nil
}
