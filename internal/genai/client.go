// Package genai wraps the Genkit generation API behind a small client with
// per-attempt timeouts, retry with exponential backoff, an ordered model
// fallback chain, a circuit breaker and provider rate limiting.
//
// Consumers depend on the Generator interface, so tests substitute a
// deterministic fake without touching a real provider.
package genai

import (
	"context"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"golang.org/x/time/rate"

	"github.com/planit-dev/planit/internal/log"
)

// Generator is the narrow generation dependency agents consume.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Request is one generation call.
type Request struct {
	System string // system prompt, optional
	Prompt string // user prompt
}

// RetryConfig configures the retry behavior for provider calls.
type RetryConfig struct {
	MaxRetries      int           // retry attempts per model, after the first try
	InitialInterval time.Duration // initial backoff interval
	MaxInterval     time.Duration // backoff cap
}

// DefaultRetryConfig returns sensible defaults for provider calls.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:      2,
		InitialInterval: 500 * time.Millisecond,
		MaxInterval:     10 * time.Second,
	}
}

// Config configures the client.
type Config struct {
	// Models is the provider-qualified fallback chain, tried in order.
	Models []string

	// Timeout bounds each individual provider attempt.
	Timeout time.Duration

	Retry   RetryConfig
	Breaker CircuitBreakerConfig

	// RPS throttles provider attempts. Zero disables throttling.
	RPS float64
}

// generateFn matches genkit.Generate, injectable for tests.
type generateFn func(ctx context.Context, g *genkit.Genkit, opts ...ai.GenerateOption) (*ai.ModelResponse, error)

// Client is the production Generator implementation.
type Client struct {
	g        *genkit.Genkit
	models   []string
	timeout  time.Duration
	retry    RetryConfig
	breaker  *CircuitBreaker
	limiter  *rate.Limiter
	logger   log.Logger
	generate generateFn
}

// New creates a generation client. cfg.Models must not be empty.
func New(g *genkit.Genkit, cfg Config, logger log.Logger) (*Client, error) {
	if len(cfg.Models) == 0 {
		return nil, fmt.Errorf("genai: at least one model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Retry.InitialInterval <= 0 {
		cfg.Retry = DefaultRetryConfig()
	}
	if logger == nil {
		logger = log.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RPS), 1)
	}

	return &Client{
		g:        g,
		models:   cfg.Models,
		timeout:  cfg.Timeout,
		retry:    cfg.Retry,
		breaker:  NewCircuitBreaker(cfg.Breaker),
		limiter:  limiter,
		logger:   logger.With("component", "genai"),
		generate: genkit.Generate,
	}, nil
}

// Breaker exposes the circuit breaker, for health reporting.
func (c *Client) Breaker() *CircuitBreaker { return c.breaker }

// Generate runs the request through the fallback chain.
//
// Each model gets the full retry budget for transient errors; any failure
// moves on to the next model in the chain. The returned error is always a
// *ProviderError: CodeTimeout or CodeQuota when the final failure is
// caller-actionable, CodeExhausted otherwise.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	if err := c.breaker.Allow(); err != nil {
		return "", &ProviderError{Code: CodeExhausted, Err: err}
	}

	var (
		lastErr   error
		lastModel string
	)
	for _, model := range c.models {
		text, err := c.generateWithRetry(ctx, model, req)
		if err == nil {
			c.breaker.Success()
			return text, nil
		}
		lastErr, lastModel = err, model

		// Parent cancellation is not a provider failure; stop immediately
		// without tripping the breaker further down the chain.
		if ctx.Err() != nil {
			break
		}
		c.logger.Warn("model failed, trying next in chain", "model", model, "error", err)
	}

	c.breaker.Failure()

	code := CodeExhausted
	if cl := classify(lastErr); cl == CodeTimeout || cl == CodeQuota {
		code = cl
	}
	return "", &ProviderError{Code: code, Model: lastModel, Err: lastErr}
}

// generateWithRetry executes one model with exponential backoff.
// Each attempt is rate limited and bounded by the per-attempt timeout.
func (c *Client) generateWithRetry(ctx context.Context, model string, req Request) (string, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(model),
		ai.WithPrompt(req.Prompt),
	}
	if req.System != "" {
		opts = append(opts, ai.WithSystem(req.System))
	}

	var lastErr error
	delay := c.retry.InitialInterval
	start := time.Now()

	for attempt := 0; attempt <= c.retry.MaxRetries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return "", fmt.Errorf("rate limit wait: %w", err)
			}
		}

		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := c.generate(attemptCtx, c.g, opts...)
		cancel()

		if err == nil {
			c.logger.Debug("generation succeeded",
				"model", model,
				"attempts", attempt+1,
				"elapsed", time.Since(start),
			)
			return resp.Text(), nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return "", fmt.Errorf("generate: %w", ctx.Err())
		}
		if !retryableError(err) {
			return "", fmt.Errorf("generate: %w", err)
		}
		if attempt == c.retry.MaxRetries {
			break
		}

		c.logger.Debug("retrying after error",
			"model", model,
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("context canceled during retry: %w", ctx.Err())
		case <-time.After(delay):
			delay = min(delay*2, c.retry.MaxInterval)
		}
	}

	return "", fmt.Errorf("generate after %d retries (elapsed: %v): %w",
		c.retry.MaxRetries, time.Since(start), lastErr)
}
