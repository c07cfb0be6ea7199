package genai

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Code classifies a generation failure into a stable machine-readable
// category. Raw provider errors stay wrapped underneath and never leak
// into API responses.
type Code string

// Failure codes.
const (
	CodeTimeout   Code = "timeout"   // attempt deadline exceeded
	CodeQuota     Code = "quota"     // rate limited or quota exhausted by the provider
	CodeTransport Code = "transport" // network or server-side failure
	CodeExhausted Code = "exhausted" // all retries and fallback models failed
)

// ErrCircuitOpen is returned when the circuit breaker rejects a call
// before any provider attempt is made.
var ErrCircuitOpen = errors.New("generation circuit breaker is open")

// ProviderError is the classified failure returned by Client.Generate.
type ProviderError struct {
	Code  Code
	Model string // last model attempted, if any
	Err   error
}

func (e *ProviderError) Error() string {
	if e.Model != "" {
		return fmt.Sprintf("generation failed (%s, model %s): %v", e.Code, e.Model, e.Err)
	}
	return fmt.Sprintf("generation failed (%s): %v", e.Code, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// classify maps a raw provider error onto a failure code.
//
// String matching is used because Genkit and the provider SDKs do not
// expose typed errors for transient failures. Re-evaluate if Genkit adds
// structured error types in a future version.
func classify(err error) Code {
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "rate limit", "quota", "429", "resource exhausted"):
		return CodeQuota
	case containsAny(msg, "timeout", "deadline"):
		return CodeTimeout
	default:
		return CodeTransport
	}
}

// retryablePatterns groups transient error substrings by category.
// Matched case-insensitively against err.Error().
var retryablePatterns = [][]string{
	{"rate limit", "quota exceeded", "429", "resource exhausted"}, // rate limiting
	{"500", "502", "503", "504", "unavailable", "overloaded"},     // transient server errors
	{"connection reset", "timeout", "temporary", "deadline"},      // network errors
}

// retryableError reports whether err is transient and should trigger a retry.
func retryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	msg := err.Error()
	for _, group := range retryablePatterns {
		if containsAny(msg, group...) {
			return true
		}
	}
	return false
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}
	return false
}
