package llm

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"
)

// LLMError is the base error type for all LLM client errors.
type LLMError struct {
	Code    int
	Message string
	Cause   error
}

func (e *LLMError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("llm error %d: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("llm error %d: %s", e.Code, e.Message)
}

func (e *LLMError) Unwrap() error { return e.Cause }

// RateLimitError is returned when the provider rate-limits the request.
type RateLimitError struct{ LLMError }

// ServerError is returned on 5xx responses from the provider.
type ServerError struct{ LLMError }

// AuthError is returned on authentication/authorization failures.
type AuthError struct{ LLMError }

// ContextLengthError is returned when the request is rejected as too large or malformed.
type ContextLengthError struct{ LLMError }

// ContentFilterError is returned when the request is blocked by the provider's safety filter.
type ContentFilterError struct{ LLMError }

// FromStatus classifies a provider HTTP status into the typed error
// hierarchy. Unknown statuses yield a bare *LLMError.
func FromStatus(code int, message string, cause error) error {
	base := LLMError{Code: code, Message: message, Cause: cause}
	switch code {
	case http.StatusTooManyRequests:
		return &RateLimitError{LLMError: base}
	case http.StatusUnauthorized, http.StatusForbidden:
		return &AuthError{LLMError: base}
	case http.StatusBadRequest:
		return &ContextLengthError{LLMError: base}
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, 529:
		return &ServerError{LLMError: base}
	default:
		return &base
	}
}

// Retryable returns true if the error is transient and the request may be retried.
func Retryable(err error) bool {
	var rl *RateLimitError
	var se *ServerError
	return errors.As(err, &rl) || errors.As(err, &se)
}

// backoffBase is the first retry delay; tests shorten it.
var backoffBase = time.Second

// WithRetry retries fn up to maxAttempts using exponential backoff with jitter.
// It respects context cancellation.
func WithRetry(ctx context.Context, maxAttempts int, fn func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var lastErr error
	for i := range maxAttempts {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !Retryable(lastErr) {
			return lastErr
		}
		if i == maxAttempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff(i)):
		}
	}
	if maxAttempts == 1 {
		return lastErr
	}
	return fmt.Errorf("max retries (%d) exceeded: %w", maxAttempts, lastErr)
}

// backoff returns the delay before retry i: base*2^i capped at 30s, ±25% jitter.
func backoff(i int) time.Duration {
	base := backoffBase << uint(i)
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Float64() * 0.5 * float64(base))
	return base/4*3 + jitter
}
