// Package llm provides the LLM gateway consumed by the debate engine.
// Provider-specific logic (endpoints, headers, request/response formats)
// is consolidated in client.go; this file defines the gateway contract
// and the error classification used by the retry layer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ChatMessage is a single role/content entry sent to a provider.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ModelRef identifies the provider-side model an agent is backed by.
// BaseURL and APIKeyEnvVar are optional; empty values fall back to the
// provider defaults configured on the client.
type ModelRef struct {
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	BaseURL      string `json:"base_url,omitempty"`
	APIKeyEnvVar string `json:"api_key_env_var,omitempty"`
}

// SendRequest is one chat-completion call.
type SendRequest struct {
	Model        ModelRef
	SystemPrompt string
	Messages     []ChatMessage
	Temperature  float64
	MaxTokens    int
}

// Gateway sends a prompt to an LLM and returns its text response.
// Implementations must classify failures with ProviderError so callers
// can distinguish transient from fatal faults.
type Gateway interface {
	Send(ctx context.Context, req SendRequest) (string, error)
}

// ---------------------------------------------------------------------------
// Error taxonomy
// ---------------------------------------------------------------------------

// ErrorClass is the retryability classification of a provider failure.
type ErrorClass int

const (
	// Fatal errors abort immediately: authentication, malformed request,
	// context length exceeded.
	Fatal ErrorClass = iota
	// Transient errors are retryable: connectivity, rate limiting, 5xx.
	Transient
)

// ProviderError is a classified failure from a provider call.
type ProviderError struct {
	Provider   string
	StatusCode int // 0 when the failure happened before an HTTP response
	Transient  bool
	Err        error
}

func (e *ProviderError) Error() string {
	kind := "fatal"
	if e.Transient {
		kind = "transient"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s provider error (%s, status %d): %v", e.Provider, kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s provider error (%s): %v", e.Provider, kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Classify returns the retryability class of err. ProviderErrors carry
// their class explicitly; anything else is matched against well-known
// transient failure patterns and defaults to Fatal.
func Classify(err error) ErrorClass {
	if err == nil {
		return Fatal
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		if pe.Transient {
			return Transient
		}
		return Fatal
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return Transient
	}

	s := strings.ToLower(err.Error())
	transientPatterns := []string{
		"timeout",
		"connection refused",
		"connection reset",
		"temporary failure",
		"too many requests",
		"rate limit",
		"502",
		"503",
		"504",
		"network is unreachable",
		"no route to host",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(s, pattern) {
			return Transient
		}
	}

	return Fatal
}

// IsContextLengthError returns true if the error is a context-length-exceeded error.
func IsContextLengthError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "context_length_exceeded") ||
		strings.Contains(s, "context window") ||
		strings.Contains(s, "prompt is too long") ||
		strings.Contains(s, "tokens_exceeded") ||
		strings.Contains(s, "maximum context length")
}
