// Package provider abstracts the chat completion backend of the tutor.
package provider

import (
	"context"
	"errors"
)

// Provider generates completions from a chat model.
type Provider interface {
	// Complete generates a full completion and returns the accumulated text.
	Complete(ctx context.Context, req *CompletionRequest) (string, error)

	// Stream opens a streaming completion. The caller must Close the
	// returned stream.
	Stream(ctx context.Context, req *CompletionRequest) (*CompletionStream, error)
}

// Message is a single chat message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest represents a request to generate a completion.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stop        []string  `json:"stop,omitempty"`
}

// Sentinel errors reported by providers. Handlers map these to response
// status codes.
var (
	// ErrUnauthorized means the provider rejected the configured API key.
	ErrUnauthorized = errors.New("provider: unauthorized")

	// ErrRateLimited means the provider throttled the request.
	ErrRateLimited = errors.New("provider: rate limited")

	// ErrUnavailable means the provider could not be reached or returned
	// a server error.
	ErrUnavailable = errors.New("provider: unavailable")

	// ErrMalformedResponse means the provider returned a body that could
	// not be decoded.
	ErrMalformedResponse = errors.New("provider: malformed response")
)
