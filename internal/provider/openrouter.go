package provider

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/codementor-ai/codementor/internal/logging"
	"github.com/codementor-ai/codementor/pkg/types"
)

const (
	// MaxRetries is the maximum number of retries for buffered completions.
	MaxRetries = 3
	// RetryInitialInterval is the initial interval for exponential backoff.
	RetryInitialInterval = time.Second
	// RetryMaxInterval is the maximum interval for exponential backoff.
	RetryMaxInterval = 30 * time.Second
	// RetryMaxElapsedTime is the maximum total time for retries.
	RetryMaxElapsedTime = 2 * time.Minute
)

// OpenRouter is a Provider backed by the OpenRouter chat completions API.
type OpenRouter struct {
	apiKey  string
	baseURL string
	referer string
	title   string
	client  *http.Client
	log     zerolog.Logger
}

// NewOpenRouter creates an OpenRouter provider from config.
func NewOpenRouter(cfg types.ProviderConfig) *OpenRouter {
	return &OpenRouter{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		referer: cfg.Referer,
		title:   cfg.Title,
		client:  &http.Client{},
		log:     logging.Component("provider"),
	}
}

// newRetryBackoff creates an exponential backoff with jitter for API retries.
func newRetryBackoff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = RetryInitialInterval
	b.MaxInterval = RetryMaxInterval
	b.MaxElapsedTime = RetryMaxElapsedTime
	b.RandomizationFactor = 0.5
	b.Multiplier = 2.0
	b.Reset()
	return backoff.WithContext(backoff.WithMaxRetries(b, MaxRetries), ctx)
}

func (o *OpenRouter) newRequest(ctx context.Context, req *CompletionRequest, stream bool) (*http.Request, error) {
	payload := struct {
		*CompletionRequest
		Stream bool `json:"stream"`
	}{CompletionRequest: req, Stream: stream}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode completion request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+o.apiKey)
	if o.referer != "" {
		httpReq.Header.Set("HTTP-Referer", o.referer)
	}
	if o.title != "" {
		httpReq.Header.Set("X-Title", o.title)
	}
	return httpReq, nil
}

// statusError maps an HTTP status to a provider sentinel error.
func statusError(status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, status)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", ErrRateLimited, status)
	default:
		return fmt.Errorf("%w: status %d", ErrUnavailable, status)
	}
}

// Complete generates a buffered completion, retrying transient failures.
func (o *OpenRouter) Complete(ctx context.Context, req *CompletionRequest) (string, error) {
	var text string
	operation := func() error {
		httpReq, err := o.newRequest(ctx, req, false)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := o.client.Do(httpReq)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			err := statusError(resp.StatusCode)
			// Auth failures do not get better with retries.
			if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
				return backoff.Permanent(err)
			}
			return err
		}

		var decoded struct {
			Choices []struct {
				Message struct {
					Content string `json:"content"`
				} `json:"message"`
			} `json:"choices"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
		}
		if len(decoded.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("%w: no choices", ErrMalformedResponse))
		}
		text = decoded.Choices[0].Message.Content
		return nil
	}

	notify := func(err error, wait time.Duration) {
		o.log.Warn().Err(err).Dur("wait", wait).Msg("completion failed, retrying")
	}
	if err := backoff.RetryNotify(operation, newRetryBackoff(ctx), notify); err != nil {
		return "", err
	}
	return text, nil
}

// Stream opens a streaming completion. Transport errors surface from Recv;
// streams are not retried because partial output may already be delivered.
func (o *OpenRouter) Stream(ctx context.Context, req *CompletionRequest) (*CompletionStream, error) {
	httpReq, err := o.newRequest(ctx, req, true)
	if err != nil {
		return nil, err
	}
	resp, err := o.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, statusError(resp.StatusCode)
	}
	return NewCompletionStream(resp.Body), nil
}

// CompletionStream reads text deltas from a server-sent-events response.
type CompletionStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
}

// NewCompletionStream wraps a server-sent-events body in a CompletionStream.
func NewCompletionStream(body io.ReadCloser) *CompletionStream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &CompletionStream{body: body, scanner: scanner}
}

// Recv returns the next non-empty text delta. It returns io.EOF after the
// [DONE] terminator frame. A stream that ends without the terminator was
// truncated and reports ErrUnavailable so no partial reply is committed.
// Frames that do not decode are skipped.
func (s *CompletionStream) Recv() (string, error) {
	if s.done {
		return "", io.EOF
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		return chunk.Choices[0].Delta.Content, nil
	}
	s.done = true
	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return "", fmt.Errorf("%w: stream ended without terminator", ErrUnavailable)
}

// Close releases the underlying response body.
func (s *CompletionStream) Close() error {
	return s.body.Close()
}
