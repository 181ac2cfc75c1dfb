package llm

import (
	"context"
	"errors"
	"fmt"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Settings selects and authenticates an upstream model server. BaseURL is
// the provider root (e.g. "http://localhost:11434/v1" for an
// OpenAI-compatible server); APIKey may be empty for local servers.
type Settings struct {
	Provider string `json:"provider,omitempty"`
	BaseURL  string `json:"baseUrl,omitempty"`
	Model    string `json:"model,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

// Client is an upstream chat-completion provider.
type Client interface {
	Name() string
	// Complete returns the full model output in one shot.
	Complete(ctx context.Context, messages []Message) (string, error)
	// CompleteStream forwards incremental text deltas to onToken and
	// returns the accumulated output. Providers without incremental
	// output degrade to a single delta carrying the whole payload.
	CompleteStream(ctx context.Context, messages []Message, onToken func(string)) (string, error)
	// Probe issues a minimal 1-token completion to verify connectivity.
	Probe(ctx context.Context) error
	Close() error
}

var (
	// ErrUpstreamUnavailable covers connection failures and non-2xx
	// upstream statuses. Retryable.
	ErrUpstreamUnavailable = errors.New("llm: upstream unavailable")
	// ErrUpstreamTimeout is reported when the configured whole-request
	// deadline elapses. Retryable, distinct from cancellation.
	ErrUpstreamTimeout = errors.New("llm: upstream timeout")
	// ErrCancelled marks a caller-initiated abort. Not a failure; the
	// transcript records it as an informational entry.
	ErrCancelled = errors.New("llm: request cancelled")
)

// RetryableError carries the original user prompt alongside the failure so
// a one-click retry can resubmit the identical request.
type RetryableError struct {
	Prompt string
	Err    error
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable: %v", e.Err)
}

func (e *RetryableError) Unwrap() error { return e.Err }

// Retryable wraps err with the prompt that produced it.
func Retryable(prompt string, err error) error {
	if err == nil {
		return nil
	}
	return &RetryableError{Prompt: prompt, Err: err}
}
