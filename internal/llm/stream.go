package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// State is the per-request relay lifecycle.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateComplete
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Relay turns an upstream chat-completion byte stream into token events,
// accumulating the full text for final parsing. One Relay serves exactly
// one request.
type Relay struct {
	state State
	buf   strings.Builder
}

func NewRelay() *Relay { return &Relay{state: StateIdle} }

func (r *Relay) State() State { return r.state }

// Text returns the accumulated output so far.
func (r *Relay) Text() string { return r.buf.String() }

// Run consumes the upstream response body. A JSON content type means the
// server does not support incremental output; the whole payload is taken
// as the complete content. Otherwise the body is read as an event stream:
// lines prefixed "data: " carry JSON payloads, "[DONE]" ends the stream,
// an "error" field fails it, and every text delta is forwarded to onToken.
//
// Context cancellation yields ErrCancelled and StateCancelled; the
// deadline elapsing yields ErrUpstreamTimeout and StateFailed.
func (r *Relay) Run(ctx context.Context, contentType string, body io.Reader, onToken func(string)) (string, error) {
	if strings.Contains(contentType, "application/json") {
		return r.runComplete(ctx, body)
	}
	return r.runStream(ctx, body, onToken)
}

func (r *Relay) runComplete(ctx context.Context, body io.Reader) (string, error) {
	r.state = StateStreaming
	data, err := io.ReadAll(body)
	if err != nil {
		return "", r.fail(ctx, err)
	}
	content, errMsg := extractComplete(data)
	if errMsg != "" {
		r.state = StateFailed
		return "", fmt.Errorf("%w: %s", ErrUpstreamUnavailable, errMsg)
	}
	r.buf.WriteString(content)
	r.state = StateComplete
	return r.buf.String(), nil
}

func (r *Relay) runStream(ctx context.Context, body io.Reader, onToken func(string)) (string, error) {
	r.state = StateStreaming
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return "", r.fail(ctx, err)
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			r.state = StateComplete
			return r.buf.String(), nil
		}
		delta, errMsg, err := extractDelta([]byte(payload))
		if err != nil {
			// Malformed frame; skip rather than kill the stream.
			continue
		}
		if errMsg != "" {
			r.state = StateFailed
			return "", fmt.Errorf("%w: %s", ErrUpstreamUnavailable, errMsg)
		}
		if delta != "" {
			r.buf.WriteString(delta)
			if onToken != nil {
				onToken(delta)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return "", r.fail(ctx, err)
	}
	// Stream ended without an explicit [DONE]; treat what we have as
	// complete rather than discarding it.
	r.state = StateComplete
	return r.buf.String(), nil
}

func (r *Relay) fail(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		r.state = StateCancelled
		return ErrCancelled
	case errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded):
		r.state = StateFailed
		return ErrUpstreamTimeout
	default:
		r.state = StateFailed
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
}

// streamFrame covers the payload shapes we relay: our own {"token": …}
// frames, OpenAI-compatible chat-completion chunks, and plain {"content"}
// bodies from servers that wrap everything in one object.
type streamFrame struct {
	Token   string `json:"token"`
	Content string `json:"content"`
	Error   string `json:"error"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func extractDelta(payload []byte) (delta, errMsg string, err error) {
	var f streamFrame
	if err := json.Unmarshal(payload, &f); err != nil {
		return "", "", err
	}
	if f.Error != "" {
		return "", f.Error, nil
	}
	if f.Token != "" {
		return f.Token, "", nil
	}
	if len(f.Choices) > 0 && f.Choices[0].Delta.Content != "" {
		return f.Choices[0].Delta.Content, "", nil
	}
	if f.Content != "" {
		return f.Content, "", nil
	}
	return "", "", nil
}

func extractComplete(body []byte) (content, errMsg string) {
	var f streamFrame
	if err := json.Unmarshal(body, &f); err != nil {
		// Not JSON after all; pass the raw text through.
		return string(body), ""
	}
	if f.Error != "" {
		return "", f.Error
	}
	if len(f.Choices) > 0 && f.Choices[0].Message.Content != "" {
		return f.Choices[0].Message.Content, ""
	}
	if f.Content != "" {
		return f.Content, ""
	}
	return string(body), ""
}
