package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"
)

var errEmptyCandidates = errors.New("llm: empty response from model")

// GeminiClient is a thin wrapper around the official genai client. Gemini
// has no OpenAI-style SSE surface here, so streaming degrades to a single
// complete payload.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

func NewGeminiClient(ctx context.Context, model string) (*GeminiClient, error) {
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	return &GeminiClient{cli: cli, model: model}, nil
}

func (g *GeminiClient) Name() string { return "gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

// Complete sends the flattened conversation and requests application/json.
func (g *GeminiClient) Complete(ctx context.Context, messages []Message) (string, error) {
	full := flatten(messages)

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		resp, err := g.cli.Models.GenerateContent(ctx, g.model,
			[]*genai.Content{{Parts: []*genai.Part{{Text: full}}}},
			&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
		)
		if err != nil {
			lastErr = err
		} else if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			lastErr = errEmptyCandidates
		} else {
			return resp.Candidates[0].Content.Parts[0].Text, nil
		}
		if ctx.Err() != nil {
			break
		}
		time.Sleep(time.Duration(300*(1<<attempt)) * time.Millisecond)
	}
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return "", ErrCancelled
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "", ErrUpstreamTimeout
	default:
		return "", fmt.Errorf("%w: %v", ErrUpstreamUnavailable, lastErr)
	}
}

// CompleteStream degrades to one non-streaming payload: the whole content
// arrives as a single token event.
func (g *GeminiClient) CompleteStream(ctx context.Context, messages []Message, onToken func(string)) (string, error) {
	content, err := g.Complete(ctx, messages)
	if err != nil {
		return "", err
	}
	if onToken != nil && content != "" {
		onToken(content)
	}
	return content, nil
}

func (g *GeminiClient) Probe(ctx context.Context) error {
	_, err := g.cli.Models.GenerateContent(ctx, g.model,
		[]*genai.Content{{Parts: []*genai.Part{{Text: "ping"}}}},
		&genai.GenerateContentConfig{MaxOutputTokens: 1},
	)
	return err
}

func flatten(messages []Message) string {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(strings.ToUpper(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}
