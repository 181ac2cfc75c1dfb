package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Structured diagram output wants a low temperature.
const diagramTemperature = 0.3

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIClient calls any OpenAI-compatible chat-completions server
// (OpenAI, Groq, Ollama, LM Studio, vLLM, ...) and asks for JSON output.
type OpenAIClient struct {
	http    *http.Client
	baseURL string
	model   string
	apiKey  string
}

// NewOpenAIClient creates a client for the given settings. An empty API
// key falls back to the OPENAI_API_KEY env var; local servers typically
// need none at all.
func NewOpenAIClient(s Settings) *OpenAIClient {
	apiKey := s.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	baseURL := strings.TrimSuffix(strings.TrimSpace(s.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	return &OpenAIClient{
		http:    &http.Client{},
		baseURL: baseURL,
		model:   s.Model,
		apiKey:  apiKey,
	}
}

func (c *OpenAIClient) Name() string { return "openai:" + c.model }
func (c *OpenAIClient) Close() error { return nil }

type chatCompletionReq struct {
	Model          string            `json:"model"`
	Messages       []Message         `json:"messages"`
	Temperature    float32           `json:"temperature"`
	Stream         bool              `json:"stream,omitempty"`
	MaxTokens      int               `json:"max_tokens,omitempty"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

// Complete performs a non-streaming chat completion.
func (c *OpenAIClient) Complete(ctx context.Context, messages []Message) (string, error) {
	resp, err := c.do(ctx, chatCompletionReq{
		Model:          c.model,
		Messages:       messages,
		Temperature:    diagramTemperature,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	relay := NewRelay()
	return relay.Run(ctx, "application/json", resp.Body, nil)
}

// CompleteStream performs a streaming chat completion, forwarding each
// text delta to onToken. Servers that answer with a plain JSON body
// instead of an event stream degrade to a single complete payload.
func (c *OpenAIClient) CompleteStream(ctx context.Context, messages []Message, onToken func(string)) (string, error) {
	resp, err := c.do(ctx, chatCompletionReq{
		Model:          c.model,
		Messages:       messages,
		Temperature:    diagramTemperature,
		Stream:         true,
		ResponseFormat: map[string]string{"type": "json_object"},
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	relay := NewRelay()
	return relay.Run(ctx, resp.Header.Get("Content-Type"), resp.Body, onToken)
}

// Probe sends a minimal 1-token request to verify base URL, model name
// and credentials actually work together.
func (c *OpenAIClient) Probe(ctx context.Context) error {
	resp, err := c.do(ctx, chatCompletionReq{
		Model:     c.model,
		Messages:  []Message{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func (c *OpenAIClient) do(ctx context.Context, body chatCompletionReq) (*http.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, context.Canceled):
			return nil, ErrCancelled
		case errors.Is(err, context.DeadlineExceeded):
			return nil, ErrUpstreamTimeout
		default:
			return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("%w: unexpected status %s", ErrUpstreamUnavailable, resp.Status)
	}
	return resp, nil
}
