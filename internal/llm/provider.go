package llm

import (
	"context"
	"strings"
)

// Provider identifiers. Settings are namespaced per provider on the
// client side; the server only needs to pick the right implementation.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// NewClient builds the upstream client for the given settings. Unknown or
// empty providers get the OpenAI-compatible client, which covers every
// local server we care about.
func NewClient(ctx context.Context, s Settings) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(s.Provider)) {
	case ProviderGemini:
		return NewGeminiClient(ctx, s.Model)
	default:
		return NewOpenAIClient(s), nil
	}
}
