package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestRelay_TokenStream(t *testing.T) {
	body := strings.NewReader(
		"data: {\"token\":\"Hi\"}\n\n" +
			"data: {\"token\":\" there\"}\n\n" +
			"data: [DONE]\n\n")

	relay := NewRelay()
	var tokens []string
	out, err := relay.Run(context.Background(), "text/event-stream", body, func(tok string) {
		tokens = append(tokens, tok)
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out != "Hi there" {
		t.Fatalf("accumulated %q, want %q", out, "Hi there")
	}
	if relay.State() != StateComplete {
		t.Fatalf("state = %v, want complete", relay.State())
	}
	if len(tokens) != 2 || tokens[0] != "Hi" || tokens[1] != " there" {
		t.Fatalf("unexpected token events: %v", tokens)
	}
}

func TestRelay_OpenAIDeltaFrames(t *testing.T) {
	body := strings.NewReader(
		"data: {\"choices\":[{\"delta\":{\"content\":\"{\\\"elements\\\":\"}}]}\n\n" +
			"data: {\"choices\":[{\"delta\":{\"content\":\"[]}\"}}]}\n\n" +
			"data: [DONE]\n\n")

	relay := NewRelay()
	out, err := relay.Run(context.Background(), "text/event-stream", body, nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out != `{"elements":[]}` {
		t.Fatalf("accumulated %q", out)
	}
}

func TestRelay_ErrorFrameFails(t *testing.T) {
	body := strings.NewReader(
		"data: {\"token\":\"partial\"}\n\n" +
			"data: {\"error\":\"model exploded\"}\n\n" +
			"data: {\"token\":\"never seen\"}\n\n")

	relay := NewRelay()
	var tokens []string
	_, err := relay.Run(context.Background(), "text/event-stream", body, func(tok string) {
		tokens = append(tokens, tok)
	})
	if !errors.Is(err, ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if relay.State() != StateFailed {
		t.Fatalf("state = %v, want failed", relay.State())
	}
	if len(tokens) != 1 {
		t.Fatalf("reading must stop at the error frame, got tokens %v", tokens)
	}
}

func TestRelay_CancelMidStream(t *testing.T) {
	body := strings.NewReader(
		"data: {\"token\":\"Hi\"}\n\n" +
			"data: {\"token\":\" there\"}\n\n" +
			"data: [DONE]\n\n")

	ctx, cancel := context.WithCancel(context.Background())
	relay := NewRelay()
	_, err := relay.Run(ctx, "text/event-stream", body, func(string) {
		cancel() // caller aborts after the first token
	})
	if !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if st := relay.State(); st == StateComplete || st == StateFailed {
		t.Fatalf("cancelled request must not end complete or failed, got %v", st)
	}
	if relay.State() != StateCancelled {
		t.Fatalf("state = %v, want cancelled", relay.State())
	}
}

func TestRelay_NonStreamingFallback(t *testing.T) {
	body := strings.NewReader(`{"choices":[{"message":{"content":"{\"elements\":[{\"type\":\"text\"}]}"}}]}`)

	relay := NewRelay()
	var tokens []string
	out, err := relay.Run(context.Background(), "application/json; charset=utf-8", body, func(tok string) {
		tokens = append(tokens, tok)
	})
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out != `{"elements":[{"type":"text"}]}` {
		t.Fatalf("unexpected content %q", out)
	}
	if relay.State() != StateComplete {
		t.Fatalf("state = %v, want complete", relay.State())
	}
	if len(tokens) != 0 {
		t.Fatalf("fallback must not emit token events, got %v", tokens)
	}
}

func TestRelay_PlainContentBody(t *testing.T) {
	relay := NewRelay()
	out, err := relay.Run(context.Background(), "application/json", strings.NewReader(`{"content":"{\"elements\":[]}"}`), nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out != `{"elements":[]}` {
		t.Fatalf("unexpected content %q", out)
	}
}

func TestRelay_EOFWithoutDoneCompletes(t *testing.T) {
	relay := NewRelay()
	out, err := relay.Run(context.Background(), "text/event-stream",
		strings.NewReader("data: {\"token\":\"partial\"}\n\n"), nil)
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if out != "partial" || relay.State() != StateComplete {
		t.Fatalf("got %q / %v", out, relay.State())
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{
		StateIdle: "idle", StateStreaming: "streaming", StateComplete: "complete",
		StateFailed: "failed", StateCancelled: "cancelled",
	} {
		if st.String() != want {
			t.Fatalf("State(%d).String() = %q", st, st.String())
		}
	}
}
