package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"sketchflow/internal/archive"
	"sketchflow/internal/llm"
	"sketchflow/internal/pipeline"
	"sketchflow/internal/scene"
	"sketchflow/internal/session"
	"sketchflow/internal/skeleton"
	"sketchflow/internal/util/jsonutil"
)

// DefaultSessionID is used when the client does not name a session.
const DefaultSessionID = "default"

// ChatRequest is the inbound chat payload.
type ChatRequest struct {
	SessionID     string        `json:"sessionId,omitempty"`
	Messages      []llm.Message `json:"messages"`
	CanvasContext string        `json:"canvasContext,omitempty"`
	LLMSettings   *llm.Settings `json:"llmSettings,omitempty"`
}

// ClientFactory builds an upstream client; tests substitute fakes here.
type ClientFactory func(ctx context.Context, s llm.Settings) (llm.Client, error)

// ChatHandler relays one prompt to the upstream model and applies the
// parsed response to the session's scene.
type ChatHandler struct {
	store     *session.Store
	generator *pipeline.Generator
	archive   *archive.Store
	defaults  llm.Settings
	timeout   time.Duration
	newClient ClientFactory

	// At most one in-flight request per session: a new prompt cancels
	// the previous one.
	mu       sync.Mutex
	inflight map[string]*inflightEntry
}

type inflightEntry struct {
	cancel context.CancelFunc
}

func NewChatHandler(store *session.Store, gen *pipeline.Generator, arch *archive.Store, defaults llm.Settings, timeout time.Duration, factory ClientFactory) *ChatHandler {
	if factory == nil {
		factory = llm.NewClient
	}
	return &ChatHandler{
		store:     store,
		generator: gen,
		archive:   arch,
		defaults:  defaults,
		timeout:   timeout,
		newClient: factory,
		inflight:  make(map[string]*inflightEntry),
	}
}

// HandleChat serves POST /api/chat. The response is an SSE token stream
// unless the caller asks for application/json, in which case the full
// content comes back in one body.
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	prompt := lastUserPrompt(req.Messages)
	if prompt == "" {
		http.Error(w, `{"error":"messages must contain a user prompt"}`, http.StatusBadRequest)
		return
	}
	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	entry := h.takeOver(sessionID, cancel)
	defer h.release(sessionID, entry)

	settings := h.mergeSettings(req.LLMSettings)
	client, err := h.newClient(ctx, settings)
	if err != nil {
		http.Error(w, `{"error":"upstream client init failed"}`, http.StatusBadGateway)
		return
	}
	defer client.Close()

	state, _ := h.store.Get(sessionID)
	state.SessionID = sessionID
	messages := llm.BuildMessages(req.Messages, scene.Summarize(state.Scene), req.CanvasContext)

	if wantsJSON(r) {
		h.serveComplete(ctx, w, client, messages, state, prompt)
		return
	}
	h.serveStream(ctx, w, client, messages, state, prompt)
}

func (h *ChatHandler) serveStream(ctx context.Context, w http.ResponseWriter, client llm.Client, messages []llm.Message, state session.State, prompt string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming unsupported"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	content, err := client.CompleteStream(ctx, messages, func(token string) {
		writeSSE(w, map[string]string{"token": token})
		flusher.Flush()
	})
	if err != nil {
		if errors.Is(err, llm.ErrCancelled) {
			// Not an error: the caller replaced this request. Record it
			// and stop without a terminal frame.
			h.recordCancel(state, prompt)
			return
		}
		writeSSE(w, map[string]string{"error": userMessage(err)})
		flusher.Flush()
		return
	}

	if _, err := h.applyResponse(&state, content, prompt); err != nil {
		writeSSE(w, map[string]string{"error": userMessage(err)})
		flusher.Flush()
		return
	}
	writeSSERaw(w, "[DONE]")
	flusher.Flush()
}

func (h *ChatHandler) serveComplete(ctx context.Context, w http.ResponseWriter, client llm.Client, messages []llm.Message, state session.State, prompt string) {
	content, err := client.Complete(ctx, messages)
	if err != nil {
		if errors.Is(err, llm.ErrCancelled) {
			h.recordCancel(state, prompt)
			return
		}
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": userMessage(err)})
		return
	}
	outcome, err := h.applyResponse(&state, content, prompt)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": userMessage(err)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"content":   content,
		"action":    outcome.RawAction,
		"framedIds": outcome.FramedIDs,
	})
}

// applyResponse runs the reconciliation pipeline and persists the session.
// The scene is only mutated after a full, successful parse-and-expand, so
// no failure here can corrupt what is already stored.
func (h *ChatHandler) applyResponse(state *session.State, content, prompt string) (pipeline.Outcome, error) {
	outcome, err := h.generator.Apply(state.Scene, content, prompt)
	if err != nil {
		return pipeline.Outcome{}, err
	}

	h.archiveDiscarded(state, outcome)

	now := time.Now().UTC()
	state.Messages = append(state.Messages,
		session.Message{Role: "user", Content: prompt, Kind: session.KindChat, CreatedAt: now},
		session.Message{Role: "assistant", Content: content, Kind: session.KindChat, CreatedAt: now},
	)
	if outcome.RawAction != outcome.Action {
		// Unknown actions merge as add but keep their verbatim label.
		state.Messages = append(state.Messages, session.Message{
			Role:      "assistant",
			Content:   "applied action " + outcome.RawAction + " as add",
			Kind:      session.KindInfo,
			CreatedAt: now,
		})
	}
	state.Scene = outcome.Scene
	state.UpdatedAt = now
	h.store.Put(*state)
	return outcome, nil
}

// archiveDiscarded snapshots a non-empty scene that a replace is about to
// throw away. Best effort; the merge never waits on object storage.
func (h *ChatHandler) archiveDiscarded(state *session.State, outcome pipeline.Outcome) {
	if h.archive == nil || outcome.Action != skeleton.ActionReplace || len(state.Scene) == 0 {
		return
	}
	sceneJSON, err := jsonutil.MarshalNoEscape(state.Scene)
	if err != nil {
		return
	}
	sessionID := state.SessionID
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := h.archive.PutSnapshot(ctx, sessionID, sceneJSON); err != nil {
			log.Printf("scene archive failed for %s: %v", sessionID, err)
		}
	}()
}

func (h *ChatHandler) recordCancel(state session.State, prompt string) {
	state.Messages = append(state.Messages, session.Message{
		Role:      "user",
		Content:   prompt + " (request cancelled)",
		Kind:      session.KindInfo,
		CreatedAt: time.Now().UTC(),
	})
	h.store.Put(state)
}

func (h *ChatHandler) takeOver(sessionID string, cancel context.CancelFunc) *inflightEntry {
	entry := &inflightEntry{cancel: cancel}
	h.mu.Lock()
	if prev, ok := h.inflight[sessionID]; ok {
		prev.cancel()
	}
	h.inflight[sessionID] = entry
	h.mu.Unlock()
	return entry
}

func (h *ChatHandler) release(sessionID string, entry *inflightEntry) {
	h.mu.Lock()
	// Only clear our own registration; a newer request may have taken
	// the slot already.
	if h.inflight[sessionID] == entry {
		delete(h.inflight, sessionID)
	}
	h.mu.Unlock()
	entry.cancel()
}

func (h *ChatHandler) mergeSettings(override *llm.Settings) llm.Settings {
	s := h.defaults
	if override == nil {
		return s
	}
	if v := strings.TrimSpace(override.Provider); v != "" {
		s.Provider = v
	}
	if v := strings.TrimSpace(override.BaseURL); v != "" {
		s.BaseURL = v
	}
	if v := strings.TrimSpace(override.Model); v != "" {
		s.Model = v
	}
	if v := strings.TrimSpace(override.APIKey); v != "" {
		s.APIKey = v
	}
	return s
}

func lastUserPrompt(messages []llm.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	return ""
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/event-stream")
}

func userMessage(err error) string {
	var retryable *llm.RetryableError
	if errors.As(err, &retryable) {
		return retryable.Err.Error()
	}
	return err.Error()
}
