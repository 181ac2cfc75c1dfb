package handler

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"sketchflow/internal/element"
	"sketchflow/internal/session"
)

// SessionHandler exposes the opaque get/set scene capability and the
// persisted transcript.
type SessionHandler struct {
	store *session.Store
}

func NewSessionHandler(store *session.Store) *SessionHandler {
	return &SessionHandler{store: store}
}

// HandleGetScene serves GET /api/session/{id}/scene.
func (h *SessionHandler) HandleGetScene(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, `{"error":"session id is required"}`, http.StatusBadRequest)
		return
	}
	state, _ := h.store.Get(id)
	elements := state.Scene
	if elements == nil {
		elements = []*element.Element{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"elements": elements})
}

// HandlePutScene serves PUT /api/session/{id}/scene: a full-scene replace
// pushed by the canvas layer after direct user edits.
func (h *SessionHandler) HandlePutScene(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, `{"error":"session id is required"}`, http.StatusBadRequest)
		return
	}
	var body struct {
		Elements []*element.Element `json:"elements"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	state, _ := h.store.Get(id)
	state.SessionID = id
	state.Scene = body.Elements
	state.UpdatedAt = time.Now().UTC()
	h.store.Put(state)
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "count": len(body.Elements)})
}

// HandleGetMessages serves GET /api/session/{id}/messages.
func (h *SessionHandler) HandleGetMessages(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		http.Error(w, `{"error":"session id is required"}`, http.StatusBadRequest)
		return
	}
	state, _ := h.store.Get(id)
	messages := state.Messages
	if messages == nil {
		messages = []session.Message{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": messages})
}
