package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"sketchflow/internal/llm"
)

// probeTimeout bounds the 1-token connectivity check.
const probeTimeout = 10 * time.Second

// ConnectionHandler verifies that a provider configuration actually
// answers before the user commits to it.
type ConnectionHandler struct {
	newClient ClientFactory
}

func NewConnectionHandler(factory ClientFactory) *ConnectionHandler {
	if factory == nil {
		factory = llm.NewClient
	}
	return &ConnectionHandler{newClient: factory}
}

// HandleTestConnection serves POST /api/test-connection.
func (h *ConnectionHandler) HandleTestConnection(w http.ResponseWriter, r *http.Request) {
	var settings llm.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), probeTimeout)
	defer cancel()

	client, err := h.newClient(ctx, settings)
	if err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	defer client.Close()

	if err := client.Probe(ctx); err != nil {
		writeJSON(w, http.StatusOK, map[string]any{"ok": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "message": "connection ok: " + client.Name()})
}
