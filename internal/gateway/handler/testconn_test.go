package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sketchflow/internal/llm"
)

func postTestConnection(t *testing.T, h *ConnectionHandler, body string) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/test-connection", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.HandleTestConnection(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func TestHandleTestConnection_OK(t *testing.T) {
	h := NewConnectionHandler(factoryFor(&fakeClient{}))
	resp := postTestConnection(t, h, `{"provider":"openai","model":"llama3"}`)

	if resp["ok"] != true {
		t.Fatalf("expected ok, got %v", resp)
	}
	if msg, _ := resp["message"].(string); !strings.Contains(msg, "fake") {
		t.Fatalf("message must name the provider, got %v", resp["message"])
	}
}

func TestHandleTestConnection_ProbeFails(t *testing.T) {
	h := NewConnectionHandler(factoryFor(&fakeClient{probe: llm.ErrUpstreamUnavailable}))
	resp := postTestConnection(t, h, `{"provider":"openai","model":"llama3"}`)

	if resp["ok"] != false {
		t.Fatalf("expected ok=false, got %v", resp)
	}
	if msg, _ := resp["error"].(string); msg == "" {
		t.Fatalf("error message missing: %v", resp)
	}
}

func TestHandleTestConnection_FactoryFails(t *testing.T) {
	h := NewConnectionHandler(func(ctx context.Context, s llm.Settings) (llm.Client, error) {
		return nil, errors.New("unknown provider")
	})
	resp := postTestConnection(t, h, `{"provider":"bogus"}`)

	if resp["ok"] != false {
		t.Fatalf("expected ok=false, got %v", resp)
	}
}

func TestHandleTestConnection_BadBody(t *testing.T) {
	h := NewConnectionHandler(factoryFor(&fakeClient{}))
	req := httptest.NewRequest(http.MethodPost, "/api/test-connection", strings.NewReader("{nope"))
	rec := httptest.NewRecorder()
	h.HandleTestConnection(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
