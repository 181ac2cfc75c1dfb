package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"sketchflow/internal/llm"
	"sketchflow/internal/scene"
)

const (
	chatWSWriteWait = 10 * time.Second
	chatWSPongWait  = 60 * time.Second
	chatWSPingEvery = (chatWSPongWait * 9) / 10
)

var chatWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

type chatWSInbound struct {
	Type string `json:"type"`
	ChatRequest
}

type chatWSOutbound struct {
	Type      string   `json:"type"`
	Token     string   `json:"token,omitempty"`
	Message   string   `json:"message,omitempty"`
	Action    string   `json:"action,omitempty"`
	FramedIDs []string `json:"framedIds,omitempty"`
}

// HandleChatWS serves the WebSocket variant of the token stream. Each
// prompt frame starts a new relay; sending another prompt on the same
// session cancels the one in flight.
func (h *ChatHandler) HandleChatWS(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
	if sessionID == "" {
		sessionID = DefaultSessionID
	}

	conn, err := chatWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
		log.Printf("chat ws set read deadline failed: %v", err)
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(chatWSPongWait))
	})

	writeCh := make(chan chatWSOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(chatWSPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(chatWSWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()

	for {
		var in chatWSInbound
		if err := conn.ReadJSON(&in); err != nil {
			cancel()
			<-writerDone
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(chatWSPongWait)); err != nil {
			cancel()
			<-writerDone
			return
		}
		if in.Type != "prompt" {
			continue
		}
		in.SessionID = sessionID
		go h.runWSPrompt(ctx, in.ChatRequest, writeCh)
	}
}

func (h *ChatHandler) runWSPrompt(parent context.Context, req ChatRequest, writeCh chan<- chatWSOutbound) {
	prompt := lastUserPrompt(req.Messages)
	if prompt == "" {
		pushWS(writeCh, chatWSOutbound{Type: "error", Message: "messages must contain a user prompt"})
		return
	}

	ctx, cancel := context.WithTimeout(parent, h.timeout)
	entry := h.takeOver(req.SessionID, cancel)
	defer h.release(req.SessionID, entry)

	client, err := h.newClient(ctx, h.mergeSettings(req.LLMSettings))
	if err != nil {
		pushWS(writeCh, chatWSOutbound{Type: "error", Message: "upstream client init failed"})
		return
	}
	defer client.Close()

	state, _ := h.store.Get(req.SessionID)
	state.SessionID = req.SessionID
	messages := llm.BuildMessages(req.Messages, scene.Summarize(state.Scene), req.CanvasContext)

	content, err := client.CompleteStream(ctx, messages, func(token string) {
		pushWS(writeCh, chatWSOutbound{Type: "token", Token: token})
	})
	if err != nil {
		if errors.Is(err, llm.ErrCancelled) {
			h.recordCancel(state, prompt)
			pushWS(writeCh, chatWSOutbound{Type: "cancelled"})
			return
		}
		pushWS(writeCh, chatWSOutbound{Type: "error", Message: userMessage(err)})
		return
	}

	outcome, err := h.applyResponse(&state, content, prompt)
	if err != nil {
		pushWS(writeCh, chatWSOutbound{Type: "error", Message: userMessage(err)})
		return
	}
	pushWS(writeCh, chatWSOutbound{
		Type:      "done",
		Action:    outcome.RawAction,
		FramedIDs: outcome.FramedIDs,
	})
}

func pushWS(ch chan<- chatWSOutbound, out chatWSOutbound) {
	select {
	case ch <- out:
	default:
		// Slow consumer; drop rather than block the relay.
	}
}
