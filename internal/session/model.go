package session

import (
	"strings"
	"time"

	"sketchflow/internal/element"
)

// Message kinds. Info entries record non-conversational events such as a
// cancelled request; they are never forwarded upstream.
const (
	KindChat = "chat"
	KindInfo = "info"
)

// Message is one persisted transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// State is everything the server holds for one chat session: the
// transcript and the latest scene snapshot.
type State struct {
	SessionID string             `json:"session_id"`
	Messages  []Message          `json:"messages,omitempty"`
	Scene     []*element.Element `json:"scene,omitempty"`
	UpdatedAt time.Time          `json:"updated_at,omitempty"`
}

func normalizeState(state State) State {
	state.SessionID = strings.TrimSpace(state.SessionID)
	if state.UpdatedAt.IsZero() {
		state.UpdatedAt = time.Now().UTC()
	}
	return state
}

type rowScanner interface {
	Scan(dest ...any) error
}
