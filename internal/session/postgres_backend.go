package session

import (
	"encoding/json"
	"time"
)

func (s *Store) ensureSchema() error {
	if s == nil || s.db == nil {
		return nil
	}
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.Exec(`
CREATE TABLE IF NOT EXISTS chat_sessions (
  session_id TEXT PRIMARY KEY,
  messages JSONB NOT NULL DEFAULT '[]',
  scene JSONB NOT NULL DEFAULT '[]',
  updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
`)
	})
	return s.schemaErr
}

func scanStateDB(row rowScanner) (State, bool) {
	var (
		state     State
		messages  []byte
		sceneJSON []byte
		updatedAt time.Time
	)
	if err := row.Scan(&state.SessionID, &messages, &sceneJSON, &updatedAt); err != nil {
		return State{}, false
	}
	_ = json.Unmarshal(messages, &state.Messages)
	_ = json.Unmarshal(sceneJSON, &state.Scene)
	state.UpdatedAt = updatedAt
	return normalizeState(state), true
}

func (s *Store) getDB(sessionID string) (State, bool) {
	if err := s.ensureSchema(); err != nil {
		return State{}, false
	}
	if s.readCache != nil {
		if cached, ok := s.readCache.Get(sessionID); ok {
			return cached, true
		}
	}
	row := s.db.QueryRow(`SELECT session_id, messages, scene, updated_at
FROM chat_sessions WHERE session_id = $1`, sessionID)
	state, ok := scanStateDB(row)
	if ok && s.readCache != nil {
		s.readCache.Add(sessionID, state)
	}
	return state, ok
}

func (s *Store) putDB(state State) {
	if err := s.ensureSchema(); err != nil {
		return
	}
	messages, err := json.Marshal(state.Messages)
	if err != nil {
		return
	}
	sceneJSON, err := json.Marshal(state.Scene)
	if err != nil {
		return
	}
	_, _ = s.db.Exec(`
INSERT INTO chat_sessions (session_id, messages, scene, updated_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (session_id)
DO UPDATE SET messages=EXCLUDED.messages,
  scene=EXCLUDED.scene,
  updated_at=EXCLUDED.updated_at`,
		state.SessionID, messages, sceneJSON, state.UpdatedAt)
}

func (s *Store) listDB() []State {
	if err := s.ensureSchema(); err != nil {
		return nil
	}
	rows, err := s.db.Query(`SELECT session_id, messages, scene, updated_at
FROM chat_sessions ORDER BY updated_at DESC`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	out := make([]State, 0, 16)
	for rows.Next() {
		if state, ok := scanStateDB(rows); ok {
			out = append(out, state)
		}
	}
	return out
}
