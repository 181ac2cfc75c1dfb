package session

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

func (s *Store) ensureLoadedFile() {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if err != nil {
			return
		}
		var rows []State
		if err := json.Unmarshal(b, &rows); err != nil {
			return
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		for _, row := range rows {
			id := strings.TrimSpace(row.SessionID)
			if id == "" {
				continue
			}
			if _, exists := s.byID[id]; exists {
				continue
			}
			s.byID[id] = normalizeState(row)
		}
	})
}

func (s *Store) saveFile() {
	s.ensureLoadedFile()
	s.mu.Lock()
	rows := make([]State, 0, len(s.byID))
	for _, state := range s.byID {
		rows = append(rows, state)
	}
	for id := range s.dirty {
		delete(s.dirty, id)
	}
	s.mu.Unlock()

	b, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return
	}
	_ = os.MkdirAll(filepath.Dir(s.path), 0o755)
	_ = os.WriteFile(s.path, b, 0o644)
}

func (s *Store) getFile(sessionID string) (State, bool) {
	s.ensureLoadedFile()
	s.mu.RLock()
	state, ok := s.byID[sessionID]
	s.mu.RUnlock()
	return state, ok
}

func (s *Store) listFile() []State {
	s.ensureLoadedFile()
	s.mu.RLock()
	rows := make([]State, 0, len(s.byID))
	for _, state := range s.byID {
		rows = append(rows, state)
	}
	s.mu.RUnlock()
	return rows
}
