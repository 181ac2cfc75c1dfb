package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"sketchflow/internal/element"
	"sketchflow/internal/skeleton"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sessions.json")
	s := New(path)
	t.Cleanup(func() { _ = s.Close() })
	return s, path
}

func TestStore_PutThenGet(t *testing.T) {
	s, _ := newTestStore(t)

	s.Put(State{
		SessionID: "s1",
		Messages:  []Message{{Role: "user", Content: "draw a box", Kind: KindChat}},
		Scene:     []*element.Element{{Type: skeleton.KindRectangle, ID: "r1", Version: 1}},
	})

	got, ok := s.Get("s1")
	if !ok {
		t.Fatal("session not found after Put")
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "draw a box" {
		t.Fatalf("transcript lost: %+v", got.Messages)
	}
	if len(got.Scene) != 1 || got.Scene[0].ID != "r1" {
		t.Fatalf("scene lost: %+v", got.Scene)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatal("UpdatedAt must be stamped on Put")
	}
}

func TestStore_GetUnknownOrBlankID(t *testing.T) {
	s, _ := newTestStore(t)
	if _, ok := s.Get("nope"); ok {
		t.Fatal("unknown session must not be found")
	}
	if _, ok := s.Get("   "); ok {
		t.Fatal("blank session id must not be found")
	}
}

func TestStore_FlushSurvivesReload(t *testing.T) {
	s, path := newTestStore(t)

	s.Put(State{SessionID: "s1", Messages: []Message{{Role: "user", Content: "hello"}}})
	s.Put(State{SessionID: "s2", Scene: []*element.Element{{Type: skeleton.KindEllipse, ID: "e1", Version: 1}}})
	s.Flush()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("flush did not write %s: %v", path, err)
	}

	reloaded := New(path)
	defer reloaded.Close()

	if got, ok := reloaded.Get("s1"); !ok || got.Messages[0].Content != "hello" {
		t.Fatalf("s1 not recovered: %+v ok=%v", got, ok)
	}
	if got, ok := reloaded.Get("s2"); !ok || len(got.Scene) != 1 {
		t.Fatalf("s2 not recovered: %+v ok=%v", got, ok)
	}
	if n := len(reloaded.List()); n != 2 {
		t.Fatalf("expected 2 sessions after reload, got %d", n)
	}
}

func TestStore_DebounceCoalescesWrites(t *testing.T) {
	s, path := newTestStore(t)

	s.Put(State{SessionID: "s1", Messages: []Message{{Role: "user", Content: "v1"}}})
	s.Put(State{SessionID: "s1", Messages: []Message{{Role: "user", Content: "v2"}}})

	// Both writes land inside the debounce window, so nothing is on
	// disk yet.
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("write landed before the debounce window elapsed: %v", err)
	}

	deadline := time.Now().Add(3 * saveDebounce)
	for {
		if _, err := os.Stat(path); err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("debounced flush never fired")
		}
		time.Sleep(10 * time.Millisecond)
	}

	reloaded := New(path)
	defer reloaded.Close()
	got, ok := reloaded.Get("s1")
	if !ok || got.Messages[0].Content != "v2" {
		t.Fatalf("latest write must win: %+v ok=%v", got, ok)
	}
}

func TestStore_LastPutWins(t *testing.T) {
	s, _ := newTestStore(t)

	s.Put(State{SessionID: "s1", Messages: []Message{{Role: "user", Content: "first"}}})
	s.Put(State{SessionID: "s1", Messages: []Message{{Role: "user", Content: "second"}}})

	got, _ := s.Get("s1")
	if got.Messages[0].Content != "second" {
		t.Fatalf("expected second write, got %q", got.Messages[0].Content)
	}
}

func TestStore_NilReceiverIsSafe(t *testing.T) {
	var s *Store
	s.Put(State{SessionID: "s1"})
	if _, ok := s.Get("s1"); ok {
		t.Fatal("nil store must report not found")
	}
	if list := s.List(); list != nil {
		t.Fatalf("nil store must list nothing, got %v", list)
	}
	s.Flush()
}
