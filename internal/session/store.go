package session

import (
	"os"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"database/sql"
)

// saveDebounce coalesces rapid successive scene mutations into one write.
// A crash inside the window loses the most recent change only.
const saveDebounce = 500 * time.Millisecond

// Store persists chat sessions. The default backend is a JSON file; when
// a Postgres DSN is configured, rows live in a sessions table with an LRU
// read cache in front.
type Store struct {
	path string
	db   *sql.DB

	loadOnce sync.Once
	mu       sync.RWMutex
	byID     map[string]State
	dirty    map[string]bool

	schemaOnce sync.Once
	schemaErr  error

	readCache *lru.Cache[string, State]

	timerMu sync.Mutex
	timer   *time.Timer
}

// New creates a file-backed store at path.
func New(path string) *Store {
	return &Store{
		path:  path,
		byID:  make(map[string]State),
		dirty: make(map[string]bool),
	}
}

// NewPostgres creates a Postgres-backed store.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, State](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{
		db:        db,
		byID:      make(map[string]State),
		dirty:     make(map[string]bool),
		readCache: cache,
	}, nil
}

// NewFromEnv picks the Postgres backend when SESSION_STORE_PG_DSN is set,
// falling back to the file backend at path.
func NewFromEnv(path string) *Store {
	dsn := strings.TrimSpace(os.Getenv("SESSION_STORE_PG_DSN"))
	if dsn == "" {
		return New(path)
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New(path)
	}
	return s
}

// Get returns the session state, if known.
func (s *Store) Get(sessionID string) (State, bool) {
	if s == nil {
		return State{}, false
	}
	id := strings.TrimSpace(sessionID)
	if id == "" {
		return State{}, false
	}

	// Unflushed writes win over any backend.
	s.mu.RLock()
	if state, ok := s.byID[id]; ok && s.db != nil {
		s.mu.RUnlock()
		return state, true
	}
	s.mu.RUnlock()

	if s.db != nil {
		return s.getDB(id)
	}
	return s.getFile(id)
}

// Put stores the state in memory immediately and schedules a debounced
// flush to the backend.
func (s *Store) Put(state State) {
	if s == nil {
		return
	}
	n := normalizeState(state)
	if n.SessionID == "" {
		return
	}
	if s.db == nil {
		s.ensureLoadedFile()
	}
	s.mu.Lock()
	s.byID[n.SessionID] = n
	s.dirty[n.SessionID] = true
	s.mu.Unlock()
	if s.readCache != nil {
		s.readCache.Add(n.SessionID, n)
	}
	s.scheduleFlush()
}

// List returns all known sessions in no particular order.
func (s *Store) List() []State {
	if s == nil {
		return nil
	}
	if s.db != nil {
		return s.listDB()
	}
	return s.listFile()
}

// Flush writes every dirty session to the backend immediately.
func (s *Store) Flush() {
	if s == nil {
		return
	}
	s.timerMu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerMu.Unlock()
	s.flushNow()
}

// Close flushes and releases the backend.
func (s *Store) Close() error {
	s.Flush()
	if s != nil && s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) scheduleFlush() {
	s.timerMu.Lock()
	defer s.timerMu.Unlock()
	if s.timer != nil {
		s.timer.Reset(saveDebounce)
		return
	}
	s.timer = time.AfterFunc(saveDebounce, func() {
		s.timerMu.Lock()
		s.timer = nil
		s.timerMu.Unlock()
		s.flushNow()
	})
}

func (s *Store) flushNow() {
	if s.db != nil {
		s.mu.Lock()
		pending := make([]State, 0, len(s.dirty))
		for id := range s.dirty {
			pending = append(pending, s.byID[id])
			delete(s.dirty, id)
		}
		s.mu.Unlock()
		for _, state := range pending {
			s.putDB(state)
		}
		return
	}
	s.saveFile()
}
