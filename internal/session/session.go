package session

import (
	log "log/slog"
	"sync"

	"github.com/google/uuid"
)

// Session identifies one conversation with the backend.
type Session struct {
	ID string `json:"id" yaml:"id"`
}

// Persister keeps the current session id across restarts. Load returns an
// empty id when nothing has been stored yet.
type Persister interface {
	Load() (string, error)
	Save(id string) error
}

// Store holds the single live session. Reads and replacements are
// serialized; the last writer wins.
type Store struct {
	mu      sync.RWMutex
	p       Persister
	current Session
	loaded  bool

	newID func() string
}

func NewStore(p Persister) *Store {
	if p == nil {
		p = &MemoryPersister{}
	}
	return &Store{p: p, newID: uuid.NewString}
}

// Current returns the live session, creating and persisting one on first use.
func (s *Store) Current() Session {
	s.mu.RLock()
	if s.loaded {
		cur := s.current
		s.mu.RUnlock()
		return cur
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.current
	}

	id, err := s.p.Load()
	if err != nil {
		log.Warn("Failed to load session, starting a new one", "err", err)
	}
	if id != "" {
		s.current = Session{ID: id}
		s.loaded = true
		return s.current
	}

	s.replace(Session{ID: s.newID()})
	return s.current
}

// Reset starts a new conversation.
func (s *Store) Reset() Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replace(Session{ID: s.newID()})
	log.Info("Started new session", "session", s.current.ID)
	return s.current
}

// Adopt switches to a session id issued by the backend. It reports whether
// the live session changed.
func (s *Store) Adopt(id string) bool {
	if id == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loaded && s.current.ID == id {
		return false
	}
	s.replace(Session{ID: id})
	log.Info("Adopted backend session", "session", id)
	return true
}

// replace must be called with mu held. A failed save keeps the new session
// in memory; only the next restart loses it.
func (s *Store) replace(next Session) {
	s.current = next
	s.loaded = true
	if err := s.p.Save(next.ID); err != nil {
		log.Error("Failed to persist session", "session", next.ID, "err", err)
	}
}

// MemoryPersister keeps the id in process memory only.
type MemoryPersister struct {
	mu sync.Mutex
	id string
}

func (m *MemoryPersister) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *MemoryPersister) Save(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
	return nil
}
