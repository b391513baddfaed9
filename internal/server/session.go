package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mopage/mopage"
)

// Session is one editing session: a server-held document plus the lock
// serializing its mutations. Commands from the WebSocket and saves from
// the API both go through the session, so the document only ever has one
// writer at a time.
type Session struct {
	ID  string
	mu  sync.Mutex
	doc *mopage.Document

	createdAt time.Time
}

// With runs fn while holding the session's document lock.
func (s *Session) With(fn func(doc *mopage.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// sessionStore tracks live editing sessions. Sessions are cheap in-memory
// state; abandoned ones are reaped on a timer instead of tracked exactly.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxAge   time.Duration
}

func newSessionStore(maxAge time.Duration) *sessionStore {
	if maxAge <= 0 {
		maxAge = 12 * time.Hour
	}
	return &sessionStore{
		sessions: make(map[string]*Session),
		maxAge:   maxAge,
	}
}

// Create registers a new session around a document.
func (ss *sessionStore) Create(doc *mopage.Document) *Session {
	s := &Session{
		ID:        uuid.NewString(),
		doc:       doc,
		createdAt: time.Now(),
	}
	ss.mu.Lock()
	ss.sessions[s.ID] = s
	ss.mu.Unlock()
	return s
}

// Get returns a session by id.
func (ss *sessionStore) Get(id string) (*Session, bool) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()
	s, ok := ss.sessions[id]
	return s, ok
}

// Reap drops sessions older than the store's max age and returns how many
// were removed.
func (ss *sessionStore) Reap() int {
	cutoff := time.Now().Add(-ss.maxAge)
	ss.mu.Lock()
	defer ss.mu.Unlock()
	removed := 0
	for id, s := range ss.sessions {
		if s.createdAt.Before(cutoff) {
			delete(ss.sessions, id)
			removed++
		}
	}
	return removed
}
