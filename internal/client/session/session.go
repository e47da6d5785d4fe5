// Package session holds the client's in-memory auth state. The refresh
// token never appears here: it lives in the HTTP cookie jar and only
// the server reads it.
package session

import (
	"sync"

	"github.com/medlink/medlink/pkg/api"
)

// Session is the client-side view of who is signed in.
type Session struct {
	AccessToken string
	User        api.UserPayload
}

// Authenticated reports whether an access token is held. The token may
// still be expired; the API client handles that via refresh.
func (s Session) Authenticated() bool {
	return s.AccessToken != ""
}

// Store keeps the current session and tells subscribers when it
// changes, so UI layers can react to sign-in and sign-out.
type Store interface {
	Get() Session
	Set(s Session)
	Clear()
	// Subscribe registers a listener called on every change. The
	// returned function removes it.
	Subscribe(fn func(Session)) (unsubscribe func())
}

// MemoryStore is the default Store. Safe for concurrent use.
type MemoryStore struct {
	mu          sync.RWMutex
	session     Session
	subscribers map[int]func(Session)
	nextID      int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{subscribers: make(map[int]func(Session))}
}

func (m *MemoryStore) Get() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Set replaces the session. A session without a token cannot carry a
// profile, so the user is dropped along with it.
func (m *MemoryStore) Set(s Session) {
	if s.AccessToken == "" {
		s.User = api.UserPayload{}
	}
	m.mu.Lock()
	m.session = s
	fns := m.snapshot()
	m.mu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

func (m *MemoryStore) Clear() {
	m.Set(Session{})
}

func (m *MemoryStore) Subscribe(fn func(Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextID
	m.nextID++
	m.subscribers[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subscribers, id)
	}
}

// snapshot copies the subscriber list so callbacks run outside the
// lock. Callers must hold mu.
func (m *MemoryStore) snapshot() []func(Session) {
	fns := make([]func(Session), 0, len(m.subscribers))
	for _, fn := range m.subscribers {
		fns = append(fns, fn)
	}
	return fns
}
