package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the set of live sessions keyed by id.
// Manager is safe for concurrent use. Operations on different sessions
// never contend on a session lock.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

type entry struct {
	sess     *Session
	lastSeen time.Time
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// NewID returns a fresh session identifier.
func NewID() string {
	return uuid.New().String()
}

// GetOrCreate returns the session for id, creating it if needed. An empty
// id gets a freshly generated one.
func (m *Manager) GetOrCreate(id string) *Session {
	if id == "" {
		id = NewID()
	}
	now := m.now()

	m.mu.RLock()
	e, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		m.mu.Lock()
		e.lastSeen = now
		m.mu.Unlock()
		return e.sess
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check after acquiring the write lock.
	if e, ok := m.sessions[id]; ok {
		e.lastSeen = now
		return e.sess
	}
	sess := New(id)
	m.sessions[id] = &entry{sess: sess, lastSeen: now}
	return sess
}

// Get retrieves an existing session by id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return e.sess, nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (m *Manager) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Range calls fn for every live session until fn returns false. The
// manager lock is not held while fn runs.
func (m *Manager) Range(fn func(*Session) bool) {
	m.mu.RLock()
	list := make([]*Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		list = append(list, e.sess)
	}
	m.mu.RUnlock()

	for _, s := range list {
		if !fn(s) {
			return
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune drops sessions not accessed within idle and returns how many were
// removed. Sessions with pending prompts are kept.
func (m *Manager) Prune(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := m.now().Add(-idle)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, e := range m.sessions {
		if e.lastSeen.After(cutoff) {
			continue
		}
		if e.sess.Stats().Pending > 0 {
			continue
		}
		delete(m.sessions, id)
		removed++
	}
	return removed
}

// Close drops every session.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions = make(map[string]*entry)
	return nil
}
