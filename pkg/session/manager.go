package session

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// cleanupInterval is how often Get() triggers lazy eviction of idle sessions.
const cleanupInterval = 100

type record struct {
	session    *Session
	lastAccess time.Time
}

// Manager owns all live replay sessions and evicts the ones nobody has
// touched within the TTL. Eviction closes the session so an abandoned tab
// never leaves a ticking clock behind.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*record
	ttl      time.Duration
	getCalls int
	log      *slog.Logger
}

// NewManager creates a Manager that evicts sessions inactive longer than ttl.
func NewManager(ttl time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*record),
		ttl:      ttl,
		log:      logger,
	}
}

// Add registers a session the caller just built.
func (m *Manager) Add(s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = &record{session: s, lastAccess: time.Now()}
}

// Get returns the session for the given ID, refreshing its last-access
// timestamp. Sessions are only created explicitly; an unknown ID is an
// error the handler turns into a 404.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.getCalls++
	if m.getCalls%cleanupInterval == 0 {
		m.cleanupLocked()
	}

	r, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	r.lastAccess = time.Now()
	return r.session, nil
}

// Close removes and shuts down one session.
func (m *Manager) Close(id string) {
	m.mu.Lock()
	r, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		r.session.Close()
		m.log.Info("replay session closed", "session", id)
	}
}

// CloseAll shuts down every session. Called on server shutdown.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	records := make([]*record, 0, len(m.sessions))
	for _, r := range m.sessions {
		records = append(records, r)
	}
	m.sessions = make(map[string]*record)
	m.mu.Unlock()

	for _, r := range records {
		r.session.Close()
	}
}

// Cleanup evicts all sessions idle longer than the TTL.
func (m *Manager) Cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanupLocked()
}

func (m *Manager) cleanupLocked() {
	cutoff := time.Now().Add(-m.ttl)
	for id, r := range m.sessions {
		if r.lastAccess.Before(cutoff) {
			delete(m.sessions, id)
			r.session.Close()
			m.log.Info("replay session evicted", "session", id)
		}
	}
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
