package tester

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/prasenjit/go-apidocs/internal/navigator"
)

// DefaultIdleTimeout is used when a manager is created with a zero timeout
const DefaultIdleTimeout = 30 * time.Minute

// SessionManager owns tester sessions keyed by ID
type SessionManager struct {
	engine      *Engine
	idleTimeout time.Duration
	logger      *slog.Logger
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager creates a new session manager
func NewSessionManager(engine *Engine, idleTimeout time.Duration, logger *slog.Logger) *SessionManager {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		engine:      engine,
		idleTimeout: idleTimeout,
		logger:      logger,
		now:         time.Now,
		sessions:    make(map[string]*Session),
	}
}

// Engine returns the engine shared by all sessions
func (m *SessionManager) Engine() *Engine {
	return m.engine
}

// Create starts a new session for a documentation set. With a navigator
// the session also tracks its own section and endpoint selection.
func (m *SessionManager) Create(docID string, nav *navigator.Navigator) *Session {
	s := NewSession(uuid.New().String(), docID, m.engine)
	if nav != nil {
		s.selection = navigator.NewSelection(nav)
	}
	s.touch(m.now())

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("tester session created", "session", s.ID, "doc", docID)
	return s
}

// Get returns a session and marks it as used
func (m *SessionManager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if ok {
		s.touch(m.now())
	}
	return s, ok
}

// List returns all sessions, oldest first
func (m *SessionManager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

// Delete closes and removes a session
func (m *SessionManager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.Close()
	}
	return ok
}

// CloseDoc closes every session bound to a documentation set
func (m *SessionManager) CloseDoc(docID string) int {
	m.mu.Lock()
	var closed []*Session
	for id, s := range m.sessions {
		if s.DocID == docID {
			closed = append(closed, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range closed {
		s.Close()
	}
	return len(closed)
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Expire closes sessions idle for longer than the idle timeout. Sessions
// with in-flight calls are kept.
func (m *SessionManager) Expire() int {
	cutoff := m.now().Add(-m.idleTimeout)

	m.mu.Lock()
	var expired []*Session
	for id, s := range m.sessions {
		if s.Pending() == 0 && s.idleSince().Before(cutoff) {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range expired {
		s.Close()
		m.logger.Debug("tester session expired", "session", s.ID)
	}
	return len(expired)
}

// Run expires idle sessions periodically until ctx is done, then closes
// every remaining session
func (m *SessionManager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return
		case <-ticker.C:
			m.Expire()
		}
	}
}

func (m *SessionManager) closeAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
