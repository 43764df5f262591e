package session

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const (
	DefaultTimeout     = 60 * time.Minute
	DefaultMaxSessions = 100
)

var (
	ErrNotFound        = errors.New("session not found")
	ErrExists          = errors.New("session already exists")
	ErrTooManySessions = errors.New("maximum session limit reached")
)

// ManagerOptions configures a Manager. Zero values take the defaults.
type ManagerOptions struct {
	Timeout     time.Duration
	MaxSessions int
	WindowSize  int
	HistorySize int
	Logger      *log.Logger
	Now         func() time.Time
}

// Manager is the in-memory registry of sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     ManagerOptions
	logger   *log.Logger
}

// NewManager creates an empty registry.
func NewManager(opts ManagerOptions) *Manager {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = DefaultMaxSessions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Manager{
		sessions: make(map[string]*Session),
		opts:     opts,
		logger:   logger.With("component", "sessions"),
	}
}

// Create registers a new session. An empty id gets a random UUID. When the
// registry is full, expired sessions are dropped first; if it is still full
// Create fails with ErrTooManySessions.
func (m *Manager) Create(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) >= m.opts.MaxSessions {
		m.cleanupLocked()
		if len(m.sessions) >= m.opts.MaxSessions {
			return nil, fmt.Errorf("%w (%d)", ErrTooManySessions, m.opts.MaxSessions)
		}
	}

	if id == "" {
		id = uuid.NewString()
	}
	if _, ok := m.sessions[id]; ok {
		return nil, fmt.Errorf("%w: %s", ErrExists, id)
	}

	s := New(id, Options{
		WindowSize:  m.opts.WindowSize,
		HistorySize: m.opts.HistorySize,
		Now:         m.opts.Now,
	})
	m.sessions[id] = s
	m.logger.Info("session created", "session", id)
	return s, nil
}

// Get returns the session with id. A session idle for longer than the
// timeout is marked expired but still returned.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	if m.expired(s) && s.Status() != StatusExpired {
		m.logger.Warn("session expired", "session", id)
		s.markExpired()
	}
	return s, nil
}

// Delete removes the session with id and reports whether it existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.logger.Info("session deleted", "session", id)
	return true
}

// List returns summaries of all sessions, oldest first.
func (m *Manager) List() []Summary {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s.Summary())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// ActiveCount returns the number of sessions with StatusActive.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, s := range m.sessions {
		if s.IsActive() {
			n++
		}
	}
	return n
}

// Count returns the number of registered sessions, whatever their status.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupExpired drops every session idle for longer than the timeout and
// returns how many were dropped.
func (m *Manager) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleanupLocked()
}

func (m *Manager) cleanupLocked() int {
	n := 0
	for id, s := range m.sessions {
		if m.expired(s) {
			delete(m.sessions, id)
			n++
		}
	}
	if n > 0 {
		m.logger.Info("cleaned up expired sessions", "count", n)
	}
	return n
}

func (m *Manager) expired(s *Session) bool {
	return m.opts.Now().UTC().Sub(s.UpdatedAt()) > m.opts.Timeout
}
