package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/dshills/tabstop/internal/template/definition"
)

// Manager keeps at most one active session per host. Starting a session
// on a host cancels the one already running there.
type Manager struct {
	repo definition.Repository
	opts []Option

	mu     sync.Mutex
	active map[Host]*Session
}

// NewManager creates a manager that resolves template keys through repo.
// opts apply to every session it starts, before the per-call options.
func NewManager(repo definition.Repository, opts ...Option) *Manager {
	return &Manager{
		repo:   repo,
		opts:   opts,
		active: make(map[Host]*Session),
	}
}

// Expand looks up the template named key and starts it.
func (m *Manager) Expand(ctx context.Context, host Host, key string, offset int, opts ...Option) (*Session, error) {
	if m.repo == nil {
		return nil, fmt.Errorf("expand %q: %w", key, definition.ErrNotFound)
	}
	tpl, err := m.repo.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("expand %q: %w", key, err)
	}
	return m.Start(ctx, host, tpl, offset, opts...)
}

// Start cancels the host's active session and starts tpl at offset.
func (m *Manager) Start(ctx context.Context, host Host, tpl *definition.Template, offset int, opts ...Option) (*Session, error) {
	if prev := m.Active(host); prev != nil {
		prev.Cancel()
	}

	all := make([]Option, 0, len(m.opts)+len(opts))
	all = append(all, m.opts...)
	all = append(all, opts...)
	s, err := newSession(ctx, host, tpl, all...)
	if err != nil {
		return nil, err
	}
	s.onDispose = func() { m.remove(host, s) }
	if err := s.start(offset); err != nil {
		return nil, err
	}
	if !s.done() {
		m.mu.Lock()
		m.active[host] = s
		m.mu.Unlock()
	}
	return s, nil
}

// Active returns the host's running session, or nil.
func (m *Manager) Active(host Host) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[host]
}

// Close cancels every running session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.active))
	for _, s := range m.active {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()
	for _, s := range sessions {
		s.Cancel()
	}
}

func (m *Manager) remove(host Host, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[host] == s {
		delete(m.active, host)
	}
}
