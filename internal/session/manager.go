package session

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// Manager keeps one Session per user so that users never share state.
type Manager struct {
	opts []Option

	mu       sync.Mutex
	sessions map[string]*Session
	loading  map[string]*loadCall
}

// loadCall is a first Get in progress; later callers wait on done.
type loadCall struct {
	done chan struct{}
	s    *Session
	err  error
}

// NewManager returns a manager that builds sessions with opts.
func NewManager(opts ...Option) *Manager {
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
		loading:  make(map[string]*loadCall),
	}
}

// Get returns the user's session, creating and loading it on first use.
// Callers arriving while the load runs wait for it. A session whose load
// failed is not kept; every waiter gets the error and the next Get tries
// again.
func (m *Manager) Get(ctx context.Context, user string) (*Session, error) {
	if user == "" {
		user = DefaultUser
	}

	m.mu.Lock()
	if s, ok := m.sessions[user]; ok {
		m.mu.Unlock()
		return s, nil
	}
	if c, ok := m.loading[user]; ok {
		m.mu.Unlock()
		select {
		case <-c.done:
			return c.s, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &loadCall{done: make(chan struct{})}
	m.loading[user] = c
	m.mu.Unlock()

	s := New(user, m.opts...)
	err := s.Load(ctx)

	m.mu.Lock()
	delete(m.loading, user)
	if err == nil {
		m.sessions[user] = s
		c.s = s
	} else {
		c.err = err
	}
	m.mu.Unlock()
	close(c.done)
	return c.s, c.err
}

// Users lists the users with a live session.
func (m *Manager) Users() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sessions))
	for u := range m.sessions {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// SaveAll saves every live session and joins the failures.
func (m *Manager) SaveAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Save(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
