package session

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type managed struct {
	store      *Store
	lastAccess time.Time
}

// Manager holds one Store per browsing session, each persisted under its own namespace.
// A dropped Store is reopened from storage on the next Get.
type Manager struct {
	storage Storage
	opts    []Option

	Now func() time.Time // mockable

	mu     sync.Mutex
	stores map[string]*managed
	// dropped stores still running a Login or Logout; Get hands them back until they are done
	retiring map[string]*Store
}

func NewManager(storage Storage, opts ...Option) *Manager {
	return &Manager{
		storage:  storage,
		opts:     opts,
		Now:      time.Now,
		stores:   make(map[string]*managed),
		retiring: make(map[string]*Store),
	}
}

// Get returns the Store of a browsing session, opening it from storage on first access.
func (m *Manager) Get(ctx context.Context, sid string) (*Store, error) {
	if sid == "" {
		return nil, errors.New("empty session id")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.Now()
	if entry, ok := m.stores[sid]; ok {
		entry.lastAccess = now
		return entry.store, nil
	}
	if s, ok := m.retiring[sid]; ok {
		delete(m.retiring, sid)
		m.stores[sid] = &managed{store: s, lastAccess: now}
		return s, nil
	}

	s, err := Open(ctx, Namespaced(m.storage, sid), m.opts...)
	if err != nil {
		return nil, errors.Wrap(err, "opening session")
	}
	m.stores[sid] = &managed{store: s, lastAccess: now}
	return s, nil
}

// Forget drops a browsing session from memory. Its persisted state is left untouched.
func (m *Manager) Forget(sid string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drop(sid)
}

// Evict drops every session not accessed for idle and returns their ids.
func (m *Manager) Evict(idle time.Duration) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	deadline := m.Now().Add(-idle)
	var evicted []string
	for sid, entry := range m.stores {
		if entry.lastAccess.Before(deadline) {
			m.drop(sid)
			evicted = append(evicted, sid)
		}
	}
	return evicted
}

// Len returns the number of sessions held in memory.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores) + len(m.retiring)
}

// drop must be called with m.mu held.
// A Store in the middle of a transition stays reachable until the transition ends,
// so that a session never has two Stores racing on its key.
func (m *Manager) drop(sid string) {
	entry, ok := m.stores[sid]
	if !ok {
		return
	}
	delete(m.stores, sid)

	s := entry.store
	if s.transition.TryLock() {
		s.transition.Unlock()
		return
	}
	m.retiring[sid] = s
	go func() {
		// wait out the running transition
		s.transition.Lock()
		s.transition.Unlock()

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.retiring[sid] == s {
			delete(m.retiring, sid)
		}
	}()
}
