package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/planit-dev/planit/internal/log"
)

// Manager coordinates access to sessions. All mutation goes through Do,
// which holds a per-session lock for the duration of the callback, so
// concurrent requests for the same session wait instead of interleaving.
// Different sessions proceed in parallel.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger log.Logger

	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry

	sweepOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// lockEntry is a refcounted per-session mutex; the entry is removed from
// the map when the last waiter releases it.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// NewManager creates a session manager. ttl bounds session idleness for
// the eviction sweeper.
func NewManager(store Store, ttl time.Duration, logger log.Logger) *Manager {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "session"),
		locks:  make(map[uuid.UUID]*lockEntry),
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// acquire locks the session's mutex, creating the entry on first use.
func (m *Manager) acquire(id uuid.UUID) *lockEntry {
	m.mu.Lock()
	e, ok := m.locks[id]
	if !ok {
		e = &lockEntry{}
		m.locks[id] = e
	}
	e.refs++
	m.mu.Unlock()

	e.mu.Lock()
	return e
}

// release unlocks and drops the entry once nobody is waiting on it.
func (m *Manager) release(id uuid.UUID, e *lockEntry) {
	e.mu.Unlock()

	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, id)
	}
	m.mu.Unlock()
}

// Do runs fn with exclusive access to the session, persisting the session
// afterwards. Unknown IDs get a fresh session under the requested ID, and
// a zero ID gets a new random one, so clients never see "session not
// found" on this path.
//
// The reported bool is true when the session was newly created.
func (m *Manager) Do(ctx context.Context, id uuid.UUID, fn func(*Session) error) (uuid.UUID, bool, error) {
	if id == uuid.Nil {
		id = uuid.New()
	}

	e := m.acquire(id)
	defer m.release(id, e)

	created := false
	sess, err := m.store.Get(ctx, id)
	switch {
	case errors.Is(err, ErrNotFound):
		sess = NewSession(id)
		created = true
	case err != nil:
		return id, false, fmt.Errorf("loading session: %w", err)
	}

	if err := fn(sess); err != nil {
		return id, created, err
	}

	sess.UpdatedAt = time.Now()
	if err := m.store.Put(ctx, sess); err != nil {
		return id, created, fmt.Errorf("persisting session: %w", err)
	}
	return id, created, nil
}

// Get loads a session without creating one. Read-only callers (history
// endpoints) use this and surface ErrNotFound to the client.
func (m *Manager) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	return m.store.Get(ctx, id)
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id uuid.UUID) error {
	e := m.acquire(id)
	defer m.release(id, e)
	return m.store.Delete(ctx, id)
}

// StartSweeper launches the background eviction loop. Safe to call once;
// subsequent calls are ignored.
func (m *Manager) StartSweeper(interval time.Duration) {
	m.sweepOnce.Do(func() {
		go m.sweep(interval)
	})
}

func (m *Manager) sweep(interval time.Duration) {
	defer close(m.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			n, err := m.store.EvictIdle(ctx, time.Now().Add(-m.ttl))
			cancel()
			if err != nil {
				m.logger.Warn("session eviction failed", "error", err)
				continue
			}
			if n > 0 {
				m.logger.Info("evicted idle sessions", "count", n)
			}
		}
	}
}

// Close stops the sweeper (if started) and closes the store.
func (m *Manager) Close() error {
	select {
	case <-m.stop:
	default:
		close(m.stop)
	}
	m.sweepOnce.Do(func() { close(m.done) })
	<-m.done
	return m.store.Close()
}
