package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-shexform/pkg/session"
)

// Entry is a form session held by the server.
type Entry struct {
	ID        string
	Session   *session.Session
	CreatedAt time.Time

	// mu serialises submissions so the version check and the edits of one
	// post are not interleaved with another.
	mu         sync.Mutex
	lastActive time.Time
}

// Manager keeps sessions in memory and forgets idle ones.
type Manager struct {
	mu          sync.RWMutex
	sessions    map[string]*Entry
	idleTimeout time.Duration
	maxSessions int
	now         func() time.Time
}

// NewManager creates a manager. A zero idleTimeout keeps sessions until
// they are removed; a zero maxSessions means no limit.
func NewManager(idleTimeout time.Duration, maxSessions int) *Manager {
	return &Manager{
		sessions:    make(map[string]*Entry),
		idleTimeout: idleTimeout,
		maxSessions: maxSessions,
		now:         time.Now,
	}
}

// Add registers s under a new identifier. When the manager is full the
// least recently used session is dropped.
func (m *Manager) Add(s *session.Session) *Entry {
	now := m.now()
	entry := &Entry{
		ID:         uuid.NewString(),
		Session:    s,
		CreatedAt:  now,
		lastActive: now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.maxSessions > 0 && len(m.sessions) >= m.maxSessions {
		m.evictOldestLocked()
	}
	m.sessions[entry.ID] = entry
	return entry
}

// Get returns the session with id and marks it active. Idle sessions are
// removed and reported as missing.
func (m *Manager) Get(id string) (*Entry, bool) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if m.idle(entry, now) {
		delete(m.sessions, id)
		return nil, false
	}
	entry.lastActive = now
	return entry, true
}

// Remove deletes a session. It reports whether the session existed.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// Len returns the number of held sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs lists the held session identifiers.
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Cleanup removes idle sessions and returns how many were dropped.
func (m *Manager) Cleanup() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	removed := 0
	for id, entry := range m.sessions {
		if m.idle(entry, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// Run calls Cleanup every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration, onSweep func(removed int)) error {
	if interval <= 0 || m.idleTimeout <= 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if removed := m.Cleanup(); removed > 0 && onSweep != nil {
				onSweep(removed)
			}
		}
	}
}

func (m *Manager) idle(entry *Entry, now time.Time) bool {
	return m.idleTimeout > 0 && now.Sub(entry.lastActive) > m.idleTimeout
}

func (m *Manager) evictOldestLocked() {
	var oldest *Entry
	for _, entry := range m.sessions {
		if oldest == nil || entry.lastActive.Before(oldest.lastActive) {
			oldest = entry
		}
	}
	if oldest != nil {
		delete(m.sessions, oldest.ID)
	}
}
