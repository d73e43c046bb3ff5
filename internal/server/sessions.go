package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/persona/internal/quiz"
)

// session is one quiz run. The engine is not safe for concurrent use, so
// every access goes through mu.
type session struct {
	mu       sync.Mutex
	id       string
	engine   *quiz.Engine
	lastSeen time.Time
	recorded bool
}

// sessionTable holds live sessions. Its lock only guards the map; each
// session carries its own.
type sessionTable struct {
	mu       sync.RWMutex
	sessions map[string]*session
	ttl      time.Duration
	now      func() time.Time
}

func newSessionTable(ttl time.Duration, now func() time.Time) *sessionTable {
	return &sessionTable{
		sessions: make(map[string]*session),
		ttl:      ttl,
		now:      now,
	}
}

func (t *sessionTable) create(engine *quiz.Engine) *session {
	s := &session{
		id:       uuid.NewString(),
		engine:   engine,
		lastSeen: t.now(),
	}
	t.mu.Lock()
	t.sweepLocked()
	t.sessions[s.id] = s
	t.mu.Unlock()
	return s
}

func (t *sessionTable) get(id string) (*session, bool) {
	t.mu.RLock()
	s, ok := t.sessions[id]
	t.mu.RUnlock()
	return s, ok
}

func (t *sessionTable) remove(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.sessions[id]; !ok {
		return false
	}
	delete(t.sessions, id)
	return true
}

func (t *sessionTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.sessions)
}

// sweepLocked drops sessions idle for longer than the TTL. A zero TTL keeps
// sessions forever.
func (t *sessionTable) sweepLocked() {
	if t.ttl <= 0 {
		return
	}
	cutoff := t.now().Add(-t.ttl)
	for id, s := range t.sessions {
		// Sessions in use are skipped rather than waited on.
		if !s.mu.TryLock() {
			continue
		}
		idle := s.lastSeen.Before(cutoff)
		s.mu.Unlock()
		if idle {
			delete(t.sessions, id)
		}
	}
}
