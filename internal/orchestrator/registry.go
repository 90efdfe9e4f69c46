package orchestrator

import (
	"sync"

	"github.com/AAOleynikov/multi-agent-interview-coach/internal/session"
)

// #region registry

// registry holds live sessions and their per-session locks. Concurrent
// sessions proceed independently; turns within one session are exclusive.
type registry struct {
	mu       sync.Mutex
	sessions map[string]*session.Session
	locks    map[string]*sync.Mutex
}

func newRegistry() *registry {
	return &registry{
		sessions: make(map[string]*session.Session),
		locks:    make(map[string]*sync.Mutex),
	}
}

// lock acquires the exclusive per-session lock and returns its release func.
func (r *registry) lock(sessionID string) func() {
	r.mu.Lock()
	m, ok := r.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		r.locks[sessionID] = m
	}
	r.mu.Unlock()

	m.Lock()
	return m.Unlock
}

func (r *registry) put(sess *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess
}

func (r *registry) get(sessionID string) *session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessions[sessionID]
}

// #endregion
