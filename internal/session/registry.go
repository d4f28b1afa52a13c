package session

import (
	"errors"
	"sync"
	"sync/atomic"
)

// ErrNotFound is returned by registry operations on an unknown or
// already-destroyed session id.
var ErrNotFound = errors.New("session: not found")

// ErrSampleRateUnsupported is returned by Create when the requested
// sample rate falls outside [8kHz, 192kHz] (spec §4.1).
var ErrSampleRateUnsupported = errors.New("session: sample rate out of supported range [8000, 192000]")

const (
	minSampleRate = 8000
	maxSampleRate = 192000
)

// Registry is the process-wide, thread-safe map from session id to
// session state (spec §4.1). A separate lock from any individual
// Session's own lock guards only the id map itself, held only around
// insert/lookup/erase (spec §5).
type Registry struct {
	shared *Shared

	mu       sync.RWMutex
	sessions map[ID]*Session
	nextID   uint32
}

// NewRegistry creates a registry that builds sessions from the given
// shared, engine-level read-only components.
func NewRegistry(shared *Shared) *Registry {
	return &Registry{
		shared:   shared,
		sessions: make(map[ID]*Session),
	}
}

// Create allocates a new session for sampleRate and registers it.
func (r *Registry) Create(sampleRate int) (ID, error) {
	if sampleRate < minSampleRate || sampleRate > maxSampleRate {
		return 0, ErrSampleRateUnsupported
	}

	id := ID(atomic.AddUint32(&r.nextID, 1))
	s := New(id, sampleRate, r.shared)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	return id, nil
}

// Get looks up a session by id.
func (r *Registry) Get(id ID) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Destroy removes a session from the registry, releasing its buffers.
// Idempotent at the "not found = error" level required by spec §4.1: a
// second Destroy call on the same id returns ErrNotFound, just as a
// lookup on an id that never existed would.
func (r *Registry) Destroy(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// ActiveSessions returns a snapshot of every currently registered
// session id.
func (r *Registry) ActiveSessions() []ID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]ID, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of currently registered sessions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
