package convo

import (
	"sync"

	"github.com/google/uuid"
)

// Store is the process-wide session registry. Sessions are created on
// explicit request, looked up by id, and live until the caller deletes them.
type Store struct {
	maxTurns int

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates a Store whose sessions cap history at maxTurns
// (0 = unbounded).
func NewStore(maxTurns int) *Store {
	return &Store{
		maxTurns: maxTurns,
		sessions: make(map[string]*Session),
	}
}

// Create registers a new session with a fresh id.
func (st *Store) Create() *Session {
	s := newSession(uuid.NewString(), st.maxTurns)

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Get returns the session with the given id, if it exists.
func (st *Store) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

// Clear empties the history of the session with the given id. Clearing an
// unknown or already-empty session is a no-op; the operation is idempotent.
func (st *Store) Clear(id string) {
	if s, ok := st.Get(id); ok {
		s.Clear()
	}
}

// Delete removes the session entirely. Deleting an unknown id is a no-op.
func (st *Store) Delete(id string) {
	st.mu.Lock()
	delete(st.sessions, id)
	st.mu.Unlock()
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
