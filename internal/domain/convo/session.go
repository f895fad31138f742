// Package convo holds per-conversation state: the ordered turn history each
// answer is conditioned on, and the store that owns session lifecycles.
package convo

import (
	"sync"
	"time"
)

// Turn is one completed question/answer exchange. Immutable once appended.
type Turn struct {
	Question string
	Answer   string
	Seq      int // monotonic per session, starting at 1
	At       time.Time
}

// Session owns an ordered turn history for one conversation. The turn
// sequence is append-only except for explicit Clear (resets to empty) and
// Truncate (drops oldest turns, never newest). All operations are atomic
// with respect to concurrent readers of the same session.
type Session struct {
	id       string
	maxTurns int

	mu      sync.Mutex
	turns   []Turn
	nextSeq int

	// reqMu serializes whole QA requests against this session so two
	// concurrent asks cannot interleave their generate/update steps.
	// Separate from mu: mu guards history reads/writes and is only held
	// for the duration of a single operation.
	reqMu sync.Mutex
}

func newSession(id string, maxTurns int) *Session {
	return &Session{id: id, maxTurns: maxTurns, nextSeq: 1}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// MaxTurns returns the configured history cap (0 = unbounded).
func (s *Session) MaxTurns() int { return s.maxTurns }

// Lock acquires the per-session request lock. The QA engine holds it across
// retrieve/generate/update so same-session requests are processed one at a
// time; requests on other sessions proceed in parallel.
func (s *Session) Lock() { s.reqMu.Lock() }

// Unlock releases the per-session request lock.
func (s *Session) Unlock() { s.reqMu.Unlock() }

// Append records a completed exchange, assigns its sequence number, and
// applies the configured truncation policy.
func (s *Session) Append(question, answer string) Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turn := Turn{
		Question: question,
		Answer:   answer,
		Seq:      s.nextSeq,
		At:       time.Now().UTC(),
	}
	s.nextSeq++
	s.turns = append(s.turns, turn)
	s.truncateLocked(s.maxTurns)
	return turn
}

// History returns the turns in insertion order (newest last). The returned
// slice is a copy; callers cannot mutate session state through it.
func (s *Session) History() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the current number of turns.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Truncate drops the oldest turns until at most maxTurns remain.
// maxTurns <= 0 is a no-op.
func (s *Session) Truncate(maxTurns int) {
	if maxTurns <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.truncateLocked(maxTurns)
}

func (s *Session) truncateLocked(maxTurns int) {
	if maxTurns <= 0 || len(s.turns) <= maxTurns {
		return
	}
	kept := make([]Turn, maxTurns)
	copy(kept, s.turns[len(s.turns)-maxTurns:])
	s.turns = kept
}

// Clear atomically empties the history. Idempotent; sequence numbering
// continues from where it left off so turns never repeat a Seq.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = nil
}
