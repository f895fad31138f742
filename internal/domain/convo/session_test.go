package convo

import (
	"fmt"
	"sync"
	"testing"
)

func TestSession_Append_History_InsertionOrder(t *testing.T) {
	t.Parallel()

	s := newSession("s1", 0)
	s.Append("q1", "a1")
	s.Append("q2", "a2")
	s.Append("q3", "a3")

	h := s.History()
	if len(h) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(h))
	}
	for i, want := range []string{"q1", "q2", "q3"} {
		if h[i].Question != want {
			t.Errorf("turn %d: got %q, want %q", i, h[i].Question, want)
		}
		if h[i].Seq != i+1 {
			t.Errorf("turn %d: seq = %d, want %d", i, h[i].Seq, i+1)
		}
	}
}

func TestSession_Truncate_DropsOldestOnly(t *testing.T) {
	t.Parallel()

	s := newSession("s1", 0)
	s.Append("q1", "a1")
	s.Append("q2", "a2")
	s.Append("q3", "a3")

	s.Truncate(2)

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("expected 2 turns after Truncate(2), got %d", len(h))
	}
	if h[0].Question != "q2" || h[1].Question != "q3" {
		t.Errorf("expected q2,q3 to survive, got %q,%q", h[0].Question, h[1].Question)
	}
}

func TestSession_Truncate_NoOpCases(t *testing.T) {
	t.Parallel()

	s := newSession("s1", 0)
	s.Append("q1", "a1")

	s.Truncate(0)  // non-positive cap is a no-op
	s.Truncate(-1) // likewise
	s.Truncate(5)  // larger than history is a no-op

	if s.Len() != 1 {
		t.Errorf("expected 1 turn, got %d", s.Len())
	}
}

func TestSession_MaxTurns_AppliedOnAppend(t *testing.T) {
	t.Parallel()

	s := newSession("s1", 2)
	for i := 1; i <= 5; i++ {
		s.Append(fmt.Sprintf("q%d", i), "a")
	}

	h := s.History()
	if len(h) != 2 {
		t.Fatalf("expected history capped at 2, got %d", len(h))
	}
	if h[0].Question != "q4" || h[1].Question != "q5" {
		t.Errorf("expected newest turns kept, got %q,%q", h[0].Question, h[1].Question)
	}
}

func TestSession_Clear_Idempotent(t *testing.T) {
	t.Parallel()

	s := newSession("s1", 0)
	s.Append("q1", "a1")

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty history after Clear, got %d", s.Len())
	}
	s.Clear() // second clear must also observe empty history
	if s.Len() != 0 {
		t.Errorf("expected empty history after second Clear, got %d", s.Len())
	}

	// Seq keeps advancing after a clear.
	turn := s.Append("q2", "a2")
	if turn.Seq != 2 {
		t.Errorf("expected seq 2 after clear, got %d", turn.Seq)
	}
}

func TestSession_History_ReturnsCopy(t *testing.T) {
	t.Parallel()

	s := newSession("s1", 0)
	s.Append("q1", "a1")

	h := s.History()
	h[0].Question = "mutated"

	if got := s.History()[0].Question; got != "q1" {
		t.Errorf("session state mutated through History copy: %q", got)
	}
}

func TestSession_ConcurrentAppends_NoPartialHistory(t *testing.T) {
	t.Parallel()

	s := newSession("s1", 0)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Append(fmt.Sprintf("q%d", i), "a")
		}()
	}
	// Concurrent readers must always observe a consistent snapshot.
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := s.History()
			for _, turn := range h {
				if turn.Question == "" || turn.Seq == 0 {
					t.Error("observed partially-written turn")
				}
			}
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("expected 50 turns, got %d", s.Len())
	}
	seen := make(map[int]bool)
	for _, turn := range s.History() {
		if seen[turn.Seq] {
			t.Errorf("duplicate seq %d", turn.Seq)
		}
		seen[turn.Seq] = true
	}
}

func TestStore_CreateGetClearDelete(t *testing.T) {
	t.Parallel()

	st := NewStore(10)
	s := st.Create()
	if s.ID() == "" {
		t.Fatal("expected non-empty session id")
	}
	if s.MaxTurns() != 10 {
		t.Errorf("expected maxTurns 10, got %d", s.MaxTurns())
	}

	got, ok := st.Get(s.ID())
	if !ok || got != s {
		t.Fatal("Get did not return the created session")
	}

	s.Append("q", "a")
	st.Clear(s.ID())
	st.Clear(s.ID()) // idempotent
	if s.Len() != 0 {
		t.Errorf("expected cleared history, got %d turns", s.Len())
	}
	st.Clear("no-such-id") // no-op

	st.Delete(s.ID())
	if _, ok := st.Get(s.ID()); ok {
		t.Error("expected session gone after Delete")
	}
	if st.Len() != 0 {
		t.Errorf("expected 0 live sessions, got %d", st.Len())
	}
}
