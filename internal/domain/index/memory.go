package index

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store with the same contract as SQLiteStore.
// Used by tests and as a no-persistence mode for one-shot questions.
type MemoryStore struct {
	mu       sync.RWMutex
	passages []Passage
	vectors  [][]float32
	dim      int
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Upsert appends passages with their vectors. The first upsert fixes the
// store dimensionality; later vectors must match it.
func (s *MemoryStore) Upsert(_ context.Context, passages []Passage, vectors [][]float32) error {
	if len(passages) != len(vectors) {
		return fmt.Errorf("index: %d passages but %d vectors", len(passages), len(vectors))
	}
	if len(passages) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dim := s.dim
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, vec := range vectors {
		if len(vec) != dim {
			return fmt.Errorf("vector %d has %d dims, index has %d: %w",
				i, len(vec), dim, ErrDimensionMismatch)
		}
	}

	s.dim = dim
	s.passages = append(s.passages, passages...)
	for _, vec := range vectors {
		cp := make([]float32, len(vec))
		copy(cp, vec)
		s.vectors = append(s.vectors, cp)
	}
	return nil
}

// Retrieve scores all stored vectors against the query embedding and returns
// the top k above minScore, ordered by descending score with ties broken by
// insertion order.
func (s *MemoryStore) Retrieve(_ context.Context, embedding []float32, k int, minScore float64) ([]Passage, error) {
	if k <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dim == 0 {
		return nil, nil // empty index: zero context is not an error
	}
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("query has %d dims, index has %d: %w",
			len(embedding), s.dim, ErrDimensionMismatch)
	}

	scored := make([]Passage, 0, len(s.passages))
	for i, p := range s.passages {
		p.Score = cosineSimilarity(embedding, s.vectors[i])
		if minScore >= 0 && p.Score < minScore {
			continue
		}
		scored = append(scored, p)
	}

	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored, nil
}

// Count returns the number of stored passages.
func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.passages), nil
}
