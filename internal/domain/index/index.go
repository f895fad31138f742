// Package index provides read access to the passage vector index.
// The index itself is built offline (see internal/ingest); at query time the
// engine only performs similarity search over the stored vectors.
package index

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrIndexUnavailable means the backing index cannot be reached or opened.
	ErrIndexUnavailable = errors.New("index: unavailable")
	// ErrDimensionMismatch means a query or stored vector does not match the
	// index's recorded dimensionality. Vectors are never truncated or padded.
	ErrDimensionMismatch = errors.New("index: embedding dimension mismatch")
)

// Passage is one retrieved text span with provenance and a similarity score.
// Produced fresh per query and never mutated afterwards.
type Passage struct {
	Text   string
	Source string  // source document identifier
	Score  float64 // cosine similarity, higher = more relevant
	Page   int     // optional page number within the source, 0 if unknown
	Offset int     // ordinal of the chunk within the source
}

// Retriever answers top-k similarity queries against a built index.
type Retriever interface {
	// Retrieve returns at most k passages ordered by descending score, ties
	// broken by insertion order. minScore < 0 disables the score floor.
	// Deterministic for a fixed index state and query embedding.
	Retrieve(ctx context.Context, embedding []float32, k int, minScore float64) ([]Passage, error)
}

// Store is the full index contract: the query side used by the engine plus
// the write side used by the indexer.
type Store interface {
	Retriever

	// Upsert adds passages with their vectors. vectors[i] belongs to
	// passages[i]; all vectors must share the index dimensionality.
	Upsert(ctx context.Context, passages []Passage, vectors [][]float32) error

	// Count returns the number of stored passages.
	Count(ctx context.Context) (int, error)
}

// cosineSimilarity computes cosine similarity between two float32 vectors.
// Returns 0 if either vector has zero magnitude.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
