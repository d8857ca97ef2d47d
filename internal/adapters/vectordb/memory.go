// Package vectordb provides vector index adapters implementing
// ports.VectorIndex and ports.IndexBuilder.
package vectordb

import (
	"context"
	"math"
	"sort"

	"askbase/internal/domain/ports"
)

// MemoryIndex is an exact flat cosine index. Vectors are L2-normalized at
// build time and queries at search time, so the inner product is the cosine
// similarity. The index is immutable once built; concurrent searches need no
// locking.
type MemoryIndex struct {
	ids     []string
	vectors [][]float32
}

// MemoryBuilder builds MemoryIndex instances.
type MemoryBuilder struct{}

// NewMemoryBuilder creates a builder for in-memory indexes.
func NewMemoryBuilder() *MemoryBuilder {
	return &MemoryBuilder{}
}

// Build constructs a fresh index from the given entries. The input is copied;
// later mutation of the caller's slices cannot tear the index.
func (b *MemoryBuilder) Build(ctx context.Context, entries []ports.IndexEntry) (ports.VectorIndex, error) {
	idx := &MemoryIndex{
		ids:     make([]string, len(entries)),
		vectors: make([][]float32, len(entries)),
	}
	for i, e := range entries {
		idx.ids[i] = e.ID
		idx.vectors[i] = normalize(e.Vector)
	}
	return idx, nil
}

// Search returns up to k entries by descending cosine similarity.
func (idx *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]ports.Hit, error) {
	query := normalize(vector)

	hits := make([]ports.Hit, 0, len(idx.ids))
	for i, vec := range idx.vectors {
		if len(vec) != len(query) {
			continue // dimension mismatch, e.g. index built by another model
		}
		hits = append(hits, ports.Hit{EntryID: idx.ids[i], Score: dot(query, vec)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

// Len reports how many entries are indexed.
func (idx *MemoryIndex) Len() int {
	return len(idx.ids)
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// normalize returns a unit-length copy of v. A zero vector is returned as a
// zero copy rather than dividing by zero.
func normalize(v []float32) []float32 {
	var sq float64
	for _, x := range v {
		sq += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sq == 0 {
		return out
	}
	norm := float32(math.Sqrt(sq))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
