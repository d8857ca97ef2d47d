// Package ports defines interfaces for external dependencies.
// Usecases depend on these abstractions, not concrete implementations;
// adapters implement them.
package ports

import (
	"context"
	"errors"

	"askbase/internal/domain/entities"
)

// ErrNotFound is returned by KBStore.Get when an entry id is unknown.
// During normal operation this means a stale reference: the caller is holding
// ids from an older snapshot and should retry against the current one.
var ErrNotFound = errors.New("kb entry not found")

// Embedder generates vector embeddings for text.
// Deterministic for identical input given a fixed model version.
type Embedder interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Hit is one nearest-neighbor search result.
type Hit struct {
	EntryID string
	Score   float64
}

// VectorIndex answers nearest-neighbor queries over the indexed entries.
// Implementations are read-only once built; a rebuild produces a new index.
type VectorIndex interface {
	// Search returns up to k hits sorted by descending score.
	Search(ctx context.Context, vector []float32, k int) ([]Hit, error)

	// Len reports how many entries are indexed.
	Len() int
}

// IndexEntry pairs an entry id with its embedding, for index construction.
type IndexEntry struct {
	ID     string
	Vector []float32
}

// IndexBuilder constructs a fresh VectorIndex from scratch.
// Builders never mutate a previously returned index.
type IndexBuilder interface {
	Build(ctx context.Context, entries []IndexEntry) (VectorIndex, error)
}

// KBStore is a read-only keyed view of the knowledge base.
type KBStore interface {
	// Get looks an entry up by its stable id. Returns ErrNotFound (possibly
	// wrapped) if the id is stale relative to this snapshot.
	Get(id string) (entities.KBEntry, error)

	// All returns every entry in stable (load) order.
	All() []entities.KBEntry

	// Count reports the number of entries.
	Count() int
}

// Snapshot is an immutable, paired (vector index, knowledge store) version.
// A query runs entirely against one snapshot; rebuilds publish a new snapshot
// atomically rather than mutating a live one, so index and store never
// disagree on entry count mid-query.
type Snapshot struct {
	Index VectorIndex
	Store KBStore
}
