package usecases

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"askbase/internal/domain/ports"
)

// KBLoader produces a fresh read-only knowledge store from its backing
// storage (the curated JSON files).
type KBLoader interface {
	Load(ctx context.Context) (ports.KBStore, error)
}

// RebuildUseCase constructs a complete snapshot from scratch: load the KB,
// embed every entry, build a new index. It never touches a live snapshot;
// publishing the result atomically is the caller's job (snapshot.Holder).
type RebuildUseCase struct {
	loader   KBLoader
	embedder ports.Embedder
	builder  ports.IndexBuilder
	logger   *zap.Logger
}

// NewRebuildUseCase creates a RebuildUseCase with injected dependencies.
func NewRebuildUseCase(loader KBLoader, embedder ports.Embedder, builder ports.IndexBuilder, logger *zap.Logger) *RebuildUseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RebuildUseCase{
		loader:   loader,
		embedder: embedder,
		builder:  builder,
		logger:   logger,
	}
}

// Rebuild loads, embeds and indexes the whole knowledge base, returning a
// coherent snapshot in which index length always equals store count.
func (uc *RebuildUseCase) Rebuild(ctx context.Context) (ports.Snapshot, error) {
	store, err := uc.loader.Load(ctx)
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("loading knowledge base: %w", err)
	}

	entries := store.All()
	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.EmbeddingText()
	}

	uc.logger.Info("rebuilding index", zap.Int("entries", len(entries)))

	vectors, err := uc.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("embedding knowledge base: %w", err)
	}

	indexEntries := make([]ports.IndexEntry, len(entries))
	for i, entry := range entries {
		indexEntries[i] = ports.IndexEntry{ID: entry.ID, Vector: vectors[i]}
	}

	index, err := uc.builder.Build(ctx, indexEntries)
	if err != nil {
		return ports.Snapshot{}, fmt.Errorf("building index: %w", err)
	}

	uc.logger.Info("index rebuilt", zap.Int("indexed", index.Len()))
	return ports.Snapshot{Index: index, Store: store}, nil
}
