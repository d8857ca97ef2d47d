package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"askbase/internal/adapters/embedding"
	"askbase/internal/adapters/kbstore"
	"askbase/internal/adapters/vectordb"
	"askbase/internal/domain/ports"
	"askbase/internal/domain/usecases"
)

// stack bundles the wired application pieces shared by the subcommands.
type stack struct {
	loader  *kbstore.DirLoader
	builder ports.IndexBuilder
	rebuild *usecases.RebuildUseCase
	answer  *usecases.AnswerUseCase
	close   func()
}

// buildStack wires adapters and use cases from the loaded configuration.
func buildStack() (*stack, error) {
	embedder := embedding.NewOllamaAdapter(cfg.Ollama.Endpoint, cfg.Ollama.Model, logger)
	loader := kbstore.NewDirLoader(cfg.Data.Dir, logger)

	builder, closeBuilder, err := newIndexBuilder()
	if err != nil {
		return nil, err
	}

	answer, err := usecases.NewAnswerUseCase(embedder, cfg.EngineConfig(), logger)
	if err != nil {
		closeBuilder()
		return nil, err
	}

	return &stack{
		loader:  loader,
		builder: builder,
		rebuild: usecases.NewRebuildUseCase(loader, embedder, builder, logger),
		answer:  answer,
		close:   closeBuilder,
	}, nil
}

// initialSnapshot returns the starting snapshot. With the sqlite backend a
// persisted index whose size still matches the KB is reused, skipping the
// embedding pass; any mismatch or load failure falls back to a full rebuild.
func (s *stack) initialSnapshot(ctx context.Context) (ports.Snapshot, error) {
	if sb, ok := s.builder.(*vectordb.SQLiteBuilder); ok {
		if index, err := sb.Load(ctx); err == nil {
			store, err := s.loader.Load(ctx)
			if err == nil && index.Len() == store.Count() {
				logger.Info("reusing persisted index", zap.Int("entries", index.Len()))
				return ports.Snapshot{Index: index, Store: store}, nil
			}
		}
	}
	return s.rebuild.Rebuild(ctx)
}

func newIndexBuilder() (ports.IndexBuilder, func(), error) {
	switch cfg.Index.Backend {
	case "memory":
		return vectordb.NewMemoryBuilder(), func() {}, nil
	case "sqlite":
		builder, err := vectordb.NewSQLiteBuilder(cfg.Data.Dir)
		if err != nil {
			return nil, nil, err
		}
		return builder, func() {}, nil
	case "qdrant":
		builder, err := vectordb.NewQdrantBuilder(cfg.Index.QdrantAddr, cfg.Index.QdrantCollection)
		if err != nil {
			return nil, nil, err
		}
		return builder, func() { builder.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown index backend %q", cfg.Index.Backend)
	}
}
