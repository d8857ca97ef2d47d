// Package kbstore provides the JSON-file knowledge store.
// The knowledge base lives as plain JSON files under a data directory,
// one array of entries per subject module; this adapter loads them into an
// immutable keyed store and implements the editing workflow that the admin
// API drives.
package kbstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"askbase/internal/domain/entities"
	"askbase/internal/domain/ports"
)

// reservedFiles are generated artifacts living alongside the KB files that
// must never be loaded as knowledge.
var reservedFiles = map[string]struct{}{
	"meta.json":     {},
	"kb.json":       {},
	"subjects.json": {},
	"index.db":      {},
}

// DirLoader loads every KB JSON file under a directory tree.
// It implements usecases.KBLoader.
type DirLoader struct {
	dir    string
	logger *zap.Logger
}

// NewDirLoader creates a loader rooted at dir.
func NewDirLoader(dir string, logger *zap.Logger) *DirLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DirLoader{dir: dir, logger: logger}
}

// Load walks the data directory and merges all entry files into one store.
// Files are visited in sorted path order so load order, and therefore entry
// order, is deterministic. Invalid JSON or entries missing question/answer
// fail the whole load; a partially loaded KB is worse than a loud error.
func (l *DirLoader) Load(ctx context.Context) (ports.KBStore, error) {
	var files []string
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if _, reserved := reservedFiles[name]; reserved {
			return nil
		}
		if strings.HasPrefix(name, ".") || filepath.Ext(name) != ".json" {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", l.dir, err)
	}
	sort.Strings(files)

	store := &MapStore{byID: make(map[string]entities.KBEntry)}
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		entries, err := loadEntryFile(file)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if _, dup := store.byID[entry.ID]; dup {
				return nil, fmt.Errorf("%s: duplicate entry id %q", file, entry.ID)
			}
			store.byID[entry.ID] = entry
			store.ordered = append(store.ordered, entry)
		}
		l.logger.Debug("loaded knowledge file",
			zap.String("file", file),
			zap.Int("entries", len(entries)))
	}

	l.logger.Info("knowledge base loaded",
		zap.Int("files", len(files)),
		zap.Int("entries", store.Count()))
	return store, nil
}

func loadEntryFile(path string) ([]entities.KBEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var entries []entities.KBEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}

	for i, entry := range entries {
		if entry.ID == "" {
			return nil, fmt.Errorf("%s: entry %d has no id", path, i)
		}
		if entry.Question == "" || entry.Answer == "" {
			return nil, fmt.Errorf("%s: entry %d (%s) missing question or answer", path, i, entry.ID)
		}
	}
	return entries, nil
}

// MapStore is an immutable keyed view of loaded entries, implementing
// ports.KBStore. Safe for concurrent readers; it is never mutated after Load.
type MapStore struct {
	byID    map[string]entities.KBEntry
	ordered []entities.KBEntry
}

// Get looks an entry up by id.
func (s *MapStore) Get(id string) (entities.KBEntry, error) {
	entry, ok := s.byID[id]
	if !ok {
		return entities.KBEntry{}, fmt.Errorf("entry %q: %w", id, ports.ErrNotFound)
	}
	return entry, nil
}

// All returns every entry in load order.
func (s *MapStore) All() []entities.KBEntry {
	out := make([]entities.KBEntry, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Count reports the number of entries.
func (s *MapStore) Count() int {
	return len(s.ordered)
}
