// Package filewatcher monitors the knowledge base directory for edits.
// Any change to a KB JSON file is a signal that the search snapshot is stale.
package filewatcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Op describes what happened to a KB file.
type Op int

const (
	FileCreated Op = iota
	FileModified
	FileDeleted
)

// Event is a change notification for a single KB file.
type Event struct {
	Path string
	Op   Op
}

// skipFiles are generated artifacts living in the data tree whose changes
// must not trigger a rebuild (the rebuild itself writes some of them).
var skipFiles = map[string]struct{}{
	"meta.json":     {},
	"kb.json":       {},
	"subjects.json": {},
	"index.db":      {},
}

// Watcher emits events for KB JSON files under a directory tree.
type Watcher struct {
	watcher *fsnotify.Watcher
	logger  *zap.Logger
}

// NewWatcher creates a new KB file watcher.
func NewWatcher(logger *zap.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{watcher: w, logger: logger}, nil
}

// Watch starts monitoring dir and every subdirectory under it. The returned
// channel closes when ctx is cancelled. Newly created subdirectories are
// added to the watch set as they appear, so subjects created through the
// admin editor are picked up without a restart.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan Event, error) {
	if err := w.addTree(dir); err != nil {
		return nil, err
	}

	events := make(chan Event, 100)

	go func() {
		defer close(events)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&fsnotify.Create == fsnotify.Create {
					if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
						if err := w.addTree(event.Name); err != nil {
							w.logger.Warn("watching new directory failed",
								zap.String("dir", event.Name), zap.Error(err))
						}
						continue
					}
				}
				if !isKBFile(event.Name) {
					continue
				}

				var op Op
				switch {
				case event.Op&fsnotify.Create == fsnotify.Create:
					op = FileCreated
				case event.Op&fsnotify.Write == fsnotify.Write:
					op = FileModified
				case event.Op&fsnotify.Remove == fsnotify.Remove,
					event.Op&fsnotify.Rename == fsnotify.Rename:
					op = FileDeleted
				default:
					continue
				}

				select {
				case events <- Event{Path: event.Name, Op: op}:
				case <-ctx.Done():
					return
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				w.logger.Warn("file watcher error", zap.Error(err))
			}
		}
	}()

	return events, nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addTree registers dir and all existing subdirectories.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && path != dir {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

// isKBFile reports whether a path names a knowledge file worth rebuilding for.
func isKBFile(path string) bool {
	name := filepath.Base(path)
	if _, skip := skipFiles[name]; skip {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return filepath.Ext(name) == ".json"
}
