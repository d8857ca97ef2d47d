// Package snapshot manages the atomically swapped search snapshot.
// Queries read a consistent (index, store) pair for their whole lifetime;
// rebuilds publish a fresh pair with a single pointer swap and never mutate
// a snapshot that readers may still hold.
package snapshot

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"askbase/internal/adapters/filewatcher"
	"askbase/internal/domain/ports"
	"askbase/internal/domain/usecases"
)

// Holder publishes the current snapshot.
type Holder struct {
	current atomic.Pointer[ports.Snapshot]
}

// NewHolder creates a holder seeded with an initial snapshot.
func NewHolder(snap ports.Snapshot) *Holder {
	h := &Holder{}
	h.current.Store(&snap)
	return h
}

// Current returns the live snapshot. The returned value stays coherent even
// if a rebuild swaps in a newer one mid-request.
func (h *Holder) Current() ports.Snapshot {
	return *h.current.Load()
}

// Swap publishes a new snapshot.
func (h *Holder) Swap(snap ports.Snapshot) {
	h.current.Store(&snap)
}

// Refresher rebuilds the snapshot when KB files change. Bursts of file
// events (an editor saving, a git checkout) collapse into one rebuild via a
// debounce window.
type Refresher struct {
	holder   *Holder
	rebuild  *usecases.RebuildUseCase
	debounce time.Duration
	logger   *zap.Logger
}

// NewRefresher creates a refresher. A non-positive debounce defaults to two
// seconds.
func NewRefresher(holder *Holder, rebuild *usecases.RebuildUseCase, debounce time.Duration, logger *zap.Logger) *Refresher {
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Refresher{
		holder:   holder,
		rebuild:  rebuild,
		debounce: debounce,
		logger:   logger,
	}
}

// Run consumes watcher events until ctx is cancelled or the channel closes.
// A failed rebuild keeps the previous snapshot live; stale answers beat no
// answers.
func (r *Refresher) Run(ctx context.Context, events <-chan filewatcher.Event) {
	timer := time.NewTimer(r.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			r.logger.Debug("knowledge file changed", zap.String("path", ev.Path))
			if pending && !timer.Stop() {
				<-timer.C
			}
			timer.Reset(r.debounce)
			pending = true
		case <-timer.C:
			pending = false
			r.Refresh(ctx)
		}
	}
}

// Refresh rebuilds immediately and swaps the holder on success.
func (r *Refresher) Refresh(ctx context.Context) {
	start := time.Now()
	snap, err := r.rebuild.Rebuild(ctx)
	if err != nil {
		r.logger.Error("snapshot rebuild failed, keeping previous snapshot", zap.Error(err))
		return
	}
	r.holder.Swap(snap)
	r.logger.Info("snapshot swapped",
		zap.Int("entries", snap.Store.Count()),
		zap.Duration("took", time.Since(start)))
}
