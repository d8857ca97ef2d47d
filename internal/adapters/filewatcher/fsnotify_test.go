package filewatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func waitForEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()
	select {
	case ev, ok := <-events:
		if !ok {
			t.Fatal("event channel closed")
		}
		return ev
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestWatcher_EmitsJSONEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, "Sem-I_M_Mod-1.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitForEvent(t, events)
	if ev.Path != path {
		t.Errorf("unexpected path: %s", ev.Path)
	}
	if ev.Op != FileCreated {
		t.Errorf("unexpected op: %v", ev.Op)
	}
}

func TestWatcher_IgnoresNonKBFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"meta.json", "subjects.json", "notes.txt", ".tmp.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	kbFile := filepath.Join(dir, "Sem-I_M_Mod-1.json")
	if err := os.WriteFile(kbFile, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	// Only the real KB file should come through.
	ev := waitForEvent(t, events)
	if ev.Path != kbFile {
		t.Errorf("expected event for %s, got %s", kbFile, ev.Path)
	}
}

func TestWatcher_PicksUpNewSubdirectories(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := w.Watch(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}

	subdir := filepath.Join(dir, "Sem-II", "DS")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	// Give the watcher a moment to register the new directories.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(subdir, "Sem-II_DS_Mod-1.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := waitForEvent(t, events)
	if ev.Path != path {
		t.Errorf("unexpected path: %s", ev.Path)
	}
}

func TestWatcher_ChannelClosesOnCancel(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(nil)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	events, err := w.Watch(ctx, dir)
	if err != nil {
		t.Fatal(err)
	}

	cancel()
	select {
	case _, ok := <-events:
		if ok {
			t.Error("expected closed channel")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}
