package kbstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"askbase/internal/domain/ports"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDirLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Sem-III", "AME", "Sem-III_AME_Mod-1.json"), `[
		{"id": "S3_AME_M1_001", "question": "What is a mechanism?", "answer": "A kinematic chain.", "tags": ["kinematics"]},
		{"id": "S3_AME_M1_002", "question": "Define link.", "answer": "A rigid body in a mechanism.", "tags": ["kinematics", "links"]}
	]`)
	writeFile(t, filepath.Join(dir, "Sem-V", "CN", "Sem-V_CN_Mod-2.json"), `[
		{"id": "S5_CN_M2_001", "question": "What does TCP stand for?", "answer": "Transmission Control Protocol.", "tags": ["tcp"]}
	]`)

	store, err := NewDirLoader(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if store.Count() != 3 {
		t.Fatalf("expected 3 entries, got %d", store.Count())
	}

	entry, err := store.Get("S5_CN_M2_001")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if entry.Question != "What does TCP stand for?" {
		t.Errorf("unexpected question: %q", entry.Question)
	}
}

func TestDirLoader_SkipsReservedAndHiddenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "subjects.json"), `{"AME": "Applied Mechanical Engineering"}`)
	writeFile(t, filepath.Join(dir, "meta.json"), `{"built_at": "never"}`)
	writeFile(t, filepath.Join(dir, ".hidden.json"), `not even json`)
	writeFile(t, filepath.Join(dir, "notes.txt"), `not knowledge`)
	writeFile(t, filepath.Join(dir, "Sem-I", "M", "Sem-I_M_Mod-1.json"),
		`[{"id": "S1_M_M1_001", "question": "q", "answer": "a"}]`)

	store, err := NewDirLoader(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if store.Count() != 1 {
		t.Errorf("expected 1 entry, got %d", store.Count())
	}
}

func TestDirLoader_DuplicateID(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"id": "S1_X_M1_001", "question": "q", "answer": "a"}]`)
	writeFile(t, filepath.Join(dir, "b.json"), `[{"id": "S1_X_M1_001", "question": "q2", "answer": "a2"}]`)

	if _, err := NewDirLoader(dir, nil).Load(context.Background()); err == nil {
		t.Error("expected duplicate id error")
	}
}

func TestDirLoader_RejectsIncompleteEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `[{"id": "S1_X_M1_001", "question": "q"}]`)

	if _, err := NewDirLoader(dir, nil).Load(context.Background()); err == nil {
		t.Error("expected error for entry without answer")
	}
}

func TestDirLoader_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.json"), `{"not": "an array"`)

	if _, err := NewDirLoader(dir, nil).Load(context.Background()); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestMapStore_GetMissing(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDirLoader(dir, nil).Load(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	_, err = store.Get("S9_NOPE_M1_001")
	if !errors.Is(err, ports.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
