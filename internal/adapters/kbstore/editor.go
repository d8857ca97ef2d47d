package kbstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"askbase/internal/domain/entities"
	"askbase/internal/domain/ports"
)

// Editor implements the admin editing workflow over the JSON files.
// All mutations go through here; queries never do. After any mutation the
// caller is expected to trigger a snapshot rebuild.
type Editor struct {
	mu  sync.Mutex
	dir string
}

// NewEditor creates an editor rooted at the KB data directory.
func NewEditor(dir string) *Editor {
	return &Editor{dir: dir}
}

// EntryDraft carries the user-editable fields of an entry.
type EntryDraft struct {
	Semester int             `json:"semester"`
	Subject  string          `json:"subject"`
	Module   int             `json:"module"`
	Question string          `json:"question"`
	Answer   string          `json:"answer"`
	Tags     []string        `json:"tags"`
	Source   entities.Source `json:"source"`
	Notes    string          `json:"notes"`
}

// Create registers the draft's subject if new, allocates the next serial in
// the target module file and appends the entry.
func (e *Editor) Create(draft EntryDraft) (entities.KBEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if draft.Question == "" || draft.Answer == "" {
		return entities.KBEntry{}, fmt.Errorf("entry needs both question and answer")
	}
	// Reject a bad semester before resolveSubject can register a new subject.
	if _, err := SemesterRoman(draft.Semester); err != nil {
		return entities.KBEntry{}, err
	}

	subject, err := e.resolveSubject(draft.Subject)
	if err != nil {
		return entities.KBEntry{}, err
	}

	path, err := e.moduleFile(draft.Semester, subject, draft.Module)
	if err != nil {
		return entities.KBEntry{}, err
	}
	entries, err := readModuleFile(path)
	if err != nil {
		return entities.KBEntry{}, err
	}

	ids := make([]string, len(entries))
	for i, entry := range entries {
		ids[i] = entry.ID
	}

	entry := entities.KBEntry{
		ID:        GenerateID(draft.Semester, subject, draft.Module, nextSerial(ids)),
		Question:  draft.Question,
		Answer:    draft.Answer,
		Tags:      draft.Tags,
		Source:    draft.Source,
		Notes:     draft.Notes,
		CreatedAt: time.Now(),
	}

	entries = append(entries, entry)
	if err := writeModuleFile(path, entries); err != nil {
		return entities.KBEntry{}, err
	}
	return entry, nil
}

// Update replaces the editable fields of an existing entry in place.
// The same question/answer requirement as Create applies: an entry missing
// either field would fail every later load and wedge rebuilds.
func (e *Editor) Update(id string, draft EntryDraft) (entities.KBEntry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if draft.Question == "" || draft.Answer == "" {
		return entities.KBEntry{}, fmt.Errorf("entry needs both question and answer")
	}

	path, entries, idx, err := e.locate(id)
	if err != nil {
		return entities.KBEntry{}, err
	}

	entry := entries[idx]
	entry.Question = draft.Question
	entry.Answer = draft.Answer
	entry.Tags = draft.Tags
	entry.Notes = draft.Notes
	entry.Modified = time.Now()
	entries[idx] = entry

	if err := writeModuleFile(path, entries); err != nil {
		return entities.KBEntry{}, err
	}
	return entry, nil
}

// Delete removes an entry from its module file.
func (e *Editor) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	path, entries, idx, err := e.locate(id)
	if err != nil {
		return err
	}

	entries = append(entries[:idx], entries[idx+1:]...)
	return writeModuleFile(path, entries)
}

// locate resolves an id to its module file and position within it.
func (e *Editor) locate(id string) (string, []entities.KBEntry, int, error) {
	semester, subject, module, err := ParseID(id)
	if err != nil {
		return "", nil, 0, err
	}
	path, err := e.moduleFile(semester, subject, module)
	if err != nil {
		return "", nil, 0, err
	}
	entries, err := readModuleFile(path)
	if err != nil {
		return "", nil, 0, err
	}
	for i, entry := range entries {
		if entry.ID == id {
			return path, entries, i, nil
		}
	}
	return "", nil, 0, fmt.Errorf("entry %q: %w", id, ports.ErrNotFound)
}

// moduleFile resolves (and creates, when missing) the JSON file an entry
// belongs to: Sem-<roman>/<subject>/Sem-<roman>_<subject>_Mod-<module>.json.
func (e *Editor) moduleFile(semester int, subject string, module int) (string, error) {
	roman, err := SemesterRoman(semester)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(e.dir, "Sem-"+roman, subject)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating subject directory: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("Sem-%s_%s_Mod-%d.json", roman, subject, module))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return "", fmt.Errorf("creating module file: %w", err)
		}
	}
	return path, nil
}

func readModuleFile(path string) ([]entities.KBEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var entries []entities.KBEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%s: invalid JSON: %w", path, err)
	}
	return entries, nil
}

func writeModuleFile(path string, entries []entities.KBEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
