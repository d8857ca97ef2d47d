package kbstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const subjectsFile = "subjects.json"

// resolveSubject maps user input to a subject acronym, consulting the
// subjects.json registry (acronym -> full name). Input matching a known
// acronym or a known full name resolves to that acronym; anything else is
// registered as a new subject whose acronym is the upper-cased input with
// spaces turned into underscores.
func (e *Editor) resolveSubject(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("subject must not be empty")
	}

	registry, err := e.loadSubjects()
	if err != nil {
		return "", err
	}

	for code, name := range registry {
		if strings.EqualFold(input, code) || strings.EqualFold(input, name) {
			return code, nil
		}
	}

	code := strings.ToUpper(strings.ReplaceAll(input, " ", "_"))
	registry[code] = input
	if err := e.saveSubjects(registry); err != nil {
		return "", err
	}
	return code, nil
}

func (e *Editor) subjectsPath() string {
	return filepath.Join(e.dir, subjectsFile)
}

func (e *Editor) loadSubjects() (map[string]string, error) {
	data, err := os.ReadFile(e.subjectsPath())
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading subject registry: %w", err)
	}
	registry := map[string]string{}
	if err := json.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("subject registry: invalid JSON: %w", err)
	}
	return registry, nil
}

func (e *Editor) saveSubjects(registry map[string]string) error {
	data, err := json.MarshalIndent(registry, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding subject registry: %w", err)
	}
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}
	if err := os.WriteFile(e.subjectsPath(), data, 0o644); err != nil {
		return fmt.Errorf("writing subject registry: %w", err)
	}
	return nil
}
