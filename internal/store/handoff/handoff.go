// Package handoff carries the submitted questionnaire from the
// questionnaire view to the results view.
package handoff

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Makepad-fr/destinai/internal/model"
)

// Store holds at most one questionnaire. Put replaces it, Get does not
// consume it.
type Store interface {
	Put(q model.Questionnaire) error
	Get() (model.Questionnaire, bool, error)
	Clear() error
}

// Memory lives as long as the process, which is one TUI session.
type Memory struct {
	mu  sync.Mutex
	q   model.Questionnaire
	set bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Put(q model.Questionnaire) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.Activities = append([]string(nil), q.Activities...)
	m.q, m.set = q, true
	return nil
}

func (m *Memory) Get() (model.Questionnaire, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return model.Questionnaire{}, false, nil
	}
	q := m.q
	q.Activities = append([]string(nil), q.Activities...)
	return q, true, nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.q, m.set = model.Questionnaire{}, false
	return nil
}

const fileName = "questionnaire.json"

// File keeps the questionnaire in <dir>/questionnaire.json so separate CLI
// invocations can share it. Single user, no locking.
type File struct {
	dir string
}

func NewFile(dir string) *File { return &File{dir: dir} }

func (f *File) Path() string { return filepath.Join(f.dir, fileName) }

func (f *File) Put(q model.Questionnaire) error {
	if err := os.MkdirAll(f.dir, 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	b, err := json.MarshalIndent(q, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.WriteFile(f.Path(), b, 0o600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (f *File) Get() (model.Questionnaire, bool, error) {
	b, err := os.ReadFile(f.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Questionnaire{}, false, nil
		}
		return model.Questionnaire{}, false, fmt.Errorf("read file: %w", err)
	}
	var q model.Questionnaire
	if err := json.Unmarshal(b, &q); err != nil {
		return model.Questionnaire{}, false, fmt.Errorf("json unmarshal: %w", err)
	}
	return q, true, nil
}

func (f *File) Clear() error {
	if err := os.Remove(f.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}
