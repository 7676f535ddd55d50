// Package configstore persists per-project setup progress as a flat
// key=value file (version.ini) under the projects directory. The file is
// the single source of truth for what a user has completed; everything the
// dashboard renders is re-derived from it.
//
// Known limitation inherited from the file format: keys and values must not
// contain '=' or newlines; there is no escaping.
package configstore

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const configFileName = "version.ini"

// Store reads and writes project configs. Mutations must go through the
// per-project lock so concurrent load-mutate-save cycles serialize.
type Store struct {
	dir       string
	seedSkill string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New returns a store rooted at dir. seedSkill is the root skill id written
// by Reset and when seeding a fresh default project.
func New(dir, seedSkill string) *Store {
	return &Store{dir: dir, seedSkill: seedSkill, locks: make(map[string]*sync.Mutex)}
}

// Dir returns the projects root directory.
func (s *Store) Dir() string { return s.dir }

// ProjectDir returns the directory for a project.
func (s *Store) ProjectDir(project string) string {
	return filepath.Join(s.dir, project)
}

// ValidProject reports whether name is usable as a project identifier
// (a single path element, no traversal).
func ValidProject(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`)
}

// Lock acquires the per-project mutex and returns the unlock func.
// The executor holds it for the whole of its guard/gate/invoke/persist
// sequence; Reset takes it too.
func (s *Store) Lock(project string) func() {
	s.mu.Lock()
	l, ok := s.locks[project]
	if !ok {
		l = &sync.Mutex{}
		s.locks[project] = l
	}
	s.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// Load reads the project config. A missing file (or missing project) is not
// an error: it yields an empty config.
func (s *Store) Load(project string) (*Config, error) {
	if !ValidProject(project) {
		return nil, fmt.Errorf("invalid project name %q", project)
	}
	path := filepath.Join(s.ProjectDir(project), configFileName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewConfig(), nil
		}
		return nil, fmt.Errorf("load config for %s: %w", project, err)
	}
	defer func() { _ = f.Close() }()

	raw := make(map[string]string)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		i := strings.Index(line, "=")
		if i <= 0 {
			continue
		}
		raw[line[:i]] = line[i+1:]
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load config for %s: %w", project, err)
	}
	return fromMap(raw), nil
}

// Save overwrites the project config (not a merge). The write goes to a
// temp file in the same directory and is renamed into place so a crash
// never leaves a partial file.
func (s *Store) Save(project string, cfg *Config) error {
	if !ValidProject(project) {
		return fmt.Errorf("invalid project name %q", project)
	}
	dir := s.ProjectDir(project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save config for %s: %w", project, err)
	}
	tmp, err := os.CreateTemp(dir, configFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("save config for %s: %w", project, err)
	}
	tmpName := tmp.Name()
	raw := cfg.toMap()
	keys := cfg.sortedKeys()
	w := bufio.NewWriter(tmp)
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s=%s\n", k, raw[k]); err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
			return fmt.Errorf("save config for %s: %w", project, err)
		}
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("save config for %s: %w", project, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save config for %s: %w", project, err)
	}
	if err := os.Rename(tmpName, filepath.Join(dir, configFileName)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("save config for %s: %w", project, err)
	}
	return nil
}

// Reset replaces the project config with the single seed entry marking the
// root skill completed. Calling it twice yields the same single-entry file.
func (s *Store) Reset(project string) (*Config, error) {
	cfg := NewConfig()
	cfg.MarkCompleted(s.seedSkill)
	if err := s.Save(project, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// EnsureProject creates the project directory (and its config dir) if
// missing and returns its path.
func (s *Store) EnsureProject(project string) (string, error) {
	if !ValidProject(project) {
		return "", fmt.Errorf("invalid project name %q", project)
	}
	dir := s.ProjectDir(project)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return dir, nil
}

// Projects lists project directories under the root, creating the root on
// first use.
func (s *Store) Projects() ([]string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	var projects []string
	for _, e := range entries {
		if e.IsDir() {
			projects = append(projects, e.Name())
		}
	}
	sort.Strings(projects)
	return projects, nil
}
