package configstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const seedSkill = "create-project-folder"

func TestLoadMissingFileIsEmpty(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir(), seedSkill)
	cfg, err := s.Load("fresh")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SkillCompleted(seedSkill) {
		t.Fatal("empty config should have nothing completed")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir(), seedSkill)
	cfg := NewConfig()
	cfg.MarkCompleted(seedSkill)
	cfg.MarkCompleted("install-git")
	cfg.SetMeta("VERCEL_PROJECT_URL", "https://demo.vercel.app")
	if err := s.Save("p1", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("p1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.SkillCompleted(seedSkill) || !got.SkillCompleted("install-git") {
		t.Fatal("completion markers lost in round trip")
	}
	if got.VercelProjectURL() != "https://demo.vercel.app" {
		t.Fatalf("meta lost: %q", got.VercelProjectURL())
	}
}

func TestSaveWritesSortedKeys(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir, seedSkill)
	cfg := NewConfig()
	cfg.MarkCompleted("zeta")
	cfg.MarkCompleted("alpha")
	cfg.SetMeta("mid", "v")
	if err := s.Save("p1", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}
	raw, err := os.ReadFile(filepath.Join(dir, "p1", "version.ini"))
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	want := []string{"alpha=completed", "mid=v", "zeta=completed"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	s := New(dir, seedSkill)
	if err := s.Save("p1", NewConfig()); err != nil {
		t.Fatalf("Save: %v", err)
	}
	entries, err := os.ReadDir(filepath.Join(dir, "p1"))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Fatalf("temp file left behind: %s", e.Name())
		}
	}
}

func TestResetIdempotent(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir(), seedSkill)
	cfg := NewConfig()
	cfg.MarkCompleted("install-git")
	cfg.SetMeta("user_id", "u1")
	if err := s.Save("p1", cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	first, err := s.Reset("p1")
	if err != nil {
		t.Fatalf("Reset: %v", err)
	}
	second, err := s.Reset("p1")
	if err != nil {
		t.Fatalf("Reset twice: %v", err)
	}
	for _, cfg := range []*Config{first, second} {
		if !cfg.SkillCompleted(seedSkill) {
			t.Fatal("reset must seed the root skill")
		}
		if cfg.SkillCompleted("install-git") || cfg.UserID() != "" {
			t.Fatal("reset must discard prior progress")
		}
	}
}

func TestValidProject(t *testing.T) {
	t.Parallel()
	valid := []string{"starter", "my-project", "p_1"}
	invalid := []string{"", ".", "..", "a/b", `a\b`, "../escape"}
	for _, name := range valid {
		if !ValidProject(name) {
			t.Errorf("ValidProject(%q) = false, want true", name)
		}
	}
	for _, name := range invalid {
		if ValidProject(name) {
			t.Errorf("ValidProject(%q) = true, want false", name)
		}
	}
}

func TestLoadRejectsInvalidProject(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir(), seedSkill)
	if _, err := s.Load("../escape"); err == nil {
		t.Fatal("expected error for traversal name")
	}
}

func TestSetMetaRoutesCompletionMarker(t *testing.T) {
	t.Parallel()
	cfg := NewConfig()
	cfg.SetMeta("install-git", "completed")
	if !cfg.SkillCompleted("install-git") {
		t.Fatal("completed value must land in the completion set")
	}
	cfg.SetMeta("install-git", "in progress")
	if cfg.SkillCompleted("install-git") {
		t.Fatal("overwriting with a plain value must clear the marker")
	}
	if cfg.Meta("install-git") != "in progress" {
		t.Fatal("plain value lost")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	t.Parallel()
	cfg := NewConfig()
	cfg.MarkCompleted("a")
	clone := cfg.Clone()
	clone.MarkCompleted("b")
	clone.SetMeta("k", "v")
	if cfg.SkillCompleted("b") || cfg.Meta("k") != "" {
		t.Fatal("mutating the clone leaked into the original")
	}
}

func TestProjects(t *testing.T) {
	t.Parallel()
	s := New(t.TempDir(), seedSkill)
	for _, p := range []string{"beta", "alpha"} {
		if _, err := s.EnsureProject(p); err != nil {
			t.Fatalf("EnsureProject: %v", err)
		}
	}
	got, err := s.Projects()
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("Projects = %v, want [alpha beta]", got)
	}
}
