// Package executor binds skills to external actions and runs them through a
// single guarded path: resolve, idempotence check, unlock and level gates,
// invoke, persist, announce.
package executor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/internal/progress"
	"github.com/salavey13/carTest/internal/runner"
)

// Invocation is everything an action gets to work with. Config is a clone;
// actions report changes through Result.Extra instead of writing files
// themselves.
type Invocation struct {
	Project  string
	Dir      string
	Config   *configstore.Config
	Settings *config.Settings
	Runner   *runner.Runner
	Bus      *progress.Bus
}

// RepoDir returns the working copy of the template inside the project
// directory.
func (inv Invocation) RepoDir() string {
	return filepath.Join(inv.Dir, repoName(inv.Settings.TemplateRepo))
}

// repoName derives the checkout directory name from the template URL.
func repoName(templateURL string) string {
	base := filepath.Base(strings.TrimSuffix(templateURL, "/"))
	base = strings.TrimSuffix(base, ".git")
	if base == "" || base == "." {
		return "project"
	}
	return base
}

// Result is what a successful action reports back.
type Result struct {
	Message string
	// Extra holds config pairs to merge before saving.
	Extra map[string]string
	// Pending marks a run that did useful work but did not finish the
	// skill (an installer was downloaded but not yet run). The completion
	// marker is withheld.
	Pending bool
}

// Action performs the external work behind one skill.
type Action interface {
	Run(ctx context.Context, inv Invocation) (Result, error)
}

// ActionFunc adapts a function to Action.
type ActionFunc func(ctx context.Context, inv Invocation) (Result, error)

func (f ActionFunc) Run(ctx context.Context, inv Invocation) (Result, error) {
	return f(ctx, inv)
}
