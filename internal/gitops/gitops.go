// Package gitops wraps the git CLI operations the setup tree exposes:
// cloning the template, pulling updates, and pushing a branch for review.
package gitops

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Clone clones url into dir. If dir already holds a repository it returns
// the current HEAD without re-cloning, so repeated runs are safe.
func Clone(ctx context.Context, url, dir string) (headSHA string, err error) {
	if url == "" || dir == "" {
		return "", fmt.Errorf("url and dir required")
	}
	if _, statErr := os.Stat(dir + "/.git"); statErr == nil {
		return HeadSHA(ctx, dir)
	}
	cmd := exec.CommandContext(ctx, "git", "clone", url, dir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git clone: %w: %s", err, string(out))
	}
	return HeadSHA(ctx, dir)
}

// Pull fast-forwards dir from its origin and returns git's own summary line.
func Pull(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "pull", "--ff-only")
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git pull: %w: %s", err, string(out))
	}
	return strings.TrimSpace(string(out)), nil
}

// HeadSHA returns the current commit hash of dir.
func HeadSHA(ctx context.Context, dir string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git rev-parse: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is a git working copy.
func IsRepo(dir string) bool {
	_, err := os.Stat(dir + "/.git")
	return err == nil
}

// HasChanges reports whether the working copy has uncommitted changes.
func HasChanges(ctx context.Context, dir string) (bool, error) {
	cmd := exec.CommandContext(ctx, "git", "status", "--porcelain")
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		return false, fmt.Errorf("git status: %w", err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}

// CommitAndPushBranch stages everything in dir, commits with message, and
// pushes a new branch to origin. Returns the branch name.
func CommitAndPushBranch(ctx context.Context, dir, branch, message string) (string, error) {
	if branch == "" || message == "" {
		return "", fmt.Errorf("branch and message required")
	}
	steps := [][]string{
		{"checkout", "-b", branch},
		{"add", "-A"},
		{"commit", "-m", message},
		{"push", "-u", "origin", branch},
	}
	for _, args := range steps {
		cmd := exec.CommandContext(ctx, "git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			return "", fmt.Errorf("git %s: %w: %s", args[0], err, string(out))
		}
	}
	return branch, nil
}
