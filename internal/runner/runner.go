// Package runner invokes the external commands actions depend on: tool
// probes, CLI invocations, file downloads, and archive extraction.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// DefaultTimeout bounds a single external invocation when the caller's
// context carries no deadline of its own.
const DefaultTimeout = 10 * time.Minute

// ErrTimeout marks an invocation killed by its deadline. Callers distinguish
// it from ordinary non-zero exits with errors.Is.
var ErrTimeout = errors.New("command timed out")

// Runner executes external commands with a bounded lifetime.
type Runner struct {
	Timeout time.Duration // 0 = DefaultTimeout
}

func (r *Runner) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

// Run executes name with args in dir and returns combined stdout+stderr.
// The process is killed when the deadline passes; the returned error then
// wraps ErrTimeout.
func (r *Runner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	if dir != "" {
		cmd.Dir = dir
	}
	start := time.Now()
	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			slog.Warn("command timed out", "cmd", name, "elapsed", time.Since(start))
			return output, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), ErrTimeout)
		}
		return output, fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, output)
	}
	return output, nil
}

// Shell runs a command line through sh -c in dir.
func (r *Runner) Shell(ctx context.Context, dir, line string) (string, error) {
	return r.Run(ctx, dir, "sh", "-c", line)
}

// Probe reports whether tool responds to `--version`. A missing binary or a
// non-zero exit both mean not installed; the version string is returned when
// it is.
func (r *Runner) Probe(ctx context.Context, tool string) (string, bool) {
	if _, err := exec.LookPath(tool); err != nil {
		return "", false
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	out, err := exec.CommandContext(ctx, tool, "--version").CombinedOutput()
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(string(out))
	if i := strings.IndexByte(v, '\n'); i >= 0 {
		v = v[:i]
	}
	return v, true
}
