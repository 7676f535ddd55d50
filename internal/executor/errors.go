package executor

import (
	"fmt"
	"strings"

	"github.com/salavey13/carTest/pkg/models"
)

// InvalidProjectError rejects a malformed project name before any file is
// touched.
type InvalidProjectError struct {
	Name string
}

func (e *InvalidProjectError) Error() string {
	return fmt.Sprintf("invalid project name %q", e.Name)
}

// UnknownSkillError reports a skill id absent from the catalog.
type UnknownSkillError struct {
	ID string
}

func (e *UnknownSkillError) Error() string {
	return fmt.Sprintf("unknown skill %q", e.ID)
}

// AlreadyCompletedError reports a completed skill. Re-running is a no-op and
// never a failure; callers surface it as success.
type AlreadyCompletedError struct {
	ID string
}

func (e *AlreadyCompletedError) Error() string {
	return fmt.Sprintf("skill %q already completed", e.ID)
}

// LockedError reports a skill whose dependencies are not all completed.
type LockedError struct {
	ID      string
	Missing []string
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("skill %q is locked: complete %s first", e.ID, strings.Join(e.Missing, ", "))
}

// InsufficientLevelError reports a skill gated above the user's tier.
type InsufficientLevelError struct {
	ID       string
	Required models.Level
	Current  models.Level
}

func (e *InsufficientLevelError) Error() string {
	return fmt.Sprintf("skill %q requires level %s, you are %s", e.ID, e.Required, e.Current)
}

// ExternalActionError reports a failed or timed-out external invocation.
// Output carries the command's combined output for the user.
type ExternalActionError struct {
	ID      string
	Output  string
	Timeout bool
	Err     error
}

func (e *ExternalActionError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("action %q timed out", e.ID)
	}
	return fmt.Sprintf("action %q failed: %v", e.ID, e.Err)
}

func (e *ExternalActionError) Unwrap() error { return e.Err }

// PersistenceError reports a config read or write failure. When it follows a
// successful invocation the completion marker was lost; re-running the
// action is the recovery path.
type PersistenceError struct {
	Project string
	Err     error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist progress for %q: %v", e.Project, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
