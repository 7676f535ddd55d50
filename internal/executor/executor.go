package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/internal/leaderboard"
	"github.com/salavey13/carTest/internal/metrics"
	"github.com/salavey13/carTest/internal/progress"
	"github.com/salavey13/carTest/internal/runner"
	"github.com/salavey13/carTest/internal/skill"
	"github.com/salavey13/carTest/pkg/models"
)

// Executor runs skill actions. One instance serves the whole daemon; the
// per-project store lock serializes everything between load and save so two
// concurrent executes for the same project cannot interleave.
type Executor struct {
	Store    *configstore.Store
	Catalog  *skill.Catalog
	Engine   *progress.Engine
	Bus      *progress.Bus
	Runner   *runner.Runner
	Settings *config.Settings
	Board    *leaderboard.Store

	actions map[string]Action
}

// New wires an executor with the default action bindings.
func New(store *configstore.Store, catalog *skill.Catalog, engine *progress.Engine, bus *progress.Bus, run *runner.Runner, settings *config.Settings, board *leaderboard.Store) *Executor {
	e := &Executor{
		Store:    store,
		Catalog:  catalog,
		Engine:   engine,
		Bus:      bus,
		Runner:   run,
		Settings: settings,
		Board:    board,
	}
	e.actions = e.buildActions()
	return e
}

// Bind replaces the action for a skill. Tests use it to substitute spies.
func (e *Executor) Bind(skillID string, a Action) {
	e.actions[skillID] = a
}

// Execute runs the action behind skillID for project and persists the
// completion marker on success. The returned ExecuteResult is only valid
// when err is nil; every failure mode is a typed error from errors.go.
func (e *Executor) Execute(ctx context.Context, project, skillID string) (models.ExecuteResult, error) {
	var zero models.ExecuteResult

	if !configstore.ValidProject(project) {
		return zero, &InvalidProjectError{Name: project}
	}
	sk, ok := e.Catalog.Get(skillID)
	if !ok {
		return zero, &UnknownSkillError{ID: skillID}
	}
	act := e.actions[skillID]
	if act == nil {
		return zero, &UnknownSkillError{ID: skillID}
	}

	unlock := e.Store.Lock(project)
	defer unlock()

	cfg, err := e.Store.Load(project)
	if err != nil {
		return zero, &PersistenceError{Project: project, Err: err}
	}

	if cfg.SkillCompleted(skillID) {
		metrics.RecordActionRun(skillID, "rejected")
		return zero, &AlreadyCompletedError{ID: skillID}
	}
	if !e.Catalog.Unlocked(skillID, cfg) {
		var missing []string
		for _, dep := range sk.Dependencies {
			if !cfg.SkillCompleted(dep) {
				missing = append(missing, dep)
			}
		}
		metrics.RecordActionRun(skillID, "rejected")
		return zero, &LockedError{ID: skillID, Missing: missing}
	}
	if current := e.Engine.Level(cfg); sk.RequiredLevel > current {
		metrics.RecordActionRun(skillID, "rejected")
		return zero, &InsufficientLevelError{ID: skillID, Required: sk.RequiredLevel, Current: current}
	}

	dir, err := e.Store.EnsureProject(project)
	if err != nil {
		return zero, &PersistenceError{Project: project, Err: err}
	}

	inv := Invocation{
		Project:  project,
		Dir:      dir,
		Config:   cfg.Clone(),
		Settings: e.Settings,
		Runner:   e.Runner,
		Bus:      e.Bus,
	}

	e.Bus.Progress(skillID, fmt.Sprintf("Running %s...", sk.Name), 0)
	slog.Info("executing action", "project", project, "skill", skillID)

	// Every invocation runs under the configured action timeout, so actions
	// that bypass Runner (git, downloads, HTTP calls) cannot hang forever.
	actionTimeout := runner.DefaultTimeout
	if e.Settings != nil {
		actionTimeout = e.Settings.Timeout()
	}
	actCtx, cancel := context.WithTimeout(ctx, actionTimeout)
	defer cancel()

	start := time.Now()
	res, err := act.Run(actCtx, inv)
	metrics.ObserveActionDuration(skillID, time.Since(start).Seconds())
	if err != nil {
		outcome := "failed"
		timeout := errors.Is(err, runner.ErrTimeout) || errors.Is(err, context.DeadlineExceeded)
		if timeout {
			outcome = "timeout"
		}
		metrics.RecordActionRun(skillID, outcome)
		e.Bus.Fail(skillID, err.Error())
		slog.Error("action failed", "project", project, "skill", skillID, "err", err)
		return zero, &ExternalActionError{ID: skillID, Output: res.Message, Timeout: timeout, Err: err}
	}

	if res.Pending {
		metrics.RecordActionRun(skillID, "ok")
		e.Bus.Progress(skillID, res.Message, 99)
		return models.ExecuteResult{Message: res.Message, Refresh: false}, nil
	}

	cfg.Merge(res.Extra)
	cfg.MarkCompleted(skillID)
	if err := e.Store.Save(project, cfg); err != nil {
		metrics.RecordActionRun(skillID, "failed")
		e.Bus.Fail(skillID, "progress could not be saved")
		return zero, &PersistenceError{Project: project, Err: err}
	}

	metrics.RecordActionRun(skillID, "ok")
	e.Bus.Done(skillID, fmt.Sprintf("%s completed", sk.Name))
	slog.Info("action completed", "project", project, "skill", skillID)
	return models.ExecuteResult{Message: res.Message, Refresh: true}, nil
}
