package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/salavey13/carTest/internal/capabilities"
	"github.com/salavey13/carTest/internal/gitops"
	"github.com/salavey13/carTest/internal/leaderboard"
	"github.com/salavey13/carTest/internal/progress"
	"github.com/salavey13/carTest/internal/runner"
	"github.com/salavey13/carTest/internal/skill"
	"github.com/salavey13/carTest/pkg/models"
)

// installerURLs are the Windows installer downloads offered when a tool
// probe fails. Other platforms get a package-manager hint instead.
var installerURLs = map[string]string{
	"git":      "https://github.com/git-for-windows/git/releases/latest/download/Git-64-bit.exe",
	"node":     "https://nodejs.org/dist/latest/node-x64.msi",
	"code":     "https://update.code.visualstudio.com/latest/win32-x64-user/stable",
	"notepad++": "https://github.com/notepad-plus-plus/notepad-plus-plus/releases/latest",
}

func (e *Executor) buildActions() map[string]Action {
	return map[string]Action{
		skill.RootID:           ActionFunc(e.createProjectFolder),
		"install-git":          e.installTool("git"),
		"install-node":         e.installTool("node"),
		"install-vscode":       e.installTool("code"),
		"install-notepad":      e.installTool("notepad++"),
		"clone-repo":           ActionFunc(e.cloneRepo),
		"pull-git-updates":     ActionFunc(e.pullUpdates),
		"apply-zip-updates":    ActionFunc(e.applyZipUpdates),
		"create-pull-request":  ActionFunc(e.createPullRequest),
		"install-supabase-cli": e.installNpmTool("supabase"),
		"init-supabase":        ActionFunc(e.initSupabase),
		"reset-supabase-db":    ActionFunc(e.resetSupabaseDB),
		"seed-demo-data":       ActionFunc(e.seedDemoData),
		"apply-custom-sql":     ActionFunc(e.applyCustomSQL),
		"install-vercel-cli":   e.installNpmTool("vercel"),
		"link-vercel":          ActionFunc(e.linkVercel),
		"sync-env-vars":        ActionFunc(e.syncEnvVars),
		"setup-telegram-bot":   ActionFunc(e.setupTelegramBot),
		"set-webhook":          ActionFunc(e.setWebhook),
		"unlock-leaderboard":   ActionFunc(e.unlockLeaderboard),
		"generate-embeddings":  ActionFunc(e.generateEmbeddings),
		"hidden-achievement-1": e.easterEgg("You found a hidden achievement! Keep exploring."),
		"hidden-achievement-2": e.easterEgg("Another hidden achievement! You are observant and curious."),
	}
}

// easterEgg is an action with no external work; clicking the node is the
// achievement.
func (e *Executor) easterEgg(message string) Action {
	return ActionFunc(func(ctx context.Context, inv Invocation) (Result, error) {
		return Result{Message: message}, nil
	})
}

func (e *Executor) createProjectFolder(ctx context.Context, inv Invocation) (Result, error) {
	// The directory is created by Execute before any action runs; this
	// action exists so the root shows up in the tree like everything else.
	return Result{Message: fmt.Sprintf("Project folder ready at %s", inv.Dir)}, nil
}

// installTool probes for a binary and, when it is missing on Windows,
// downloads the installer instead of failing. The skill stays incomplete
// until a later run finds the tool on PATH.
func (e *Executor) installTool(tool string) Action {
	return ActionFunc(func(ctx context.Context, inv Invocation) (Result, error) {
		if version, ok := inv.Runner.Probe(ctx, tool); ok {
			return Result{
				Message: fmt.Sprintf("%s is installed (%s)", tool, version),
				Extra:   map[string]string{tool + "_installed": "completed"},
			}, nil
		}
		url, haveURL := installerURLs[tool]
		if goruntime.GOOS != "windows" || !haveURL {
			return Result{}, fmt.Errorf("%s not found on PATH: install it with your package manager and retry", tool)
		}
		dest := filepath.Join(inv.Dir, "downloads", tool+"-installer"+filepath.Ext(url))
		inv.Bus.Progress(tool, fmt.Sprintf("Downloading %s installer...", tool), 1)
		err := runner.Download(ctx, url, dest, func(pct int) {
			inv.Bus.Progress(tool, fmt.Sprintf("Downloading %s installer...", tool), pct)
		})
		if err != nil {
			return Result{}, err
		}
		return Result{
			Message: fmt.Sprintf("Installer saved to %s: run it, then retry this skill", dest),
			Pending: true,
		}, nil
	})
}

// installNpmTool installs a CLI through npm when the probe fails, then
// probes again.
func (e *Executor) installNpmTool(tool string) Action {
	return ActionFunc(func(ctx context.Context, inv Invocation) (Result, error) {
		if version, ok := inv.Runner.Probe(ctx, tool); ok {
			return Result{
				Message: fmt.Sprintf("%s is installed (%s)", tool, version),
				Extra:   map[string]string{tool + "_installed": "completed"},
			}, nil
		}
		inv.Bus.Progress(tool, fmt.Sprintf("Installing %s via npm...", tool), 10)
		if out, err := inv.Runner.Run(ctx, inv.Dir, "npm", "install", "-g", tool); err != nil {
			return Result{Message: out}, err
		}
		version, ok := inv.Runner.Probe(ctx, tool)
		if !ok {
			return Result{}, fmt.Errorf("%s installed but not found on PATH: open a new terminal and retry", tool)
		}
		return Result{
			Message: fmt.Sprintf("%s installed (%s)", tool, version),
			Extra:   map[string]string{tool + "_installed": "completed"},
		}, nil
	})
}

func (e *Executor) cloneRepo(ctx context.Context, inv Invocation) (Result, error) {
	inv.Bus.Progress("clone-repo", "Cloning template repository...", 10)
	sha, err := gitops.Clone(ctx, inv.Settings.TemplateRepo, inv.RepoDir())
	if err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Template cloned at %s (HEAD %.8s)", inv.RepoDir(), sha)}, nil
}

func (e *Executor) pullUpdates(ctx context.Context, inv Invocation) (Result, error) {
	if !gitops.IsRepo(inv.RepoDir()) {
		return Result{}, fmt.Errorf("no working copy at %s: clone the template first", inv.RepoDir())
	}
	summary, err := gitops.Pull(ctx, inv.RepoDir())
	if err != nil {
		return Result{}, err
	}
	return Result{Message: "Updates pulled: " + summary}, nil
}

// applyZipUpdates unpacks the newest archive from the project's downloads
// directory over the working copy.
func (e *Executor) applyZipUpdates(ctx context.Context, inv Invocation) (Result, error) {
	zipPath, err := newestZip(filepath.Join(inv.Dir, "downloads"))
	if err != nil {
		return Result{}, err
	}
	inv.Bus.Progress("apply-zip-updates", "Extracting "+filepath.Base(zipPath), 30)
	if err := runner.ExtractZip(zipPath, inv.RepoDir()); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Applied %s over the working copy", filepath.Base(zipPath))}, nil
}

func newestZip(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("no downloads directory: put the update .zip under %s", dir)
	}
	var zips []string
	for _, en := range entries {
		if !en.IsDir() && strings.HasSuffix(en.Name(), ".zip") {
			zips = append(zips, en.Name())
		}
	}
	if len(zips) == 0 {
		return "", fmt.Errorf("no .zip archives under %s", dir)
	}
	sort.Slice(zips, func(i, j int) bool {
		fi, _ := os.Stat(filepath.Join(dir, zips[i]))
		fj, _ := os.Stat(filepath.Join(dir, zips[j]))
		if fi == nil || fj == nil {
			return zips[i] < zips[j]
		}
		return fi.ModTime().After(fj.ModTime())
	})
	return filepath.Join(dir, zips[0]), nil
}

func (e *Executor) createPullRequest(ctx context.Context, inv Invocation) (Result, error) {
	repo := inv.RepoDir()
	dirty, err := gitops.HasChanges(ctx, repo)
	if err != nil {
		return Result{}, err
	}
	if !dirty {
		return Result{}, fmt.Errorf("working copy is clean: change something before opening a pull request")
	}
	branch := "update-" + uuid.NewString()[:8]
	inv.Bus.Progress("create-pull-request", "Pushing branch "+branch, 40)
	if _, err := gitops.CommitAndPushBranch(ctx, repo, branch, "Apply local updates"); err != nil {
		return Result{}, err
	}
	return Result{
		Message: fmt.Sprintf("Branch %s pushed: open the pull request on GitHub", branch),
		Extra:   map[string]string{progress.KeyPullRequestCreated: "completed"},
	}, nil
}

// initSupabase links the working copy to a Supabase project. Without a
// project id in the config it falls back to the shared demo database so
// nobody is blocked on creating an account.
func (e *Executor) initSupabase(ctx context.Context, inv Invocation) (Result, error) {
	repo := inv.RepoDir()
	if _, err := inv.Runner.Run(ctx, repo, "supabase", "init"); err != nil {
		// Re-running init on an initialized copy fails; that is fine.
		if _, statErr := os.Stat(filepath.Join(repo, "supabase")); statErr != nil {
			return Result{}, err
		}
	}
	projectID := inv.Config.SupabaseProjectID()
	if projectID == "" {
		return Result{
			Message: "Supabase initialized against the shared demo database",
			Extra: map[string]string{
				"SUPABASE_PROJECT_ID": "demo",
				"SUPABASE_DEMO":       "true",
			},
		}, nil
	}
	inv.Bus.Progress("init-supabase", "Linking project "+projectID, 60)
	if out, err := inv.Runner.Run(ctx, repo, "supabase", "link", "--project-ref", projectID); err != nil {
		return Result{Message: out}, err
	}
	return Result{Message: "Supabase project " + projectID + " linked"}, nil
}

func (e *Executor) resetSupabaseDB(ctx context.Context, inv Invocation) (Result, error) {
	inv.Bus.Progress("reset-supabase-db", "Resetting database...", 20)
	if out, err := inv.Runner.Run(ctx, inv.RepoDir(), "supabase", "db", "reset"); err != nil {
		return Result{Message: out}, err
	}
	return Result{Message: "Database reset to its initial state"}, nil
}

func (e *Executor) seedDemoData(ctx context.Context, inv Invocation) (Result, error) {
	repo := inv.RepoDir()
	seed := filepath.Join(repo, "supabase", "seed.sql")
	if _, err := os.Stat(seed); err != nil {
		return Result{}, fmt.Errorf("no seed file at %s", seed)
	}
	inv.Bus.Progress("seed-demo-data", "Loading demo rows...", 40)
	if out, err := inv.Runner.Shell(ctx, repo, "supabase db reset --no-seed=false"); err != nil {
		return Result{Message: out}, err
	}
	return Result{Message: "Demo data loaded"}, nil
}

func (e *Executor) applyCustomSQL(ctx context.Context, inv Invocation) (Result, error) {
	repo := inv.RepoDir()
	script := filepath.Join(repo, "custom.sql")
	if _, err := os.Stat(script); err != nil {
		return Result{}, fmt.Errorf("no custom.sql in %s: create one first", repo)
	}
	if out, err := inv.Runner.Shell(ctx, repo, "supabase db query < custom.sql"); err != nil {
		return Result{Message: out}, err
	}
	return Result{Message: "custom.sql applied"}, nil
}

func (e *Executor) linkVercel(ctx context.Context, inv Invocation) (Result, error) {
	repo := inv.RepoDir()
	inv.Bus.Progress("link-vercel", "Linking Vercel project...", 30)
	if out, err := inv.Runner.Run(ctx, repo, "vercel", "link", "--yes"); err != nil {
		return Result{Message: out}, err
	}
	url := fmt.Sprintf("https://%s.vercel.app", inv.Project)
	return Result{
		Message: "Vercel project linked: " + url,
		Extra:   map[string]string{"VERCEL_PROJECT_URL": url},
	}, nil
}

func (e *Executor) syncEnvVars(ctx context.Context, inv Invocation) (Result, error) {
	repo := inv.RepoDir()
	inv.Bus.Progress("sync-env-vars", "Pulling environment into .env...", 50)
	if out, err := inv.Runner.Run(ctx, repo, "vercel", "env", "pull", ".env"); err != nil {
		return Result{Message: out}, err
	}
	return Result{Message: ".env synced from the deployment"}, nil
}

func (e *Executor) setupTelegramBot(ctx context.Context, inv Invocation) (Result, error) {
	token := inv.Config.TelegramBotToken()
	chat := inv.Config.AdminChatID()
	if token == "" || chat == "" {
		return Result{}, fmt.Errorf("set TELEGRAM_BOT_TOKEN and ADMIN_CHAT_ID in the project config first")
	}
	tg := &capabilities.Telegram{Token: token, ChatID: chat}
	username, err := tg.GetMe(ctx)
	if err != nil {
		return Result{}, err
	}
	if err := tg.Notify(ctx, "Questboard: bot wired up 🎉"); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Bot @%s verified and admin chat reachable", username)}, nil
}

func (e *Executor) setWebhook(ctx context.Context, inv Invocation) (Result, error) {
	base := inv.Config.VercelProjectURL()
	if base == "" {
		return Result{}, fmt.Errorf("no deployment URL yet: link the Vercel project first")
	}
	tg := &capabilities.Telegram{Token: inv.Config.TelegramBotToken()}
	hook := strings.TrimSuffix(base, "/") + "/api/telegramWebhook"
	if err := tg.SetWebhook(ctx, hook); err != nil {
		return Result{}, err
	}
	return Result{
		Message: "Webhook pointed at " + hook,
		Extra:   map[string]string{progress.KeyWebhookSet: "completed"},
	}, nil
}

// unlockLeaderboard publishes the user's snapshot once enough achievements
// are in; below the threshold it refuses, which keeps the Mythic slot
// honest.
func (e *Executor) unlockLeaderboard(ctx context.Context, inv Invocation) (Result, error) {
	met := e.Engine.MetCount(inv.Config)
	if met < leaderboard.UnlockThreshold {
		return Result{}, fmt.Errorf("leaderboard opens at %d achievements, you have %d", leaderboard.UnlockThreshold, met)
	}
	userID := inv.Config.UserID()
	extra := map[string]string{progress.KeyLeaderboardUnlocked: "completed"}
	if userID == "" {
		userID = uuid.NewString()
		extra["user_id"] = userID
	}
	var elapsed int64
	if start := inv.Config.StartTime(); start > 0 {
		elapsed = time.Now().Unix() - start
	}
	if e.Board != nil {
		entry := models.LeaderboardEntry{
			UserID:       userID,
			Project:      inv.Project,
			Level:        e.Engine.Level(inv.Config),
			Achievements: met,
			TotalSeconds: elapsed,
		}
		if err := e.Board.Record(ctx, entry); err != nil {
			return Result{}, err
		}
	}
	return Result{Message: "You are on the leaderboard 🏆", Extra: extra}, nil
}

func (e *Executor) generateEmbeddings(ctx context.Context, inv Invocation) (Result, error) {
	repo := inv.RepoDir()
	inv.Bus.Progress("generate-embeddings", "Building the search index...", 20)
	if out, err := inv.Runner.Run(ctx, repo, "npm", "run", "generate-embeddings"); err != nil {
		return Result{Message: out}, err
	}
	return Result{
		Message: "Embeddings generated",
		Extra:   map[string]string{progress.KeyEmbeddingsGenerated: "completed"},
	}, nil
}
