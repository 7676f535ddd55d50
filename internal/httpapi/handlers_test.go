package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/executor"
	"github.com/salavey13/carTest/internal/skill"
	"github.com/salavey13/carTest/pkg/models"
)

type stubAction struct {
	result executor.Result
	err    error
}

func (s stubAction) Run(ctx context.Context, inv executor.Invocation) (executor.Result, error) {
	return s.result, s.err
}

func newTestApp(t *testing.T) (*App, *httptest.Server) {
	t.Helper()
	home := t.TempDir()
	app, err := NewApp(ServerOptions{
		Home:     home,
		Addr:     "127.0.0.1:0",
		Settings: config.DefaultSettings(home),
	})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = app.Board.Close() })
	return app, ts
}

func seedDefault(t *testing.T, app *App) {
	t.Helper()
	if _, err := app.Store.Reset(app.settings.DefaultProject); err != nil {
		t.Fatalf("seed: %v", err)
	}
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	t.Parallel()
	_, ts := newTestApp(t)
	var out struct {
		OK bool `json:"ok"`
	}
	if code := getJSON(t, ts.URL+"/health", &out); code != http.StatusOK || !out.OK {
		t.Fatalf("health: code=%d ok=%v", code, out.OK)
	}
}

func TestStateDefaultProject(t *testing.T) {
	t.Parallel()
	app, ts := newTestApp(t)
	seedDefault(t, app)

	var snap models.StateSnapshot
	if code := getJSON(t, ts.URL+"/state", &snap); code != http.StatusOK {
		t.Fatalf("state: code=%d", code)
	}
	if snap.Project != app.settings.DefaultProject {
		t.Fatalf("project = %q, want %q", snap.Project, app.settings.DefaultProject)
	}
	if len(snap.Skills) != app.Catalog.Len() {
		t.Fatalf("skills = %d, want %d", len(snap.Skills), app.Catalog.Len())
	}
	if snap.Level != models.LevelBeginner {
		t.Fatalf("level = %s, want Beginner", snap.Level)
	}
}

func TestExecuteStatusContract(t *testing.T) {
	t.Parallel()
	app, ts := newTestApp(t)
	seedDefault(t, app)
	app.Executor.Bind("install-git", stubAction{result: executor.Result{Message: "done"}})

	// Unknown skill: 404.
	if code := postJSON(t, ts.URL+"/execute", `{"skill":"ghost"}`, nil); code != http.StatusNotFound {
		t.Fatalf("unknown skill: code=%d, want 404", code)
	}
	// Locked skill: 403.
	if code := postJSON(t, ts.URL+"/execute", `{"skill":"clone-repo"}`, nil); code != http.StatusForbidden {
		t.Fatalf("locked skill: code=%d, want 403", code)
	}
	// Invalid project: 400.
	if code := postJSON(t, ts.URL+"/execute", `{"project":"../x","skill":"install-git"}`, nil); code != http.StatusBadRequest {
		t.Fatalf("invalid project: code=%d, want 400", code)
	}
	// Missing skill field: 400.
	if code := postJSON(t, ts.URL+"/execute", `{}`, nil); code != http.StatusBadRequest {
		t.Fatalf("missing skill: code=%d, want 400", code)
	}

	// Success: 200 with refresh.
	var res models.ExecuteResult
	if code := postJSON(t, ts.URL+"/execute", `{"skill":"install-git"}`, &res); code != http.StatusOK {
		t.Fatalf("success: code=%d, want 200", code)
	}
	if !res.Refresh || res.Message != "done" {
		t.Fatalf("result = %+v", res)
	}

	// Re-run: 400 with the result envelope, no refresh.
	res = models.ExecuteResult{}
	if code := postJSON(t, ts.URL+"/execute", `{"skill":"install-git"}`, &res); code != http.StatusBadRequest {
		t.Fatalf("rerun: code=%d, want 400", code)
	}
	if res.Refresh {
		t.Fatal("rerun must not request a refresh")
	}
	if res.Message == "" {
		t.Fatal("rerun response must carry a message")
	}
}

func TestExecuteOverGET(t *testing.T) {
	t.Parallel()
	app, ts := newTestApp(t)
	seedDefault(t, app)
	app.Executor.Bind("install-git", stubAction{result: executor.Result{Message: "done"}})

	var res models.ExecuteResult
	if code := getJSON(t, ts.URL+"/execute?skill=install-git", &res); code != http.StatusOK {
		t.Fatalf("GET execute: code=%d, want 200", code)
	}
	if !res.Refresh || res.Message != "done" {
		t.Fatalf("result = %+v", res)
	}

	// Missing skill parameter: 400.
	if code := getJSON(t, ts.URL+"/execute", nil); code != http.StatusBadRequest {
		t.Fatalf("missing skill param: code=%d, want 400", code)
	}

	// Already done over GET: 400 as well.
	res = models.ExecuteResult{}
	if code := getJSON(t, ts.URL+"/execute?skill=install-git", &res); code != http.StatusBadRequest {
		t.Fatalf("rerun over GET: code=%d, want 400", code)
	}
	if res.Refresh {
		t.Fatal("rerun must not request a refresh")
	}
}

func TestExecuteFailure(t *testing.T) {
	t.Parallel()
	app, ts := newTestApp(t)
	seedDefault(t, app)
	app.Executor.Bind("install-git", stubAction{err: context.DeadlineExceeded})

	var out struct {
		Error string `json:"error"`
	}
	if code := postJSON(t, ts.URL+"/execute", `{"skill":"install-git"}`, &out); code != http.StatusInternalServerError {
		t.Fatalf("failure: code=%d, want 500", code)
	}
	if out.Error == "" {
		t.Fatal("error body missing")
	}
}

func TestResetRoute(t *testing.T) {
	t.Parallel()
	app, ts := newTestApp(t)
	seedDefault(t, app)
	app.Executor.Bind("install-git", stubAction{result: executor.Result{Message: "done"}})
	if code := postJSON(t, ts.URL+"/execute", `{"skill":"install-git"}`, nil); code != http.StatusOK {
		t.Fatal("setup execute failed")
	}

	var snap models.StateSnapshot
	if code := postJSON(t, ts.URL+"/reset", `{}`, &snap); code != http.StatusOK {
		t.Fatalf("reset: code=%d", code)
	}
	for _, s := range snap.Skills {
		switch s.ID {
		case skill.RootID:
			if !s.Completed {
				t.Fatal("root must stay completed after reset")
			}
		default:
			if s.Completed {
				t.Fatalf("%s still completed after reset", s.ID)
			}
		}
	}
	if snap.Level != models.LevelBeginner {
		t.Fatalf("level after reset = %s, want Beginner", snap.Level)
	}
}

func TestResetOverGET(t *testing.T) {
	t.Parallel()
	app, ts := newTestApp(t)
	seedDefault(t, app)
	app.Executor.Bind("install-git", stubAction{result: executor.Result{Message: "done"}})
	if code := postJSON(t, ts.URL+"/execute", `{"skill":"install-git"}`, nil); code != http.StatusOK {
		t.Fatal("setup execute failed")
	}

	var snap models.StateSnapshot
	if code := getJSON(t, ts.URL+"/reset", &snap); code != http.StatusOK {
		t.Fatalf("GET reset: code=%d, want 200", code)
	}
	for _, s := range snap.Skills {
		if s.ID != skill.RootID && s.Completed {
			t.Fatalf("%s still completed after reset", s.ID)
		}
	}
}

func TestProjectsRoutes(t *testing.T) {
	t.Parallel()
	_, ts := newTestApp(t)

	var created models.StateSnapshot
	if code := postJSON(t, ts.URL+"/projects", `{"name":"side"}`, &created); code != http.StatusOK {
		t.Fatalf("create project: code=%d", code)
	}
	if created.Project != "side" {
		t.Fatalf("project = %q", created.Project)
	}
	if code := postJSON(t, ts.URL+"/projects", `{"name":"../bad"}`, nil); code != http.StatusBadRequest {
		t.Fatalf("bad name: code=%d, want 400", code)
	}

	var list struct {
		Projects []string `json:"projects"`
	}
	if code := getJSON(t, ts.URL+"/projects", &list); code != http.StatusOK {
		t.Fatalf("list projects: code=%d", code)
	}
	found := false
	for _, p := range list.Projects {
		if p == "side" {
			found = true
		}
	}
	if !found {
		t.Fatalf("projects = %v, want to contain side", list.Projects)
	}
}

func TestChecklistFlow(t *testing.T) {
	t.Parallel()
	app, ts := newTestApp(t)
	seedDefault(t, app)

	var initOut struct {
		UserID   string   `json:"user_id"`
		Services []string `json:"services"`
	}
	if code := postJSON(t, ts.URL+"/checklist/init", `{}`, &initOut); code != http.StatusOK {
		t.Fatalf("init: code=%d", code)
	}
	if initOut.UserID == "" || len(initOut.Services) == 0 {
		t.Fatalf("init out = %+v", initOut)
	}

	// Init is stable: a second call keeps the same user id.
	var again struct {
		UserID string `json:"user_id"`
	}
	if code := postJSON(t, ts.URL+"/checklist/init", `{}`, &again); code != http.StatusOK {
		t.Fatal("second init failed")
	}
	if again.UserID != initOut.UserID {
		t.Fatal("user id changed across init calls")
	}

	if code := postJSON(t, ts.URL+"/checklist/complete", `{"service":"nope"}`, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown service: code=%d, want 400", code)
	}

	var snap models.StateSnapshot
	if code := postJSON(t, ts.URL+"/checklist/complete", `{"service":"github"}`, &snap); code != http.StatusOK {
		t.Fatalf("complete: code=%d", code)
	}
	if snap.Level != models.LevelIntermediate {
		t.Fatalf("level after one checklist item = %s, want Intermediate", snap.Level)
	}
}

func TestLeaderboardRoute(t *testing.T) {
	t.Parallel()
	_, ts := newTestApp(t)
	var out struct {
		Entries   []models.LeaderboardEntry `json:"entries"`
		Threshold int                       `json:"threshold"`
	}
	if code := getJSON(t, ts.URL+"/leaderboard", &out); code != http.StatusOK {
		t.Fatalf("leaderboard: code=%d", code)
	}
	if out.Entries == nil {
		t.Fatal("entries must encode as an empty array, not null")
	}
	if out.Threshold == 0 {
		t.Fatal("threshold missing")
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	t.Parallel()
	home := t.TempDir()
	settings := config.DefaultSettings(home)
	app, err := NewApp(ServerOptions{
		Home:     home,
		Addr:     "127.0.0.1:0",
		APIKey:   "sekrit",
		Settings: settings,
	})
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ts := httptest.NewServer(app.Server.Handler)
	t.Cleanup(ts.Close)
	t.Cleanup(func() { _ = app.Board.Close() })

	// Health is exempt.
	if code := getJSON(t, ts.URL+"/health", nil); code != http.StatusOK {
		t.Fatalf("health with key required: code=%d", code)
	}
	// State requires the key.
	if code := getJSON(t, ts.URL+"/state", nil); code != http.StatusUnauthorized {
		t.Fatalf("state without key: code=%d, want 401", code)
	}
	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/state", nil)
	req.Header.Set("X-API-Key", "sekrit")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with key: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("state with key: code=%d, want 200", resp.StatusCode)
	}
}

func TestUIIsServed(t *testing.T) {
	t.Parallel()
	_, ts := newTestApp(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("GET /: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /: code=%d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/html") {
		t.Fatalf("content type = %q, want html", ct)
	}
}
