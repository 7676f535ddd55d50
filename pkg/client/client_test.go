package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/salavey13/carTest/pkg/models"
)

func stubServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL, "secret")
}

func TestClientSendsAPIKey(t *testing.T) {
	t.Parallel()
	var gotKey string
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})

	ok, err := c.Health(context.Background())
	if err != nil || !ok {
		t.Fatalf("Health: ok=%v err=%v", ok, err)
	}
	if gotKey != "secret" {
		t.Fatalf("X-API-Key = %q", gotKey)
	}
}

func TestClientState(t *testing.T) {
	t.Parallel()
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/state" || r.URL.Query().Get("project") != "demo" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(models.StateSnapshot{
			Project: "demo",
			Level:   models.LevelIntermediate,
		})
	})

	snap, err := c.State(context.Background(), "demo")
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if snap.Project != "demo" || snap.Level != models.LevelIntermediate {
		t.Fatalf("snapshot = %+v", snap)
	}
}

func TestClientExecute(t *testing.T) {
	t.Parallel()
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["project"] != "demo" || body["skill"] != "install-git" {
			t.Errorf("body = %v", body)
		}
		_ = json.NewEncoder(w).Encode(models.ExecuteResult{Message: "done", Refresh: true})
	})

	res, err := c.Execute(context.Background(), "demo", "install-git")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.Refresh || res.Message != "done" {
		t.Fatalf("result = %+v", res)
	}
}

func TestClientErrorEnvelope(t *testing.T) {
	t.Parallel()
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "skill is locked"})
	})

	_, err := c.Execute(context.Background(), "demo", "clone-repo")
	if err == nil || !strings.Contains(err.Error(), "skill is locked") {
		t.Fatalf("err = %v, want server error message", err)
	}
}

func TestClientErrorWithoutBody(t *testing.T) {
	t.Parallel()
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := c.State(context.Background(), "")
	if err == nil || !strings.Contains(err.Error(), "status 500") {
		t.Fatalf("err = %v, want status fallback", err)
	}
}

func TestClientProjects(t *testing.T) {
	t.Parallel()
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"projects": []string{"demo", "starter"},
			"default":  "starter",
		})
	})

	projects, def, err := c.Projects(context.Background())
	if err != nil {
		t.Fatalf("Projects: %v", err)
	}
	if len(projects) != 2 || def != "starter" {
		t.Fatalf("projects = %v, default = %q", projects, def)
	}
}

func TestClientLeaderboardLimit(t *testing.T) {
	t.Parallel()
	c := stubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("limit") != "5" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"entries": []models.LeaderboardEntry{{UserID: "alice", Achievements: 13}},
		})
	})

	entries, err := c.Leaderboard(context.Background(), 5)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].UserID != "alice" {
		t.Fatalf("entries = %v", entries)
	}
}
