// Package client provides a Go SDK for the Questboard HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/salavey13/carTest/pkg/models"
)

// Client calls the Questboard HTTP API. It is safe for concurrent use.
type Client struct {
	BaseURL    string       // e.g. "http://localhost:1313"
	APIKey     string       // optional; set for X-API-Key / api_key
	HTTPClient *http.Client // optional; nil uses http.DefaultClient
}

// New returns a client for the given base URL.
func New(baseURL, apiKey string) *Client {
	return &Client{BaseURL: baseURL, APIKey: apiKey}
}

func (c *Client) client() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(b)
	}
	u := c.BaseURL + path
	req, err := http.NewRequestWithContext(ctx, method, u, bodyReader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("X-API-Key", c.APIKey)
	}
	return c.client().Do(req)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		if errBody.Error != "" {
			return fmt.Errorf("api %s %s: %s", method, path, errBody.Error)
		}
		return fmt.Errorf("api %s %s: status %d", method, path, resp.StatusCode)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// Health returns the /health response (ok: true).
func (c *Client) Health(ctx context.Context) (ok bool, err error) {
	var out struct {
		OK bool `json:"ok"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/health", nil, &out)
	return out.OK, err
}

// State returns the dashboard snapshot for a project ("" = server default).
func (c *Client) State(ctx context.Context, project string) (*models.StateSnapshot, error) {
	path := "/state"
	if project != "" {
		path += "?project=" + url.QueryEscape(project)
	}
	var out models.StateSnapshot
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return &out, err
}

// Execute runs the action behind a skill and returns the result envelope.
func (c *Client) Execute(ctx context.Context, project, skillID string) (*models.ExecuteResult, error) {
	var out models.ExecuteResult
	err := c.doJSON(ctx, http.MethodPost, "/execute",
		map[string]string{"project": project, "skill": skillID}, &out)
	return &out, err
}

// Reset wipes a project back to the seed state and returns the fresh
// snapshot.
func (c *Client) Reset(ctx context.Context, project string) (*models.StateSnapshot, error) {
	var out models.StateSnapshot
	err := c.doJSON(ctx, http.MethodPost, "/reset", map[string]string{"project": project}, &out)
	return &out, err
}

// Projects lists project names and the server's default.
func (c *Client) Projects(ctx context.Context) (projects []string, def string, err error) {
	var out struct {
		Projects []string `json:"projects"`
		Default  string   `json:"default"`
	}
	err = c.doJSON(ctx, http.MethodGet, "/projects", nil, &out)
	return out.Projects, out.Default, err
}

// CreateProject seeds a project and returns its snapshot.
func (c *Client) CreateProject(ctx context.Context, name string) (*models.StateSnapshot, error) {
	var out models.StateSnapshot
	err := c.doJSON(ctx, http.MethodPost, "/projects", map[string]string{"name": name}, &out)
	return &out, err
}

// InitChecklist stamps the run start time and returns the user id and the
// checklist services.
func (c *Client) InitChecklist(ctx context.Context, project string) (userID string, services []string, err error) {
	var out struct {
		UserID   string   `json:"user_id"`
		Services []string `json:"services"`
	}
	err = c.doJSON(ctx, http.MethodPost, "/checklist/init", map[string]string{"project": project}, &out)
	return out.UserID, out.Services, err
}

// CompleteChecklist marks a checklist service done and returns the updated
// snapshot.
func (c *Client) CompleteChecklist(ctx context.Context, project, service string) (*models.StateSnapshot, error) {
	var out models.StateSnapshot
	err := c.doJSON(ctx, http.MethodPost, "/checklist/complete",
		map[string]string{"project": project, "service": service}, &out)
	return &out, err
}

// Leaderboard returns the top entries.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	path := "/leaderboard"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var out struct {
		Entries []models.LeaderboardEntry `json:"entries"`
	}
	err := c.doJSON(ctx, http.MethodGet, path, nil, &out)
	return out.Entries, err
}
