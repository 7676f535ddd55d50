// Package httpapi serves the dashboard and the JSON API over localhost.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/salavey13/carTest/internal/config"
	"github.com/salavey13/carTest/internal/configstore"
	"github.com/salavey13/carTest/internal/executor"
	"github.com/salavey13/carTest/internal/leaderboard"
	"github.com/salavey13/carTest/internal/metrics"
	"github.com/salavey13/carTest/internal/progress"
	"github.com/salavey13/carTest/internal/runner"
	"github.com/salavey13/carTest/internal/skill"
	"github.com/salavey13/carTest/internal/ui"
	"github.com/salavey13/carTest/pkg/models"
)

// defaultMaxRequestBodyBytes limits request bodies (1 MiB).
const defaultMaxRequestBodyBytes = 1 << 20

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Home     string
	Addr     string
	Dev      bool
	APIKey   string // if set, require X-API-Key header or query api_key
	Settings config.Settings
}

// App holds the HTTP server and the wired subsystems.
type App struct {
	Server   *http.Server
	Bus      *progress.Bus
	Store    *configstore.Store
	Catalog  *skill.Catalog
	Engine   *progress.Engine
	Executor *executor.Executor
	Board    *leaderboard.Store
	Home     string

	settings config.Settings
}

// NewApp wires the store, catalog, engine, bus, executor, and leaderboard,
// and registers every route.
func NewApp(opts ServerOptions) (*App, error) {
	catalog := skill.Default()
	store := configstore.New(opts.Settings.ProjectsDir, skill.RootID)
	engine := progress.NewEngine(catalog)
	bus := progress.NewBus()

	board, err := leaderboard.Open(opts.Home)
	if err != nil {
		return nil, err
	}

	settings := opts.Settings
	run := &runner.Runner{Timeout: settings.Timeout()}
	exec := executor.New(store, catalog, engine, bus, run, &settings, board)

	app := &App{
		Bus:      bus,
		Store:    store,
		Catalog:  catalog,
		Engine:   engine,
		Executor: exec,
		Board:    board,
		Home:     opts.Home,
		settings: opts.Settings,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"ok": true})
	})
	mux.Handle("/metrics", metrics.Handler())

	mux.HandleFunc("/state", app.handleState)
	mux.HandleFunc("/execute", app.handleExecute)
	mux.HandleFunc("/reset", app.handleReset)
	mux.HandleFunc("/projects", app.handleProjects)
	mux.HandleFunc("/checklist/init", app.handleChecklistInit)
	mux.HandleFunc("/checklist/complete", app.handleChecklistComplete)
	mux.HandleFunc("/leaderboard", app.handleLeaderboard)
	mux.HandleFunc("/stream", StreamHandler(bus))
	mux.Handle("/", ui.Handler())

	var handler http.Handler = mux
	handler = bodyLimitMiddleware(defaultMaxRequestBodyBytes, handler)
	if opts.Dev {
		handler = corsMiddleware(handler)
	}
	if opts.APIKey != "" {
		handler = apiKeyMiddleware(opts.APIKey, handler)
	}
	handler = requestLogMiddleware(handler)

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	srv.RegisterOnShutdown(func() {
		_ = board.Close()
	})
	app.Server = srv
	return app, nil
}

// project resolves the project name from a request, falling back to the
// configured default.
func (a *App) project(name string) string {
	if name == "" {
		return a.settings.DefaultProject
	}
	return name
}

func (a *App) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	project := a.project(r.URL.Query().Get("project"))
	if !configstore.ValidProject(project) {
		writeJSONError(w, http.StatusBadRequest, "invalid project name")
		return
	}
	cfg, err := a.Store.Load(project)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, a.Engine.Snapshot(project, cfg))
}

// handleExecute serves the execute contract: GET with query parameters is
// the canonical form, POST with a JSON body is kept for the SDK. Status
// conveys the outcome class; 400 covers bad input and already-done.
func (a *App) handleExecute(w http.ResponseWriter, r *http.Request) {
	var project, skillID string
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		project, skillID = q.Get("project"), q.Get("skill")
	case http.MethodPost:
		var body struct {
			Project string `json:"project"`
			Skill   string `json:"skill"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		project, skillID = body.Project, body.Skill
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if skillID == "" {
		writeJSONError(w, http.StatusBadRequest, "skill required")
		return
	}
	project = a.project(project)

	res, err := a.Executor.Execute(r.Context(), project, skillID)
	if err != nil {
		var already *executor.AlreadyCompletedError
		if errors.As(err, &already) {
			// Re-running a finished skill changes nothing; the result
			// envelope still carries the message for the dashboard.
			writeJSONStatus(w, http.StatusBadRequest, models.ExecuteResult{Message: err.Error(), Refresh: false})
			return
		}
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, res)
}

// statusFor maps executor errors onto the API's status contract.
func statusFor(err error) int {
	var invalid *executor.InvalidProjectError
	var unknown *executor.UnknownSkillError
	var locked *executor.LockedError
	var level *executor.InsufficientLevelError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &locked), errors.As(err, &level):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// handleReset accepts GET with a project query parameter or POST with a
// JSON body.
func (a *App) handleReset(w http.ResponseWriter, r *http.Request) {
	var project string
	switch r.Method {
	case http.MethodGet:
		project = r.URL.Query().Get("project")
	case http.MethodPost:
		var body struct {
			Project string `json:"project"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		project = body.Project
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	project = a.project(project)
	if !configstore.ValidProject(project) {
		writeJSONError(w, http.StatusBadRequest, "invalid project name")
		return
	}
	unlock := a.Store.Lock(project)
	cfg, err := a.Store.Reset(project)
	unlock()
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.Bus.Done("reset", fmt.Sprintf("Project %s reset", project))
	writeJSON(w, a.Engine.Snapshot(project, cfg))
}

func (a *App) handleProjects(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		projects, err := a.Store.Projects()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if projects == nil {
			projects = []string{}
		}
		writeJSON(w, map[string]any{"projects": projects, "default": a.settings.DefaultProject})
	case http.MethodPost:
		var body struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid json")
			return
		}
		if !configstore.ValidProject(body.Name) {
			writeJSONError(w, http.StatusBadRequest, "invalid project name")
			return
		}
		unlock := a.Store.Lock(body.Name)
		defer unlock()
		cfg, err := a.Store.Load(body.Name)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		// Seed a fresh project; an existing one is left untouched.
		if !cfg.SkillCompleted(skill.RootID) {
			if cfg, err = a.Store.Reset(body.Name); err != nil {
				writeJSONError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, a.Engine.Snapshot(body.Name, cfg))
	default:
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleChecklistInit stamps the run start time and assigns a user id if the
// project does not have one yet.
func (a *App) handleChecklistInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Project string `json:"project"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	project := a.project(body.Project)
	if !configstore.ValidProject(project) {
		writeJSONError(w, http.StatusBadRequest, "invalid project name")
		return
	}
	unlock := a.Store.Lock(project)
	defer unlock()
	cfg, err := a.Store.Load(project)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if cfg.StartTime() == 0 {
		cfg.SetMeta("config_start_time", strconv.FormatInt(time.Now().Unix(), 10))
	}
	userID := cfg.UserID()
	if userID == "" {
		userID = uuid.NewString()
		cfg.SetMeta("user_id", userID)
	}
	if err := a.Store.Save(project, cfg); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{
		"user_id":    userID,
		"start_time": cfg.StartTime(),
		"services":   progress.ChecklistServices,
	})
}

func (a *App) handleChecklistComplete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var body struct {
		Project string `json:"project"`
		Service string `json:"service"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !slices.Contains(progress.ChecklistServices, body.Service) {
		writeJSONError(w, http.StatusBadRequest, "unknown service")
		return
	}
	project := a.project(body.Project)
	if !configstore.ValidProject(project) {
		writeJSONError(w, http.StatusBadRequest, "invalid project name")
		return
	}
	unlock := a.Store.Lock(project)
	defer unlock()
	cfg, err := a.Store.Load(project)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	cfg.MarkCompleted(body.Service)
	if err := a.Store.Save(project, cfg); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.Bus.Done(body.Service, fmt.Sprintf("Signed in to %s", body.Service))
	writeJSON(w, a.Engine.Snapshot(project, cfg))
}

func (a *App) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 20
	if q := r.URL.Query().Get("limit"); q != "" {
		if n, err := strconv.Atoi(q); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := a.Board.Top(r.Context(), limit)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}
	writeJSON(w, map[string]any{"entries": entries, "threshold": leaderboard.UnlockThreshold})
}

// limitBody wraps r.Body with http.MaxBytesReader so handlers cannot read
// more than maxBytes.
func limitBody(w http.ResponseWriter, r *http.Request, maxBytes int64) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
}

func bodyLimitMiddleware(maxBytes int64, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			limitBody(w, r, maxBytes)
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware opens the API for dev mode (frontend on another origin).
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func apiKeyMiddleware(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		if path == "/health" || path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}
		key := r.Header.Get("X-API-Key")
		if key == "" {
			key = r.URL.Query().Get("api_key")
		}
		if key != apiKey {
			writeJSONError(w, http.StatusUnauthorized, "invalid or missing API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// responseRecorder captures the status code for logging and forwards
// Flusher so SSE keeps working behind the middleware.
type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func requestLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		metrics.RecordRequest(req.URL.Path, strconv.Itoa(rec.status))
		slog.Info("request",
			"method", req.Method,
			"path", req.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// writeJSONError sends {"error": "message"} with the given status code.
func writeJSONError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]any{"error": message})
}
