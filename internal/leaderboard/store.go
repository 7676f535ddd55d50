// Package leaderboard persists progress snapshots in a local SQLite
// database and serves the ranked listing. Snapshots are append-only; the
// ranking keeps each user's best run.
package leaderboard

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/salavey13/carTest/pkg/models"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// UnlockThreshold is the achievement count at which publishing to the
// leaderboard opens up.
const UnlockThreshold = 13

// Store is the SQLite-backed leaderboard.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at home/leaderboard.sqlite and runs
// pending migrations.
func Open(home string) (*Store, error) {
	dbPath := filepath.Join(home, "leaderboard.sqlite")
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{DB: db}
	if err := s.initPragmas(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func (s *Store) initPragmas(ctx context.Context) error {
	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, q := range stmts {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

type migration struct {
	Version int
	Name    string
	SQL     string
}

// Migrate applies every embedded migration not yet recorded in
// schema_migrations, in version order.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store not initialized")
	}
	if _, err := s.DB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at INTEGER NOT NULL
);`); err != nil {
		return err
	}
	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return err
	}
	files, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	var migs []migration
	for _, f := range files {
		if f.IsDir() || !strings.HasSuffix(f.Name(), ".sql") {
			continue
		}
		v, err := parseMigrationVersion(f.Name())
		if err != nil {
			return err
		}
		body, err := migrationsFS.ReadFile("migrations/" + f.Name())
		if err != nil {
			return err
		}
		migs = append(migs, migration{Version: v, Name: f.Name(), SQL: string(body)})
	}
	sort.Slice(migs, func(i, j int) bool { return migs[i].Version < migs[j].Version })
	for _, m := range migs {
		if applied[m.Version] {
			continue
		}
		if err := s.applyMigration(ctx, m); err != nil {
			return fmt.Errorf("migration %s: %w", m.Name, err)
		}
	}
	return nil
}

func (s *Store) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.DB.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	out := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		out[v] = true
	}
	return out, rows.Err()
}

func (s *Store) applyMigration(ctx context.Context, m migration) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		m.Version, time.Now().Unix()); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// parseMigrationVersion extracts the numeric prefix of "0001_name.sql".
func parseMigrationVersion(name string) (int, error) {
	i := strings.IndexByte(name, '_')
	if i <= 0 {
		return 0, fmt.Errorf("migration %q: missing version prefix", name)
	}
	v, err := strconv.Atoi(name[:i])
	if err != nil {
		return 0, fmt.Errorf("migration %q: %w", name, err)
	}
	return v, nil
}

// Record appends one snapshot.
func (s *Store) Record(ctx context.Context, e models.LeaderboardEntry) error {
	if e.UserID == "" {
		return errors.New("user id required")
	}
	created := e.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := s.DB.ExecContext(ctx, `
INSERT INTO entries (user_id, project, level, achievements, total_seconds, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		e.UserID, e.Project, int(e.Level), e.Achievements, e.TotalSeconds, created.Unix())
	return err
}

// Top returns up to limit entries, best run per user, ordered by
// achievement count descending and elapsed time ascending as the
// tie-breaker.
func (s *Store) Top(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.DB.QueryContext(ctx, `
SELECT user_id, project, level, achievements, total_seconds, created_at FROM (
  SELECT *, ROW_NUMBER() OVER (
    PARTITION BY user_id ORDER BY achievements DESC, total_seconds ASC
  ) AS rn FROM entries
) WHERE rn = 1
ORDER BY achievements DESC, total_seconds ASC
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		var level int
		var created int64
		if err := rows.Scan(&e.UserID, &e.Project, &level, &e.Achievements, &e.TotalSeconds, &created); err != nil {
			return nil, err
		}
		e.Level = models.Level(level)
		e.CreatedAt = time.Unix(created, 0)
		out = append(out, e)
	}
	return out, rows.Err()
}
