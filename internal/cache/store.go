// Package cache persists fetched templates and class candidate lists in
// SQLite so repeated explorations of the same schema do not hit the remote
// API again.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/HendryAvila/schemagraph/internal/schema"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// now is a package-level var so tests can move the clock.
var now = time.Now

// ─── Config ──────────────────────────────────────────────────────────────────

// Config holds cache store configuration.
type Config struct {
	Dir string
	TTL time.Duration // entries older than TTL are misses; 0 keeps entries forever
}

// DefaultConfig returns the default configuration for the cache store.
func DefaultConfig() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Dir: filepath.Join(home, ".schemagraph"),
		TTL: 24 * time.Hour,
	}
}

// Stats summarizes the cache contents.
type Stats struct {
	Templates      int    `json:"templates"`
	ClassEntries   int    `json:"class_entries"`
	OldestFetch    string `json:"oldest_fetch,omitempty"`
	Path           string `json:"path"`
	TTLSeconds     int64  `json:"ttl_seconds"`
	ExpiredEntries int    `json:"expired_entries"`
}

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed template cache.
type Store struct {
	db   *sql.DB
	cfg  Config
	path string
}

// New creates a Store with the given configuration.
// It creates the cache directory if needed, opens SQLite with WAL mode,
// and runs migrations.
func New(cfg Config) (*Store, error) {
	if cfg.Dir == "" {
		return nil, errors.New("cache: empty directory")
	}
	if err := os.MkdirAll(cfg.Dir, 0700); err != nil {
		return nil, fmt.Errorf("cache: create dir: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, "cache.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("cache: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cache: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, cfg: cfg, path: dbPath}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache: migration: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS templates (
			id         TEXT PRIMARY KEY,
			body       TEXT NOT NULL,
			fetched_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS class_templates (
			class_id     TEXT PRIMARY KEY,
			template_ids TEXT NOT NULL,
			fetched_at   INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_templates_fetched ON templates(fetched_at);
		CREATE INDEX IF NOT EXISTS idx_class_fetched     ON class_templates(fetched_at);
	`)
	return err
}

// ─── Templates ───────────────────────────────────────────────────────────────

// Template returns the cached template for id. The boolean is false on a miss,
// including entries older than the TTL.
func (s *Store) Template(ctx context.Context, id string) (*schema.Template, bool, error) {
	var body string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT body, fetched_at FROM templates WHERE id = ?", id,
	).Scan(&body, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: read template %s: %w", id, err)
	}
	if s.expired(fetchedAt) {
		return nil, false, nil
	}

	var t schema.Template
	if err := json.Unmarshal([]byte(body), &t); err != nil {
		return nil, false, fmt.Errorf("cache: decode template %s: %w", id, err)
	}
	return &t, true, nil
}

// PutTemplate stores t, replacing any previous entry.
func (s *Store) PutTemplate(ctx context.Context, t *schema.Template) error {
	if t == nil || t.ID == "" {
		return errors.New("cache: put template: empty id")
	}
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("cache: encode template %s: %w", t.ID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO templates (id, body, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET body = excluded.body, fetched_at = excluded.fetched_at`,
		t.ID, string(body), now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: write template %s: %w", t.ID, err)
	}
	return nil
}

// ─── Class candidates ───────────────────────────────────────────────────────

// Candidates returns the cached candidate template IDs for classID, in the
// order they were stored. An empty list is a valid hit.
func (s *Store) Candidates(ctx context.Context, classID string) ([]string, bool, error) {
	var raw string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT template_ids, fetched_at FROM class_templates WHERE class_id = ?", classID,
	).Scan(&raw, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: read class %s: %w", classID, err)
	}
	if s.expired(fetchedAt) {
		return nil, false, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, false, fmt.Errorf("cache: decode class %s: %w", classID, err)
	}
	return ids, true, nil
}

// PutCandidates stores the candidate IDs for classID.
func (s *Store) PutCandidates(ctx context.Context, classID string, ids []string) error {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("cache: encode class %s: %w", classID, err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO class_templates (class_id, template_ids, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(class_id) DO UPDATE SET template_ids = excluded.template_ids, fetched_at = excluded.fetched_at`,
		classID, string(raw), now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache: write class %s: %w", classID, err)
	}
	return nil
}

// ─── Maintenance ────────────────────────────────────────────────────────────

// Stats returns aggregate cache statistics.
func (s *Store) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{Path: s.path, TTLSeconds: int64(s.cfg.TTL / time.Second)}

	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM templates").Scan(&stats.Templates); err != nil {
		return nil, fmt.Errorf("cache: stats: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM class_templates").Scan(&stats.ClassEntries); err != nil {
		return nil, fmt.Errorf("cache: stats: %w", err)
	}

	var oldest sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		"SELECT MIN(f) FROM (SELECT fetched_at AS f FROM templates UNION ALL SELECT fetched_at FROM class_templates)",
	).Scan(&oldest); err != nil {
		return nil, fmt.Errorf("cache: stats: %w", err)
	}
	if oldest.Valid {
		stats.OldestFetch = time.Unix(oldest.Int64, 0).UTC().Format(time.RFC3339)
	}

	if s.cfg.TTL > 0 {
		cutoff := now().Add(-s.cfg.TTL).Unix()
		if err := s.db.QueryRowContext(ctx,
			"SELECT (SELECT COUNT(*) FROM templates WHERE fetched_at < ?) + (SELECT COUNT(*) FROM class_templates WHERE fetched_at < ?)",
			cutoff, cutoff,
		).Scan(&stats.ExpiredEntries); err != nil {
			return nil, fmt.Errorf("cache: stats: %w", err)
		}
	}
	return stats, nil
}

// Clear removes every cached entry and returns how many rows were deleted.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("cache: clear: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, table := range []string{"templates", "class_templates"} {
		res, err := tx.ExecContext(ctx, "DELETE FROM "+table)
		if err != nil {
			return 0, fmt.Errorf("cache: clear %s: %w", table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("cache: clear: %w", err)
	}
	return total, nil
}

// Prune deletes entries older than the TTL. It is a no-op when TTL is 0.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	if s.cfg.TTL <= 0 {
		return 0, nil
	}
	cutoff := now().Add(-s.cfg.TTL).Unix()
	var total int64
	for _, q := range []string{
		"DELETE FROM templates WHERE fetched_at < ?",
		"DELETE FROM class_templates WHERE fetched_at < ?",
	} {
		res, err := s.db.ExecContext(ctx, q, cutoff)
		if err != nil {
			return total, fmt.Errorf("cache: prune: %w", err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (s *Store) expired(fetchedAt int64) bool {
	if s.cfg.TTL <= 0 {
		return false
	}
	return now().Sub(time.Unix(fetchedAt, 0)) > s.cfg.TTL
}

// String reports where the cache lives, for logs.
func (s *Store) String() string {
	return "sqlite:" + s.path
}
