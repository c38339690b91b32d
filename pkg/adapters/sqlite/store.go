// Package sqlite provides a run history backed by an SQLite database.
package sqlite

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

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
)

const migrationV1Runs = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	system      TEXT NOT NULL,
	task        TEXT NOT NULL,
	success     INTEGER NOT NULL,
	status      TEXT NOT NULL,
	reason      TEXT NOT NULL DEFAULT '',
	diagnostic  TEXT NOT NULL DEFAULT '',
	summary     TEXT NOT NULL DEFAULT '',
	report      TEXT NOT NULL DEFAULT '',
	path        TEXT NOT NULL DEFAULT '[]',
	steps       INTEGER NOT NULL DEFAULT 0,
	started_at  INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

// Store implements ports.HistoryStore on SQLite.
type Store struct {
	conn *sql.DB
	path string
}

// Open opens (and migrates) the database at path, creating parent directories.
// WAL mode is enabled for concurrent reads.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{conn: conn, path: path}
	if err := s.Migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies all pending schema migrations.
func (s *Store) Migrate() error {
	if _, err := s.conn.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return fmt.Errorf("create schema_version table: %w", err)
	}

	var current int
	if err := s.conn.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&current); err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}

	migrations := []struct {
		version int
		sql     string
	}{
		{1, migrationV1Runs},
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		tx, err := s.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		if _, err := tx.Exec(m.sql); err != nil {
			tx.Rollback()
			return fmt.Errorf("apply migration v%d: %w", m.version, err)
		}
		if _, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", m.version); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration v%d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// Path returns the path to the database file.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Save inserts or replaces a run record.
func (s *Store) Save(ctx context.Context, rec ports.RunRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("run id cannot be empty")
	}
	path, err := json.Marshal(rec.Path)
	if err != nil {
		return fmt.Errorf("marshal path: %w", err)
	}

	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO runs (id, system, task, success, status, reason, diagnostic, summary, report, path, steps, started_at, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			system = excluded.system,
			task = excluded.task,
			success = excluded.success,
			status = excluded.status,
			reason = excluded.reason,
			diagnostic = excluded.diagnostic,
			summary = excluded.summary,
			report = excluded.report,
			path = excluded.path,
			steps = excluded.steps,
			started_at = excluded.started_at,
			duration_ns = excluded.duration_ns
	`, rec.ID, rec.System, rec.Task, rec.Success, rec.Status, rec.Reason, rec.Diagnostic,
		rec.Summary, rec.Report, string(path), rec.Steps, rec.StartedAt.UnixNano(), int64(rec.Duration))
	if err != nil {
		return fmt.Errorf("save run %s: %w", rec.ID, err)
	}
	return nil
}

const selectRun = `SELECT id, system, task, success, status, reason, diagnostic, summary, report, path, steps, started_at, duration_ns FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (ports.RunRecord, error) {
	var (
		rec       ports.RunRecord
		path      string
		startedAt int64
		duration  int64
	)
	err := row.Scan(&rec.ID, &rec.System, &rec.Task, &rec.Success, &rec.Status, &rec.Reason,
		&rec.Diagnostic, &rec.Summary, &rec.Report, &path, &rec.Steps, &startedAt, &duration)
	if err != nil {
		return ports.RunRecord{}, err
	}
	if err := json.Unmarshal([]byte(path), &rec.Path); err != nil {
		return ports.RunRecord{}, fmt.Errorf("unmarshal path: %w", err)
	}
	rec.StartedAt = time.Unix(0, startedAt).UTC()
	rec.Duration = time.Duration(duration)
	return rec, nil
}

// Load retrieves a run record.
func (s *Store) Load(ctx context.Context, id string) (ports.RunRecord, error) {
	rec, err := scanRun(s.conn.QueryRowContext(ctx, selectRun+" WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return ports.RunRecord{}, domain.ErrRunNotFound
	}
	if err != nil {
		return ports.RunRecord{}, fmt.Errorf("load run %s: %w", id, err)
	}
	return rec, nil
}

// List returns records, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	query := selectRun + " ORDER BY started_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	records := []ports.RunRecord{}
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a run record.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete run %s: %w", id, err)
	}
	return nil
}
