// Package history persists heal-run outcomes to an embedded SQLite
// database.
//
// The store is a local query log, not a source of truth: the guardian
// keeps working if inserts fail, and the only consumers are the history
// CLI command and the dashboard stats feed.
//
// The database runs embedded (ncruces/go-sqlite3) with WAL mode so the
// CLI can read while the daemon writes.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Record is one heal-pipeline run.
type Record struct {
	ID          int64
	Path        string
	StartedAt   time.Time
	Duration    time.Duration
	Succeeded   bool
	FailedStage string
	Error       string
	BytesBefore int
	BytesAfter  int
	Warnings    []string
}

// Store wraps the SQLite connection with guardian-specific queries.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a store at the given path, creating parent directories as
// needed. Use ":memory:" for an ephemeral store. The caller must Close().
func Open(path string) (*Store, error) {
	connStr := path
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		connStr = fmt.Sprintf("file:%s", path)
	}

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(4)
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return s, nil
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	s.conn = nil
	return nil
}

// InitSchema creates the heals table and its indexes. Idempotent.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS heals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		path TEXT NOT NULL,
		started_at TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		succeeded INTEGER NOT NULL,
		failed_stage TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		bytes_before INTEGER NOT NULL DEFAULT 0,
		bytes_after INTEGER NOT NULL DEFAULT 0,
		warnings TEXT NOT NULL DEFAULT '[]'
	);

	CREATE INDEX IF NOT EXISTS idx_heals_path ON heals(path);
	CREATE INDEX IF NOT EXISTS idx_heals_started ON heals(started_at);
	CREATE INDEX IF NOT EXISTS idx_heals_succeeded ON heals(succeeded);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Insert appends one heal record.
func (s *Store) Insert(ctx context.Context, rec *Record) error {
	warningsJSON, err := json.Marshal(rec.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := `
	INSERT INTO heals (
		path, started_at, duration_ms, succeeded,
		failed_stage, error, bytes_before, bytes_after, warnings
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	succeeded := 0
	if rec.Succeeded {
		succeeded = 1
	}

	res, err := s.conn.ExecContext(ctx, query,
		rec.Path,
		rec.StartedAt.UTC().Format(time.RFC3339Nano),
		rec.Duration.Milliseconds(),
		succeeded,
		rec.FailedStage,
		rec.Error,
		rec.BytesBefore,
		rec.BytesAfter,
		string(warningsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert heal record: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return nil
}

// Recent returns the most recent records, newest first.
// A limit of 0 defaults to 20.
func (s *Store) Recent(ctx context.Context, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, path, started_at, duration_ms, succeeded,
	       failed_stage, error, bytes_before, bytes_after, warnings
	FROM heals
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := s.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query heal records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// RecentForPath returns the most recent records for one file.
func (s *Store) RecentForPath(ctx context.Context, path string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
	SELECT id, path, started_at, duration_ms, succeeded,
	       failed_stage, error, bytes_before, bytes_after, warnings
	FROM heals
	WHERE path = ?
	ORDER BY id DESC
	LIMIT ?
	`

	rows, err := s.conn.QueryContext(ctx, query, path, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query heal records for %s: %w", path, err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// Stats summarizes the whole history.
type Stats struct {
	Total     int
	Succeeded int
	Failed    int
}

// GetStats returns aggregate counts over all recorded heals.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	query := `
	SELECT COUNT(*),
	       COALESCE(SUM(succeeded), 0),
	       COALESCE(SUM(1 - succeeded), 0)
	FROM heals
	`
	if err := s.conn.QueryRowContext(ctx, query).Scan(&st.Total, &st.Succeeded, &st.Failed); err != nil {
		return Stats{}, fmt.Errorf("failed to query heal stats: %w", err)
	}
	return st, nil
}

// scanRecords reads rows into Record values.
func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var records []*Record

	for rows.Next() {
		var rec Record
		var startedAt string
		var durationMs int64
		var succeeded int
		var warningsJSON string

		err := rows.Scan(
			&rec.ID,
			&rec.Path,
			&startedAt,
			&durationMs,
			&succeeded,
			&rec.FailedStage,
			&rec.Error,
			&rec.BytesBefore,
			&rec.BytesAfter,
			&warningsJSON,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan heal record: %w", err)
		}

		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			rec.StartedAt = t
		}
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		rec.Succeeded = succeeded != 0

		if warningsJSON != "" && warningsJSON != "null" {
			if err := json.Unmarshal([]byte(warningsJSON), &rec.Warnings); err != nil {
				return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
			}
		}

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating heal records: %w", err)
	}
	return records, nil
}
