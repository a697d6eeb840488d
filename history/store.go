// Package history keeps a SQLite log of asked queries.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS queries (
	id          TEXT PRIMARY KEY,
	asked_at    INTEGER NOT NULL,
	query       TEXT NOT NULL,
	source      TEXT NOT NULL,
	fallback    INTEGER NOT NULL DEFAULT 0,
	topic       TEXT NOT NULL,
	level       TEXT NOT NULL,
	top_n       INTEGER NOT NULL,
	panels      INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_queries_asked_at ON queries (asked_at DESC);`

// Entry is one logged query.
type Entry struct {
	ID       string        `json:"id"`
	AskedAt  time.Time     `json:"askedAt"`
	Query    string        `json:"query"`
	Source   string        `json:"source"`
	Fallback bool          `json:"fallback"`
	Topic    string        `json:"topic"`
	Level    string        `json:"level"`
	TopN     int           `json:"topN"`
	Panels   int           `json:"panels"`
	Duration time.Duration `json:"durationNs"`
}

// Store persists query history in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (or creates) the history database at path. ":memory:" opens a
// private in-memory database.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := ":memory:"
	if path != ":memory:" {
		dsn = filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	}
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if path == ":memory:" {
		// Each connection would get its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schemaSQL); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record inserts one entry. A missing ID or timestamp is filled in.
func (s *Store) Record(ctx context.Context, e Entry) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}
	if s == nil || s.sqlDB == nil {
		return Entry{}, fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(e.Query) == "" {
		return Entry{}, fmt.Errorf("query is required")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.AskedAt.IsZero() {
		e.AskedAt = time.Now()
	}
	e.AskedAt = e.AskedAt.UTC()

	fallback := 0
	if e.Fallback {
		fallback = 1
	}
	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO queries (
		   id, asked_at, query, source, fallback, topic, level, top_n, panels, duration_ms
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		toMillis(e.AskedAt),
		e.Query,
		e.Source,
		fallback,
		e.Topic,
		e.Level,
		e.TopN,
		e.Panels,
		e.Duration.Milliseconds(),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("insert query: %w", err)
	}
	return e, nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, asked_at, query, source, fallback, topic, level, top_n, panels, duration_ms
		 FROM queries
		 ORDER BY asked_at DESC, rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e          Entry
			askedAt    int64
			fallback   int
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &askedAt, &e.Query, &e.Source, &fallback, &e.Topic, &e.Level, &e.TopN, &e.Panels, &durationMs); err != nil {
			return nil, fmt.Errorf("scan query: %w", err)
		}
		e.AskedAt = fromMillis(askedAt)
		e.Fallback = fallback != 0
		e.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate queries: %w", err)
	}
	return out, nil
}
