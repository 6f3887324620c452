package sink

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/eskila/jdoc/internal/moisture"
)

const createReadingsTableStmt = `
CREATE TABLE IF NOT EXISTS readings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    timestamp TEXT NOT NULL,
    plant TEXT NOT NULL,
    pin INTEGER NOT NULL,
    raw INTEGER,
    percent REAL NOT NULL
);`

const insertReadingStmt = `INSERT INTO readings (timestamp, plant, pin, raw, percent) VALUES (?, ?, ?, ?, ?)`

// SQLiteSink inserts one readings row per plant, all rows of a collection run
// in a single transaction.
type SQLiteSink struct {
	db   *sql.DB
	path string
}

func OpenSQLite(path string) (*SQLiteSink, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, createReadingsTableStmt); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create readings table: %w", err)
	}
	return &SQLiteSink{db: db, path: path}, nil
}

func (s *SQLiteSink) Write(ctx context.Context, row moisture.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertReadingStmt)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	ts := row.Timestamp.UTC().Format(time.RFC3339Nano)
	for _, r := range row.Readings {
		var raw sql.NullInt64
		if r.Raw != nil {
			raw = sql.NullInt64{Int64: int64(*r.Raw), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, ts, r.Plant, r.Pin, raw, r.Percent); err != nil {
			return fmt.Errorf("insert reading for %s: %w", r.Plant, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit readings: %w", err)
	}
	return nil
}

func (s *SQLiteSink) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
