package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaFS embed.FS

// SQLiteBackend stores each collection as one JSON blob row.
type SQLiteBackend struct {
	DB *sql.DB
}

func OpenSQLite(path string) (*SQLiteBackend, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: sqlite path is required", ErrInvalid)
	}
	path = ExpandHome(path)
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps :memory: databases coherent across calls.
	db.SetMaxOpenConns(1)
	if err := applySchema(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteBackend{DB: db}, nil
}

func applySchema(ctx context.Context, db *sql.DB) error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("read schema: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schemaSQL)); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *SQLiteBackend) Read(ctx context.Context, c Collection) ([]byte, error) {
	var body []byte
	err := s.DB.QueryRowContext(ctx, "SELECT body FROM collections WHERE name = ?", string(c)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read %s: %w", c, err)
	}
	return body, nil
}

func (s *SQLiteBackend) Write(ctx context.Context, c Collection, data []byte) error {
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO collections (name, body, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		string(c), data, timeNow().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("write %s: %w", c, err)
	}
	return nil
}

func (s *SQLiteBackend) Close() error {
	return s.DB.Close()
}
