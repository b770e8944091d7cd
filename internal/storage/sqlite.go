package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// LoadNamespace implements NamespaceStore
func (s *SQLiteStore) LoadNamespace(ctx context.Context, namespace string) ([]byte, int64, error) {
	var (
		body     string
		revision int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT body, revision FROM documents WHERE namespace = ?`, namespace).
		Scan(&body, &revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("select namespace %s: %w", namespace, err)
	}
	return []byte(body), revision, nil
}

// SaveNamespace implements NamespaceStore
func (s *SQLiteStore) SaveNamespace(ctx context.Context, namespace string, body []byte, revision int64) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		`SELECT revision FROM documents WHERE namespace = ?`, namespace).
		Scan(&current)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("select revision: %w", err)
	}

	if current != revision {
		slog.WarnContext(ctx, "Rejected stale namespace write",
			"namespace", namespace,
			"stored_revision", current,
			"write_revision", revision)
		return 0, fmt.Errorf("%w: namespace %s at revision %d, write based on %d",
			core.ErrConflict, namespace, current, revision)
	}

	next := current + 1
	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (namespace, body, revision, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(namespace) DO UPDATE SET
			body = excluded.body,
			revision = excluded.revision,
			updated_at = excluded.updated_at`,
		namespace, string(body), next, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("upsert namespace %s: %w", namespace, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit namespace %s: %w", namespace, err)
	}

	return next, nil
}
