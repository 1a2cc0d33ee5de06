// Package sqlite persists record collections in an embedded SQLite database,
// one row per record, as an alternative to whole-document files.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/aretw0/tillage/pkg/core"
)

// FileName is the database file created inside the data directory.
const FileName = "tillage.db"

const schema = `
CREATE TABLE IF NOT EXISTS records (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	position INTEGER NOT NULL,
	data TEXT NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS records_position ON records (collection, position);`

// Store owns the database handle shared by every collection.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
	logger   *slog.Logger
}

// Open opens (creating if needed) the database at path.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w: %w", core.ErrStorageUnavailable, err)
	}

	db, err := connect(path, url.Values{
		"_pragma": []string{"busy_timeout(5000)", "journal_mode(WAL)"},
	})
	if err != nil {
		return nil, err
	}
	logger.Debug("sqlite database opened", "path", path)
	return &Store{db: db, path: path, logger: logger}, nil
}

// OpenReadOnly opens the database at path without ever writing to disk. A
// missing database, or one without the records table, reads as empty.
func OpenReadOnly(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := &Store{path: path, readOnly: true, logger: logger}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Debug("sqlite database absent, reading as empty", "path", path)
		return s, nil
	}

	db, err := connect(path, url.Values{
		"mode":    []string{"ro"},
		"_pragma": []string{"busy_timeout(5000)"},
	})
	if err != nil {
		return nil, err
	}

	var tables int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'records'`).Scan(&tables)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to inspect database: %w: %w", core.ErrStorageUnavailable, err)
	}
	if tables == 0 {
		db.Close()
		return s, nil
	}

	s.db = db
	logger.Debug("sqlite database opened read-only", "path", path)
	return s, nil
}

func connect(path string, params url.Values) (*sql.DB, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w: %w", core.ErrStorageUnavailable, err)
	}
	// One connection serialises every transaction of this process; other
	// processes wait on busy_timeout.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w: %w", core.ErrStorageUnavailable, err)
	}
	return db, nil
}

// Migrate creates the schema if it does not exist. Read-only stores are
// left as they are.
func (s *Store) Migrate(ctx context.Context) error {
	if s.readOnly {
		return nil
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w: %w", core.ErrStorageUnavailable, err)
	}
	return nil
}

// empty reports whether there is no database to read from.
func (s *Store) empty() bool { return s.db == nil }

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ core.Closer = (*Store)(nil)
