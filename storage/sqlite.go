package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"apppulse/models"
)

// OpenSQLite opens (creating if needed) the SQLite database at path.
func OpenSQLite(path string) (*SQLStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// Keep one connection so ":memory:" databases are shared across calls.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &SQLStore{db: db, dialect: sqliteDialect}, nil
}

// SQLiteSource reads a dataset table from an existing SQLite file.
type SQLiteSource struct {
	Path  string
	Table string
}

func (s *SQLiteSource) Name() string { return s.Path + "#" + s.Table }

func (s *SQLiteSource) Read(ctx context.Context) (models.RawTable, error) {
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.RawTable{}, fmt.Errorf("sqlite: %q: %w", s.Path, ErrSourceNotFound)
		}
		return models.RawTable{}, fmt.Errorf("sqlite: stat %q: %w", s.Path, err)
	}

	store, err := OpenSQLite(s.Path)
	if err != nil {
		return models.RawTable{}, err
	}
	defer store.Close()

	raw, err := store.ReadTable(ctx, s.Table)
	if err != nil {
		return models.RawTable{}, err
	}
	raw.Source = s.Name()
	return raw, nil
}

// SQLiteWriter imports a table into a SQLite database.
type SQLiteWriter struct {
	store *SQLStore
	table string
}

// NewSQLiteWriter opens the database at path for writing table.
func NewSQLiteWriter(path, table string) (*SQLiteWriter, error) {
	store, err := OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteWriter{store: store, table: table}, nil
}

func (w *SQLiteWriter) WriteTable(ctx context.Context, raw models.RawTable) error {
	return w.store.ReplaceTable(ctx, w.table, raw)
}

func (w *SQLiteWriter) Close() error {
	return w.store.Close()
}
