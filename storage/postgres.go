package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"apppulse/models"
	"apppulse/utils"
)

// OpenPostgres opens a connection to PostgreSQL and waits for it to accept
// pings, retrying with back-off.
func OpenPostgres(ctx context.Context, dsn string, retry *utils.RetryConfig) (*SQLStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	if retry == nil {
		retry = &utils.RetryConfig{MaxAttempts: 1}
	}
	err = retry.Do(ctx, "postgres-ping", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &SQLStore{db: db, dialect: postgresDialect}, nil
}

// PostgresSource reads a dataset table from PostgreSQL.
type PostgresSource struct {
	DSN   string
	Table string
	Retry *utils.RetryConfig
}

func (s *PostgresSource) Name() string { return "postgres#" + s.Table }

func (s *PostgresSource) Read(ctx context.Context) (models.RawTable, error) {
	store, err := OpenPostgres(ctx, s.DSN, s.Retry)
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

// PostgresWriter imports a table into PostgreSQL.
type PostgresWriter struct {
	store *SQLStore
	table string
}

// NewPostgresWriter connects to PostgreSQL for writing table.
func NewPostgresWriter(ctx context.Context, dsn, table string, retry *utils.RetryConfig) (*PostgresWriter, error) {
	store, err := OpenPostgres(ctx, dsn, retry)
	if err != nil {
		return nil, err
	}
	return &PostgresWriter{store: store, table: table}, nil
}

func (pw *PostgresWriter) WriteTable(ctx context.Context, raw models.RawTable) error {
	return pw.store.ReplaceTable(ctx, pw.table, raw)
}

func (pw *PostgresWriter) Close() error {
	return pw.store.Close()
}
