package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"apppulse/models"
)

// rowColumn keeps the source row order of imported tables.
const rowColumn = "_row"

const batchSize = 50

// dialect captures the few SQL differences between the supported databases.
type dialect struct {
	name        string
	placeholder func(n int) string
	tableExists string
}

var (
	sqliteDialect = dialect{
		name:        "sqlite",
		placeholder: func(int) string { return "?" },
		tableExists: `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`,
	}
	postgresDialect = dialect{
		name:        "postgres",
		placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
		tableExists: `SELECT COUNT(*) FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_name = $1`,
	}
)

// SQLStore reads and replaces dataset tables in a SQL database. Every
// dataset column is stored as TEXT so the table round-trips the source cells.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// TableExists reports whether table is present.
func (s *SQLStore) TableExists(ctx context.Context, table string) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, s.dialect.tableExists, table).Scan(&n); err != nil {
		return false, fmt.Errorf("%s: check table %q: %w", s.dialect.name, table, err)
	}
	return n > 0, nil
}

// ReadTable loads every row of table. Tables written by ReplaceTable come
// back in their original row order.
func (s *SQLStore) ReadTable(ctx context.Context, table string) (models.RawTable, error) {
	exists, err := s.TableExists(ctx, table)
	if err != nil {
		return models.RawTable{}, err
	}
	if !exists {
		return models.RawTable{}, fmt.Errorf("%s: table %q: %w", s.dialect.name, table, ErrSourceNotFound)
	}

	cols, err := s.columns(ctx, table)
	if err != nil {
		return models.RawTable{}, err
	}

	order := ""
	header := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == rowColumn {
			order = " ORDER BY " + quoteIdent(rowColumn)
			continue
		}
		header = append(header, c)
	}

	query := "SELECT " + joinIdents(header) + " FROM " + quoteIdent(table) + order
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("%s: read table %q: %w", s.dialect.name, table, err)
	}
	defer rows.Close()

	raw := models.RawTable{Header: header}
	for rows.Next() {
		vals := make([]sql.NullString, len(header))
		ptrs := make([]any, len(header))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return models.RawTable{}, fmt.Errorf("%s: scan row: %w", s.dialect.name, err)
		}
		row := make([]string, len(header))
		for i, v := range vals {
			row[i] = v.String
		}
		raw.Rows = append(raw.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return models.RawTable{}, fmt.Errorf("%s: iterate rows: %w", s.dialect.name, err)
	}
	return raw, nil
}

func (s *SQLStore) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(table)+" WHERE 1 = 0")
	if err != nil {
		return nil, fmt.Errorf("%s: load columns of %q: %w", s.dialect.name, table, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("%s: load columns of %q: %w", s.dialect.name, table, err)
	}
	return cols, nil
}

// ReplaceTable drops table and recreates it holding raw, in one transaction.
func (s *SQLStore) ReplaceTable(ctx context.Context, table string, raw models.RawTable) error {
	if err := validateHeader(raw.Header); err != nil {
		return fmt.Errorf("%s: %w", s.dialect.name, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", s.dialect.name, err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(table)); err != nil {
		return fmt.Errorf("%s: drop table: %w", s.dialect.name, err)
	}

	defs := []string{quoteIdent(rowColumn) + " INTEGER PRIMARY KEY"}
	for _, h := range raw.Header {
		defs = append(defs, quoteIdent(h)+" TEXT")
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+quoteIdent(table)+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return fmt.Errorf("%s: create table: %w", s.dialect.name, err)
	}

	for i := 0; i < len(raw.Rows); i += batchSize {
		end := i + batchSize
		if end > len(raw.Rows) {
			end = len(raw.Rows)
		}
		if err := s.insertBatch(ctx, tx, table, raw.Header, raw.Rows[i:end], i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", s.dialect.name, err)
	}
	return nil
}

func (s *SQLStore) insertBatch(ctx context.Context, tx *sql.Tx, table string, header []string, batch [][]string, offset int) error {
	width := len(header) + 1
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*width)

	for idx, row := range batch {
		base := idx * width
		ph := make([]string, width)
		for j := range ph {
			ph[j] = s.dialect.placeholder(base + j + 1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(ph, ",")+")")

		valueArgs = append(valueArgs, offset+idx)
		for j := range header {
			cell := ""
			if j < len(row) {
				cell = row[j]
			}
			valueArgs = append(valueArgs, cell)
		}
	}

	query := fmt.Sprintf("INSERT INTO %s (%s, %s) VALUES %s",
		quoteIdent(table), quoteIdent(rowColumn), joinIdents(header), strings.Join(valueStrings, ","))

	if _, err := tx.ExecContext(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("%s: insert rows %d-%d: %w", s.dialect.name, offset+1, offset+len(batch), err)
	}
	return nil
}

func validateHeader(header []string) error {
	if len(header) == 0 {
		return fmt.Errorf("table has no columns")
	}
	seen := make(map[string]struct{}, len(header))
	for _, h := range header {
		key := strings.ToLower(h)
		if h == "" || key == rowColumn {
			return fmt.Errorf("invalid column name %q", h)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate column %q", h)
		}
		seen[key] = struct{}{}
	}
	return nil
}

func joinIdents(cols []string) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = quoteIdent(c)
	}
	return strings.Join(parts, ", ")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
