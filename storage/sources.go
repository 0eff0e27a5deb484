package storage

import (
	"path/filepath"
	"strings"

	"apppulse/utils"
)

// SourceOptions carries the settings shared by every candidate source.
type SourceOptions struct {
	Delimiter rune
	Table     string
	Retry     *utils.RetryConfig
}

// SourceFor picks the reader for a candidate location: a postgres:// URL, a
// SQLite file (.db, .sqlite, .sqlite3), an Excel workbook (.xlsx) or a
// delimited text file for anything else.
func SourceFor(candidate string, opts SourceOptions) Source {
	table := opts.Table
	if table == "" {
		table = "apps"
	}

	lower := strings.ToLower(candidate)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		return &PostgresSource{DSN: candidate, Table: table, Retry: opts.Retry}
	}

	switch strings.ToLower(filepath.Ext(candidate)) {
	case ".db", ".sqlite", ".sqlite3":
		return &SQLiteSource{Path: candidate, Table: table}
	case ".xlsx":
		return &XLSXSource{Path: candidate}
	default:
		return NewCSVSource(candidate, opts.Delimiter)
	}
}

// Sources maps every candidate through SourceFor, keeping order.
func Sources(candidates []string, opts SourceOptions) []Source {
	out := make([]Source, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, SourceFor(c, opts))
	}
	return out
}
