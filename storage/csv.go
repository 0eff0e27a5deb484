package storage

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"apppulse/models"
)

// CSVSource reads a delimited text file with a header row.
type CSVSource struct {
	Path      string
	Delimiter rune
}

// NewCSVSource picks a tab delimiter for .tsv files and a comma otherwise,
// unless delimiter is non-zero.
func NewCSVSource(path string, delimiter rune) *CSVSource {
	if delimiter == 0 {
		delimiter = ','
		if strings.EqualFold(filepath.Ext(path), ".tsv") {
			delimiter = '\t'
		}
	}
	return &CSVSource{Path: path, Delimiter: delimiter}
}

func (s *CSVSource) Name() string { return s.Path }

func (s *CSVSource) Read(_ context.Context) (models.RawTable, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.RawTable{}, fmt.Errorf("csv: %q: %w", s.Path, ErrSourceNotFound)
		}
		return models.RawTable{}, fmt.Errorf("csv: open %q: %w", s.Path, err)
	}
	defer f.Close()

	raw, err := ReadCSV(f, s.Delimiter)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("csv: %q: %w", s.Path, err)
	}
	raw.Source = s.Path
	return raw, nil
}

// ReadCSV parses a header row followed by data rows. Every row must have as
// many fields as the header.
func ReadCSV(r io.Reader, delimiter rune) (models.RawTable, error) {
	reader := csv.NewReader(r)
	if delimiter != 0 {
		reader.Comma = delimiter
	}

	header, err := reader.Read()
	if err == io.EOF {
		return models.RawTable{}, fmt.Errorf("file is empty")
	}
	if err != nil {
		return models.RawTable{}, fmt.Errorf("read header: %w", err)
	}

	raw := models.RawTable{Header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.RawTable{}, fmt.Errorf("read row %d: %w", len(raw.Rows)+1, err)
		}
		raw.Rows = append(raw.Rows, row)
	}
	return raw, nil
}

// WriteCSV writes the header and every row of raw to w.
func WriteCSV(w io.Writer, raw models.RawTable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(raw.Header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}
	for _, row := range raw.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSVWriter writes tables to a CSV file. It is safe for concurrent use.
type CSVWriter struct {
	mu   sync.Mutex
	file *os.File
}

// NewCSVWriter creates (or truncates) the CSV file at the given path.
// Intermediate directories are created automatically.
func NewCSVWriter(path string) (*CSVWriter, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, fmt.Errorf("csv: %w", err)
	}
	return &CSVWriter{file: f}, nil
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create file %q: %w", path, err)
	}
	return f, nil
}

// WriteTable writes raw to the file.
func (c *CSVWriter) WriteTable(_ context.Context, raw models.RawTable) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteCSV(c.file, raw)
}

// Close closes the underlying file.
func (c *CSVWriter) Close() error {
	return c.file.Close()
}
