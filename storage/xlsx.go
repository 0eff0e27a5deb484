package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/xuri/excelize/v2"

	"apppulse/models"
)

const exportSheet = "apps"

// XLSXSource reads the first sheet of an Excel workbook; the first row is the header.
type XLSXSource struct {
	Path string
}

func (s *XLSXSource) Name() string { return s.Path }

func (s *XLSXSource) Read(_ context.Context) (models.RawTable, error) {
	if _, err := os.Stat(s.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return models.RawTable{}, fmt.Errorf("xlsx: %q: %w", s.Path, ErrSourceNotFound)
		}
		return models.RawTable{}, fmt.Errorf("xlsx: stat %q: %w", s.Path, err)
	}

	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("xlsx: open %q: %w", s.Path, err)
	}
	defer f.Close()

	raw, err := readWorkbook(f)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("xlsx: %q: %w", s.Path, err)
	}
	raw.Source = s.Path
	return raw, nil
}

// ReadXLSX parses a workbook from r.
func ReadXLSX(r io.Reader) (models.RawTable, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return models.RawTable{}, fmt.Errorf("xlsx: open: %w", err)
	}
	defer f.Close()
	return readWorkbook(f)
}

func readWorkbook(f *excelize.File) (models.RawTable, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return models.RawTable{}, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return models.RawTable{}, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) == 0 {
		return models.RawTable{}, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	raw := models.RawTable{Header: rows[0]}
	width := len(rows[0])
	for _, row := range rows[1:] {
		// GetRows drops trailing empty cells.
		if len(row) < width {
			row = append(row, make([]string, width-len(row))...)
		}
		raw.Rows = append(raw.Rows, row[:width])
	}
	return raw, nil
}

// WriteXLSX writes raw as a single-sheet workbook to w. Cells are written as
// text so the workbook reproduces the source values exactly.
func WriteXLSX(w io.Writer, raw models.RawTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(exportSheet)
	if err != nil {
		return fmt.Errorf("xlsx: stream writer: %w", err)
	}

	writeRow := func(n int, cells []string) error {
		cell, err := excelize.CoordinatesToCellName(1, n)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(cells))
		for i, c := range cells {
			values[i] = c
		}
		return sw.SetRow(cell, values)
	}

	if err := writeRow(1, raw.Header); err != nil {
		return fmt.Errorf("xlsx: write header: %w", err)
	}
	for i, row := range raw.Rows {
		if err := writeRow(i+2, row); err != nil {
			return fmt.Errorf("xlsx: write row %d: %w", i+1, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("xlsx: flush: %w", err)
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

// XLSXWriter writes a table to an .xlsx file.
type XLSXWriter struct {
	file *os.File
}

// NewXLSXWriter creates (or truncates) the workbook at path.
func NewXLSXWriter(path string) (*XLSXWriter, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, fmt.Errorf("xlsx: %w", err)
	}
	return &XLSXWriter{file: f}, nil
}

func (x *XLSXWriter) WriteTable(_ context.Context, raw models.RawTable) error {
	return WriteXLSX(x.file, raw)
}

func (x *XLSXWriter) Close() error {
	return x.file.Close()
}
