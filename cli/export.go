package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"apppulse/models"
	"apppulse/storage"
)

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(_ []string) error {
	a, err := c.base.setup()
	if err != nil {
		return err
	}

	ctx := context.Background()
	view, err := a.filtered(ctx, c.Filter)
	if err != nil {
		return err
	}

	w, err := exportWriter(c.Out)
	if err != nil {
		return err
	}
	if err := w.WriteTable(ctx, models.RawOf(view)); err != nil {
		w.Close()
		return fmt.Errorf("export: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	a.logger.Info("Exported %s to %s", plural(view.Len(), "app"), c.Out)
	return nil
}

// exportWriter picks the file format from the extension of path.
func exportWriter(path string) (storage.TableWriter, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return storage.NewCSVWriter(path)
	case ".xlsx":
		return storage.NewXLSXWriter(path)
	default:
		return nil, fmt.Errorf("export: unsupported file type %q (want .csv or .xlsx)", ext)
	}
}
