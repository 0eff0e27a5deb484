package cli

import (
	"context"
	"fmt"

	"apppulse/models"
	"apppulse/storage"
)

// Execute implements the go-flags Commander interface for ImportCommand.
func (c *ImportCommand) Execute(_ []string) error {
	a, err := c.base.setup()
	if err != nil {
		return err
	}

	ctx := context.Background()
	ds, err := a.loader.Load(ctx)
	if err != nil {
		return err
	}

	table := c.Table
	if table == "" {
		table = a.cfg.DataTable
	}

	var (
		w      storage.TableWriter
		target string
	)
	switch c.To {
	case "sqlite":
		w, err = storage.NewSQLiteWriter(a.cfg.SQLitePath, table)
		target = a.cfg.SQLitePath
	case "postgres":
		w, err = storage.NewPostgresWriter(ctx, a.cfg.DSN(), table, a.retry)
		target = a.cfg.PostgresHost + "/" + a.cfg.PostgresDB
	default:
		return fmt.Errorf("import: unknown target %q", c.To)
	}
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer w.Close()

	if err := w.WriteTable(ctx, models.RawOf(ds.Table)); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	a.logger.Info("Imported %s from %s into %s (table: %s)", plural(ds.Len(), "app"), ds.Source, target, table)
	return nil
}
