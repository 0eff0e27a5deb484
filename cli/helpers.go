package cli

import (
	"context"
	"fmt"
	"time"

	"apppulse/config"
	"apppulse/models"
	"apppulse/services"
	"apppulse/storage"
	"apppulse/utils"
)

// app is the wired application shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *utils.Logger
	retry    *utils.RetryConfig
	loader   *services.Loader
	insights *services.InsightService
}

// setup loads configuration and wires the loader and insight service.
func (b base) setup() (*app, error) {
	var envFiles []string
	if b.globals.EnvFile != "" {
		envFiles = append(envFiles, b.globals.EnvFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return nil, err
	}
	if b.globals.Config != "" {
		if cfg.Dashboard, err = config.LoadDashboard(b.globals.Config); err != nil {
			return nil, err
		}
	}

	logger := utils.NewLogger()
	logger.SetDebug(cfg.Debug() || b.globals.Verbose)

	retry := &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   time.Second,
		Logger:      logger,
	}
	sources := storage.Sources(cfg.DataPaths, storage.SourceOptions{
		Delimiter: cfg.DataDelimiter,
		Table:     cfg.DataTable,
		Retry:     retry,
	})
	logger.Debug("Dataset candidates: %v", cfg.DataPaths)

	return &app{
		cfg:      cfg,
		logger:   logger,
		retry:    retry,
		loader:   services.NewLoader(sources, logger),
		insights: services.NewInsightService(logger, cfg.Dashboard),
	}, nil
}

// filtered loads the dataset and applies the filter flags.
func (a *app) filtered(ctx context.Context, f FilterFlags) (models.Table, error) {
	criteria, err := f.Criteria()
	if err != nil {
		return models.Table{}, err
	}
	ds, err := a.loader.Load(ctx)
	if err != nil {
		return models.Table{}, err
	}
	return services.Filter(ds.Table, criteria), nil
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
