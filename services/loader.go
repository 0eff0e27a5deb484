package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"apppulse/models"
	"apppulse/storage"
	"apppulse/utils"
)

// ErrDataUnavailable is returned when no candidate source yields a dataset.
var ErrDataUnavailable = errors.New("dataset unavailable")

// Loader reads the dataset from the first usable candidate source and keeps
// it for the lifetime of the process. Failed loads are not cached.
type Loader struct {
	sources []storage.Source
	cleaner *Cleaner
	logger  *utils.Logger

	mu      sync.Mutex
	dataset *models.Dataset
}

// NewLoader creates a Loader trying sources in order.
func NewLoader(sources []storage.Source, logger *utils.Logger) *Loader {
	return &Loader{
		sources: sources,
		cleaner: NewCleaner(logger),
		logger:  logger,
	}
}

// Load returns the memoized dataset, reading it on first use. Concurrent
// callers wait for a single read.
func (l *Loader) Load(ctx context.Context) (*models.Dataset, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.dataset != nil {
		return l.dataset, nil
	}

	ds, err := l.read(ctx)
	if err != nil {
		return nil, err
	}
	l.dataset = ds
	return ds, nil
}

func (l *Loader) read(ctx context.Context) (*models.Dataset, error) {
	var errs []error

	for _, src := range l.sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("loader: %w", err)
		}

		raw, err := src.Read(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrSourceNotFound) {
				l.logger.Debug("[loader] %s not found, trying next candidate", src.Name())
			} else {
				l.logger.Warn("[loader] Could not read %s: %v", src.Name(), err)
			}
			errs = append(errs, err)
			continue
		}

		ds, err := l.cleaner.Clean(raw)
		if err != nil {
			l.logger.Warn("[loader] Could not parse %s: %v", src.Name(), err)
			errs = append(errs, fmt.Errorf("%s: %w", src.Name(), err))
			continue
		}

		l.logger.Info("[loader] Loaded %d apps from %s", ds.Len(), src.Name())
		return ds, nil
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no candidate sources configured"))
	}
	return nil, fmt.Errorf("%w: %w", ErrDataUnavailable, errors.Join(errs...))
}
