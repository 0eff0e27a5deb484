package storage

import (
	"context"
	"errors"

	"apppulse/models"
)

// ErrSourceNotFound means a candidate source does not exist (missing file or
// table). Loaders skip such candidates.
var ErrSourceNotFound = errors.New("source not found")

// Source is anything a dataset table can be read from.
type Source interface {
	Name() string
	Read(ctx context.Context) (models.RawTable, error)
}

// TableWriter is the interface any export or import backend must satisfy.
type TableWriter interface {
	WriteTable(ctx context.Context, raw models.RawTable) error
	Close() error
}
