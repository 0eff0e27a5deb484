package services

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apppulse/models"
	"apppulse/storage"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func newFileLoader(paths ...string) *Loader {
	return NewLoader(storage.Sources(paths, storage.SourceOptions{}), newTestLogger())
}

func TestLoaderFallsBackToSecondCandidate(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "apps_with_features.csv")
	secondary := filepath.Join(dir, "data", "apps_with_features.csv")
	writeFile(t, secondary, sampleCSV)

	ds, err := newFileLoader(primary, secondary).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, secondary, ds.Source)
	assert.Equal(t, 4, ds.Len())
}

func TestLoaderSkipsUnparseableCandidate(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.csv")
	good := filepath.Join(dir, "good.csv")
	writeFile(t, broken, "App,Rating\nAlpha,4.5\n")
	writeFile(t, good, sampleCSV)

	ds, err := newFileLoader(broken, good).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, good, ds.Source)
}

func TestLoaderDataUnavailable(t *testing.T) {
	dir := t.TempDir()
	loader := newFileLoader(filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.csv"))

	ds, err := loader.Load(context.Background())
	assert.Nil(t, ds)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataUnavailable)
	assert.ErrorIs(t, err, storage.ErrSourceNotFound)
	assert.Contains(t, err.Error(), "a.csv")
	assert.Contains(t, err.Error(), "b.csv")
}

func TestLoaderNoCandidates(t *testing.T) {
	_, err := NewLoader(nil, newTestLogger()).Load(context.Background())
	assert.ErrorIs(t, err, ErrDataUnavailable)
}

func TestLoaderMemoizesSuccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.csv")
	writeFile(t, path, sampleCSV)
	loader := newFileLoader(path)

	first, err := loader.Load(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))

	second, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestLoaderRetriesAfterFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.csv")
	loader := newFileLoader(path)

	_, err := loader.Load(context.Background())
	require.ErrorIs(t, err, ErrDataUnavailable)

	writeFile(t, path, sampleCSV)

	ds, err := loader.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Len())
}

func TestLoaderConcurrentCallersShareDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.csv")
	writeFile(t, path, sampleCSV)
	loader := newFileLoader(path)

	results := make([]*models.Dataset, 8)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ds, err := loader.Load(context.Background())
			assert.NoError(t, err)
			results[i] = ds
		}(i)
	}
	wg.Wait()

	for _, ds := range results[1:] {
		assert.Same(t, results[0], ds)
	}
}

func TestLoaderReadsSQLiteCandidate(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "apps.db")

	raw, err := storage.NewCSVSource(writeTemp(t, dir), ',').Read(context.Background())
	require.NoError(t, err)

	w, err := storage.NewSQLiteWriter(dbPath, "apps")
	require.NoError(t, err)
	require.NoError(t, w.WriteTable(context.Background(), raw))
	require.NoError(t, w.Close())

	ds, err := newFileLoader(filepath.Join(dir, "missing.csv"), dbPath).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Alpha Chat", "Beta Pay", "Gamma Maps", "Delta Notes"}, names(ds.Records))
	assert.False(t, ds.Records[3].Rating.Valid)
}

func writeTemp(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "seed.csv")
	writeFile(t, path, sampleCSV)
	return path
}

func TestLoaderStopsOnCancelledContext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.csv")
	writeFile(t, path, sampleCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newFileLoader(path).Load(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
