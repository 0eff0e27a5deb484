package storage

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apppulse/models"
)

func sampleRaw() models.RawTable {
	return models.RawTable{
		Header: []string{"App", "Category", "Rating", "Notes"},
		Rows: [][]string{
			{"Alpha, the chat app", "CatA", "4.5", `says "hi"`},
			{"Beta", "CatB", "", "two words"},
			{"Gamma", "CatB", "NaN", ""},
		},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	raw := sampleRaw()

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, raw))

	got, err := ReadCSV(&buf, ',')
	require.NoError(t, err)
	assert.Equal(t, raw.Header, got.Header)
	assert.Equal(t, raw.Rows, got.Rows)
}

func TestCSVRoundTripMultiline(t *testing.T) {
	raw := models.RawTable{Header: []string{"App"}, Rows: [][]string{{"multi\nline"}}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, raw))

	got, err := ReadCSV(&buf, ',')
	require.NoError(t, err)
	assert.Equal(t, raw.Rows, got.Rows)
}

func TestReadCSVErrors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""), ',')
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("a,b\n1,2,3\n"), ',')
	assert.Error(t, err)
}

func TestCSVSourceTabDelimited(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.tsv")
	require.NoError(t, os.WriteFile(path, []byte("App\tRating\nAlpha, Inc\t4.5\n"), 0644))

	src := NewCSVSource(path, 0)
	assert.Equal(t, '\t', src.Delimiter)

	raw, err := src.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, path, raw.Source)
	assert.Equal(t, [][]string{{"Alpha, Inc", "4.5"}}, raw.Rows)
}

func TestMissingSourcesReportNotFound(t *testing.T) {
	dir := t.TempDir()
	sources := []Source{
		NewCSVSource(filepath.Join(dir, "none.csv"), 0),
		&XLSXSource{Path: filepath.Join(dir, "none.xlsx")},
		&SQLiteSource{Path: filepath.Join(dir, "none.db"), Table: "apps"},
	}
	for _, src := range sources {
		_, err := src.Read(context.Background())
		assert.ErrorIs(t, err, ErrSourceNotFound, src.Name())
	}
}

func TestCSVWriterCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out", "apps.csv")

	w, err := NewCSVWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteTable(context.Background(), sampleRaw()))
	require.NoError(t, w.Close())

	raw, err := NewCSVSource(path, 0).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleRaw().Rows, raw.Rows)
}

func TestXLSXRoundTrip(t *testing.T) {
	raw := sampleRaw()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, raw))

	got, err := ReadXLSX(&buf)
	require.NoError(t, err)
	assert.Equal(t, raw.Header, got.Header)
	assert.Equal(t, raw.Rows, got.Rows)
}

func TestXLSXWriterAndSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.xlsx")

	w, err := NewXLSXWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.WriteTable(context.Background(), sampleRaw()))
	require.NoError(t, w.Close())

	raw, err := (&XLSXSource{Path: path}).Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sampleRaw().Rows, raw.Rows)
}

func TestSQLiteReplaceAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.db")
	ctx := context.Background()

	w, err := NewSQLiteWriter(path, "apps")
	require.NoError(t, err)
	require.NoError(t, w.WriteTable(ctx, sampleRaw()))

	// A second import replaces the table rather than appending.
	smaller := sampleRaw()
	smaller.Rows = smaller.Rows[:1]
	require.NoError(t, w.WriteTable(ctx, smaller))
	require.NoError(t, w.Close())

	raw, err := (&SQLiteSource{Path: path, Table: "apps"}).Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, smaller.Header, raw.Header)
	assert.Equal(t, smaller.Rows, raw.Rows)

	_, err = (&SQLiteSource{Path: path, Table: "other"}).Read(ctx)
	assert.ErrorIs(t, err, ErrSourceNotFound)
}

func TestSQLiteKeepsRowOrderAcrossBatches(t *testing.T) {
	raw := models.RawTable{Header: []string{"App"}}
	for i := 0; i < batchSize*2+7; i++ {
		raw.Rows = append(raw.Rows, []string{strings.Repeat("x", i%5) + string(rune('a'+i%26))})
	}

	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	require.NoError(t, store.ReplaceTable(ctx, "apps", raw))

	got, err := store.ReadTable(ctx, "apps")
	require.NoError(t, err)
	assert.Equal(t, raw.Rows, got.Rows)
}

func TestReplaceTableRejectsBadHeaders(t *testing.T) {
	store, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	for _, header := range [][]string{
		nil,
		{"App", "app"},
		{"App", ""},
		{"_row"},
	} {
		err := store.ReplaceTable(ctx, "apps", models.RawTable{Header: header})
		assert.Error(t, err, "%v", header)
	}
}

func TestSourceFor(t *testing.T) {
	opts := SourceOptions{Table: "apps"}

	assert.IsType(t, &CSVSource{}, SourceFor("apps_with_features.csv", opts))
	assert.IsType(t, &CSVSource{}, SourceFor("data/apps", opts))
	assert.IsType(t, &XLSXSource{}, SourceFor("apps.XLSX", opts))
	assert.IsType(t, &SQLiteSource{}, SourceFor("data/apppulse.db", opts))
	assert.IsType(t, &SQLiteSource{}, SourceFor("apps.sqlite", opts))

	pg := SourceFor("postgres://u:p@localhost/apppulse?sslmode=disable", SourceOptions{})
	require.IsType(t, &PostgresSource{}, pg)
	assert.Equal(t, "apps", pg.(*PostgresSource).Table)
	assert.NotContains(t, pg.Name(), "u:p")

	tsv := SourceFor("apps.tsv", opts).(*CSVSource)
	assert.Equal(t, '\t', tsv.Delimiter)
	semi := SourceFor("apps.tsv", SourceOptions{Delimiter: ';'}).(*CSVSource)
	assert.Equal(t, ';', semi.Delimiter)
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"App"`, quoteIdent("App"))
	assert.Equal(t, `"a""b"`, quoteIdent(`a"b`))
	assert.Equal(t, `"a", "b"`, joinIdents([]string{"a", "b"}))
}
