package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	goflags "github.com/jessevdk/go-flags"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apppulse/models"
	"apppulse/services"
	"apppulse/storage"
)

const sampleCSV = `App,Category,Type,Rating,Reviews,Installs_Clean,Price_Clean,Size_MB,sentiment_polarity_mean,positive_percentage,negative_percentage
Alpha Chat,CatA,Free,4.5,500,100000,0,12.5,0.3,70,10
Beta Pay,CatA,Paid,3.0,50,1000,2.99,45,0.1,55,25
Gamma Maps,CatB,Free,4.0,2000,5000000,0,80,0.2,65,15
Delta Notes,CatB,Paid,,40,500,1.49,3.2,,,
`

// withDataset points DATA_PATHS at a temporary copy of sampleCSV.
func withDataset(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "apps.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0644))

	t.Setenv("DATA_PATHS", path)
	t.Setenv("DASHBOARD_CONFIG", "")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "apppulse.db"))
	t.Setenv("LOG_LEVEL", "info")
	return dir
}

// parseOnly parses args without executing the matched command.
func parseOnly(t *testing.T, args ...string) (*commands, error) {
	t.Helper()
	parser, _, cmds := buildParser("test")
	parser.Options &^= goflags.PrintErrors
	parser.CommandHandler = func(goflags.Commander, []string) error { return nil }
	_, err := parser.ParseArgs(args)
	return cmds, err
}

func TestVersionFlag(t *testing.T) {
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := RunWithArgs("0.1.0-test", []string{"--version"})

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)

	assert.NoError(t, err)
	assert.Equal(t, "apppulse 0.1.0-test", strings.TrimSpace(buf.String()))
}

func TestSubcommandsRecognized(t *testing.T) {
	for _, args := range [][]string{
		{"serve"},
		{"serve", "--addr", ":9000"},
		{"report"},
		{"export", "--out", "x.csv"},
		{"import", "--to", "postgres"},
		{"snapshot", "--out", "shots"},
	} {
		_, err := parseOnly(t, args...)
		assert.NoError(t, err, args)
	}
}

func TestUnknownSubcommand(t *testing.T) {
	_, err := parseOnly(t, "scrape")
	assert.Error(t, err)
}

func TestReportRejectsNaNRating(t *testing.T) {
	withDataset(t)

	parser, _, _ := buildParser("test")
	parser.Options &^= goflags.PrintErrors
	_, err := parser.ParseArgs([]string{"report", "--min-rating", "NaN"})
	assert.ErrorIs(t, err, models.ErrInvalidCriteria)
}

func TestExportRequiresOut(t *testing.T) {
	_, err := parseOnly(t, "export")
	assert.Error(t, err)
}

func TestImportRejectsUnknownTarget(t *testing.T) {
	_, err := parseOnly(t, "import", "--to", "mysql")
	assert.Error(t, err)
}

func TestFilterFlagDefaults(t *testing.T) {
	cmds, err := parseOnly(t, "report")
	require.NoError(t, err)

	c, err := cmds.Report.Filter.Criteria()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultCriteria(), c)
}

func TestFilterFlagsParsed(t *testing.T) {
	cmds, err := parseOnly(t, "--verbose", "report",
		"--category", "GAME", "--type", "paid", "--min-rating", "3.5", "--min-reviews", "100", "--search", "chat")
	require.NoError(t, err)
	assert.True(t, cmds.Report.base.globals.Verbose)
	assert.Equal(t, "chat", cmds.Report.Search)

	c, err := cmds.Report.Filter.Criteria()
	require.NoError(t, err)
	assert.Equal(t, models.FilterCriteria{Category: "GAME", Type: models.TypePaid, MinRating: 3.5, MinReviews: 100}, c)
}

func TestFilterFlagsInvalid(t *testing.T) {
	for _, f := range []FilterFlags{
		{Category: "all", Type: "all", MinRating: 5.5},
		{Category: "all", Type: "all", MinRating: math.NaN()},
		{Category: "all", Type: "all", MinReviews: -1},
		{Category: "all", Type: "Freemium"},
	} {
		_, err := f.Criteria()
		assert.ErrorIs(t, err, models.ErrInvalidCriteria)
	}
}

func TestReportCommand(t *testing.T) {
	withDataset(t)

	parser, _, cmds := buildParser("test")
	var out bytes.Buffer
	cmds.Report.base.stdout = &out

	_, err := parser.ParseArgs([]string{"report", "--search", "alpha"})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "APPPULSE DASHBOARD")
	assert.Contains(t, out.String(), "Alpha Chat")
}

func TestReportCommandJSON(t *testing.T) {
	withDataset(t)

	parser, _, cmds := buildParser("test")
	var out bytes.Buffer
	cmds.Report.base.stdout = &out

	_, err := parser.ParseArgs([]string{"report", "--json", "--min-rating", "4"})
	require.NoError(t, err)

	var report models.DashboardReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, 2, report.Metrics.TotalApps)
	assert.InDelta(t, 4.25, report.Metrics.AvgRating.Value, 1e-9)
}

func TestReportDataUnavailable(t *testing.T) {
	withDataset(t)
	t.Setenv("DATA_PATHS", filepath.Join(t.TempDir(), "missing.csv"))

	parser, _, _ := buildParser("test")
	parser.Options &^= goflags.PrintErrors
	_, err := parser.ParseArgs([]string{"report"})
	assert.ErrorIs(t, err, services.ErrDataUnavailable)
}

func TestExportCommand(t *testing.T) {
	dir := withDataset(t)

	for _, name := range []string{"cat_a.csv", "cat_a.xlsx"} {
		out := filepath.Join(dir, "exports", name)
		parser, _, _ := buildParser("test")
		_, err := parser.ParseArgs([]string{"export", "--category", "CatA", "--out", out})
		require.NoError(t, err, name)

		raw, err := storage.SourceFor(out, storage.SourceOptions{}).Read(context.Background())
		require.NoError(t, err, name)
		assert.Len(t, raw.Header, 11, name)
		require.Len(t, raw.Rows, 2, name)
		assert.Equal(t, "Alpha Chat", raw.Rows[0][0], name)
		assert.Equal(t, "Beta Pay", raw.Rows[1][0], name)
	}
}

func TestExportUnsupportedExtension(t *testing.T) {
	_, err := exportWriter("report.json")
	assert.Error(t, err)
}

func TestImportSQLite(t *testing.T) {
	dir := withDataset(t)

	parser, _, _ := buildParser("test")
	_, err := parser.ParseArgs([]string{"import", "--table", "catalog"})
	require.NoError(t, err)

	src := &storage.SQLiteSource{Path: filepath.Join(dir, "apppulse.db"), Table: "catalog"}
	raw, err := src.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "App", raw.Header[0])
	require.Len(t, raw.Rows, 4)
	assert.Equal(t, "Delta Notes", raw.Rows[3][0])
	assert.Equal(t, "", raw.Rows[3][3])
}
