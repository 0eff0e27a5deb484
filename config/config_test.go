package config

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "DATA_PATHS", "DATA_DELIMITER", "DATA_TABLE", "LOG_LEVEL", "DASHBOARD_CONFIG"} {
		t.Setenv(k, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8501", cfg.HTTPAddr)
	assert.Equal(t, DefaultDataPaths, cfg.DataPaths)
	assert.Equal(t, rune(0), cfg.DataDelimiter)
	assert.Equal(t, "apps", cfg.DataTable)
	assert.Equal(t, 3, cfg.MaxConcurrency)
	assert.False(t, cfg.Debug())
	assert.Equal(t, DefaultDashboard(), cfg.Dashboard)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DASHBOARD_CONFIG", "")
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("DATA_PATHS", " a.csv , data/b.xlsx,,")
	t.Setenv("DATA_DELIMITER", "tab")
	t.Setenv("MAX_RETRIES", "7")
	t.Setenv("LOG_LEVEL", "DEBUG")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPAddr)
	assert.Equal(t, []string{"a.csv", "data/b.xlsx"}, cfg.DataPaths)
	assert.Equal(t, '\t', cfg.DataDelimiter)
	assert.Equal(t, 7, cfg.MaxRetries)
	assert.True(t, cfg.Debug())
}

func TestLoadReadsEnvFile(t *testing.T) {
	t.Setenv("DASHBOARD_CONFIG", "")
	t.Setenv("DATA_TABLE", "")
	os.Unsetenv("DATA_TABLE")

	envPath := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("DATA_TABLE=play_store\n"), 0644))

	cfg, err := Load(envPath)
	require.NoError(t, err)
	assert.Equal(t, "play_store", cfg.DataTable)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "apps", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=apps sslmode=disable", cfg.DSN())
}

func TestDefaultDashboardIsValid(t *testing.T) {
	d := DefaultDashboard()
	require.NoError(t, d.Validate())
	assert.Equal(t, 20, d.HistogramBins)
	assert.True(t, math.IsInf(d.PriceBuckets.Boundaries[5], 1))
	assert.Equal(t, "Free", d.PriceBuckets.Labels[0])
}

func TestLoadDashboardOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboard.yaml")
	yamlContent := `
top_categories: 5
search_limit: 50
size_buckets:
  boundaries: [0, 25, .inf]
  labels: ["small", "large"]
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0644))
	t.Setenv("DASHBOARD_CONFIG", path)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	d := cfg.Dashboard
	assert.Equal(t, 5, d.TopCategories)
	assert.Equal(t, 50, d.SearchLimit)
	assert.Equal(t, 10, d.TopApps)
	assert.Equal(t, []string{"small", "large"}, d.SizeBuckets.Labels)
	assert.True(t, math.IsInf(d.SizeBuckets.Boundaries[2], 1))
	assert.Equal(t, DefaultDashboard().PriceBuckets, d.PriceBuckets)
}

func TestLoadDashboardRejectsBadBuckets(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"label count", "price_buckets:\n  boundaries: [0, 1, 2]\n  labels: [a]\n"},
		{"not increasing", "size_buckets:\n  boundaries: [0, 5, 5]\n  labels: [a, b]\n"},
		{"zero size", "top_apps: 0\n"},
		{"bad yaml", "top_apps: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "d.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := LoadDashboard(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadDashboardMissingFile(t *testing.T) {
	_, err := LoadDashboard(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
