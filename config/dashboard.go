package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Buckets describes half-open ranges [Boundaries[i], Boundaries[i+1]) and
// their display labels.
type Buckets struct {
	Boundaries []float64 `yaml:"boundaries"`
	Labels     []string  `yaml:"labels"`
}

// Validate checks that boundaries increase strictly and labels line up.
func (b Buckets) Validate() error {
	if len(b.Boundaries) < 2 {
		return fmt.Errorf("need at least 2 boundaries, got %d", len(b.Boundaries))
	}
	if len(b.Labels) != len(b.Boundaries)-1 {
		return fmt.Errorf("%d boundaries need %d labels, got %d",
			len(b.Boundaries), len(b.Boundaries)-1, len(b.Labels))
	}
	for i := 1; i < len(b.Boundaries); i++ {
		if !(b.Boundaries[i] > b.Boundaries[i-1]) {
			return fmt.Errorf("boundary %d (%v) is not greater than %v", i, b.Boundaries[i], b.Boundaries[i-1])
		}
	}
	return nil
}

// Dashboard holds the sizes and bucket layouts used to build one report.
type Dashboard struct {
	TopCategories int     `yaml:"top_categories"`
	TopApps       int     `yaml:"top_apps"`
	SearchLimit   int     `yaml:"search_limit"`
	PreviewRows   int     `yaml:"preview_rows"`
	ScatterSample int     `yaml:"scatter_sample"`
	HistogramBins int     `yaml:"histogram_bins"`
	PriceBuckets  Buckets `yaml:"price_buckets"`
	SizeBuckets   Buckets `yaml:"size_buckets"`
}

// DefaultDashboard returns the stock dashboard layout.
func DefaultDashboard() *Dashboard {
	return &Dashboard{
		TopCategories: 10,
		TopApps:       10,
		SearchLimit:   20,
		PreviewRows:   100,
		ScatterSample: 1000,
		HistogramBins: 20,
		PriceBuckets: Buckets{
			Boundaries: []float64{0, 0.01, 2, 5, 10, math.Inf(1)},
			Labels:     []string{"Free", "$0-2", "$2-5", "$5-10", "$10+"},
		},
		SizeBuckets: Buckets{
			Boundaries: []float64{0, 10, 50, 100, math.Inf(1)},
			Labels:     []string{"<10MB", "10-50MB", "50-100MB", ">100MB"},
		},
	}
}

// LoadDashboard reads a YAML file at path and merges it over the defaults.
func LoadDashboard(path string) (*Dashboard, error) {
	d := DefaultDashboard()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading dashboard file: %w", err)
	}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("config: parsing dashboard file: %w", err)
	}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return d, nil
}

// Validate checks sizes and both bucket layouts.
func (d *Dashboard) Validate() error {
	sizes := map[string]int{
		"top_categories": d.TopCategories,
		"top_apps":       d.TopApps,
		"search_limit":   d.SearchLimit,
		"preview_rows":   d.PreviewRows,
		"scatter_sample": d.ScatterSample,
		"histogram_bins": d.HistogramBins,
	}
	for name, v := range sizes {
		if v < 1 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if err := d.PriceBuckets.Validate(); err != nil {
		return fmt.Errorf("price_buckets: %w", err)
	}
	if err := d.SizeBuckets.Validate(); err != nil {
		return fmt.Errorf("size_buckets: %w", err)
	}
	return nil
}
