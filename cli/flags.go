package cli

import (
	"io"

	"apppulse/models"
)

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	EnvFile string `long:"env-file" description:"Path to a .env file" default:""`
	Config  string `long:"config" description:"Dashboard YAML file (overrides DASHBOARD_CONFIG)" default:""`
	Verbose bool   `long:"verbose" description:"Enable debug logging"`
	Version bool   `long:"version" description:"Show version and exit"`
}

// FilterFlags are the dashboard filter controls as command-line flags.
type FilterFlags struct {
	Category   string  `long:"category" description:"Category to include, or all" default:"all"`
	Type       string  `long:"type" description:"App type: all | Free | Paid" default:"all"`
	MinRating  float64 `long:"min-rating" description:"Minimum rating (0-5)" default:"0"`
	MinReviews int64   `long:"min-reviews" description:"Minimum number of reviews" default:"0"`
}

// Criteria converts the flags into validated filter criteria.
func (f FilterFlags) Criteria() (models.FilterCriteria, error) {
	c := models.FilterCriteria{
		Category:   f.Category,
		Type:       f.Type,
		MinRating:  f.MinRating,
		MinReviews: f.MinReviews,
	}.Normalize()
	return c, c.Validate()
}

// base is shared by every subcommand.
type base struct {
	globals *GlobalFlags
	version string
	stdout  io.Writer
}

// ServeCommand runs the dashboard web server.
type ServeCommand struct {
	Addr string `long:"addr" description:"Listen address (overrides HTTP_ADDR)"`

	base base
}

// ReportCommand prints the insight report for a filtered view.
type ReportCommand struct {
	Filter FilterFlags `group:"Filter Options"`
	Search string      `long:"search" description:"Case-insensitive app name search within the view"`
	JSON   bool        `long:"json" description:"Print the report as JSON"`

	base base
}

// ExportCommand writes the filtered view to a CSV or XLSX file.
type ExportCommand struct {
	Filter FilterFlags `group:"Filter Options"`
	Out    string      `long:"out" description:"Output file (.csv or .xlsx)" required:"true"`

	base base
}

// ImportCommand copies the loaded dataset into a database table.
type ImportCommand struct {
	To    string `long:"to" description:"Target database" choice:"sqlite" choice:"postgres" default:"sqlite"`
	Table string `long:"table" description:"Target table (default DATA_TABLE)"`

	base base
}

// SnapshotCommand captures PNG screenshots of the dashboard per category.
type SnapshotCommand struct {
	Out string `long:"out" description:"Output directory (overrides SNAPSHOT_DIR)"`

	base base
}
