package cli

import (
	"context"
	"encoding/json"
	"strings"
)

// Execute implements the go-flags Commander interface for ReportCommand.
func (c *ReportCommand) Execute(_ []string) error {
	a, err := c.base.setup()
	if err != nil {
		return err
	}

	criteria, err := c.Filter.Criteria()
	if err != nil {
		return err
	}
	ds, err := a.loader.Load(context.Background())
	if err != nil {
		return err
	}

	report, err := a.insights.Generate(ds, criteria, strings.TrimSpace(c.Search))
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(c.base.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	a.insights.Print(c.base.stdout, report)
	return nil
}
