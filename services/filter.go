package services

import (
	"strings"

	"apppulse/models"
)

// Filter returns the records of t that satisfy every predicate of c, in
// input order. Records with an absent rating or review count never pass the
// threshold checks.
func Filter(t models.Table, c models.FilterCriteria) models.Table {
	c = c.Normalize()
	out := models.Table{Columns: t.Columns, Records: make([]*models.AppRecord, 0, len(t.Records))}

	for _, r := range t.Records {
		if c.Category != models.AllSelector && r.Category != c.Category {
			continue
		}
		if c.Type != models.AllSelector && r.Type != c.Type {
			continue
		}
		if !r.Rating.AtLeast(c.MinRating) {
			continue
		}
		if !r.Reviews.AtLeast(c.MinReviews) {
			continue
		}
		out.Records = append(out.Records, r)
	}
	return out
}

// Search returns the records whose name contains query, case-insensitively,
// in input order.
func Search(t models.Table, query string) []*models.AppRecord {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []*models.AppRecord
	for _, r := range t.Records {
		if strings.Contains(strings.ToLower(r.Name), q) {
			out = append(out, r)
		}
	}
	return out
}
