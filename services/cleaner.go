package services

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"apppulse/models"
	"apppulse/utils"
)

var (
	// numberRegexp captures the first numeric value, allowing thousands separators.
	numberRegexp = regexp.MustCompile(`-?[\d,]*\.?\d+(?:[eE][-+]?\d+)?`)
	// sizeRegexp captures sizes written as "19M", "512k" or "1.2G".
	sizeRegexp = regexp.MustCompile(`(?i)^\s*([\d.]+)\s*([kmg])b?\s*$`)
)

// missingMarkers are cell values that mean "no value".
var missingMarkers = map[string]struct{}{
	"": {}, "nan": {}, "na": {}, "n/a": {}, "null": {}, "none": {},
	"varies with device": {},
}

// Cleaner transforms raw tables into typed app records.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger}
}

// Clean validates the header and converts every row. It fails only when a
// required column is missing; unparseable cells become absent values.
func (c *Cleaner) Clean(raw models.RawTable) (*models.Dataset, error) {
	idx, err := columnIndex(raw.Header)
	if err != nil {
		return nil, err
	}

	records := make([]*models.AppRecord, 0, len(raw.Rows))
	var unrated, untyped int

	for i, row := range raw.Rows {
		cell := func(col string) string {
			j := idx[col]
			if j >= len(row) {
				return ""
			}
			return row[j]
		}

		rec := &models.AppRecord{
			Row:      i,
			Name:     normaliseText(cell(models.ColumnApp)),
			Category: normaliseText(cell(models.ColumnCategory)),
			Type:     normaliseType(cell(models.ColumnType)),

			Rating:   parseRating(cell(string(models.FieldRating))),
			Reviews:  parseCount(cell(string(models.FieldReviews))),
			Installs: parseCount(cell(string(models.FieldInstalls))),
			Price:    parseNonNegative(cell(string(models.FieldPrice))),
			SizeMB:   parseSizeMB(cell(string(models.FieldSize))),

			SentimentPolarity: parseFloat(cell(string(models.FieldPolarity))),
			PositivePct:       parsePercent(cell(string(models.FieldPositive))),
			NegativePct:       parsePercent(cell(string(models.FieldNegative))),

			Fields: row,
		}
		if !rec.Rating.Valid {
			unrated++
		}
		if rec.Type != models.TypeFree && rec.Type != models.TypePaid {
			untyped++
		}
		records = append(records, rec)
	}

	c.logger.Info("[cleaner] Parsed %d rows from %s (%d without rating, %d without Free/Paid type)",
		len(records), raw.Source, unrated, untyped)

	return &models.Dataset{
		Table:  models.Table{Columns: raw.Header, Records: records},
		Source: raw.Source,
	}, nil
}

// columnIndex maps each required column to its position in header.
func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := idx[h]; !dup {
			idx[h] = i
		}
	}

	var missing []string
	for _, col := range models.RequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("cleaner: missing required columns: %s", strings.Join(missing, ", "))
	}
	return idx, nil
}

func isMissing(raw string) bool {
	_, ok := missingMarkers[strings.ToLower(strings.TrimSpace(raw))]
	return ok
}

// parseFloat extracts the first number in raw, e.g. "$2.99" → 2.99,
// "1,000,000+" → 1000000.
func parseFloat(raw string) models.OptFloat {
	if isMissing(raw) {
		return models.NoFloat()
	}
	match := numberRegexp.FindString(raw)
	if match == "" {
		return models.NoFloat()
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", ""), 64)
	if err != nil {
		return models.NoFloat()
	}
	return models.SomeFloat(v)
}

func parseNonNegative(raw string) models.OptFloat {
	v := parseFloat(raw)
	if v.Valid && v.Value < 0 {
		return models.NoFloat()
	}
	return v
}

// parseRating keeps only values on the 0–5 scale.
func parseRating(raw string) models.OptFloat {
	v := parseFloat(raw)
	if !v.Valid || v.Value < 0 || v.Value > 5 {
		return models.NoFloat()
	}
	return v
}

// parsePercent keeps only values on the 0–100 scale.
func parsePercent(raw string) models.OptFloat {
	v := parseFloat(raw)
	if !v.Valid || v.Value < 0 || v.Value > 100 {
		return models.NoFloat()
	}
	return v
}

// parseCount reads a non-negative integer; "10000.0" and "10,000+" are accepted.
func parseCount(raw string) models.OptInt {
	v := parseFloat(raw)
	if !v.Valid || v.Value < 0 || v.Value > math.MaxInt64/2 {
		return models.NoInt()
	}
	return models.SomeInt(int64(math.Round(v.Value)))
}

// parseSizeMB reads a size in megabytes. Plain numbers are taken as MB.
func parseSizeMB(raw string) models.OptFloat {
	if m := sizeRegexp.FindStringSubmatch(raw); len(m) == 3 {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return models.NoFloat()
		}
		switch strings.ToLower(m[2]) {
		case "k":
			v /= 1024
		case "g":
			v *= 1024
		}
		return models.SomeFloat(v)
	}
	return parseNonNegative(raw)
}

// normaliseType maps "free"/"PAID" to the canonical type names and anything
// else to "".
func normaliseType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "free":
		return models.TypeFree
	case "paid":
		return models.TypePaid
	}
	return ""
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	return strings.Join(fields, " ")
}
