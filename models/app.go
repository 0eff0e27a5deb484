package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// App types as they appear in the Type column.
const (
	TypeFree = "Free"
	TypePaid = "Paid"
)

// AllSelector matches every category or type.
const AllSelector = "all"

// Field names a numeric column of the dataset.
type Field string

const (
	FieldRating   Field = "Rating"
	FieldReviews  Field = "Reviews"
	FieldInstalls Field = "Installs_Clean"
	FieldPrice    Field = "Price_Clean"
	FieldSize     Field = "Size_MB"
	FieldPolarity Field = "sentiment_polarity_mean"
	FieldPositive Field = "positive_percentage"
	FieldNegative Field = "negative_percentage"
)

// Text columns.
const (
	ColumnApp      = "App"
	ColumnCategory = "Category"
	ColumnType     = "Type"
)

// RequiredColumns must all be present in a loaded table.
var RequiredColumns = []string{
	ColumnApp, ColumnCategory, ColumnType,
	string(FieldRating), string(FieldReviews), string(FieldInstalls),
	string(FieldPrice), string(FieldSize), string(FieldPolarity),
	string(FieldPositive), string(FieldNegative),
}

// AppRecord is one cleaned row of the dataset.
type AppRecord struct {
	Row      int    `json:"row"`
	Name     string `json:"app"`
	Category string `json:"category"`
	Type     string `json:"type"`

	Rating   OptFloat `json:"rating"`
	Reviews  OptInt   `json:"reviews"`
	Installs OptInt   `json:"installs"`
	Price    OptFloat `json:"price"`
	SizeMB   OptFloat `json:"size_mb"`

	SentimentPolarity OptFloat `json:"sentiment_polarity_mean"`
	PositivePct       OptFloat `json:"positive_percentage"`
	NegativePct       OptFloat `json:"negative_percentage"`

	// Fields holds the source cells in Table.Columns order.
	Fields []string `json:"-"`
}

// Value returns the record's value for a numeric field.
func (r *AppRecord) Value(f Field) OptFloat {
	switch f {
	case FieldRating:
		return r.Rating
	case FieldReviews:
		return r.Reviews.Float()
	case FieldInstalls:
		return r.Installs.Float()
	case FieldPrice:
		return r.Price
	case FieldSize:
		return r.SizeMB
	case FieldPolarity:
		return r.SentimentPolarity
	case FieldPositive:
		return r.PositivePct
	case FieldNegative:
		return r.NegativePct
	}
	return OptFloat{}
}

// Table is an ordered set of records sharing one column layout. A filtered
// view is a Table whose records are a subset of the dataset's.
type Table struct {
	Columns []string
	Records []*AppRecord
}

// Len returns the number of records.
func (t Table) Len() int { return len(t.Records) }

// Dataset is the loaded table. It is shared read-only after load.
type Dataset struct {
	Table
	Source string
}

// Categories returns the distinct non-empty categories, sorted.
func (d *Dataset) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range d.Records {
		if r.Category == "" {
			continue
		}
		if _, ok := seen[r.Category]; ok {
			continue
		}
		seen[r.Category] = struct{}{}
		out = append(out, r.Category)
	}
	sort.Strings(out)
	return out
}

// ErrInvalidCriteria is returned for filter input outside the allowed ranges.
var ErrInvalidCriteria = errors.New("invalid filter criteria")

// FilterCriteria narrows the dataset to the rows a user selected.
type FilterCriteria struct {
	Category   string  `json:"category"`
	Type       string  `json:"type"`
	MinRating  float64 `json:"min_rating"`
	MinReviews int64   `json:"min_reviews"`
}

// DefaultCriteria selects every row with a rating and a review count.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{Category: AllSelector, Type: AllSelector}
}

// Normalize maps empty selectors to "all" and canonicalizes the type case.
func (c FilterCriteria) Normalize() FilterCriteria {
	c.Category = strings.TrimSpace(c.Category)
	if c.Category == "" || strings.EqualFold(c.Category, AllSelector) {
		c.Category = AllSelector
	}
	t := strings.TrimSpace(c.Type)
	switch {
	case t == "" || strings.EqualFold(t, AllSelector):
		c.Type = AllSelector
	case strings.EqualFold(t, TypeFree):
		c.Type = TypeFree
	case strings.EqualFold(t, TypePaid):
		c.Type = TypePaid
	default:
		c.Type = t
	}
	return c
}

// Validate checks thresholds and the type selector.
func (c FilterCriteria) Validate() error {
	// Written so that NaN fails too.
	if !(c.MinRating >= 0 && c.MinRating <= 5) {
		return fmt.Errorf("%w: min rating %v outside 0..5", ErrInvalidCriteria, c.MinRating)
	}
	if c.MinReviews < 0 {
		return fmt.Errorf("%w: min reviews %d is negative", ErrInvalidCriteria, c.MinReviews)
	}
	switch c.Type {
	case AllSelector, TypeFree, TypePaid:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCriteria, c.Type)
	}
	return nil
}

// IsCategorySelected reports whether a single category is chosen.
func (c FilterCriteria) IsCategorySelected() bool {
	return c.Category != AllSelector
}
