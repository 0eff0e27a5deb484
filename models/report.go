package models

import "encoding/json"

// CategorySummary aggregates one category of a filtered view.
type CategorySummary struct {
	Category      string   `json:"category"`
	AppCount      int      `json:"app_count"`
	AvgRating     OptFloat `json:"avg_rating"`
	TotalReviews  int64    `json:"total_reviews"`
	TotalInstalls int64    `json:"total_installs"`
}

// CategoryValue pairs a category with one reduced value.
type CategoryValue struct {
	Category string   `json:"category"`
	Value    OptFloat `json:"value"`
}

// CategorySentiment holds the mean review shares of one category.
type CategorySentiment struct {
	Category    string   `json:"category"`
	PositivePct OptFloat `json:"positive_percentage"`
	NegativePct OptFloat `json:"negative_percentage"`
}

// BucketStat is one half-open range [Lower, Upper) of a bucketized field.
type BucketStat struct {
	Label string   `json:"label"`
	Lower float64  `json:"lower"`
	Upper float64  `json:"upper"`
	Count int      `json:"count"`
	Value OptFloat `json:"value"`
}

// MarshalJSON encodes an unbounded upper edge as null.
func (b BucketStat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Label string   `json:"label"`
		Lower float64  `json:"lower"`
		Upper OptFloat `json:"upper"`
		Count int      `json:"count"`
		Value OptFloat `json:"value"`
	}{b.Label, b.Lower, SomeFloat(b.Upper), b.Count, b.Value})
}

// SentimentSummary holds view-wide sentiment means.
type SentimentSummary struct {
	Polarity    OptFloat `json:"polarity"`
	PositivePct OptFloat `json:"positive_percentage"`
	NegativePct OptFloat `json:"negative_percentage"`
}

// KeyMetrics are the headline numbers of the dashboard.
type KeyMetrics struct {
	TotalApps      int      `json:"total_apps"`
	TotalAppsDelta *int     `json:"total_apps_delta,omitempty"`
	AvgRating      OptFloat `json:"avg_rating"`
	AvgRatingDelta OptFloat `json:"avg_rating_delta"`
	TotalInstalls  int64    `json:"total_installs"`
	FreePercentage OptFloat `json:"free_percentage"`
	PaidPercentage OptFloat `json:"paid_percentage"`
}

// SearchResult is the outcome of a name search over the filtered view.
type SearchResult struct {
	Query   string       `json:"query"`
	Total   int          `json:"total"`
	Results []*AppRecord `json:"results"`
}

// DashboardReport holds everything needed to render one dashboard pass.
type DashboardReport struct {
	Source     string         `json:"source"`
	Criteria   FilterCriteria `json:"criteria"`
	Categories []string       `json:"categories"`
	DatasetLen int            `json:"dataset_apps"`
	Metrics    KeyMetrics     `json:"metrics"`

	TopCategories   []CategorySummary   `json:"top_categories"`
	CategoryRatings []CategoryValue     `json:"category_ratings"`
	CategoryTable   []CategorySummary   `json:"category_summary"`
	RatingHistogram []BucketStat        `json:"rating_histogram"`
	ScatterSample   []*AppRecord        `json:"scatter_sample"`
	Sentiment       SentimentSummary    `json:"sentiment"`
	SentimentByCat  []CategorySentiment `json:"sentiment_by_category"`

	TopRated     []*AppRecord `json:"top_rated"`
	TopInstalled []*AppRecord `json:"top_installed"`
	TopReviewed  []*AppRecord `json:"top_reviewed"`

	PriceRating []BucketStat `json:"price_rating"`
	SizeRating  []BucketStat `json:"size_rating"`

	Search  *SearchResult `json:"search,omitempty"`
	Preview []*AppRecord  `json:"preview"`
}
