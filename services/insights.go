package services

import (
	"fmt"
	"io"
	"strings"

	"apppulse/config"
	"apppulse/models"
	"apppulse/utils"
)

// InsightService builds dashboard reports from a dataset.
type InsightService struct {
	logger *utils.Logger
	dash   *config.Dashboard
}

// NewInsightService uses the default layout when dash is nil.
func NewInsightService(logger *utils.Logger, dash *config.Dashboard) *InsightService {
	if dash == nil {
		dash = config.DefaultDashboard()
	}
	return &InsightService{logger: logger, dash: dash}
}

// Generate filters ds by criteria and computes every figure of the dashboard.
// A non-empty query adds name search results over the filtered view.
func (s *InsightService) Generate(ds *models.Dataset, criteria models.FilterCriteria, query string) (*models.DashboardReport, error) {
	criteria = criteria.Normalize()
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	view := Filter(ds.Table, criteria)
	d := s.dash

	report := &models.DashboardReport{
		Source:     ds.Source,
		Criteria:   criteria,
		Categories: ds.Categories(),
		DatasetLen: ds.Len(),
		Metrics:    keyMetrics(ds.Table, view, criteria),

		TopCategories:   GroupByCategory(view, d.TopCategories),
		CategoryRatings: CategoryRatings(view, d.TopCategories),
		CategoryTable:   GroupByCategory(view, 0),
		RatingHistogram: RatingHistogram(view, d.HistogramBins),
		ScatterSample:   Sample(view, d.ScatterSample),
		Sentiment:       Sentiment(view),
		SentimentByCat:  SentimentByCategory(view, d.TopCategories),

		TopRated:     TopByField(view, models.FieldRating, d.TopApps),
		TopInstalled: TopByField(view, models.FieldInstalls, d.TopApps),
		TopReviewed:  TopByField(view, models.FieldReviews, d.TopApps),

		PriceRating: Bucketize(view, models.FieldPrice, d.PriceBuckets.Boundaries, d.PriceBuckets.Labels, MeanOf(models.FieldRating)),
		SizeRating:  Bucketize(view, models.FieldSize, d.SizeBuckets.Boundaries, d.SizeBuckets.Labels, MeanOf(models.FieldRating)),

		Preview: Head(view, d.PreviewRows),
	}

	if q := strings.TrimSpace(query); q != "" {
		found := Search(view, q)
		report.Search = &models.SearchResult{
			Query:   q,
			Total:   len(found),
			Results: truncate(found, d.SearchLimit),
		}
	}

	s.logger.Debug("[insights] %d of %d apps match %+v", view.Len(), ds.Len(), criteria)
	return report, nil
}

// keyMetrics computes the headline numbers. The app count delta is set when a
// category is selected; the rating delta when the view is narrower than the
// dataset.
func keyMetrics(all, view models.Table, c models.FilterCriteria) models.KeyMetrics {
	m := models.KeyMetrics{
		TotalApps:      Count(view),
		AvgRating:      MeanRating(view),
		TotalInstalls:  TotalInstalls(view),
		FreePercentage: FreePercentage(view),
		PaidPercentage: PaidPercentage(view),
	}
	if c.IsCategorySelected() {
		delta := Count(view) - Count(all)
		m.TotalAppsDelta = &delta
	}
	if view.Len() < all.Len() {
		overall := MeanRating(all)
		if m.AvgRating.Valid && overall.Valid {
			m.AvgRatingDelta = models.SomeFloat(m.AvgRating.Value - overall.Value)
		}
	}
	return m
}

// Print writes a terminal rendering of r to w.
func (s *InsightService) Print(w io.Writer, r *models.DashboardReport) {
	sep := strings.Repeat("═", 60)
	thin := strings.Repeat("─", 60)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  📱 APPPULSE DASHBOARD\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	c := r.Criteria
	fmt.Fprintf(w, "  Source   : %s\n", r.Source)
	fmt.Fprintf(w, "  Filters  : category=%s type=%s rating>=%.1f reviews>=%s\n\n",
		c.Category, c.Type, c.MinRating, FormatCount(c.MinReviews))

	// Key metrics
	m := r.Metrics
	fmt.Fprintf(w, "\033[1;33m  Key Metrics\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total apps     : \033[1m%s\033[0m", FormatCount(int64(m.TotalApps)))
	if m.TotalAppsDelta != nil {
		fmt.Fprintf(w, " (%+d)", *m.TotalAppsDelta)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Average rating : \033[1;32m%s\033[0m", FormatOpt(m.AvgRating, "%.2f"))
	if d := FormatDelta(m.AvgRatingDelta, "%.2f"); d != "" {
		fmt.Fprintf(w, " (%s)", d)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Total installs : \033[1m%s\033[0m\n", FormatInstalls(m.TotalInstalls))
	fmt.Fprintf(w, "  Free apps      : \033[1m%s\033[0m\n\n", FormatPercent(m.FreePercentage))

	if m.TotalApps == 0 {
		fmt.Fprintf(w, "  No apps match the current filters\n")
		fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
		return
	}

	// Categories
	fmt.Fprintf(w, "\033[1;33m  Top Categories\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	maxCount := 0
	for _, cs := range r.TopCategories {
		if cs.AppCount > maxCount {
			maxCount = cs.AppCount
		}
	}
	for _, cs := range r.TopCategories {
		bar := strings.Repeat("█", barWidth(cs.AppCount, maxCount, 24))
		fmt.Fprintf(w, "  %-24s %-24s %6d  ★ %s\n",
			shorten(displayCategory(cs.Category), 24), bar, cs.AppCount, FormatOpt(cs.AvgRating, "%.2f"))
	}
	fmt.Fprintln(w)

	// Sentiment
	fmt.Fprintf(w, "\033[1;33m  Sentiment\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Mean polarity  : %s\n", FormatOpt(r.Sentiment.Polarity, "%.3f"))
	fmt.Fprintf(w, "  Positive share : %s\n", FormatPercent(r.Sentiment.PositivePct))
	fmt.Fprintf(w, "  Negative share : %s\n\n", FormatPercent(r.Sentiment.NegativePct))

	// Top apps
	printTop(w, thin, "Highest Rated", r.TopRated, func(a *models.AppRecord) string {
		return FormatOpt(a.Rating, "%.1f ★")
	})
	printTop(w, thin, "Most Installed", r.TopInstalled, func(a *models.AppRecord) string {
		return FormatOptCount(a.Installs)
	})
	printTop(w, thin, "Most Reviewed", r.TopReviewed, func(a *models.AppRecord) string {
		return FormatOptCount(a.Reviews)
	})

	// Buckets
	printBuckets(w, thin, "Average Rating by Price", r.PriceRating)
	printBuckets(w, thin, "Average Rating by Size", r.SizeRating)

	if r.Search != nil {
		fmt.Fprintf(w, "\033[1;33m  Search \"%s\": %d found\033[0m\n", r.Search.Query, r.Search.Total)
		fmt.Fprintf(w, "  %s\n", thin)
		for _, a := range r.Search.Results {
			fmt.Fprintf(w, "  %-40s %-20s %s\n", shorten(a.Name, 40), shorten(a.Category, 20), FormatOpt(a.Rating, "%.1f"))
		}
		if r.Search.Total > len(r.Search.Results) {
			fmt.Fprintf(w, "  ... and %d more\n", r.Search.Total-len(r.Search.Results))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)
}

func printTop(w io.Writer, thin, title string, apps []*models.AppRecord, value func(*models.AppRecord) string) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	if len(apps) == 0 {
		fmt.Fprintf(w, "  %s\n\n", NoData)
		return
	}
	for i, a := range apps {
		fmt.Fprintf(w, "  \033[1m%2d.\033[0m %-40s %s\n", i+1, shorten(a.Name, 40), value(a))
	}
	fmt.Fprintln(w)
}

func printBuckets(w io.Writer, thin, title string, buckets []models.BucketStat) {
	fmt.Fprintf(w, "\033[1;33m  %s\033[0m\n", title)
	fmt.Fprintf(w, "  %s\n", thin)
	for _, b := range buckets {
		fmt.Fprintf(w, "  %-12s %8s  (%d apps)\n", b.Label, FormatOpt(b.Value, "%.2f"), b.Count)
	}
	fmt.Fprintln(w)
}

func barWidth(n, max, width int) int {
	if max == 0 || n <= 0 {
		return 0
	}
	if w := n * width / max; w > 0 {
		return w
	}
	return 1
}

func displayCategory(c string) string {
	if c == "" {
		return "(none)"
	}
	return c
}
