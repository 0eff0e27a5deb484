package services

import (
	"fmt"
	"math"
	"sort"

	"apppulse/models"
)

// Reducer folds a group of records into one optional value.
type Reducer func(records []*models.AppRecord) models.OptFloat

// MeanOf averages the present values of field; absent when there are none.
func MeanOf(field models.Field) Reducer {
	return func(records []*models.AppRecord) models.OptFloat {
		var sum float64
		n := 0
		for _, r := range records {
			if v := r.Value(field); v.Valid {
				sum += v.Value
				n++
			}
		}
		if n == 0 {
			return models.NoFloat()
		}
		return models.SomeFloat(sum / float64(n))
	}
}

// CountReducer reports the group size.
func CountReducer(records []*models.AppRecord) models.OptFloat {
	return models.SomeFloat(float64(len(records)))
}

// Count returns the number of records in the view.
func Count(t models.Table) int {
	return len(t.Records)
}

// MeanRating averages the present ratings of the view.
func MeanRating(t models.Table) models.OptFloat {
	return MeanOf(models.FieldRating)(t.Records)
}

// TotalInstalls sums the present install counts of the view.
func TotalInstalls(t models.Table) int64 {
	var total int64
	for _, r := range t.Records {
		if r.Installs.Valid {
			total += r.Installs.Value
		}
	}
	return total
}

// FreePercentage is the share of Free apps in the view, absent when empty.
func FreePercentage(t models.Table) models.OptFloat {
	return typeShare(t, models.TypeFree)
}

// PaidPercentage is the share of Paid apps in the view, absent when empty.
func PaidPercentage(t models.Table) models.OptFloat {
	return typeShare(t, models.TypePaid)
}

func typeShare(t models.Table, appType string) models.OptFloat {
	if len(t.Records) == 0 {
		return models.NoFloat()
	}
	n := 0
	for _, r := range t.Records {
		if r.Type == appType {
			n++
		}
	}
	return models.SomeFloat(float64(n) / float64(len(t.Records)) * 100)
}

// categoryGroups partitions records by category, keeping categories in order
// of first appearance.
func categoryGroups(t models.Table) ([]string, map[string][]*models.AppRecord) {
	var order []string
	groups := make(map[string][]*models.AppRecord)
	for _, r := range t.Records {
		if _, ok := groups[r.Category]; !ok {
			order = append(order, r.Category)
		}
		groups[r.Category] = append(groups[r.Category], r)
	}
	return order, groups
}

func truncate[T any](s []T, topN int) []T {
	if topN > 0 && len(s) > topN {
		return s[:topN]
	}
	return s
}

// GroupByCategory summarizes each category, largest first; topN <= 0 keeps all.
// Ties keep first-appearance order, so summed counts always equal Count.
func GroupByCategory(t models.Table, topN int) []models.CategorySummary {
	order, groups := categoryGroups(t)
	out := make([]models.CategorySummary, 0, len(order))

	for _, cat := range order {
		recs := groups[cat]
		s := models.CategorySummary{
			Category:  cat,
			AppCount:  len(recs),
			AvgRating: MeanOf(models.FieldRating)(recs),
		}
		for _, r := range recs {
			if r.Reviews.Valid {
				s.TotalReviews += r.Reviews.Value
			}
			if r.Installs.Valid {
				s.TotalInstalls += r.Installs.Value
			}
		}
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AppCount > out[j].AppCount
	})
	return truncate(out, topN)
}

// lessOpt orders present values descending with absent values last.
func lessOpt(a, b models.OptFloat) bool {
	if a.Valid != b.Valid {
		return a.Valid
	}
	return a.Valid && a.Value > b.Value
}

// CategoryRatings returns the mean rating of each category, highest first.
func CategoryRatings(t models.Table, topN int) []models.CategoryValue {
	order, groups := categoryGroups(t)
	out := make([]models.CategoryValue, 0, len(order))
	for _, cat := range order {
		out = append(out, models.CategoryValue{Category: cat, Value: MeanOf(models.FieldRating)(groups[cat])})
	}
	sort.SliceStable(out, func(i, j int) bool { return lessOpt(out[i].Value, out[j].Value) })
	return truncate(out, topN)
}

// Sentiment averages polarity and review shares over the view.
func Sentiment(t models.Table) models.SentimentSummary {
	return models.SentimentSummary{
		Polarity:    MeanOf(models.FieldPolarity)(t.Records),
		PositivePct: MeanOf(models.FieldPositive)(t.Records),
		NegativePct: MeanOf(models.FieldNegative)(t.Records),
	}
}

// SentimentByCategory returns per-category review shares, most positive first.
func SentimentByCategory(t models.Table, topN int) []models.CategorySentiment {
	order, groups := categoryGroups(t)
	out := make([]models.CategorySentiment, 0, len(order))
	for _, cat := range order {
		out = append(out, models.CategorySentiment{
			Category:    cat,
			PositivePct: MeanOf(models.FieldPositive)(groups[cat]),
			NegativePct: MeanOf(models.FieldNegative)(groups[cat]),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return lessOpt(out[i].PositivePct, out[j].PositivePct) })
	return truncate(out, topN)
}

// TopByField returns the topN records with the highest value of field. Records
// without a value are skipped; ties keep row order.
func TopByField(t models.Table, field models.Field, topN int) []*models.AppRecord {
	out := make([]*models.AppRecord, 0, len(t.Records))
	for _, r := range t.Records {
		if r.Value(field).Valid {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value(field).Value > out[j].Value(field).Value
	})
	return truncate(out, topN)
}

// Bucketize partitions the present values of field into the half-open ranges
// [boundaries[i], boundaries[i+1]) and reduces each bucket. Values outside
// every range are ignored. Empty buckets report an absent value. When labels
// is shorter than the bucket count, missing labels are generated.
func Bucketize(t models.Table, field models.Field, boundaries []float64, labels []string, reduce Reducer) []models.BucketStat {
	if len(boundaries) < 2 {
		return nil
	}
	n := len(boundaries) - 1
	members := make([][]*models.AppRecord, n)

	for _, r := range t.Records {
		v := r.Value(field)
		if !v.Valid {
			continue
		}
		if i := bucketIndex(boundaries, v.Value); i >= 0 {
			members[i] = append(members[i], r)
		}
	}

	out := make([]models.BucketStat, n)
	for i := 0; i < n; i++ {
		var label string
		if i < len(labels) {
			label = labels[i]
		} else {
			label = rangeLabel(boundaries[i], boundaries[i+1])
		}
		out[i] = models.BucketStat{
			Label: label,
			Lower: boundaries[i],
			Upper: boundaries[i+1],
			Count: len(members[i]),
		}
		if len(members[i]) > 0 {
			out[i].Value = reduce(members[i])
		}
	}
	return out
}

// bucketIndex returns the i with boundaries[i] <= v < boundaries[i+1], or -1.
func bucketIndex(boundaries []float64, v float64) int {
	if v < boundaries[0] || v >= boundaries[len(boundaries)-1] {
		return -1
	}
	// First boundary strictly greater than v closes the bucket.
	j := sort.Search(len(boundaries), func(k int) bool { return boundaries[k] > v })
	return j - 1
}

func rangeLabel(lo, hi float64) string {
	if math.IsInf(hi, 1) {
		return fmt.Sprintf("%g+", lo)
	}
	return fmt.Sprintf("%g-%g", lo, hi)
}

// RatingHistogram counts ratings in equal-width bins over 0..5. The last bin
// is closed so a perfect 5.0 is counted.
func RatingHistogram(t models.Table, bins int) []models.BucketStat {
	if bins < 1 {
		bins = 1
	}
	width := 5.0 / float64(bins)
	out := make([]models.BucketStat, bins)
	for i := range out {
		lo := float64(i) * width
		hi := float64(i+1) * width
		out[i] = models.BucketStat{
			Label: fmt.Sprintf("%.2f-%.2f", lo, hi),
			Lower: lo,
			Upper: hi,
		}
	}
	for _, r := range t.Records {
		if !r.Rating.Valid {
			continue
		}
		i := int(r.Rating.Value / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	for i := range out {
		out[i].Value = models.SomeFloat(float64(out[i].Count))
	}
	return out
}

// Sample returns at most n records spread evenly across the view, in order.
func Sample(t models.Table, n int) []*models.AppRecord {
	if n <= 0 {
		return nil
	}
	if len(t.Records) <= n {
		return t.Records
	}
	out := make([]*models.AppRecord, n)
	step := float64(len(t.Records)) / float64(n)
	for i := range out {
		out[i] = t.Records[int(float64(i)*step)]
	}
	return out
}

// Head returns the first n records.
func Head(t models.Table, n int) []*models.AppRecord {
	if n <= 0 {
		return nil
	}
	return truncate(t.Records, n)
}
