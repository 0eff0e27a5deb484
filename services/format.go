package services

import (
	"fmt"

	"github.com/dustin/go-humanize"

	"apppulse/models"
)

// NoData is shown in place of an absent value.
const NoData = "no data"

// FormatInstalls renders an install total as billions above 1e9 and as
// whole millions otherwise, e.g. "1.5B" or "250M".
func FormatInstalls(n int64) string {
	if n > 1_000_000_000 {
		return fmt.Sprintf("%.1fB", float64(n)/1e9)
	}
	return fmt.Sprintf("%.0fM", float64(n)/1e6)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatOptCount renders a present count with separators, or NoData.
func FormatOptCount(v models.OptInt) string {
	if !v.Valid {
		return NoData
	}
	return humanize.Comma(v.Value)
}

// FormatOpt renders a present value with the given printf verb, or NoData.
func FormatOpt(v models.OptFloat, format string) string {
	if !v.Valid {
		return NoData
	}
	return fmt.Sprintf(format, v.Value)
}

// FormatPercent renders a present share as "87.5%".
func FormatPercent(v models.OptFloat) string {
	return FormatOpt(v, "%.1f%%")
}

// FormatDelta renders a signed difference such as "+0.12" or "-40".
func FormatDelta(v models.OptFloat, format string) string {
	if !v.Valid {
		return ""
	}
	return fmt.Sprintf("%+"+format[1:], v.Value)
}

// shorten cuts s to max runes, marking the cut with "...".
func shorten(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
