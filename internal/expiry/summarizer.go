package expiry

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Jahvion/ControlDeJavi/internal/store"
)

// DefaultAlertDays is the threshold set that triggers advance warnings.
// A product is alert-worthy when its day-delta is exactly one of these
// values, already non-positive, or inside (0, min] — the last clause is
// kept even though it is covered by membership while 1 is in the set, so
// a reconfigured non-contiguous set still warns close to expiration.
var DefaultAlertDays = []int{30, 15, 7, 4, 3, 2, 1}

// Sentinel reports returned instead of an item listing.
const (
	msgNoProducts     = "No products loaded yet."
	msgNothingPending = "✅ Nothing pending within the configured alert thresholds."

	fallbackName     = "Sin nombre"
	fallbackCategory = "Otros"

	noDateHeader = "\nℹ️ Products without an expiration date:"
	noDateCap    = 10
)

// Summarizer computes the daily expiration report.
type Summarizer struct {
	AlertDays []int
}

// NewSummarizer returns a Summarizer with the default threshold set.
func NewSummarizer() *Summarizer {
	return &Summarizer{AlertDays: DefaultAlertDays}
}

type alertItem struct {
	name  string
	date  string
	delta int
}

type noDateItem struct {
	category string
	name     string
}

// Summarize renders the alert report for the given products as of today.
// The caller supplies today (resolved in whatever timezone governs the
// digest) so the function stays pure and deterministic under test.
func (s *Summarizer) Summarize(today time.Time, products []store.Product) string {
	if len(products) == 0 {
		return msgNoProducts
	}

	todayCivil := civil(today)
	byCategory := make(map[string][]alertItem)
	var noDate []noDateItem

	for _, p := range products {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			name = fallbackName
		}
		category := strings.TrimSpace(p.Category)
		if category == "" {
			category = fallbackCategory
		}

		dateStr := strings.TrimSpace(p.ExpirationDate)
		if dateStr == "" {
			noDate = append(noDate, noDateItem{category: category, name: name})
			continue
		}
		expires, err := store.ParseDate(dateStr)
		if err != nil {
			noDate = append(noDate, noDateItem{category: category, name: name})
			continue
		}

		delta := daysBetween(todayCivil, expires)
		if s.alertWorthy(delta) {
			byCategory[category] = append(byCategory[category], alertItem{name: name, date: dateStr, delta: delta})
		}
	}

	if len(byCategory) == 0 && len(noDate) == 0 {
		return msgNothingPending
	}

	var parts []string

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		parts = append(parts, fmt.Sprintf("• %s:", category))
		items := byCategory[category]
		sort.SliceStable(items, func(i, j int) bool { return items[i].delta < items[j].delta })
		for _, item := range items {
			parts = append(parts, fmt.Sprintf("   - %s (%s) → %s", item.name, item.date, UrgencyPhrase(item.delta)))
		}
	}

	if len(noDate) > 0 {
		parts = append(parts, noDateHeader)
		capped := noDate
		if len(capped) > noDateCap {
			capped = capped[:noDateCap]
		}
		for _, item := range capped {
			parts = append(parts, fmt.Sprintf("   - %s [%s]", item.name, item.category))
		}
	}

	return strings.Join(parts, "\n")
}

// alertWorthy applies the threshold predicate to a day-delta.
func (s *Summarizer) alertWorthy(delta int) bool {
	if delta <= 0 {
		return true
	}
	min := 0
	for i, d := range s.AlertDays {
		if delta == d {
			return true
		}
		if i == 0 || d < min {
			min = d
		}
	}
	return delta <= min
}

// UrgencyPhrase renders a day-delta as the human-readable urgency text.
func UrgencyPhrase(delta int) string {
	switch {
	case delta < 0:
		return fmt.Sprintf("❌ expired %d day(s) ago", -delta)
	case delta == 0:
		return "⚠️ expires TODAY"
	case delta == 1:
		return "⚠️ expires in 1 day"
	default:
		return fmt.Sprintf("⚠️ expires in %d days", delta)
	}
}

// civil truncates a timestamp to its calendar date, midnight UTC. Comparing
// two civil dates gives whole-day deltas regardless of the wall-clock time
// or DST offset of the input.
func civil(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole days from a to b, negative when b is past.
func daysBetween(a, b time.Time) int {
	return int(civil(b).Sub(civil(a)).Hours() / 24)
}
