package catalog

import (
	"sort"
	"strings"

	"github.com/homebake/api/internal/enum"
)

// The query functions below are pure. They never modify their input and
// always return a fresh slice.

// ByCategory keeps items whose effective category equals category. The
// "all" sentinel and the empty string keep everything.
func ByCategory(items []MenuItem, category string) []MenuItem {
	if category == "" || category == enum.CategoryAll {
		return cloneItems(items)
	}
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if it.EffectiveCategory() == category {
			out = append(out, it)
		}
	}
	return out
}

// Search keeps items whose name or description contains query, ignoring
// case. Surrounding whitespace in query is ignored; an empty query keeps
// everything.
func Search(items []MenuItem, query string) []MenuItem {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return cloneItems(items)
	}
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.Name), q) ||
			strings.Contains(strings.ToLower(it.Description), q) {
			out = append(out, it)
		}
	}
	return out
}

// ActiveOnly drops inactive items.
func ActiveOnly(items []MenuItem) []MenuItem {
	out := make([]MenuItem, 0, len(items))
	for _, it := range items {
		if it.IsActive {
			out = append(out, it)
		}
	}
	return out
}

// TopRated returns at most n items ordered by rating, highest first. Items
// with equal ratings keep their input order.
func TopRated(items []MenuItem, n int) []MenuItem {
	if n <= 0 {
		return []MenuItem{}
	}
	out := cloneItems(items)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Rating > out[j].Rating
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// View is the set of filters a surface asks for.
type View struct {
	Category string
	Search   string
	// Limit > 0 applies TopRated after filtering.
	Limit int
	// IncludeInactive is for owner screens only.
	IncludeInactive bool
}

// Apply runs ActiveOnly, ByCategory, Search and TopRated in that order.
// TopRated must come last so a limited list is drawn from the filtered
// active set only.
func Apply(items []MenuItem, v View) []MenuItem {
	out := items
	if !v.IncludeInactive {
		out = ActiveOnly(out)
	}
	out = ByCategory(out, v.Category)
	out = Search(out, v.Search)
	if v.Limit > 0 {
		out = TopRated(out, v.Limit)
	}
	return out
}

// CategoryCount is one filter chip.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

// CategoryCounts returns the "all" total followed by each known category in
// display order. Uncategorized is listed last, and only when non-empty.
func CategoryCounts(items []MenuItem) []CategoryCount {
	counts := make(map[string]int, len(enum.Categories)+1)
	for _, it := range items {
		counts[it.EffectiveCategory()]++
	}

	out := make([]CategoryCount, 0, len(enum.Categories)+2)
	out = append(out, CategoryCount{Category: enum.CategoryAll, Count: len(items)})
	for _, c := range enum.Categories {
		out = append(out, CategoryCount{Category: c, Count: counts[c]})
	}
	if n := counts[enum.CategoryUncategorized]; n > 0 {
		out = append(out, CategoryCount{Category: enum.CategoryUncategorized, Count: n})
	}
	return out
}
