package filter

import (
	"math"
	"strings"

	"github.com/crimson-sun/emoshop/internal/model"
)

// Range is a price interval [Min, Max). Max is +Inf for open-ended buckets.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether price falls in [Min, Max).
func (r Range) Contains(price float64) bool {
	return price >= r.Min && price < r.Max
}

// Buckets lists the price bucket labels in display order.
var Buckets = []string{"0-500", "500-1000", "1000-2000", "2000-5000", "5000+"}

var bucketRanges = map[string]Range{
	"0-500":     {0, 500},
	"500-1000":  {500, 1000},
	"1000-2000": {1000, 2000},
	"2000-5000": {2000, 5000},
	"5000+":     {5000, math.Inf(1)},
}

// ParseBucket resolves a bucket label. Unknown labels resolve to [0, +Inf)
// with ok=false.
func ParseBucket(label string) (r Range, ok bool) {
	if r, ok := bucketRanges[label]; ok {
		return r, true
	}
	return Range{0, math.Inf(1)}, false
}

// Apply keeps the products matching every non-empty facet of state, in
// their original order. Text facets match as case-insensitive substrings.
func Apply(products []model.Product, state model.FilterState) []model.Product {
	if state.IsZero() {
		out := make([]model.Product, len(products))
		copy(out, products)
		return out
	}

	preds := compile(state)
	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if matchAll(p, preds) {
			out = append(out, p)
		}
	}
	return out
}

// Match reports whether a single product passes state.
func Match(p model.Product, state model.FilterState) bool {
	return matchAll(p, compile(state))
}

type predicate func(model.Product) bool

func compile(state model.FilterState) []predicate {
	var preds []predicate
	text := func(needle string, field func(model.Product) string) {
		if needle == "" {
			return
		}
		n := strings.ToLower(needle)
		preds = append(preds, func(p model.Product) bool {
			return strings.Contains(strings.ToLower(field(p)), n)
		})
	}
	text(state.Category, func(p model.Product) string { return p.Category })
	text(state.Gender, func(p model.Product) string { return p.Gender })
	text(state.ArticleType, func(p model.Product) string { return p.ArticleType })
	text(state.Season, func(p model.Product) string { return p.Season })
	text(state.Color, func(p model.Product) string { return p.Color })

	if state.PriceBucket != "" {
		r, _ := ParseBucket(state.PriceBucket)
		preds = append(preds, func(p model.Product) bool { return r.Contains(p.Price) })
	}
	return preds
}

func matchAll(p model.Product, preds []predicate) bool {
	for _, pred := range preds {
		if !pred(p) {
			return false
		}
	}
	return true
}
