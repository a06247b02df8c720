package sorter

import (
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/crimson-sun/emoshop/internal/model"
)

// Keys lists the selectable sort keys.
var Keys = []model.SortKey{model.SortPriceAsc, model.SortPriceDesc, model.SortName, model.SortEmotion}

// ValidKey reports whether k is a selectable sort key.
func ValidKey(k model.SortKey) bool {
	for _, x := range Keys {
		if x == k {
			return true
		}
	}
	return false
}

// Sorter orders product lists. Name comparisons use locale-aware collation.
type Sorter struct {
	tag language.Tag
}

// New creates a Sorter collating names for the given BCP 47 locale.
// Unparseable locales fall back to English.
func New(locale string) *Sorter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return &Sorter{tag: tag}
}

// Sort returns a stably sorted copy of items. pref is the active emotion's
// preference entry and is only consulted for the emotion key; nil means no
// emotion context, in which case the emotion key orders by name.
// Unknown keys return the input order.
func (s *Sorter) Sort(items []model.ScoredProduct, key model.SortKey, pref *model.EmotionPreference) []model.ScoredProduct {
	out := make([]model.ScoredProduct, len(items))
	copy(out, items)

	// Collators keep internal buffers; one per call keeps Sorter safe for
	// concurrent use.
	col := collate.New(s.tag)
	byName := func(a, b model.ScoredProduct) int {
		return col.CompareString(a.Name, b.Name)
	}

	var less func(a, b model.ScoredProduct) bool
	switch key {
	case model.SortPriceAsc:
		less = func(a, b model.ScoredProduct) bool { return a.Price < b.Price }
	case model.SortPriceDesc:
		less = func(a, b model.ScoredProduct) bool { return a.Price > b.Price }
	case model.SortName:
		less = func(a, b model.ScoredProduct) bool { return byName(a, b) < 0 }
	case model.SortEmotion:
		if pref == nil {
			less = func(a, b model.ScoredProduct) bool { return byName(a, b) < 0 }
			break
		}
		secondary := pref.DefaultSort
		less = func(a, b model.ScoredProduct) bool {
			if a.Score != b.Score {
				return a.Score > b.Score
			}
			switch secondary {
			case model.SortPriceAsc:
				if a.Price != b.Price {
					return a.Price < b.Price
				}
			case model.SortPriceDesc:
				if a.Price != b.Price {
					return a.Price > b.Price
				}
			}
			return byName(a, b) < 0
		}
	default:
		return out
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
