package scorer

import (
	"strings"

	"github.com/crimson-sun/emoshop/internal/engine/preference"
	"github.com/crimson-sun/emoshop/internal/model"
)

// Match weights. Category reflects purchase intent most directly, color is a
// secondary aesthetic signal and usage a weak tertiary one.
const (
	CategoryWeight = 3
	ColorWeight    = 2
	UsageWeight    = 1
	MaxScore       = CategoryWeight + ColorWeight + UsageWeight
)

// Breakdown holds the independent components of a relevance score.
type Breakdown struct {
	Category int
	Color    int
	Usage    int
}

// Total is the sum of the components.
func (b Breakdown) Total() int {
	return b.Category + b.Color + b.Usage
}

// Scorer assigns emotion relevance scores against a preference table.
type Scorer struct {
	table *preference.Table
}

// New creates a Scorer backed by table.
func New(table *preference.Table) *Scorer {
	return &Scorer{table: table}
}

// Table returns the preference table the scorer uses.
func (s *Scorer) Table() *preference.Table {
	return s.table
}

// Score rates every product for emotion e and drops zero scores. Input order
// is preserved. Unknown emotions use the neutral entry.
func (s *Scorer) Score(products []model.Product, e model.Emotion) []model.ScoredProduct {
	pref, _ := s.table.Lookup(e)
	m := newMatcher(pref)
	out := make([]model.ScoredProduct, 0, len(products))
	for _, p := range products {
		if score := m.breakdown(p).Total(); score > 0 {
			out = append(out, model.ScoredProduct{Product: p, Score: score})
		}
	}
	return out
}

// Explain returns the score components of a single product for e.
func (s *Scorer) Explain(p model.Product, e model.Emotion) Breakdown {
	pref, _ := s.table.Lookup(e)
	return newMatcher(pref).breakdown(p)
}

// matcher holds the lowercased keyword sets of one preference entry.
type matcher struct {
	categories []string
	colors     []string
	usage      []string
	anyColor   bool
}

func newMatcher(pref model.EmotionPreference) matcher {
	m := matcher{
		categories: lowerAll(pref.Categories),
		colors:     lowerAll(pref.Colors),
		usage:      lowerAll(pref.Usage),
	}
	for _, c := range pref.Colors {
		if c == preference.Wildcard {
			m.anyColor = true
		}
	}
	return m
}

func (m matcher) breakdown(p model.Product) Breakdown {
	var b Breakdown
	if containsAny(p.Category, m.categories) ||
		containsAny(p.SubCategory, m.categories) ||
		containsAny(p.ArticleType, m.categories) {
		b.Category = CategoryWeight
	}
	if m.anyColor || containsAny(p.Color, m.colors) {
		b.Color = ColorWeight
	}
	if containsAny(p.Usage, m.usage) {
		b.Usage = UsageWeight
	}
	return b
}

// containsAny reports whether field contains any of the lowercased keywords.
func containsAny(field string, keywords []string) bool {
	if field == "" {
		return false
	}
	f := strings.ToLower(field)
	for _, k := range keywords {
		if k != "" && strings.Contains(f, k) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
