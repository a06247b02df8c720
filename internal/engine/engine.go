package engine

import (
	"fmt"
	"strings"

	"github.com/crimson-sun/emoshop/internal/engine/filter"
	"github.com/crimson-sun/emoshop/internal/engine/preference"
	"github.com/crimson-sun/emoshop/internal/engine/scorer"
	"github.com/crimson-sun/emoshop/internal/engine/sorter"
	"github.com/crimson-sun/emoshop/internal/model"
)

// Query selects and orders a view of the catalog.
type Query struct {
	Filter model.FilterState
	Sort   model.SortKey
	// AIMode enables emotion scoring when Emotion is also set.
	AIMode  bool
	Emotion *model.DetectedEmotion
}

// Result is an ordered, possibly scored, product view.
type Result struct {
	Items      []model.ScoredProduct
	Title      string
	Scored     bool
	Emotion    model.Emotion
	Preference *model.EmotionPreference
}

// Engine orchestrates the filter → score → sort pipeline.
type Engine struct {
	scorer *scorer.Scorer
	sorter *sorter.Sorter
}

// New creates an Engine with the provided components.
func New(sc *scorer.Scorer, so *sorter.Sorter) *Engine {
	return &Engine{scorer: sc, sorter: so}
}

// NewDefault creates an Engine with the built-in preference table.
func NewDefault(locale string) *Engine {
	return New(scorer.New(preference.Default()), sorter.New(locale))
}

// Preferences returns the preference table in use.
func (e *Engine) Preferences() *preference.Table {
	return e.scorer.Table()
}

// Run applies q to products. Scoring only happens when AI mode is on and an
// emotion has been detected; otherwise every filtered product is kept.
func (e *Engine) Run(products []model.Product, q Query) Result {
	filtered := filter.Apply(products, q.Filter)

	var res Result
	if q.AIMode && q.Emotion != nil {
		pref, _ := e.scorer.Table().Lookup(q.Emotion.Label)
		res.Items = e.scorer.Score(filtered, q.Emotion.Label)
		res.Scored = true
		res.Emotion = q.Emotion.Label
		res.Preference = &pref
		res.Title = moodTitle(q.Emotion.Label)
	} else {
		res.Items = model.Unscored(filtered)
		res.Title = filtersTitle(q.Filter)
	}

	key := q.Sort
	if key == "" {
		key = model.SortName
		if res.Scored {
			key = model.SortEmotion
		}
	}
	res.Items = e.sorter.Sort(res.Items, key, res.Preference)
	return res
}

func moodTitle(e model.Emotion) string {
	s := string(e)
	if s == "" {
		return "Mood Products"
	}
	return strings.ToUpper(s[:1]) + s[1:] + " Mood Products"
}

func filtersTitle(f model.FilterState) string {
	switch n := f.Active(); n {
	case 0:
		return "All Products"
	case 1:
		return "Filtered Products (1 filter)"
	default:
		return fmt.Sprintf("Filtered Products (%d filters)", n)
	}
}
