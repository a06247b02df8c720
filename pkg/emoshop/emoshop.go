package emoshop

import (
	"fmt"
	"time"

	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/engine"
	"github.com/crimson-sun/emoshop/internal/engine/preference"
	"github.com/crimson-sun/emoshop/internal/engine/scorer"
	"github.com/crimson-sun/emoshop/internal/engine/sorter"
	"github.com/crimson-sun/emoshop/internal/model"
)

// Recommender filters, scores and sorts products for an emotion.
type Recommender struct {
	engine *engine.Engine
}

// New creates a Recommender. It fails only when WithPreferences supplied an
// invalid table.
func New(opts ...Option) (*Recommender, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	table := preference.Default()
	if o.preferences != nil {
		t, err := preference.New(o.preferences)
		if err != nil {
			return nil, fmt.Errorf("emoshop: %w", err)
		}
		table = t
	}
	return &Recommender{engine: engine.New(scorer.New(table), sorter.New(o.locale))}, nil
}

// Recommend applies q to products. With an emotion set, products that match
// none of its preferences are dropped and the rest are ordered by score.
func (r *Recommender) Recommend(products []Product, q Query) Result {
	eq := engine.Query{Filter: q.Filter, Sort: q.Sort}
	if q.Emotion != "" {
		eq.AIMode = true
		eq.Emotion = &model.DetectedEmotion{Label: q.Emotion, CapturedAt: time.Now()}
	}
	res := r.engine.Run(products, eq)
	return Result{
		Items:      fromInternal(res.Items),
		Title:      res.Title,
		Scored:     res.Scored,
		Preference: res.Preference,
	}
}

// Preference returns the entry used for e. Unknown emotions resolve to the
// neutral entry.
func (r *Recommender) Preference(e Emotion) Preference {
	p, _ := r.engine.Preferences().Lookup(e)
	return p
}

// Preferences returns the whole table in canonical emotion order.
func (r *Recommender) Preferences() []Preference {
	return r.engine.Preferences().Entries()
}

var defaultRecommender, _ = New()

// Recommend ranks products with the built-in preference table.
func Recommend(products []Product, q Query) []ScoredProduct {
	return defaultRecommender.Recommend(products, q).Items
}

// DominantEmotion returns the highest-confidence emotion in scores. Ties
// resolve in canonical order (neutral first). Labels outside the seven
// classes are ignored. It returns false for an empty map.
func DominantEmotion(scores map[Emotion]float64) (Emotion, float64, bool) {
	if len(scores) == 0 {
		return "", 0, false
	}
	best, ok := detector.Dominant(detector.Ordered(scores))
	if !ok {
		return "", 0, false
	}
	return best.Label, best.Confidence, true
}
