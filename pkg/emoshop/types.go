package emoshop

import "github.com/crimson-sun/emoshop/internal/model"

// Product is a normalized catalog item.
type Product = model.Product

// Filter holds the facet selection. Empty fields are unconstrained.
type Filter = model.FilterState

// SortKey names a product ordering.
type SortKey = model.SortKey

// Emotion is one of the seven facial-expression classes.
type Emotion = model.Emotion

// Preference describes what a shopper in a given mood is steered toward.
type Preference = model.EmotionPreference

const (
	Neutral   = model.Neutral
	Happy     = model.Happy
	Sad       = model.Sad
	Angry     = model.Angry
	Fearful   = model.Fearful
	Disgusted = model.Disgusted
	Surprised = model.Surprised
)

const (
	SortPriceAsc   = model.SortPriceAsc
	SortPriceDesc  = model.SortPriceDesc
	SortRatingDesc = model.SortRatingDesc
	SortName       = model.SortName
	SortEmotion    = model.SortEmotion
)

// Query selects and orders a view. An empty Emotion disables scoring.
type Query struct {
	Filter  Filter
	Sort    SortKey
	Emotion Emotion
}

// ScoredProduct is a product with its relevance score for the queried
// emotion. Score is zero for unscored views.
type ScoredProduct struct {
	Product
	Score int `json:"relevanceScore,omitempty"`
}

// Result is the output of Recommend.
type Result struct {
	Items      []ScoredProduct `json:"items"`
	Title      string          `json:"title"`
	Scored     bool            `json:"scored"`
	Preference *Preference     `json:"preference,omitempty"`
}

func fromInternal(items []model.ScoredProduct) []ScoredProduct {
	out := make([]ScoredProduct, len(items))
	for i, it := range items {
		out[i] = ScoredProduct{Product: it.Product, Score: it.Score}
	}
	return out
}
