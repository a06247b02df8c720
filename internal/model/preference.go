package model

// SortKey names a product ordering.
type SortKey string

const (
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortRatingDesc SortKey = "rating_desc"
	SortName       SortKey = "name"
	SortEmotion    SortKey = "emotion"
)

// EmotionPreference describes what a shopper in a given mood is steered toward.
type EmotionPreference struct {
	Emotion     Emotion  `json:"emotion"`
	Categories  []string `json:"categories"`
	Colors      []string `json:"colors"` // "Any" matches every color
	Usage       []string `json:"usage"`
	Keywords    []string `json:"keywords"`
	PriceBucket string   `json:"priceRange"` // budget, mid or premium
	DefaultSort SortKey  `json:"sortBy"`
}

// FilterState holds the six user-selected facets. Empty means unconstrained.
type FilterState struct {
	Category    string `json:"category,omitempty"`
	Gender      string `json:"gender,omitempty"`
	ArticleType string `json:"articleType,omitempty"`
	Season      string `json:"season,omitempty"`
	PriceBucket string `json:"price,omitempty"`
	Color       string `json:"color,omitempty"`
}

// Active returns the number of non-empty facets.
func (f FilterState) Active() int {
	n := 0
	for _, v := range []string{f.Category, f.Gender, f.ArticleType, f.Season, f.PriceBucket, f.Color} {
		if v != "" {
			n++
		}
	}
	return n
}

// IsZero reports whether no facet is set.
func (f FilterState) IsZero() bool {
	return f.Active() == 0
}
