package model

// Product is a normalized catalog item. Products are never mutated after load.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory"`
	ArticleType string  `json:"articleType"`
	Gender      string  `json:"gender"`
	Color       string  `json:"color"`
	Season      string  `json:"season"`
	Usage       string  `json:"usage"`
	Image       string  `json:"image"`
}

// ScoredProduct pairs a product with its ephemeral relevance score.
// Score is zero when the list was not emotion-scored.
type ScoredProduct struct {
	Product
	Score int `json:"relevanceScore,omitempty"`
}

// Unscored wraps products with a zero score, preserving order.
func Unscored(products []Product) []ScoredProduct {
	out := make([]ScoredProduct, len(products))
	for i, p := range products {
		out[i] = ScoredProduct{Product: p}
	}
	return out
}
