package preference

import "github.com/crimson-sun/emoshop/internal/model"

// DefaultEntries returns the built-in preference table.
func DefaultEntries() []model.EmotionPreference {
	return []model.EmotionPreference{
		{
			Emotion:     model.Happy,
			Categories:  []string{"Accessories", "Footwear", "Apparel"},
			Colors:      []string{"Bright", "Yellow", "Orange", "Pink", "Red"},
			Usage:       []string{"Party", "Formal", "Special"},
			Keywords:    []string{"party", "celebration", "formal", "special"},
			PriceBucket: "premium",
			DefaultSort: model.SortPriceDesc,
		},
		{
			Emotion:     model.Sad,
			Categories:  []string{"Apparel", "Personal Care"},
			Colors:      []string{"Blue", "Grey", "Neutral", "Soft"},
			Usage:       []string{"Casual", "Comfort"},
			Keywords:    []string{"comfort", "soft", "casual"},
			PriceBucket: "budget",
			DefaultSort: model.SortPriceAsc,
		},
		{
			Emotion:     model.Angry,
			Categories:  []string{"Sports", "Fitness", "Apparel"},
			Colors:      []string{"Red", "Black", "Dark"},
			Usage:       []string{"Sports", "Active", "Gym"},
			Keywords:    []string{"sports", "active", "gym", "fitness"},
			PriceBucket: "mid",
			DefaultSort: model.SortPriceAsc,
		},
		{
			Emotion:     model.Surprised,
			Categories:  []string{"Accessories", "Footwear"},
			Colors:      []string{"Bright", "Unique", "Colorful"},
			Usage:       []string{"Party", "Casual"},
			Keywords:    []string{"unique", "special", "standout"},
			PriceBucket: "premium",
			DefaultSort: model.SortPriceDesc,
		},
		{
			Emotion:     model.Fearful,
			Categories:  []string{"Apparel"},
			Colors:      []string{"Neutral", "Calm", "Soft", "Pastel"},
			Usage:       []string{"Casual", "Comfort"},
			Keywords:    []string{"comfort", "soft", "safe"},
			PriceBucket: "budget",
			DefaultSort: model.SortPriceAsc,
		},
		{
			Emotion:     model.Disgusted,
			Categories:  []string{"Personal Care", "Health"},
			Colors:      []string{"Clean", "Fresh", "Light", "White"},
			Usage:       []string{"Clean", "Fresh"},
			Keywords:    []string{"clean", "fresh", "pure"},
			PriceBucket: "budget",
			DefaultSort: model.SortPriceAsc,
		},
		{
			Emotion:     model.Neutral,
			Categories:  []string{"Apparel", "Accessories"},
			Colors:      []string{Wildcard},
			Usage:       []string{"Casual", "Everyday"},
			Keywords:    []string{"everyday", "classic"},
			PriceBucket: "mid",
			DefaultSort: model.SortRatingDesc,
		},
	}
}

// Default returns a Table built from DefaultEntries.
func Default() *Table {
	t, err := New(DefaultEntries())
	if err != nil {
		panic(err) // built-in table is static
	}
	return t
}
