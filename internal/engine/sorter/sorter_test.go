package sorter

import (
	"testing"

	"github.com/crimson-sun/emoshop/internal/model"
)

func sp(id, name string, price float64, score int) model.ScoredProduct {
	return model.ScoredProduct{Product: model.Product{ID: id, Name: name, Price: price}, Score: score}
}

func order(items []model.ScoredProduct) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func assertOrder(t *testing.T, got []model.ScoredProduct, want ...string) {
	t.Helper()
	g := order(got)
	if len(g) != len(want) {
		t.Fatalf("order = %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("order = %v, want %v", g, want)
		}
	}
}

func TestSortPrice(t *testing.T) {
	s := New("en")
	items := []model.ScoredProduct{sp("a", "A", 300, 0), sp("b", "B", 100, 0), sp("c", "C", 200, 0)}
	assertOrder(t, s.Sort(items, model.SortPriceAsc, nil), "b", "c", "a")
	assertOrder(t, s.Sort(items, model.SortPriceDesc, nil), "a", "c", "b")
	// input untouched
	assertOrder(t, items, "a", "b", "c")
}

func TestSortIsStableForEqualKeys(t *testing.T) {
	s := New("en")
	items := []model.ScoredProduct{
		sp("x1", "Same", 100, 2), sp("y", "Other", 50, 1), sp("x2", "Same", 100, 2), sp("x3", "Same", 100, 2),
	}
	assertOrder(t, s.Sort(items, model.SortPriceAsc, nil), "y", "x1", "x2", "x3")
	assertOrder(t, s.Sort(items, model.SortName, nil), "y", "x1", "x2", "x3")

	// Reordering equal-key items in the input carries through to the output.
	swapped := []model.ScoredProduct{items[3], items[1], items[2], items[0]}
	assertOrder(t, s.Sort(swapped, model.SortPriceAsc, nil), "y", "x3", "x2", "x1")
}

func TestSortNameLocaleAware(t *testing.T) {
	s := New("en")
	items := []model.ScoredProduct{sp("1", "zebra", 0, 0), sp("2", "Éclair", 0, 0), sp("3", "apple", 0, 0)}
	// Byte order would put "zebra" before "Éclair"; collation does not.
	assertOrder(t, s.Sort(items, model.SortName, nil), "3", "2", "1")
}

func TestSortEmotionScoreThenDefaultSort(t *testing.T) {
	s := New("en")
	items := []model.ScoredProduct{
		sp("low", "L", 10, 3),
		sp("cheap6", "C", 100, 6),
		sp("rich6", "R", 900, 6),
		sp("mid5", "M", 500, 5),
	}
	happy := &model.EmotionPreference{Emotion: model.Happy, DefaultSort: model.SortPriceDesc}
	assertOrder(t, s.Sort(items, model.SortEmotion, happy), "rich6", "cheap6", "mid5", "low")

	sad := &model.EmotionPreference{Emotion: model.Sad, DefaultSort: model.SortPriceAsc}
	assertOrder(t, s.Sort(items, model.SortEmotion, sad), "cheap6", "rich6", "mid5", "low")
}

func TestSortEmotionFallsBackToName(t *testing.T) {
	s := New("en")
	items := []model.ScoredProduct{sp("b", "Beta", 100, 4), sp("a", "Alpha", 100, 4), sp("c", "Gamma", 50, 5)}

	neutral := &model.EmotionPreference{Emotion: model.Neutral, DefaultSort: model.SortRatingDesc}
	assertOrder(t, s.Sort(items, model.SortEmotion, neutral), "c", "a", "b")

	// Price ties under a price-based default sort fall through to name.
	happy := &model.EmotionPreference{Emotion: model.Happy, DefaultSort: model.SortPriceDesc}
	assertOrder(t, s.Sort(items, model.SortEmotion, happy), "c", "a", "b")

	// No emotion context: plain name order.
	assertOrder(t, s.Sort(items, model.SortEmotion, nil), "a", "b", "c")
}

func TestSortUnknownKeyKeepsOrder(t *testing.T) {
	s := New("en")
	items := []model.ScoredProduct{sp("b", "B", 2, 0), sp("a", "A", 1, 0)}
	assertOrder(t, s.Sort(items, "rating_desc", nil), "b", "a")
}

func TestNewBadLocale(t *testing.T) {
	s := New("not a locale!!")
	items := []model.ScoredProduct{sp("b", "b", 0, 0), sp("a", "a", 0, 0)}
	assertOrder(t, s.Sort(items, model.SortName, nil), "a", "b")
}

func TestValidKey(t *testing.T) {
	for _, k := range Keys {
		if !ValidKey(k) {
			t.Errorf("ValidKey(%q) = false", k)
		}
	}
	if ValidKey("rating_desc") {
		t.Error("rating_desc is a preference default, not a selectable key")
	}
}
