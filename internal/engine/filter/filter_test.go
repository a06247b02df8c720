package filter

import (
	"math"
	"testing"

	"github.com/crimson-sun/emoshop/internal/model"
)

func catalog() []model.Product {
	return []model.Product{
		{ID: "1", Name: "Tee", Price: 499, Category: "Apparel", Gender: "Men", ArticleType: "Tshirts", Season: "Summer", Color: "Jet Black"},
		{ID: "2", Name: "Runner", Price: 2500, Category: "Footwear", Gender: "Women", ArticleType: "Sports Shoes", Season: "Fall", Color: "Red"},
		{ID: "3", Name: "Watch", Price: 5000, Category: "Accessories", Gender: "Unisex", ArticleType: "Watches", Season: "Winter", Color: "Black"},
		{ID: "4", Name: "Cap", Price: 500, Category: "Accessories", Gender: "Men", ArticleType: "Caps", Season: "Summer", Color: "Blue"},
	}
}

func ids(ps []model.Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func equalIDs(t *testing.T, got []model.Product, want ...string) {
	t.Helper()
	g := ids(got)
	if len(g) != len(want) {
		t.Fatalf("got ids %v, want %v", g, want)
	}
	for i := range want {
		if g[i] != want[i] {
			t.Fatalf("got ids %v, want %v", g, want)
		}
	}
}

func TestApplyEmptyStateIsIdentity(t *testing.T) {
	got := Apply(catalog(), model.FilterState{})
	equalIDs(t, got, "1", "2", "3", "4")
}

func TestApplySubstringCaseInsensitive(t *testing.T) {
	got := Apply(catalog(), model.FilterState{Color: "black"})
	equalIDs(t, got, "1", "3")
}

func TestApplyFacetsAreANDed(t *testing.T) {
	got := Apply(catalog(), model.FilterState{Gender: "men", Season: "summer"})
	// "men" is a substring of "Women" too, but season excludes product 2.
	equalIDs(t, got, "1", "4")

	got = Apply(catalog(), model.FilterState{Gender: "men", Category: "footwear"})
	equalIDs(t, got, "2")
}

func TestApplyPriceBucketHalfOpen(t *testing.T) {
	tests := []struct {
		bucket string
		want   []string
	}{
		{"0-500", []string{"1"}},
		{"500-1000", []string{"4"}},
		{"2000-5000", []string{"2"}},
		{"5000+", []string{"3"}},
		{"1000-2000", nil},
	}
	for _, tt := range tests {
		got := Apply(catalog(), model.FilterState{PriceBucket: tt.bucket})
		equalIDs(t, got, tt.want...)
	}
}

func TestApplyIdempotent(t *testing.T) {
	states := []model.FilterState{
		{Color: "black"},
		{Gender: "men", PriceBucket: "0-500"},
		{Category: "acc", Season: "er"},
	}
	for _, s := range states {
		once := Apply(catalog(), s)
		twice := Apply(once, s)
		equalIDs(t, twice, ids(once)...)
	}
}

func TestApplyDoesNotAliasInput(t *testing.T) {
	in := catalog()
	out := Apply(in, model.FilterState{})
	out[0].Name = "changed"
	if in[0].Name != "Tee" {
		t.Fatal("Apply with empty state must return a copy")
	}
}

func TestParseBucket(t *testing.T) {
	r, ok := ParseBucket("5000+")
	if !ok || r.Min != 5000 || !math.IsInf(r.Max, 1) {
		t.Fatalf("ParseBucket(5000+) = %+v, %v", r, ok)
	}
	r, ok = ParseBucket("cheap")
	if ok || r.Min != 0 || !math.IsInf(r.Max, 1) {
		t.Fatalf("ParseBucket(cheap) = %+v, %v", r, ok)
	}
	for _, b := range Buckets {
		if _, ok := ParseBucket(b); !ok {
			t.Errorf("listed bucket %q does not parse", b)
		}
	}
}
