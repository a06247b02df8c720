package loader

import (
	"testing"

	"github.com/crimson-sun/emoshop/internal/model"
)

func TestNormalize_Fallbacks(t *testing.T) {
	p, ok := Normalize(model.RawRecord{Fields: map[string]any{}}, 2, 7)
	if !ok {
		t.Fatal("empty object should normalize")
	}
	want := model.Product{
		ID:       "rec-2-7",
		Name:     DefaultName,
		Price:    0,
		Category: DefaultCategory,
		Gender:   DefaultGender,
		Color:    DefaultColor,
		Season:   DefaultSeason,
		Usage:    DefaultUsage,
		Image:    DefaultImage,
	}
	if p != want {
		t.Fatalf("got %+v\nwant %+v", p, want)
	}
}

func TestNormalize_Fields(t *testing.T) {
	rec := model.RawRecord{
		ID: "recABC",
		Fields: map[string]any{
			"id":                 float64(15970),
			"productDisplayName": "  Turtle Check Men Navy Blue Shirt ",
			"price":              "1,299.50",
			"masterCategory":     "Apparel",
			"subCategory":        "Topwear",
			"articleType":        "Shirts",
			"gender":             "Men",
			"baseColour":         "Navy Blue",
			"season":             "Fall",
			"usage":              "Casual",
			"link":               "http://img/15970.jpg",
		},
	}
	p, ok := Normalize(rec, 1, 0)
	if !ok {
		t.Fatal("expected ok")
	}
	if p.ID != "15970" {
		t.Fatalf("numeric id should render as decimal, got %q", p.ID)
	}
	if p.Name != "Turtle Check Men Navy Blue Shirt" || p.Price != 1299.5 {
		t.Fatalf("name/price: %q %v", p.Name, p.Price)
	}
	if p.Category != "Apparel" || p.SubCategory != "Topwear" || p.ArticleType != "Shirts" {
		t.Fatalf("categories: %+v", p)
	}
	if p.Color != "Navy Blue" || p.Image != "http://img/15970.jpg" {
		t.Fatalf("color/image: %+v", p)
	}
}

func TestNormalize_IDFallsBackToRecordID(t *testing.T) {
	p, _ := Normalize(model.RawRecord{ID: "recXYZ", Fields: map[string]any{"id": ""}}, 1, 0)
	if p.ID != "recXYZ" {
		t.Fatalf("ID = %q", p.ID)
	}
}

func TestNormalize_RejectsNonObject(t *testing.T) {
	if _, ok := Normalize(model.RawRecord{ID: "rec1"}, 1, 0); ok {
		t.Fatal("nil Fields should be rejected")
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{float64(499), 499},
		{"899", 899},
		{"abc", 0},
		{float64(-5), 0},
		{nil, 0},
		{true, 0},
		{" 2,000 ", 2000},
	}
	for _, tt := range tests {
		if got := price(tt.in); got != tt.want {
			t.Errorf("price(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestImage_Attachments(t *testing.T) {
	v := []any{map[string]any{"url": "https://cdn/a.jpg"}, map[string]any{"url": "https://cdn/b.jpg"}}
	if got := image(v); got != "https://cdn/a.jpg" {
		t.Fatalf("image = %q", got)
	}
}
