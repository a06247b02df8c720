package testdata

import (
	"testing"

	"github.com/crimson-sun/emoshop/internal/model"
)

func TestLoadCatalog(t *testing.T) {
	products, expect, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog() error: %v", err)
	}
	if len(products) == 0 {
		t.Fatal("catalog is empty")
	}

	ids := map[string]bool{}
	for i, p := range products {
		if p.ID == "" || p.Name == "" || p.Price <= 0 {
			t.Errorf("product[%d] incomplete: %+v", i, p)
		}
		if ids[p.ID] {
			t.Errorf("duplicate id %q", p.ID)
		}
		ids[p.ID] = true
	}

	for _, e := range expect {
		if !ids[e.Top] {
			t.Errorf("%s: top %q not in catalog", e.Emotion, e.Top)
		}
		if e.Matches < 1 || e.Matches > len(products) {
			t.Errorf("%s: matches %d out of range", e.Emotion, e.Matches)
		}
	}
}

func TestEveryEmotionCovered(t *testing.T) {
	_, expect, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog() error: %v", err)
	}
	seen := map[model.Emotion]bool{}
	for _, e := range expect {
		seen[e.Emotion] = true
	}
	for _, e := range model.Emotions {
		if !seen[e] {
			t.Errorf("emotion %q has no expectation", e)
		}
	}
}
