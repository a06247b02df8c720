package preference

import (
	"testing"

	"github.com/crimson-sun/emoshop/internal/model"
)

func TestDefaultCoversEveryEmotion(t *testing.T) {
	tab := Default()
	for _, e := range model.Emotions {
		p, ok := tab.Lookup(e)
		if !ok {
			t.Errorf("no entry for %q", e)
			continue
		}
		if p.Emotion != e {
			t.Errorf("Lookup(%q).Emotion = %q", e, p.Emotion)
		}
		if len(p.Categories) == 0 || len(p.Colors) == 0 || len(p.Usage) == 0 {
			t.Errorf("%q has an empty keyword set: %+v", e, p)
		}
		switch p.DefaultSort {
		case model.SortPriceAsc, model.SortPriceDesc, model.SortRatingDesc, model.SortName:
		default:
			t.Errorf("%q has invalid default sort %q", e, p.DefaultSort)
		}
	}
}

func TestLookupFallsBackToNeutral(t *testing.T) {
	tab := Default()
	p, ok := tab.Lookup("bored")
	if ok {
		t.Fatal("expected fallback flag for unknown emotion")
	}
	if p.Emotion != model.Neutral {
		t.Fatalf("fallback entry = %q, want neutral", p.Emotion)
	}
}

func TestHappyEntry(t *testing.T) {
	p, _ := Default().Lookup(model.Happy)
	want := []string{"Accessories", "Footwear", "Apparel"}
	if len(p.Categories) != len(want) {
		t.Fatalf("categories = %v, want %v", p.Categories, want)
	}
	for i := range want {
		if p.Categories[i] != want[i] {
			t.Errorf("categories[%d] = %q, want %q", i, p.Categories[i], want[i])
		}
	}
	if p.DefaultSort != model.SortPriceDesc {
		t.Errorf("sort = %q, want price_desc", p.DefaultSort)
	}
}

func TestOnlyNeutralUsesWildcard(t *testing.T) {
	for _, p := range Default().Entries() {
		has := false
		for _, c := range p.Colors {
			if c == Wildcard {
				has = true
			}
		}
		if has != (p.Emotion == model.Neutral) {
			t.Errorf("%q wildcard = %v", p.Emotion, has)
		}
	}
}

func TestNewRejectsMissingNeutral(t *testing.T) {
	_, err := New([]model.EmotionPreference{{Emotion: model.Happy}})
	if err == nil {
		t.Fatal("expected error without neutral entry")
	}
}

func TestNewRejectsDuplicatesAndUnknown(t *testing.T) {
	if _, err := New([]model.EmotionPreference{{Emotion: model.Neutral}, {Emotion: model.Neutral}}); err == nil {
		t.Error("expected duplicate error")
	}
	if _, err := New([]model.EmotionPreference{{Emotion: model.Neutral}, {Emotion: "bored"}}); err == nil {
		t.Error("expected unknown emotion error")
	}
}

func TestEntriesCanonicalOrder(t *testing.T) {
	entries := Default().Entries()
	if len(entries) != len(model.Emotions) {
		t.Fatalf("got %d entries, want %d", len(entries), len(model.Emotions))
	}
	for i, e := range model.Emotions {
		if entries[i].Emotion != e {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Emotion, e)
		}
	}
}
