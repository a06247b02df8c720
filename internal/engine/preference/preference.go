package preference

import (
	"fmt"

	"github.com/crimson-sun/emoshop/internal/model"
)

// Wildcard in a color list matches every product color.
const Wildcard = "Any"

// Table maps each emotion label to its preference entry. A Table is built
// once and never mutated afterwards.
type Table struct {
	entries map[model.Emotion]model.EmotionPreference
}

// New builds a Table from the given entries. The neutral entry is required
// because every unknown label falls back to it.
func New(entries []model.EmotionPreference) (*Table, error) {
	t := &Table{entries: make(map[model.Emotion]model.EmotionPreference, len(entries))}
	for _, e := range entries {
		if !e.Emotion.Valid() {
			return nil, fmt.Errorf("preference: unknown emotion %q", e.Emotion)
		}
		if _, dup := t.entries[e.Emotion]; dup {
			return nil, fmt.Errorf("preference: duplicate entry for %q", e.Emotion)
		}
		t.entries[e.Emotion] = e
	}
	if _, ok := t.entries[model.Neutral]; !ok {
		return nil, fmt.Errorf("preference: table has no %q entry", model.Neutral)
	}
	return t, nil
}

// Lookup returns the entry for e, falling back to neutral when e is absent.
// The second result is false when the fallback was used.
func (t *Table) Lookup(e model.Emotion) (model.EmotionPreference, bool) {
	if p, ok := t.entries[e]; ok {
		return p, true
	}
	return t.entries[model.Neutral], false
}

// Entries returns all entries in canonical label order.
func (t *Table) Entries() []model.EmotionPreference {
	out := make([]model.EmotionPreference, 0, len(t.entries))
	for _, e := range model.Emotions {
		if p, ok := t.entries[e]; ok {
			out = append(out, p)
		}
	}
	return out
}
