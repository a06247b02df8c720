package loader

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/crimson-sun/emoshop/internal/model"
)

// Fallback values for absent or unusable fields.
const (
	DefaultName     = "Unnamed Product"
	DefaultCategory = "Unknown"
	DefaultGender   = "Unisex"
	DefaultColor    = "N/A"
	DefaultSeason   = "All Season"
	DefaultUsage    = "General"
	DefaultImage    = "https://via.placeholder.com/300x200?text=No+Image"
)

// Normalize maps a raw record onto a Product. page and index locate the
// record and are used only to generate an id when none is present. It
// returns false when the record has no field object at all.
func Normalize(rec model.RawRecord, page, index int) (model.Product, bool) {
	if rec.Fields == nil {
		return model.Product{}, false
	}
	f := rec.Fields

	id := text(f["id"])
	if id == "" {
		id = rec.ID
	}
	if id == "" {
		id = fmt.Sprintf("rec-%d-%d", page, index)
	}

	return model.Product{
		ID:          id,
		Name:        or(text(f["productDisplayName"]), DefaultName),
		Price:       price(f["price"]),
		Category:    or(text(f["masterCategory"]), DefaultCategory),
		SubCategory: text(f["subCategory"]),
		ArticleType: text(f["articleType"]),
		Gender:      or(text(f["gender"]), DefaultGender),
		Color:       or(text(f["baseColour"]), DefaultColor),
		Season:      or(text(f["season"]), DefaultSeason),
		Usage:       or(text(f["usage"]), DefaultUsage),
		Image:       or(image(f["link"]), DefaultImage),
	}, true
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

// text renders scalars as trimmed strings. Numbers use the shortest decimal
// form so numeric ids stay stable ("15970", not "1.597e+04").
func text(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// price accepts numbers or numeric strings ("1,299.00" included). Anything
// unparseable, negative or non-finite is 0.
func price(v any) float64 {
	var p float64
	switch x := v.(type) {
	case float64:
		p = x
	case int:
		p = float64(x)
	case int64:
		p = float64(x)
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		p = f
	default:
		return 0
	}
	if math.IsNaN(p) || math.IsInf(p, 0) || p < 0 {
		return 0
	}
	return p
}

// image accepts a URL string or an attachment list ([{"url": ...}]) and
// returns the first URL.
func image(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case []any:
		for _, a := range x {
			if m, ok := a.(map[string]any); ok {
				if u := text(m["url"]); u != "" {
					return u
				}
			}
		}
	}
	return ""
}
