package testdata

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/crimson-sun/emoshop/internal/model"
)

//go:embed catalog.json
var catalogJSON []byte

// Expectation is the known scoring outcome of one emotion over the fixture
// catalog.
type Expectation struct {
	Emotion  model.Emotion `json:"emotion"`
	Top      string        `json:"top"`
	TopScore int           `json:"topScore"`
	Matches  int           `json:"matches"`
}

type corpus struct {
	Products []model.Product `json:"products"`
	Expect   []Expectation   `json:"expect"`
}

// LoadCatalog parses the embedded catalog.json.
func LoadCatalog() ([]model.Product, []Expectation, error) {
	var c corpus
	if err := json.Unmarshal(catalogJSON, &c); err != nil {
		return nil, nil, fmt.Errorf("parse catalog.json: %w", err)
	}
	return c.Products, c.Expect, nil
}
