package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed seed.json
var seedJSON []byte

// LoadSeed builds a catalog from the embedded seed tables.
func LoadSeed() (*Catalog, error) {
	var t Tables
	if err := json.Unmarshal(seedJSON, &t); err != nil {
		return nil, fmt.Errorf("failed to parse embedded seed: %w", err)
	}
	return New(t), nil
}
