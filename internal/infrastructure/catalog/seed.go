package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/medifocal/catalog/internal/domain"
)

// Seed is the import file format: the product and category collections
type Seed struct {
	Products   []domain.Product  `json:"products"`
	Categories []domain.Category `json:"categories"`
}

// LoadSeedFile reads a seed file from disk
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}

	for i := range seed.Products {
		if seed.Products[i].ID == "" {
			seed.Products[i].ID = seed.Products[i].ItemNumber
		}
		if seed.Products[i].ID == "" {
			return nil, fmt.Errorf("seed product %d has neither id nor itemNumber", i)
		}
	}

	return &seed, nil
}
