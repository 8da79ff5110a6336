package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/matching"
)

// Seed is a JSON fixture for the in-memory stores
type Seed struct {
	Products       []domain.Product       `json:"products"`
	Specifications []domain.Specification `json:"specifications"`
}

// LoadSeed reads a seed file
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}
	return &seed, nil
}

// Apply loads the fixture into the stores
func (s *Seed) Apply(ctx context.Context, specs domain.SpecificationRepository, products *ProductStore) error {
	products.Upsert(s.Products...)
	for i := range s.Specifications {
		spec := s.Specifications[i]
		if !spec.Category.Valid() {
			return fmt.Errorf("seed specification %q: %w: %q", spec.ProductName, domain.ErrInvalidCategory, spec.Category)
		}
		spec.CleanProductName = matching.Normalize(spec.ProductName)
		if err := specs.Create(ctx, &spec); err != nil {
			return fmt.Errorf("seed specification %q: %w", spec.ProductName, err)
		}
	}
	return nil
}
