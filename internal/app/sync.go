package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

const syncBatchSize = 500

// ProductSink persists catalog products
type ProductSink interface {
	Upsert(ctx context.Context, products ...domain.Product) error
}

// SyncResult summarizes a catalog import
type SyncResult struct {
	Category domain.Category `json:"category"`
	Products int             `json:"products"`
}

// SyncCatalog copies every product of the given categories from src into dst.
// An empty list syncs every category.
func SyncCatalog(ctx context.Context, src domain.ProductRepository, dst ProductSink, categories domain.CategoryMapping, only []domain.Category, logger zerolog.Logger) ([]SyncResult, error) {
	if len(only) == 0 {
		only = domain.Categories
	}

	results := make([]SyncResult, 0, len(only))
	for _, c := range only {
		products, err := src.Find(ctx, domain.ProductQuery{Categories: categories.SourceKeys(c)})
		if err != nil {
			return results, fmt.Errorf("reading %s from catalog: %w", c, err)
		}
		for start := 0; start < len(products); start += syncBatchSize {
			end := min(start+syncBatchSize, len(products))
			if err := dst.Upsert(ctx, products[start:end]...); err != nil {
				return results, fmt.Errorf("storing %s products: %w", c, err)
			}
		}
		logger.Info().Str("category", string(c)).Int("products", len(products)).Msg("catalog category synced")
		results = append(results, SyncResult{Category: c, Products: len(products)})
	}
	return results, nil
}
