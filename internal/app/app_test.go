package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustEmoBut/scraper-backend/config"
	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/infrastructure/memory"
)

const seedJSON = `{
  "products": [
    {"id": "p1", "name": "AMD Ryzen 5 7600X 4.7GHz", "category": "itopya_islemci", "isActive": true},
    {"id": "p2", "name": "Kingston Fury DDR5 32GB 6000MHz", "category": "sinerji_ram", "isActive": true}
  ],
  "specifications": [
    {"productName": "AMD Ryzen 5 7600X", "category": "Processor", "isActive": true}
  ]
}`

func memoryConfig(t *testing.T, cacheType string) *config.Config {
	t.Helper()
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(seedJSON), 0o600))

	cfg := &config.Config{}
	cfg.Store.Type = "memory"
	cfg.Store.SeedFile = seed
	cfg.Cache.Type = cacheType
	return cfg
}

func TestBuild_MemoryStore(t *testing.T) {
	for _, cacheType := range []string{"none", "memory"} {
		t.Run(cacheType, func(t *testing.T) {
			a, err := Build(context.Background(), memoryConfig(t, cacheType), prometheus.NewRegistry(), zerolog.Nop())
			require.NoError(t, err)
			t.Cleanup(func() { assert.NoError(t, a.Close()) })

			assert.Nil(t, a.DB)
			assert.Nil(t, a.Catalog)

			specs, err := a.Specifications.List(context.Background(), domain.SpecificationFilter{})
			require.NoError(t, err)
			require.Len(t, specs, 1)

			res, err := a.Matching.RematchSpecification(context.Background(), specs[0].ID, false)
			require.NoError(t, err)
			assert.Equal(t, 1, res.MatchCount)

			assert.Equal(t, cacheType == "memory", a.ProductCache != nil)
			assert.NoError(t, a.FlushProductCache(context.Background()))
		})
	}
}

func TestBuild_Errors(t *testing.T) {
	t.Run("missing seed file", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Store.SeedFile = filepath.Join(t.TempDir(), "absent.json")
		_, err := Build(context.Background(), cfg, prometheus.NewRegistry(), zerolog.Nop())
		assert.Error(t, err)
	})

	t.Run("bad category mapping", func(t *testing.T) {
		cfg := &config.Config{}
		cfg.Matching.CategorySources = map[string][]string{"keyboard": {"itopya_klavye"}}
		_, err := Build(context.Background(), cfg, prometheus.NewRegistry(), zerolog.Nop())
		assert.ErrorIs(t, err, domain.ErrInvalidCategory)
	})
}

type recordingSink struct {
	batches [][]domain.Product
	err     error
}

func (s *recordingSink) Upsert(ctx context.Context, products ...domain.Product) error {
	if s.err != nil {
		return s.err
	}
	s.batches = append(s.batches, products)
	return nil
}

func TestSyncCatalog(t *testing.T) {
	src := memory.NewProductStore(
		domain.Product{ID: "p1", Name: "AMD Ryzen 5 7600X", Category: "itopya_islemci", IsActive: true},
		domain.Product{ID: "p2", Name: "Intel Core i5-13400F", Category: "incehesap_islemci"},
		domain.Product{ID: "r1", Name: "Kingston Fury 32GB", Category: "sinerji_ram", IsActive: true},
	)

	t.Run("selected categories", func(t *testing.T) {
		sink := &recordingSink{}
		results, err := SyncCatalog(context.Background(), src, sink, domain.DefaultCategoryMapping(),
			[]domain.Category{domain.CategoryProcessor}, zerolog.Nop())
		require.NoError(t, err)

		assert.Equal(t, []SyncResult{{Category: domain.CategoryProcessor, Products: 2}}, results)
		require.Len(t, sink.batches, 1)
		assert.Len(t, sink.batches[0], 2)
	})

	t.Run("every category", func(t *testing.T) {
		sink := &recordingSink{}
		results, err := SyncCatalog(context.Background(), src, sink, domain.DefaultCategoryMapping(), nil, zerolog.Nop())
		require.NoError(t, err)

		assert.Len(t, results, len(domain.Categories))
		total := 0
		for _, r := range results {
			total += r.Products
		}
		assert.Equal(t, 3, total)
	})

	t.Run("sink failure", func(t *testing.T) {
		sink := &recordingSink{err: errors.New("disk full")}
		_, err := SyncCatalog(context.Background(), src, sink, domain.DefaultCategoryMapping(),
			[]domain.Category{domain.CategoryRAM}, zerolog.Nop())
		assert.ErrorContains(t, err, "disk full")
	})
}
