package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

func TestBuildProductQuery(t *testing.T) {
	query, args := buildProductQuery(domain.ProductQuery{
		Categories:   []string{"itopya_ram", "sinerji_ram"},
		ExcludeIDs:   []string{"p1"},
		NameContains: "50%_off",
		ActiveOnly:   true,
		Limit:        25,
	})

	assert.Contains(t, query, "FROM products")
	assert.Contains(t, query, "category IN ($1, $2)")
	assert.Contains(t, query, "is_active = $3")
	assert.Contains(t, query, "id NOT IN ($4)")
	assert.Contains(t, query, "name ILIKE $5")
	assert.Contains(t, query, "LIMIT")
	assert.Equal(t, []any{"itopya_ram", "sinerji_ram", true, "p1", `%50\%\_off%`}, args[:5])
}

func TestBuildProductQuery_NoFilters(t *testing.T) {
	query, args := buildProductQuery(domain.ProductQuery{})
	assert.NotContains(t, query, "WHERE")
	assert.NotContains(t, query, "LIMIT")
	assert.Empty(t, args)
}

func TestBuildSpecificationQuery(t *testing.T) {
	query, args, err := buildSpecificationQuery(domain.SpecificationFilter{
		Category:   domain.CategoryGraphicsCard,
		ActiveOnly: true,
		ProductID:  "p-9",
	})
	require.NoError(t, err)

	assert.Contains(t, query, "category = $1")
	assert.Contains(t, query, "is_active = $2")
	assert.Contains(t, query, "matches @> $3::jsonb")
	assert.Contains(t, query, "ORDER BY created_at, id")
	require.Len(t, args, 3)
	assert.Equal(t, `[{"productId":"p-9"}]`, args[2])
}

func TestJSONColumn(t *testing.T) {
	var c jsonColumn[[]domain.MatchRecord]
	require.NoError(t, c.Scan([]byte(`[{"productId":"a","confidence":0.8}]`)))
	require.Len(t, c.Data, 1)
	assert.Equal(t, 0.8, c.Data[0].Confidence)

	require.NoError(t, c.Scan(nil))
	assert.Nil(t, c.Data)

	assert.Error(t, c.Scan(42))

	v, err := jsonColumn[map[string]any]{Data: map[string]any{"kapasite": 32}}.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"kapasite":32}`, v)
}

// testDB connects to SCRAPER_TEST_DATABASE_DSN and resets the schema
func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("SCRAPER_TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("SCRAPER_TEST_DATABASE_DSN not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := Open(ctx, Config{DSN: dsn, MaxOpenConns: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, Migrate(db, zerolog.Nop()))
	_, err = db.Exec("TRUNCATE specifications, products")
	require.NoError(t, err)
	return db
}

func TestSpecificationRepository_Integration(t *testing.T) {
	db := testDB(t)
	repo := NewSpecificationRepository(db, zerolog.Nop())
	ctx := context.Background()

	spec := &domain.Specification{
		ProductName:      "RTX 5070 Ti",
		CleanProductName: "rtx 5070 ti",
		Category:         domain.CategoryGraphicsCard,
		SpecFields:       map[string]any{"bellekBoyutu": 16.0},
		Source:           "manual",
		IsActive:         true,
	}
	require.NoError(t, repo.Create(ctx, spec))
	require.NotEmpty(t, spec.ID)

	got, err := repo.Get(ctx, spec.ID)
	require.NoError(t, err)
	assert.Equal(t, "RTX 5070 Ti", got.ProductName)
	assert.Equal(t, 16.0, got.SpecFields["bellekBoyutu"])
	assert.Equal(t, int64(1), got.Version)

	now := time.Now().UTC().Truncate(time.Millisecond)
	matches := []domain.MatchRecord{{ProductID: "p1", ProductName: "MSI RTX 5070 Ti", Confidence: 0.9, Similarity: 0.9, MatchedAt: now}}
	require.NoError(t, repo.ReplaceMatches(ctx, spec.ID, 1, matches, domain.MatchStats{LastMatchedAt: &now}))
	assert.ErrorIs(t, repo.ReplaceMatches(ctx, spec.ID, 1, nil, domain.MatchStats{}), domain.ErrVersionConflict)
	assert.ErrorIs(t, repo.ReplaceMatches(ctx, "missing", 1, nil, domain.MatchStats{}), domain.ErrSpecificationNotFound)

	byProduct, err := repo.List(ctx, domain.SpecificationFilter{ProductID: "p1"})
	require.NoError(t, err)
	require.Len(t, byProduct, 1)
	assert.Equal(t, 1, byProduct[0].Stats.TotalMatches)

	require.NoError(t, repo.IncrementViews(ctx, spec.ID))
	got, err = repo.Get(ctx, spec.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stats.ViewCount)
	assert.Equal(t, int64(2), got.Version)

	got.ProductName = "RTX 5070 Ti Super"
	require.NoError(t, repo.Update(ctx, got))
	assert.Equal(t, int64(3), got.Version)

	cleared, err := repo.ClearAllMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrSpecificationNotFound)
}

func TestProductRepository_Integration(t *testing.T) {
	db := testDB(t)
	repo := NewProductRepository(db, zerolog.Nop())
	ctx := context.Background()

	scraped := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.Upsert(ctx,
		domain.Product{ID: "p1", Name: "Kingston Fury DDR5 32GB", Category: "itopya_ram", IsActive: true, ScrapedAt: scraped},
		domain.Product{ID: "p2", Name: "Corsair DDR5 16GB", Category: "sinerji_ram", IsActive: false, ScrapedAt: scraped},
	))
	require.NoError(t, repo.Upsert(ctx, domain.Product{ID: "p1", Name: "Kingston Fury Beast DDR5 32GB", Category: "itopya_ram", IsActive: true, ScrapedAt: scraped}))

	p, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Kingston Fury Beast DDR5 32GB", p.Name)

	active, err := repo.Find(ctx, domain.ProductQuery{Categories: []string{"itopya_ram", "sinerji_ram"}, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "p1", active[0].ID)

	byName, err := repo.Find(ctx, domain.ProductQuery{NameContains: "corsair"})
	require.NoError(t, err)
	require.Len(t, byName, 1)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}
