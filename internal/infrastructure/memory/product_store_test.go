package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

func TestProductStore_Find(t *testing.T) {
	store := NewProductStore(
		domain.Product{ID: "1", Name: "MSI RTX 5070 Ti Gaming", Category: "itopya_ekran-karti", IsActive: true},
		domain.Product{ID: "2", Name: "Asus RTX 5070", Category: "incehesap_ekran-karti", IsActive: true},
		domain.Product{ID: "3", Name: "Old RTX 3060", Category: "itopya_ekran-karti", IsActive: false},
		domain.Product{ID: "4", Name: "Ryzen 5 7600X", Category: "itopya_islemci", IsActive: true},
	)
	ctx := context.Background()

	tests := []struct {
		name  string
		query domain.ProductQuery
		want  []string
	}{
		{"everything", domain.ProductQuery{}, []string{"1", "2", "3", "4"}},
		{"categories", domain.ProductQuery{Categories: []string{"itopya_ekran-karti", "incehesap_ekran-karti"}}, []string{"1", "2", "3"}},
		{"active only", domain.ProductQuery{Categories: []string{"itopya_ekran-karti"}, ActiveOnly: true}, []string{"1"}},
		{"name contains ignores case", domain.ProductQuery{NameContains: "rtx 5070"}, []string{"1", "2"}},
		{"exclude ids", domain.ProductQuery{ExcludeIDs: []string{"1", "4"}}, []string{"2", "3"}},
		{"limit", domain.ProductQuery{Limit: 1}, []string{"1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.Find(ctx, tt.query)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestProductStore_GetAndUpsert(t *testing.T) {
	store := NewProductStore()
	ctx := context.Background()

	store.Upsert(domain.Product{Name: "no id"})
	assert.Equal(t, 1, store.Size())

	store.Upsert(domain.Product{ID: "a", Name: "first"})
	store.Upsert(domain.Product{ID: "a", Name: "second"})
	assert.Equal(t, 2, store.Size())

	p, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "second", p.Name)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestSeed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "seed.json")
	fixture := `{
		"products": [{"id": "p1", "name": "Ryzen 5 7600X 4.7GHz", "category": "itopya_islemci", "isActive": true}],
		"specifications": [{"productName": "AMD Ryzen 5 7600X", "category": "Processor", "isActive": true}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(fixture), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)

	specs := NewSpecificationStore()
	products := NewProductStore()
	require.NoError(t, seed.Apply(context.Background(), specs, products))

	assert.Equal(t, 1, products.Size())
	list, err := specs.List(context.Background(), domain.SpecificationFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "amd ryzen 5 7600x", list[0].CleanProductName)

	t.Run("rejects unknown category", func(t *testing.T) {
		bad := &Seed{Specifications: []domain.Specification{{ProductName: "x", Category: "Toaster"}}}
		err := bad.Apply(context.Background(), NewSpecificationStore(), NewProductStore())
		assert.ErrorIs(t, err, domain.ErrInvalidCategory)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadSeed(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}
