package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

func newSpec(name string, c domain.Category) *domain.Specification {
	return &domain.Specification{ProductName: name, Category: c, IsActive: true}
}

func TestSpecificationStore_CreateAndGet(t *testing.T) {
	store := NewSpecificationStore()
	ctx := context.Background()

	spec := newSpec("RTX 5070 Ti", domain.CategoryGraphicsCard)
	require.NoError(t, store.Create(ctx, spec))
	assert.NotEmpty(t, spec.ID)
	assert.Equal(t, int64(1), spec.Version)

	got, err := store.Get(ctx, spec.ID)
	require.NoError(t, err)
	assert.Equal(t, "RTX 5070 Ti", got.ProductName)
	assert.NotNil(t, got.Matches)

	t.Run("returned copies are isolated", func(t *testing.T) {
		got.Matches = append(got.Matches, domain.MatchRecord{ProductID: "p1"})
		again, err := store.Get(ctx, spec.ID)
		require.NoError(t, err)
		assert.Empty(t, again.Matches)
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		dup := newSpec("dup", domain.CategoryRAM)
		dup.ID = spec.ID
		assert.ErrorIs(t, store.Create(ctx, dup), domain.ErrInvalidRequest)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.ErrorIs(t, err, domain.ErrSpecificationNotFound)
	})
}

func TestSpecificationStore_List(t *testing.T) {
	store := NewSpecificationStore()
	ctx := context.Background()

	gpu := newSpec("RTX 5070", domain.CategoryGraphicsCard)
	cpu := newSpec("Ryzen 5 7600X", domain.CategoryProcessor)
	inactive := newSpec("RTX 4060", domain.CategoryGraphicsCard)
	inactive.IsActive = false
	for _, s := range []*domain.Specification{gpu, cpu, inactive} {
		require.NoError(t, store.Create(ctx, s))
	}
	require.NoError(t, store.ReplaceMatches(ctx, cpu.ID, 1, []domain.MatchRecord{{ProductID: "p-cpu"}}, domain.MatchStats{}))

	tests := []struct {
		name   string
		filter domain.SpecificationFilter
		want   []string
	}{
		{"all in creation order", domain.SpecificationFilter{}, []string{gpu.ID, cpu.ID, inactive.ID}},
		{"by category", domain.SpecificationFilter{Category: domain.CategoryGraphicsCard}, []string{gpu.ID, inactive.ID}},
		{"active only", domain.SpecificationFilter{Category: domain.CategoryGraphicsCard, ActiveOnly: true}, []string{gpu.ID}},
		{"by matched product", domain.SpecificationFilter{ProductID: "p-cpu"}, []string{cpu.ID}},
		{"limit", domain.SpecificationFilter{Limit: 2}, []string{gpu.ID, cpu.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := store.List(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, s := range got {
				ids = append(ids, s.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestSpecificationStore_ReplaceMatches(t *testing.T) {
	store := NewSpecificationStore()
	ctx := context.Background()

	spec := newSpec("RTX 5070", domain.CategoryGraphicsCard)
	require.NoError(t, store.Create(ctx, spec))
	require.NoError(t, store.IncrementViews(ctx, spec.ID))

	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	matches := []domain.MatchRecord{{ProductID: "a"}, {ProductID: "b"}}
	require.NoError(t, store.ReplaceMatches(ctx, spec.ID, 1, matches, domain.MatchStats{LastMatchedAt: &now}))

	got, err := store.Get(ctx, spec.ID)
	require.NoError(t, err)
	assert.Len(t, got.Matches, 2)
	assert.Equal(t, 2, got.Stats.TotalMatches)
	assert.Equal(t, 1, got.Stats.ViewCount, "view count survives replacement")
	require.NotNil(t, got.Stats.LastMatchedAt)
	assert.True(t, now.Equal(*got.Stats.LastMatchedAt))
	assert.Equal(t, int64(2), got.Version)

	t.Run("stale version conflicts", func(t *testing.T) {
		err := store.ReplaceMatches(ctx, spec.ID, 1, nil, domain.MatchStats{})
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	})

	t.Run("unknown specification", func(t *testing.T) {
		err := store.ReplaceMatches(ctx, "nope", 1, nil, domain.MatchStats{})
		assert.ErrorIs(t, err, domain.ErrSpecificationNotFound)
	})
}

func TestSpecificationStore_ConcurrentReplaceHasOneWinner(t *testing.T) {
	store := NewSpecificationStore()
	ctx := context.Background()

	spec := newSpec("RTX 5070", domain.CategoryGraphicsCard)
	require.NoError(t, store.Create(ctx, spec))

	const writers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := store.ReplaceMatches(ctx, spec.ID, 1, []domain.MatchRecord{{ProductID: "x"}}, domain.MatchStats{})
			if err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestSpecificationStore_UpdateAndClear(t *testing.T) {
	store := NewSpecificationStore()
	ctx := context.Background()

	spec := newSpec("RTX 5070", domain.CategoryGraphicsCard)
	require.NoError(t, store.Create(ctx, spec))
	require.NoError(t, store.ReplaceMatches(ctx, spec.ID, 1, []domain.MatchRecord{{ProductID: "a"}}, domain.MatchStats{}))

	update := &domain.Specification{ID: spec.ID, ProductName: "RTX 5070 Super", CleanProductName: "rtx 5070 super", IsActive: true}
	require.NoError(t, store.Update(ctx, update))
	assert.Equal(t, int64(3), update.Version)

	got, err := store.Get(ctx, spec.ID)
	require.NoError(t, err)
	assert.Equal(t, "RTX 5070 Super", got.ProductName)
	assert.Len(t, got.Matches, 1, "update leaves matches alone")

	cleared, err := store.ClearAllMatches(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, cleared)

	got, err = store.Get(ctx, spec.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Matches)
	assert.Equal(t, 0, got.Stats.TotalMatches)

	assert.ErrorIs(t, store.Update(ctx, &domain.Specification{ID: "missing"}), domain.ErrSpecificationNotFound)
}
