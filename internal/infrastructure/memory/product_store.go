package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

// ProductStore is a thread-safe in-memory ProductRepository. The catalog is
// owned by the scraper, so writes only happen through seeding and refreshes.
type ProductStore struct {
	mu       sync.RWMutex
	products map[string]domain.Product
	order    []string
}

// NewProductStore creates a store holding products
func NewProductStore(products ...domain.Product) *ProductStore {
	s := &ProductStore{products: make(map[string]domain.Product)}
	s.Upsert(products...)
	return s
}

// Upsert inserts or replaces products by id, assigning ids when empty
func (s *ProductStore) Upsert(products ...domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if _, exists := s.products[p.ID]; !exists {
			s.order = append(s.order, p.ID)
		}
		s.products[p.ID] = p
	}
}

// Get returns the product with id
func (s *ProductStore) Get(ctx context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
	}
	return &p, nil
}

// Find returns products matching query in insertion order
func (s *ProductStore) Find(ctx context.Context, query domain.ProductQuery) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	categories := toSet(query.Categories)
	excluded := toSet(query.ExcludeIDs)
	needle := strings.ToLower(strings.TrimSpace(query.NameContains))

	out := make([]domain.Product, 0)
	for _, id := range s.order {
		p := s.products[id]
		if len(categories) > 0 && !categories[p.Category] {
			continue
		}
		if query.ActiveOnly && !p.IsActive {
			continue
		}
		if excluded[p.ID] {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		out = append(out, p)
		if query.Limit > 0 && len(out) == query.Limit {
			break
		}
	}
	return out, nil
}

// Size returns the number of stored products
func (s *ProductStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
