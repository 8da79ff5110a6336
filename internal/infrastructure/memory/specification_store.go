package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

// SpecificationStore is a thread-safe in-memory SpecificationRepository.
// Every read returns a deep copy, so callers never observe a match list that
// is being replaced.
type SpecificationStore struct {
	mu    sync.RWMutex
	specs map[string]*domain.Specification
	order []string
}

// NewSpecificationStore creates an empty store
func NewSpecificationStore() *SpecificationStore {
	return &SpecificationStore{
		specs: make(map[string]*domain.Specification),
	}
}

// Get returns a copy of the specification
func (s *SpecificationStore) Get(ctx context.Context, id string) (*domain.Specification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	spec, ok := s.specs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSpecificationNotFound, id)
	}
	return spec.Clone(), nil
}

// List returns specifications in creation order
func (s *SpecificationStore) List(ctx context.Context, filter domain.SpecificationFilter) ([]domain.Specification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Specification, 0)
	for _, id := range s.order {
		spec := s.specs[id]
		if filter.Category != "" && spec.Category != filter.Category {
			continue
		}
		if filter.ActiveOnly && !spec.IsActive {
			continue
		}
		if filter.ProductID != "" && !spec.HasMatch(filter.ProductID) {
			continue
		}
		out = append(out, *spec.Clone())
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// Create stores spec, assigning an id when empty
func (s *SpecificationStore) Create(ctx context.Context, spec *domain.Specification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.ID == "" {
		spec.ID = uuid.NewString()
	}
	if _, exists := s.specs[spec.ID]; exists {
		return fmt.Errorf("%w: specification %s already exists", domain.ErrInvalidRequest, spec.ID)
	}
	if spec.Matches == nil {
		spec.Matches = []domain.MatchRecord{}
	}
	spec.Stats.TotalMatches = len(spec.Matches)
	spec.Version = 1

	s.specs[spec.ID] = spec.Clone()
	s.order = append(s.order, spec.ID)
	return nil
}

// Update writes the descriptive fields of spec
func (s *SpecificationStore) Update(ctx context.Context, spec *domain.Specification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.specs[spec.ID]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSpecificationNotFound, spec.ID)
	}

	next := stored.Clone()
	src := spec.Clone()
	next.ProductName = src.ProductName
	next.CleanProductName = src.CleanProductName
	next.Brand = src.Brand
	next.SpecFields = src.SpecFields
	next.IsActive = src.IsActive
	next.VerifiedBy = src.VerifiedBy
	next.VerifiedAt = src.VerifiedAt
	next.UpdatedAt = src.UpdatedAt
	next.Version++

	s.specs[spec.ID] = next
	spec.Version = next.Version
	return nil
}

// ReplaceMatches swaps the match list when expectedVersion is current
func (s *SpecificationStore) ReplaceMatches(ctx context.Context, id string, expectedVersion int64, matches []domain.MatchRecord, stats domain.MatchStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.specs[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSpecificationNotFound, id)
	}
	if stored.Version != expectedVersion {
		return fmt.Errorf("%w: %s at version %d, expected %d", domain.ErrVersionConflict, id, stored.Version, expectedVersion)
	}

	next := stored.Clone()
	next.Matches = make([]domain.MatchRecord, len(matches))
	copy(next.Matches, matches)
	next.Stats.TotalMatches = len(matches)
	if stats.LastMatchedAt != nil {
		t := *stats.LastMatchedAt
		next.Stats.LastMatchedAt = &t
	}
	next.Version++

	s.specs[id] = next
	return nil
}

// IncrementViews bumps the view counter without changing the version
func (s *SpecificationStore) IncrementViews(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.specs[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSpecificationNotFound, id)
	}
	stored.Stats.ViewCount++
	return nil
}

// ClearAllMatches empties every match list
func (s *SpecificationStore) ClearAllMatches(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cleared := 0
	for id, stored := range s.specs {
		if len(stored.Matches) == 0 {
			continue
		}
		cleared += len(stored.Matches)
		next := stored.Clone()
		next.Matches = []domain.MatchRecord{}
		next.Stats.TotalMatches = 0
		next.Version++
		s.specs[id] = next
	}
	return cleared, nil
}

// Size returns the number of stored specifications
func (s *SpecificationStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.specs)
}
