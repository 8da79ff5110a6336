package domain

import (
	"context"
	"time"
)

// SpecificationRepository persists specifications and their embedded match lists
type SpecificationRepository interface {
	// Get returns ErrSpecificationNotFound when id does not resolve
	Get(ctx context.Context, id string) (*Specification, error)
	List(ctx context.Context, filter SpecificationFilter) ([]Specification, error)
	// Create assigns an id when empty
	Create(ctx context.Context, spec *Specification) error
	// Update writes descriptive fields (not the match list) and bumps the version
	Update(ctx context.Context, spec *Specification) error
	// ReplaceMatches swaps the whole match list atomically when the stored
	// version equals expectedVersion, otherwise returns ErrVersionConflict.
	ReplaceMatches(ctx context.Context, id string, expectedVersion int64, matches []MatchRecord, stats MatchStats) error
	// IncrementViews bumps stats.viewCount
	IncrementViews(ctx context.Context, id string) error
	// ClearAllMatches empties every match list and returns the number of removed records
	ClearAllMatches(ctx context.Context) (int, error)
}

// ProductRepository reads the scraped catalog
type ProductRepository interface {
	// Get returns ErrProductNotFound when id does not resolve
	Get(ctx context.Context, id string) (*Product, error)
	Find(ctx context.Context, query ProductQuery) ([]Product, error)
}

// CacheRepository stores opaque payloads with expiry
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
