package domain

import "errors"

// Domain errors
var (
	// ErrSpecificationNotFound is returned when a specification id does not resolve
	ErrSpecificationNotFound = errors.New("specification not found")

	// ErrProductNotFound is returned when a product id does not resolve
	ErrProductNotFound = errors.New("product not found")

	// ErrInvalidCategory is returned when a category is not part of the fixed enumeration
	ErrInvalidCategory = errors.New("invalid category")

	// ErrMatchExists is returned when a product is already matched to the specification
	ErrMatchExists = errors.New("product already matched")

	// ErrMatchNotFound is returned when removing a match that does not exist
	ErrMatchNotFound = errors.New("match not found")

	// ErrVersionConflict is returned when a match list was replaced concurrently
	ErrVersionConflict = errors.New("specification was modified concurrently")

	// ErrInvalidRequest is returned when request validation fails
	ErrInvalidRequest = errors.New("invalid request")

	// ErrCacheMiss is returned when a cache entry is not found
	ErrCacheMiss = errors.New("cache miss")

	// ErrCacheUnavailable is returned when the cache service is unavailable
	ErrCacheUnavailable = errors.New("cache service unavailable")

	// ErrCatalogFailure is returned when the remote product catalog fails
	ErrCatalogFailure = errors.New("product catalog request failed")

	// ErrStoreFailure is returned when the persistence layer fails
	ErrStoreFailure = errors.New("store operation failed")
)
