package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

// DefaultProductTTL bounds how stale a cached catalog read may be
const DefaultProductTTL = 5 * time.Minute

const (
	// generationKey holds the current catalog generation. Every other key
	// embeds it, so bumping it retires all earlier entries at once, across
	// every process sharing the backend.
	generationKey = "products:generation"
	generationTTL = 30 * 24 * time.Hour
	// initialGeneration is used until the first Flush
	initialGeneration = "0"
)

// CachedProductRepository serves catalog reads from a CacheRepository and
// falls through to the wrapped repository on a miss. Cache failures never
// fail a read. Call Flush after the catalog changes.
type CachedProductRepository struct {
	next   domain.ProductRepository
	cache  domain.CacheRepository
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedProductRepository wraps next. A non-positive ttl uses DefaultProductTTL.
func NewCachedProductRepository(next domain.ProductRepository, cache domain.CacheRepository, ttl time.Duration, logger zerolog.Logger) *CachedProductRepository {
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &CachedProductRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With().Str("component", "product_cache").Logger(),
	}
}

// Get returns a product by id
func (r *CachedProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	key := productKey(r.generation(ctx), id)

	var cached domain.Product
	if r.load(ctx, key, &cached) {
		return &cached, nil
	}

	product, err := r.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, product)
	return product, nil
}

// Find returns the products selected by query
func (r *CachedProductRepository) Find(ctx context.Context, query domain.ProductQuery) ([]domain.Product, error) {
	key, err := queryKey(r.generation(ctx), query)
	if err != nil {
		return r.next.Find(ctx, query)
	}

	var cached []domain.Product
	if r.load(ctx, key, &cached) {
		return cached, nil
	}

	products, err := r.next.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, products)
	return products, nil
}

// Flush retires every cached product and query result. Old entries are never
// served again and expire on their own TTL.
func (r *CachedProductRepository) Flush(ctx context.Context) error {
	gen := uuid.NewString()
	if err := r.cache.Set(ctx, generationKey, []byte(gen), generationTTL); err != nil {
		return fmt.Errorf("flushing product cache: %w", err)
	}
	r.logger.Info().Str("generation", gen).Msg("product cache flushed")
	return nil
}

func (r *CachedProductRepository) generation(ctx context.Context) string {
	payload, err := r.cache.Get(ctx, generationKey)
	if err != nil || len(payload) == 0 {
		return initialGeneration
	}
	return string(payload)
}

func (r *CachedProductRepository) load(ctx context.Context, key string, dst any) bool {
	payload, err := r.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			r.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		_ = r.cache.Delete(ctx, key)
		return false
	}
	return true
}

func (r *CachedProductRepository) store(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, payload, r.ttl); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func productKey(gen, id string) string {
	return "product:" + gen + ":" + id
}

// queryKey format: "products:{generation}:{hash of the encoded query}"
func queryKey(gen string, query domain.ProductQuery) (string, error) {
	encoded, err := json.Marshal(query)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("products:%s:%016x", gen, xxhash.Sum64(encoded)), nil
}
