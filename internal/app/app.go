// Package app assembles the stores, services and adapters from configuration.
// Both the HTTP server and the matcher CLI start from Build.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/config"
	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/infrastructure/cache"
	"github.com/JustEmoBut/scraper-backend/internal/infrastructure/catalog"
	"github.com/JustEmoBut/scraper-backend/internal/infrastructure/memory"
	"github.com/JustEmoBut/scraper-backend/internal/infrastructure/metrics"
	"github.com/JustEmoBut/scraper-backend/internal/infrastructure/postgres"
	"github.com/JustEmoBut/scraper-backend/internal/usecase"
)

// App holds the wired services
type App struct {
	Specifications *usecase.SpecificationService
	Matching       *usecase.MatchingService
	Categories     domain.CategoryMapping

	// Catalog is set when products come from the remote catalog API
	Catalog *catalog.Client
	// DB is set for the postgres store
	DB *sqlx.DB
	// ProductCache is set when catalog reads are cached
	ProductCache *cache.CachedProductRepository

	closers []func() error
}

// Build wires everything the configuration asks for. Matching metrics are
// registered on reg; nil means the default prometheus registry.
func Build(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger zerolog.Logger) (*App, error) {
	categories, err := cfg.Matching.CategoryMapping()
	if err != nil {
		return nil, err
	}
	a := &App{Categories: categories}

	specs, products, err := a.openStore(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Catalog.BaseURL != "" {
		a.Catalog = catalog.NewClient(catalog.Config{
			BaseURL:           cfg.Catalog.BaseURL,
			Timeout:           cfg.Catalog.Timeout,
			RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
			Burst:             cfg.Catalog.Burst,
		}, logger)
		products = a.Catalog
		logger.Info().Str("base_url", cfg.Catalog.BaseURL).Msg("reading products from remote catalog")
	}

	products, err = a.withCache(ctx, cfg.Cache, products, logger)
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Matching = usecase.NewMatchingService(specs, products, usecase.MatchConfig{
		AutoThreshold:    cfg.Matching.AutoThreshold,
		ReviewThreshold:  cfg.Matching.ReviewThreshold,
		CleanupThreshold: cfg.Matching.CleanupThreshold,
		ReviewLimit:      cfg.Matching.ReviewLimit,
		CandidateLimit:   cfg.Matching.CandidateLimit,
		RematchAllLimit:  cfg.Matching.RematchAllLimit,
		Workers:          cfg.Matching.Workers,
		Categories:       categories,
		Metrics:          metrics.NewRecorder(reg),
	}, logger)
	a.Specifications = usecase.NewSpecificationService(specs, a.Matching, logger)

	return a, nil
}

func (a *App) openStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (domain.SpecificationRepository, domain.ProductRepository, error) {
	switch cfg.Store.Type {
	case "postgres":
		db, err := postgres.Open(ctx, postgres.Config{
			DSN:             cfg.Database.DSN,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)

		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(db, logger); err != nil {
				return nil, nil, err
			}
		}
		logger.Info().Msg("using postgres store")
		return postgres.NewSpecificationRepository(db, logger), postgres.NewProductRepository(db, logger), nil

	default:
		specs := memory.NewSpecificationStore()
		products := memory.NewProductStore()
		if cfg.Store.SeedFile != "" {
			seed, err := memory.LoadSeed(cfg.Store.SeedFile)
			if err != nil {
				return nil, nil, err
			}
			if err := seed.Apply(ctx, specs, products); err != nil {
				return nil, nil, err
			}
			logger.Info().
				Str("file", cfg.Store.SeedFile).
				Int("products", len(seed.Products)).
				Int("specifications", len(seed.Specifications)).
				Msg("seeded memory store")
		}
		logger.Info().Msg("using memory store")
		return specs, products, nil
	}
}

func (a *App) withCache(ctx context.Context, cfg config.CacheConfig, products domain.ProductRepository, logger zerolog.Logger) (domain.ProductRepository, error) {
	var backend domain.CacheRepository
	switch cfg.Type {
	case "none", "":
		return products, nil
	case "redis":
		rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		backend = rc
	default:
		mc := cache.NewMemoryCache(0)
		a.closers = append(a.closers, mc.Close)
		backend = mc
	}
	logger.Info().Str("cache", cfg.Type).Dur("ttl", cfg.TTL).Msg("product cache enabled")
	a.ProductCache = cache.NewCachedProductRepository(products, backend, cfg.TTL, logger)
	return a.ProductCache, nil
}

// FlushProductCache drops cached catalog reads after the catalog changed.
// It is a no-op when caching is off.
func (a *App) FlushProductCache(ctx context.Context) error {
	if a.ProductCache == nil {
		return nil
	}
	return a.ProductCache.Flush(ctx)
}

// Close releases connections in reverse order of acquisition
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if len(errs) > 0 {
		return fmt.Errorf("closing app: %w", errors.Join(errs...))
	}
	return nil
}
