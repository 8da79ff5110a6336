package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

const productsTable = "products"

var productColumns = []string{
	"id", "name", "category", "brand", "current_price", "source", "link", "is_active", "scraped_at",
}

// likeEscaper escapes LIKE wildcards in user search text
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ProductRepository reads and refreshes the product catalog
type ProductRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewProductRepository creates a product repository
func NewProductRepository(db *sqlx.DB, logger zerolog.Logger) *ProductRepository {
	return &ProductRepository{
		db:     db,
		logger: logger.With().Str("component", "postgres.products").Logger(),
	}
}

// Get retrieves a product by id
func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(productColumns...)
	sb.From(productsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrProductNotFound, id)
		}
		r.logger.Error().Err(err).Str("product_id", id).Msg("failed to get product")
		return nil, fmt.Errorf("%w: get product: %v", domain.ErrStoreFailure, err)
	}
	return &p, nil
}

// Find retrieves products matching query
func (r *ProductRepository) Find(ctx context.Context, query domain.ProductQuery) ([]domain.Product, error) {
	stmt, args := buildProductQuery(query)

	var products []domain.Product
	if err := r.db.SelectContext(ctx, &products, stmt, args...); err != nil {
		r.logger.Error().Err(err).Msg("failed to find products")
		return nil, fmt.Errorf("%w: find products: %v", domain.ErrStoreFailure, err)
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func buildProductQuery(query domain.ProductQuery) (string, []any) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(productColumns...)
	sb.From(productsTable)

	where := make([]string, 0, 4)
	if len(query.Categories) > 0 {
		where = append(where, sb.In("category", sqlbuilder.Flatten(query.Categories)...))
	}
	if query.ActiveOnly {
		where = append(where, sb.Equal("is_active", true))
	}
	if len(query.ExcludeIDs) > 0 {
		where = append(where, sb.NotIn("id", sqlbuilder.Flatten(query.ExcludeIDs)...))
	}
	if needle := strings.TrimSpace(query.NameContains); needle != "" {
		where = append(where, sb.ILike("name", "%"+likeEscaper.Replace(needle)+"%"))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("scraped_at DESC", "id")
	if query.Limit > 0 {
		sb.Limit(query.Limit)
	}
	return sb.Build()
}

// Upsert writes catalog rows, replacing existing ids
func (r *ProductRepository) Upsert(ctx context.Context, products ...domain.Product) error {
	if len(products) == 0 {
		return nil
	}

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(productsTable)
	ib.Cols(productColumns...)
	for _, p := range products {
		ib.Values(p.ID, p.Name, p.Category, p.Brand, p.CurrentPrice, p.Source, p.Link, p.IsActive, p.ScrapedAt)
	}

	query, args := ib.Build()
	query += " ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, category = EXCLUDED.category," +
		" brand = EXCLUDED.brand, current_price = EXCLUDED.current_price, source = EXCLUDED.source," +
		" link = EXCLUDED.link, is_active = EXCLUDED.is_active, scraped_at = EXCLUDED.scraped_at"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error().Err(err).Int("count", len(products)).Msg("failed to upsert products")
		return fmt.Errorf("%w: upsert products: %v", domain.ErrStoreFailure, err)
	}
	r.logger.Debug().Int("count", len(products)).Msg("upserted products")
	return nil
}
