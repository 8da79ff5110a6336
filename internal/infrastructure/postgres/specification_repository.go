package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
)

const specificationsTable = "specifications"

var specificationColumns = []string{
	"id", "product_name", "clean_product_name", "category", "brand", "spec_fields",
	"source", "verified_by", "verified_at", "is_active", "matches", "total_matches",
	"last_matched_at", "view_count", "version", "created_at", "updated_at",
}

type specificationRow struct {
	ID               string                           `db:"id"`
	ProductName      string                           `db:"product_name"`
	CleanProductName string                           `db:"clean_product_name"`
	Category         string                           `db:"category"`
	Brand            string                           `db:"brand"`
	SpecFields       jsonColumn[map[string]any]       `db:"spec_fields"`
	Source           string                           `db:"source"`
	VerifiedBy       string                           `db:"verified_by"`
	VerifiedAt       *time.Time                       `db:"verified_at"`
	IsActive         bool                             `db:"is_active"`
	Matches          jsonColumn[[]domain.MatchRecord] `db:"matches"`
	TotalMatches     int                              `db:"total_matches"`
	LastMatchedAt    *time.Time                       `db:"last_matched_at"`
	ViewCount        int                              `db:"view_count"`
	Version          int64                            `db:"version"`
	CreatedAt        time.Time                        `db:"created_at"`
	UpdatedAt        time.Time                        `db:"updated_at"`
}

func (r specificationRow) toDomain() domain.Specification {
	matches := r.Matches.Data
	if matches == nil {
		matches = []domain.MatchRecord{}
	}
	return domain.Specification{
		ID:               r.ID,
		ProductName:      r.ProductName,
		CleanProductName: r.CleanProductName,
		Category:         domain.Category(r.Category),
		Brand:            r.Brand,
		SpecFields:       r.SpecFields.Data,
		Source:           r.Source,
		VerifiedBy:       r.VerifiedBy,
		VerifiedAt:       r.VerifiedAt,
		IsActive:         r.IsActive,
		Matches:          matches,
		Stats: domain.MatchStats{
			TotalMatches:  r.TotalMatches,
			LastMatchedAt: r.LastMatchedAt,
			ViewCount:     r.ViewCount,
		},
		Version:   r.Version,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// SpecificationRepository is the PostgreSQL SpecificationRepository
type SpecificationRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

// NewSpecificationRepository creates a specification repository
func NewSpecificationRepository(db *sqlx.DB, logger zerolog.Logger) *SpecificationRepository {
	return &SpecificationRepository{
		db:     db,
		logger: logger.With().Str("component", "postgres.specifications").Logger(),
	}
}

// Get retrieves a specification by id
func (r *SpecificationRepository) Get(ctx context.Context, id string) (*domain.Specification, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(specificationColumns...)
	sb.From(specificationsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var row specificationRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrSpecificationNotFound, id)
		}
		r.logger.Error().Err(err).Str("specification_id", id).Msg("failed to get specification")
		return nil, fmt.Errorf("%w: get specification: %v", domain.ErrStoreFailure, err)
	}

	spec := row.toDomain()
	return &spec, nil
}

// List retrieves specifications in creation order
func (r *SpecificationRepository) List(ctx context.Context, filter domain.SpecificationFilter) ([]domain.Specification, error) {
	query, args, err := buildSpecificationQuery(filter)
	if err != nil {
		return nil, err
	}

	var rows []specificationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.Error().Err(err).Msg("failed to list specifications")
		return nil, fmt.Errorf("%w: list specifications: %v", domain.ErrStoreFailure, err)
	}

	out := make([]domain.Specification, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toDomain())
	}
	return out, nil
}

func buildSpecificationQuery(filter domain.SpecificationFilter) (string, []any, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(specificationColumns...)
	sb.From(specificationsTable)

	where := make([]string, 0, 3)
	if filter.Category != "" {
		where = append(where, sb.Equal("category", string(filter.Category)))
	}
	if filter.ActiveOnly {
		where = append(where, sb.Equal("is_active", true))
	}
	if filter.ProductID != "" {
		containment, err := json.Marshal([]map[string]string{{"productId": filter.ProductID}})
		if err != nil {
			return "", nil, err
		}
		where = append(where, fmt.Sprintf("matches @> %s::jsonb", sb.Var(string(containment))))
	}
	if len(where) > 0 {
		sb.Where(where...)
	}
	sb.OrderBy("created_at", "id")
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}

	query, args := sb.Build()
	return query, args, nil
}

// Create inserts a specification, assigning an id when empty
func (r *SpecificationRepository) Create(ctx context.Context, spec *domain.Specification) error {
	if spec.ID == "" {
		spec.ID = uuid.New().String()
	}
	if spec.Matches == nil {
		spec.Matches = []domain.MatchRecord{}
	}
	now := time.Now().UTC()
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = now
	}
	if spec.UpdatedAt.IsZero() {
		spec.UpdatedAt = spec.CreatedAt
	}
	spec.Stats.TotalMatches = len(spec.Matches)
	spec.Version = 1

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto(specificationsTable)
	ib.Cols(specificationColumns...)
	ib.Values(
		spec.ID, spec.ProductName, spec.CleanProductName, string(spec.Category), spec.Brand,
		jsonColumn[map[string]any]{Data: spec.SpecFields},
		spec.Source, spec.VerifiedBy, spec.VerifiedAt, spec.IsActive,
		jsonColumn[[]domain.MatchRecord]{Data: spec.Matches},
		spec.Stats.TotalMatches, spec.Stats.LastMatchedAt, spec.Stats.ViewCount,
		spec.Version, spec.CreatedAt, spec.UpdatedAt,
	)

	query, args := ib.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error().Err(err).Str("specification_id", spec.ID).Msg("failed to create specification")
		return fmt.Errorf("%w: create specification: %v", domain.ErrStoreFailure, err)
	}
	return nil
}

// Update writes descriptive fields and bumps the version
func (r *SpecificationRepository) Update(ctx context.Context, spec *domain.Specification) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(specificationsTable)
	ub.Set(
		ub.Assign("product_name", spec.ProductName),
		ub.Assign("clean_product_name", spec.CleanProductName),
		ub.Assign("brand", spec.Brand),
		ub.Assign("spec_fields", jsonColumn[map[string]any]{Data: spec.SpecFields}),
		ub.Assign("is_active", spec.IsActive),
		ub.Assign("verified_by", spec.VerifiedBy),
		ub.Assign("verified_at", spec.VerifiedAt),
		ub.Assign("updated_at", spec.UpdatedAt),
		ub.Incr("version"),
	)
	ub.Where(ub.Equal("id", spec.ID))

	query, args := ub.Build()
	query += " RETURNING version"

	var version int64
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&version); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: %s", domain.ErrSpecificationNotFound, spec.ID)
		}
		r.logger.Error().Err(err).Str("specification_id", spec.ID).Msg("failed to update specification")
		return fmt.Errorf("%w: update specification: %v", domain.ErrStoreFailure, err)
	}
	spec.Version = version
	return nil
}

// ReplaceMatches swaps the match list in a single conditional UPDATE
func (r *SpecificationRepository) ReplaceMatches(ctx context.Context, id string, expectedVersion int64, matches []domain.MatchRecord, stats domain.MatchStats) error {
	if matches == nil {
		matches = []domain.MatchRecord{}
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(specificationsTable)
	assignments := []string{
		ub.Assign("matches", jsonColumn[[]domain.MatchRecord]{Data: matches}),
		ub.Assign("total_matches", len(matches)),
		ub.Incr("version"),
	}
	if stats.LastMatchedAt != nil {
		assignments = append(assignments, ub.Assign("last_matched_at", *stats.LastMatchedAt))
	}
	ub.Set(assignments...)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("version", expectedVersion),
	)

	query, args := ub.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("specification_id", id).Msg("failed to replace matches")
		return fmt.Errorf("%w: replace matches: %v", domain.ErrStoreFailure, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 1 {
		return nil
	}

	exists, err := r.exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %s", domain.ErrSpecificationNotFound, id)
	}
	return fmt.Errorf("%w: %s expected version %d", domain.ErrVersionConflict, id, expectedVersion)
}

func (r *SpecificationRepository) exists(ctx context.Context, id string) (bool, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From(specificationsTable)
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var n int
	if err := r.db.GetContext(ctx, &n, query, args...); err != nil {
		return false, fmt.Errorf("%w: check specification: %v", domain.ErrStoreFailure, err)
	}
	return n > 0, nil
}

// IncrementViews bumps view_count without touching the version
func (r *SpecificationRepository) IncrementViews(ctx context.Context, id string) error {
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update(specificationsTable)
	ub.Set(ub.Incr("view_count"))
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: increment views: %v", domain.ErrStoreFailure, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", domain.ErrSpecificationNotFound, id)
	}
	return nil
}

const clearAllMatchesQuery = `
	WITH cleared AS (
		SELECT id, jsonb_array_length(matches) AS removed
		FROM specifications
		WHERE jsonb_array_length(matches) > 0
		FOR UPDATE
	)
	UPDATE specifications s
	SET matches = '[]'::jsonb, total_matches = 0, version = s.version + 1
	FROM cleared c
	WHERE s.id = c.id
	RETURNING c.removed
`

// ClearAllMatches empties every match list and returns the removed count
func (r *SpecificationRepository) ClearAllMatches(ctx context.Context) (int, error) {
	var removed []int
	if err := r.db.SelectContext(ctx, &removed, clearAllMatchesQuery); err != nil {
		r.logger.Error().Err(err).Msg("failed to clear matches")
		return 0, fmt.Errorf("%w: clear matches: %v", domain.ErrStoreFailure, err)
	}

	total := 0
	for _, n := range removed {
		total += n
	}
	return total, nil
}
