package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/matching"
)

const manualSource = "manual"

// CreateSpecificationRequest is the input for a new specification
type CreateSpecificationRequest struct {
	ProductName string         `json:"productName" binding:"required"`
	Category    string         `json:"category" binding:"required"`
	Brand       string         `json:"brand,omitempty"`
	SpecFields  map[string]any `json:"specFields,omitempty"`
	VerifiedBy  string         `json:"verifiedBy,omitempty"`
	// AutoMatch runs a matching pass right after the specification is stored
	AutoMatch bool `json:"autoMatch,omitempty"`
}

// UpdateSpecificationRequest changes descriptive fields; nil leaves a field as is
type UpdateSpecificationRequest struct {
	ProductName *string        `json:"productName,omitempty"`
	Brand       *string        `json:"brand,omitempty"`
	SpecFields  map[string]any `json:"specFields,omitempty"`
	IsActive    *bool          `json:"isActive,omitempty"`
	VerifiedBy  *string        `json:"verifiedBy,omitempty"`
}

// SpecificationService manages specification records
type SpecificationService struct {
	specs   domain.SpecificationRepository
	matcher *MatchingService
	logger  zerolog.Logger
	now     func() time.Time
}

// NewSpecificationService creates a specification service. matcher may be nil,
// in which case AutoMatch requests are stored without a matching pass.
func NewSpecificationService(specs domain.SpecificationRepository, matcher *MatchingService, logger zerolog.Logger) *SpecificationService {
	return &SpecificationService{
		specs:   specs,
		matcher: matcher,
		logger:  logger.With().Str("component", "specifications").Logger(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create validates and stores a new specification
func (s *SpecificationService) Create(ctx context.Context, req CreateSpecificationRequest) (*domain.Specification, error) {
	name := strings.TrimSpace(req.ProductName)
	if name == "" {
		return nil, fmt.Errorf("%w: productName is required", domain.ErrInvalidRequest)
	}
	category, err := domain.ParseCategory(req.Category)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateSpecFields(category, req.SpecFields); err != nil {
		return nil, err
	}

	now := s.now()
	spec := &domain.Specification{
		ProductName:      name,
		CleanProductName: matching.Normalize(name),
		Category:         category,
		Brand:            strings.TrimSpace(req.Brand),
		SpecFields:       req.SpecFields,
		Source:           manualSource,
		IsActive:         true,
		Matches:          []domain.MatchRecord{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if req.VerifiedBy != "" {
		spec.VerifiedBy = req.VerifiedBy
		spec.VerifiedAt = &now
	}

	if err := s.specs.Create(ctx, spec); err != nil {
		return nil, err
	}
	s.logger.Info().Str("specification_id", spec.ID).Str("category", string(category)).Msg("specification created")

	if req.AutoMatch && s.matcher != nil {
		if _, err := s.matcher.PerformSmartMatching(ctx, spec.ID, spec.ProductName, spec.Category); err != nil {
			// the record is stored; the match pass can be repeated via rematch
			s.logger.Warn().Err(err).Str("specification_id", spec.ID).Msg("initial matching failed")
		}
		return s.specs.Get(ctx, spec.ID)
	}
	return spec, nil
}

// Update applies req to the stored specification. The clean name follows
// every product name change.
func (s *SpecificationService) Update(ctx context.Context, id string, req UpdateSpecificationRequest) (*domain.Specification, error) {
	spec, err := s.specs.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ProductName != nil {
		name := strings.TrimSpace(*req.ProductName)
		if name == "" {
			return nil, fmt.Errorf("%w: productName cannot be empty", domain.ErrInvalidRequest)
		}
		spec.ProductName = name
		spec.CleanProductName = matching.Normalize(name)
	}
	if req.Brand != nil {
		spec.Brand = strings.TrimSpace(*req.Brand)
	}
	if req.SpecFields != nil {
		if err := domain.ValidateSpecFields(spec.Category, req.SpecFields); err != nil {
			return nil, err
		}
		spec.SpecFields = req.SpecFields
	}
	if req.IsActive != nil {
		spec.IsActive = *req.IsActive
	}
	now := s.now()
	if req.VerifiedBy != nil {
		spec.VerifiedBy = *req.VerifiedBy
		spec.VerifiedAt = &now
	}
	spec.UpdatedAt = now

	if err := s.specs.Update(ctx, spec); err != nil {
		return nil, err
	}
	return spec, nil
}

// Get returns a specification and counts the view
func (s *SpecificationService) Get(ctx context.Context, id string) (*domain.Specification, error) {
	if err := s.specs.IncrementViews(ctx, id); err != nil {
		return nil, err
	}
	return s.specs.Get(ctx, id)
}

// List returns specifications matching filter
func (s *SpecificationService) List(ctx context.Context, filter domain.SpecificationFilter) ([]domain.Specification, error) {
	if filter.Category != "" && !filter.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, filter.Category)
	}
	return s.specs.List(ctx, filter)
}

// Template returns the field schema for a category given by enum or display name
func (s *SpecificationService) Template(category string) (domain.Category, []domain.FieldTemplate, error) {
	c, err := domain.ParseCategory(category)
	if err != nil {
		return "", nil, err
	}
	fields, err := domain.TemplateFor(c)
	if err != nil {
		return "", nil, err
	}
	return c, fields, nil
}
