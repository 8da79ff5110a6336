package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/matching"
)

// Scorer scores a specification name against a listing name
type Scorer interface {
	Explain(specName, productName string, c domain.Category) matching.Result
}

const (
	defaultAutoThreshold    = 0.7
	defaultReviewThreshold  = 0.1
	defaultCleanupThreshold = 0.65
	defaultReviewLimit      = 20
	defaultCandidateLimit   = 50
	defaultRematchAllLimit  = 10
	defaultWorkers          = 4

	// near misses below the auto threshold are logged for tuning
	nearMissScore = 0.5

	maxReplaceAttempts = 3
	topAverageWindow   = 10
	progressEvery      = 25
)

// errUnchanged lets a match-list mutation skip the write
var errUnchanged = errors.New("match list unchanged")

// MatchConfig holds configuration for the matching service
type MatchConfig struct {
	AutoThreshold    float64
	ReviewThreshold  float64
	CleanupThreshold float64
	ReviewLimit      int
	CandidateLimit   int
	RematchAllLimit  int
	Workers          int
	Categories       domain.CategoryMapping
	Scorer           Scorer
	Metrics          Metrics
}

// MatchingService drives auto-matching, review and curation of match records
type MatchingService struct {
	specs    domain.SpecificationRepository
	products domain.ProductRepository
	scorer   Scorer
	metrics  Metrics
	logger   zerolog.Logger

	categories       domain.CategoryMapping
	autoThreshold    float64
	reviewThreshold  float64
	cleanupThreshold float64
	reviewLimit      int
	candidateLimit   int
	rematchAllLimit  int
	workers          int

	now func() time.Time
}

// NewMatchingService creates a new matching service. Zero values in config
// fall back to the defaults.
func NewMatchingService(
	specs domain.SpecificationRepository,
	products domain.ProductRepository,
	config MatchConfig,
	logger zerolog.Logger,
) *MatchingService {
	s := &MatchingService{
		specs:            specs,
		products:         products,
		scorer:           config.Scorer,
		metrics:          config.Metrics,
		logger:           logger.With().Str("component", "matching").Logger(),
		categories:       config.Categories,
		autoThreshold:    config.AutoThreshold,
		reviewThreshold:  config.ReviewThreshold,
		cleanupThreshold: config.CleanupThreshold,
		reviewLimit:      config.ReviewLimit,
		candidateLimit:   config.CandidateLimit,
		rematchAllLimit:  config.RematchAllLimit,
		workers:          config.Workers,
		now:              func() time.Time { return time.Now().UTC() },
	}

	if s.scorer == nil {
		s.scorer = matching.Scorer{}
	}
	if s.metrics == nil {
		s.metrics = NopMetrics{}
	}
	if s.categories == nil {
		s.categories = domain.DefaultCategoryMapping()
	}
	if s.autoThreshold <= 0 {
		s.autoThreshold = defaultAutoThreshold
	}
	if s.reviewThreshold <= 0 {
		s.reviewThreshold = defaultReviewThreshold
	}
	if s.cleanupThreshold <= 0 {
		s.cleanupThreshold = defaultCleanupThreshold
	}
	if s.reviewLimit <= 0 {
		s.reviewLimit = defaultReviewLimit
	}
	if s.candidateLimit <= 0 {
		s.candidateLimit = defaultCandidateLimit
	}
	if s.rematchAllLimit <= 0 {
		s.rematchAllLimit = defaultRematchAllLimit
	}
	if s.workers <= 0 {
		s.workers = defaultWorkers
	}

	return s
}

// PerformSmartMatching scores every active product of the category against
// productName and replaces the specification's automatic matches with those at
// or above the auto threshold. Manual matches survive. It returns the number of
// automatic matches written.
func (s *MatchingService) PerformSmartMatching(ctx context.Context, specificationID, productName string, category domain.Category) (int, error) {
	if _, err := s.specs.Get(ctx, specificationID); err != nil {
		return 0, err
	}
	res, err := s.autoMatch(ctx, specificationID, productName, category, false)
	if err != nil {
		return 0, err
	}
	return res.MatchCount, nil
}

// RematchSpecification re-runs auto-matching for a stored specification.
// clearExisting also drops manual matches before the pass.
func (s *MatchingService) RematchSpecification(ctx context.Context, specificationID string, clearExisting bool) (*RematchResult, error) {
	spec, err := s.specs.Get(ctx, specificationID)
	if err != nil {
		return nil, err
	}
	return s.autoMatch(ctx, spec.ID, spec.ProductName, spec.Category, clearExisting)
}

func (s *MatchingService) autoMatch(ctx context.Context, id, productName string, category domain.Category, clearExisting bool) (res *RematchResult, err error) {
	const op = "auto_match"
	defer func() { s.metrics.SpecificationProcessed(op, err) }()

	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}

	started := time.Now()
	products, err := s.products.Find(ctx, domain.ProductQuery{
		Categories: s.categories.SourceKeys(category),
		ActiveOnly: true,
	})
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	scored, skipped, err := s.scoreProducts(ctx, productName, category, products)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveScoring(op, len(products), time.Since(started))

	now := s.now()
	auto := make([]domain.MatchRecord, 0)
	for _, sp := range scored {
		if sp.result.Score < s.autoThreshold {
			if sp.result.Score >= nearMissScore {
				s.logger.Debug().
					Str("specification_id", id).
					Str("product", sp.product.Name).
					Float64("score", sp.result.Score).
					Msg("near miss below auto threshold")
			}
			continue
		}
		auto = append(auto, newMatchRecord(sp.product, sp.result.Score, now, false))
	}

	var previous, manualKept, created int
	err = s.updateMatches(ctx, id, true, func(spec *domain.Specification) ([]domain.MatchRecord, error) {
		previous, manualKept, created = len(spec.Matches), 0, 0
		next := make([]domain.MatchRecord, 0, len(auto)+len(spec.Matches))
		manual := make(map[string]bool)
		if !clearExisting {
			for _, m := range spec.Matches {
				if m.ManualMatch {
					next = append(next, m)
					manual[m.ProductID] = true
					manualKept++
				}
			}
		}
		for _, m := range auto {
			if manual[m.ProductID] {
				continue
			}
			next = append(next, m)
			created++
		}
		return next, nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MatchesRemoved(previous-manualKept, RemovalRematch)
	s.metrics.MatchesCreated(created, false)

	res = &RematchResult{
		SpecificationID: id,
		MatchCount:      created,
		PreviousMatches: previous,
		Candidates:      len(products),
		Duration:        time.Since(started),
	}
	s.logger.Info().
		Str("specification_id", id).
		Str("category", string(category)).
		Int("candidates", len(products)).
		Int("skipped", skipped).
		Int("matches", created).
		Dur("duration", res.Duration).
		Msg("auto-match complete")
	return res, nil
}

// RematchAll re-matches the selected specifications on a bounded worker pool.
// A failing specification is counted and skipped; cancelling ctx stops handing
// out work and is returned alongside the partial stats.
func (s *MatchingService) RematchAll(ctx context.Context, req RematchAllRequest) (*BatchStats, error) {
	if req.Category != "" && !req.Category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, req.Category)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.rematchAllLimit
	}
	if req.All {
		limit = 0
	}

	specs, err := s.specs.List(ctx, domain.SpecificationFilter{
		Category:   req.Category,
		ActiveOnly: true,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing specifications: %w", err)
	}

	started := time.Now()
	stats := &BatchStats{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range specs {
		spec := specs[i]
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			res, err := s.autoMatch(gctx, spec.ID, spec.ProductName, spec.Category, req.ClearExisting)

			mu.Lock()
			defer mu.Unlock()
			stats.Processed++
			if err != nil {
				stats.Failed++
				stats.Failures = append(stats.Failures, ItemFailure{ID: spec.ID, Reason: err.Error()})
				s.logger.Warn().Err(err).Str("specification_id", spec.ID).Msg("re-match failed, continuing")
				return nil
			}
			stats.TotalMatches += res.MatchCount
			if stats.Processed%progressEvery == 0 {
				s.logger.Info().
					Int("processed", stats.Processed).
					Int("total", len(specs)).
					Dur("elapsed", time.Since(started)).
					Msg("re-match progress")
			}
			return nil
		})
	}
	_ = g.Wait()
	stats.Duration = time.Since(started)

	if err := ctx.Err(); err != nil {
		return stats, err
	}

	s.logger.Info().
		Int("processed", stats.Processed).
		Int("failed", stats.Failed).
		Int("matches", stats.TotalMatches).
		Dur("duration", stats.Duration).
		Msg("bulk re-match complete")
	return stats, nil
}

// FindPotentialMatches ranks unmatched products of the specification's
// category for human review. search filters listing names; limit caps the
// candidates scored (default 50). At most ReviewLimit results are returned.
func (s *MatchingService) FindPotentialMatches(ctx context.Context, specificationID, search string, limit int) (*PotentialMatches, error) {
	const op = "potential_matches"

	spec, err := s.specs.Get(ctx, specificationID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.candidateLimit
	}

	started := time.Now()
	products, err := s.products.Find(ctx, domain.ProductQuery{
		Categories:   s.categories.SourceKeys(spec.Category),
		NameContains: strings.TrimSpace(search),
		ExcludeIDs:   spec.MatchedProductIDs(),
		ActiveOnly:   true,
		Limit:        limit,
	})
	if err != nil {
		return nil, fmt.Errorf("loading candidates: %w", err)
	}

	scored, _, err := s.scoreProducts(ctx, spec.ProductName, spec.Category, products)
	if err != nil {
		return nil, err
	}
	sortScored(scored)

	specTokens := matching.Tokenize(spec.ProductName)
	candidates := make([]Candidate, 0)
	stats := PotentialMatchStats{Processed: len(products)}
	for _, sp := range scored {
		if spec.HasMatch(sp.product.ID) || sp.result.Score < s.reviewThreshold {
			continue
		}
		high := sp.result.Score >= s.autoThreshold
		if high {
			stats.HighMatches++
		}
		candidates = append(candidates, Candidate{
			ProductID:       sp.product.ID,
			Name:            sp.product.Name,
			Category:        sp.product.Category,
			Brand:           sp.product.Brand,
			CurrentPrice:    sp.product.CurrentPrice,
			Source:          sp.product.Source,
			Similarity:      round3(sp.result.Score),
			IsHighMatch:     high,
			Outcome:         sp.result.Outcome,
			MatchedTokens:   matching.SharedTokens(specTokens, matching.Tokenize(sp.product.Name)),
			ProductFeatures: matching.ExtractFeatures(sp.product.Name),
		})
	}
	stats.Filtered = len(candidates)
	stats.AverageScoreTop10 = averageTop(candidates, topAverageWindow)
	if len(candidates) > s.reviewLimit {
		candidates = candidates[:s.reviewLimit]
	}

	elapsed := time.Since(started)
	stats.ProcessingTimeMs = elapsed.Milliseconds()
	s.metrics.ObserveScoring(op, len(products), elapsed)

	return &PotentialMatches{
		SpecificationID: spec.ID,
		ProductName:     spec.ProductName,
		Category:        spec.Category,
		SpecFeatures:    matching.ExtractFeatures(spec.ProductName),
		Candidates:      candidates,
		Stats:           stats,
	}, nil
}

// AddMatch records an operator-chosen match. The similarity is computed for
// audit but never gates the add.
func (s *MatchingService) AddMatch(ctx context.Context, specificationID, productID string) (*domain.MatchRecord, error) {
	spec, err := s.specs.Get(ctx, specificationID)
	if err != nil {
		return nil, err
	}
	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, err
	}
	if spec.HasMatch(productID) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchExists, productID)
	}

	score := s.scorer.Explain(spec.ProductName, product.Name, spec.Category).Score
	record := newMatchRecord(*product, score, s.now(), true)

	err = s.updateMatches(ctx, specificationID, true, func(current *domain.Specification) ([]domain.MatchRecord, error) {
		if current.HasMatch(productID) {
			return nil, fmt.Errorf("%w: %s", domain.ErrMatchExists, productID)
		}
		next := make([]domain.MatchRecord, 0, len(current.Matches)+1)
		next = append(next, current.Matches...)
		return append(next, record), nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.MatchesCreated(1, true)
	s.logger.Info().
		Str("specification_id", specificationID).
		Str("product_id", productID).
		Float64("similarity", score).
		Msg("manual match added")
	return &record, nil
}

// RemoveMatch deletes the match for productID unconditionally
func (s *MatchingService) RemoveMatch(ctx context.Context, specificationID, productID string) error {
	err := s.updateMatches(ctx, specificationID, false, func(current *domain.Specification) ([]domain.MatchRecord, error) {
		idx := current.MatchIndex(productID)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, productID)
		}
		next := make([]domain.MatchRecord, 0, len(current.Matches)-1)
		next = append(next, current.Matches[:idx]...)
		return append(next, current.Matches[idx+1:]...), nil
	})
	if err != nil {
		return err
	}

	s.metrics.MatchesRemoved(1, RemovalManual)
	s.logger.Info().
		Str("specification_id", specificationID).
		Str("product_id", productID).
		Msg("match removed")
	return nil
}

// BulkCreateMatches adds each requested match, recording a reason for every
// failure instead of aborting.
func (s *MatchingService) BulkCreateMatches(ctx context.Context, requests []MatchRequest) (*BulkResult, error) {
	if len(requests) == 0 {
		return nil, fmt.Errorf("%w: no matches given", domain.ErrInvalidRequest)
	}

	result := &BulkResult{Results: make([]BulkItemResult, 0, len(requests))}
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		item := BulkItemResult{SpecificationID: req.SpecificationID, ProductID: req.ProductID}
		record, err := s.AddMatch(ctx, req.SpecificationID, req.ProductID)
		if err != nil {
			item.Reason = err.Error()
			result.Failed++
		} else {
			item.Success = true
			item.Match = record
			result.Successful++
		}
		result.Results = append(result.Results, item)
	}
	return result, nil
}

// CleanupLowQualityMatches re-scores every stored match and removes those
// under the cleanup threshold or pointing at missing or inactive products.
// Surviving matches get their similarity refreshed.
func (s *MatchingService) CleanupLowQualityMatches(ctx context.Context) (*CleanupResult, error) {
	started := time.Now()
	specs, err := s.specs.List(ctx, domain.SpecificationFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing specifications: %w", err)
	}

	result := &CleanupResult{TotalSpecifications: len(specs)}
	lookup := s.productLookup()

	for _, spec := range specs {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(started)
			return result, err
		}
		if len(spec.Matches) == 0 {
			continue
		}

		removed, rescored, err := s.cleanupSpecification(ctx, spec.ID, lookup)
		s.metrics.SpecificationProcessed("cleanup", err)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ItemFailure{ID: spec.ID, Reason: err.Error()})
			s.logger.Warn().Err(err).Str("specification_id", spec.ID).Msg("cleanup failed, continuing")
			continue
		}
		result.SpecificationsProcessed++
		result.MatchesRemoved += removed
		result.MatchesRescored += rescored
	}

	result.Duration = time.Since(started)
	s.logger.Info().
		Int("specifications", result.SpecificationsProcessed).
		Int("removed", result.MatchesRemoved).
		Int("rescored", result.MatchesRescored).
		Dur("duration", result.Duration).
		Msg("cleanup complete")
	return result, nil
}

func (s *MatchingService) cleanupSpecification(ctx context.Context, id string, lookup func(context.Context, string) (*domain.Product, error)) (int, int, error) {
	var removed, rescored int
	var byReason map[string]int

	err := s.updateMatches(ctx, id, false, func(current *domain.Specification) ([]domain.MatchRecord, error) {
		removed, rescored = 0, 0
		byReason = make(map[string]int)
		next := make([]domain.MatchRecord, 0, len(current.Matches))

		for _, m := range current.Matches {
			product, err := lookup(ctx, m.ProductID)
			switch {
			case errors.Is(err, domain.ErrProductNotFound):
				byReason[RemovalDangling]++
				continue
			case err != nil:
				return nil, err
			case !product.IsActive:
				byReason[RemovalInactive]++
				continue
			}

			score := s.scorer.Explain(current.ProductName, product.Name, current.Category).Score
			if score < s.cleanupThreshold {
				byReason[RemovalLowScore]++
				continue
			}
			if score != m.Similarity {
				m.Similarity = score
				rescored++
			}
			next = append(next, m)
		}

		removed = len(current.Matches) - len(next)
		if removed == 0 && rescored == 0 {
			return nil, errUnchanged
		}
		return next, nil
	})
	if err != nil {
		return 0, 0, err
	}

	for reason, n := range byReason {
		s.metrics.MatchesRemoved(n, reason)
	}
	return removed, rescored, nil
}

// productLookup memoizes catalog reads for one pass; products are often
// matched to several specifications.
func (s *MatchingService) productLookup() func(context.Context, string) (*domain.Product, error) {
	type entry struct {
		product *domain.Product
		err     error
	}
	seen := make(map[string]entry)
	return func(ctx context.Context, id string) (*domain.Product, error) {
		if e, ok := seen[id]; ok {
			return e.product, e.err
		}
		p, err := s.products.Get(ctx, id)
		if err != nil && !errors.Is(err, domain.ErrProductNotFound) {
			return nil, err
		}
		seen[id] = entry{product: p, err: err}
		return p, err
	}
}

// ClearAllMatches empties every match list and returns the number removed
func (s *MatchingService) ClearAllMatches(ctx context.Context) (int, error) {
	n, err := s.specs.ClearAllMatches(ctx)
	if err != nil {
		return 0, err
	}
	s.metrics.MatchesRemoved(n, RemovalClearAll)
	s.logger.Warn().Int("cleared", n).Msg("all matches cleared")
	return n, nil
}

// Coverage reports how much of each category's active catalog is matched to
// at least one specification.
func (s *MatchingService) Coverage(ctx context.Context) (*CoverageReport, error) {
	report := &CoverageReport{
		Categories: make([]CategoryCoverage, 0, len(domain.Categories)),
		Overall:    CategoryCoverage{DisplayName: "Overall"},
	}

	for _, c := range domain.Categories {
		products, matched, specCount, err := s.categoryCatalog(ctx, c)
		if err != nil {
			return nil, err
		}

		cov := CategoryCoverage{
			Category:            c,
			DisplayName:         c.DisplayName(),
			TotalProducts:       len(products),
			TotalSpecifications: specCount,
		}
		for _, p := range products {
			if matched[p.ID] {
				cov.SpecifiedProducts++
			}
		}
		cov.UnspecifiedProducts = cov.TotalProducts - cov.SpecifiedProducts
		cov.CoveragePercentage = percentage(cov.SpecifiedProducts, cov.TotalProducts)
		report.Categories = append(report.Categories, cov)

		report.Overall.TotalProducts += cov.TotalProducts
		report.Overall.SpecifiedProducts += cov.SpecifiedProducts
		report.Overall.UnspecifiedProducts += cov.UnspecifiedProducts
		report.Overall.TotalSpecifications += cov.TotalSpecifications
	}
	report.Overall.CoveragePercentage = percentage(report.Overall.SpecifiedProducts, report.Overall.TotalProducts)
	return report, nil
}

// UnmatchedProducts lists active products of a category that no specification
// references.
func (s *MatchingService) UnmatchedProducts(ctx context.Context, category domain.Category, limit int) ([]domain.Product, error) {
	if !category.Valid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidCategory, category)
	}
	if limit <= 0 {
		limit = s.candidateLimit
	}

	products, matched, _, err := s.categoryCatalog(ctx, category)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0)
	for _, p := range products {
		if matched[p.ID] {
			continue
		}
		out = append(out, p)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MatchingService) categoryCatalog(ctx context.Context, c domain.Category) ([]domain.Product, map[string]bool, int, error) {
	products, err := s.products.Find(ctx, domain.ProductQuery{
		Categories: s.categories.SourceKeys(c),
		ActiveOnly: true,
	})
	if err != nil {
		return nil, nil, 0, fmt.Errorf("loading %s products: %w", c, err)
	}
	specs, err := s.specs.List(ctx, domain.SpecificationFilter{Category: c})
	if err != nil {
		return nil, nil, 0, fmt.Errorf("listing %s specifications: %w", c, err)
	}

	matched := make(map[string]bool)
	for _, spec := range specs {
		for _, m := range spec.Matches {
			matched[m.ProductID] = true
		}
	}
	return products, matched, len(specs), nil
}

// SpecificationsForProduct returns the specifications a product is matched
// to, highest confidence first.
func (s *MatchingService) SpecificationsForProduct(ctx context.Context, productID string) ([]ProductSpecification, error) {
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}
	specs, err := s.specs.List(ctx, domain.SpecificationFilter{ProductID: productID})
	if err != nil {
		return nil, fmt.Errorf("listing specifications: %w", err)
	}

	out := make([]ProductSpecification, 0, len(specs))
	for _, spec := range specs {
		idx := spec.MatchIndex(productID)
		if idx < 0 {
			continue
		}
		m := spec.Matches[idx]
		out = append(out, ProductSpecification{
			SpecificationID: spec.ID,
			ProductName:     spec.ProductName,
			Category:        spec.Category,
			Confidence:      m.Confidence,
			MatchedAt:       m.MatchedAt,
			ManualMatch:     m.ManualMatch,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

// updateMatches re-reads the specification, lets mutate build a new match
// list and swaps it in atomically. A concurrent writer forces a re-read, up to
// maxReplaceAttempts. touch stamps stats.lastMatchedAt.
func (s *MatchingService) updateMatches(ctx context.Context, id string, touch bool, mutate func(spec *domain.Specification) ([]domain.MatchRecord, error)) error {
	var lastErr error
	for attempt := 1; attempt <= maxReplaceAttempts; attempt++ {
		spec, err := s.specs.Get(ctx, id)
		if err != nil {
			return err
		}

		matches, err := mutate(spec)
		if errors.Is(err, errUnchanged) {
			return nil
		}
		if err != nil {
			return err
		}

		stats := spec.Stats
		stats.TotalMatches = len(matches)
		if touch {
			now := s.now()
			stats.LastMatchedAt = &now
		}

		err = s.specs.ReplaceMatches(ctx, id, spec.Version, matches, stats)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
		lastErr = err
		s.logger.Debug().Str("specification_id", id).Int("attempt", attempt).Msg("match list changed concurrently, retrying")
	}
	return lastErr
}

type scoredProduct struct {
	product domain.Product
	result  matching.Result
}

// scoreProducts runs the scorer over candidates. Listings without an id are
// skipped and counted so one bad record never fails the pass.
func (s *MatchingService) scoreProducts(ctx context.Context, specName string, c domain.Category, products []domain.Product) ([]scoredProduct, int, error) {
	scored := make([]scoredProduct, 0, len(products))
	skipped := 0
	for _, p := range products {
		select {
		case <-ctx.Done():
			return nil, skipped, ctx.Err()
		default:
		}

		if p.ID == "" {
			skipped++
			s.logger.Warn().Str("product", p.Name).Msg("skipping catalog entry without id")
			continue
		}
		scored = append(scored, scoredProduct{
			product: p,
			result:  s.scorer.Explain(specName, p.Name, c),
		})
	}
	return scored, skipped, nil
}

func sortScored(scored []scoredProduct) {
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].result.Score > scored[j].result.Score
	})
}

func newMatchRecord(p domain.Product, score float64, at time.Time, manual bool) domain.MatchRecord {
	return domain.MatchRecord{
		ProductID:   p.ID,
		ProductName: p.Name,
		Confidence:  score,
		Similarity:  score,
		Source:      p.Source,
		MatchedAt:   at,
		ManualMatch: manual,
	}
}

func averageTop(candidates []Candidate, n int) float64 {
	if len(candidates) == 0 {
		return 0
	}
	n = min(n, len(candidates))
	sum := 0.0
	for _, c := range candidates[:n] {
		sum += c.Similarity
	}
	return round3(sum / float64(n))
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
