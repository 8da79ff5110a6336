package usecase

import (
	"time"

	"github.com/JustEmoBut/scraper-backend/internal/domain"
	"github.com/JustEmoBut/scraper-backend/internal/matching"
)

// RematchResult reports a single specification pass
type RematchResult struct {
	SpecificationID string        `json:"specificationId"`
	MatchCount      int           `json:"matchCount"`
	PreviousMatches int           `json:"previousMatches"`
	Candidates      int           `json:"candidates"`
	Duration        time.Duration `json:"duration"`
}

// RematchAllRequest selects the specifications for a bulk pass
type RematchAllRequest struct {
	Category domain.Category `json:"category,omitempty"`
	// Limit caps the number of specifications; zero uses the configured default
	Limit int `json:"limit,omitempty"`
	// All ignores Limit
	All           bool `json:"all,omitempty"`
	ClearExisting bool `json:"clearExisting,omitempty"`
}

// ItemFailure is one isolated failure inside a bulk operation
type ItemFailure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// BatchStats reports a bulk re-match
type BatchStats struct {
	Processed    int           `json:"processedCount"`
	Failed       int           `json:"failedCount"`
	TotalMatches int           `json:"totalMatches"`
	Failures     []ItemFailure `json:"failures,omitempty"`
	Duration     time.Duration `json:"duration"`
}

// Candidate is a product proposed for human review
type Candidate struct {
	ProductID       string            `json:"productId"`
	Name            string            `json:"name"`
	Category        string            `json:"category"`
	Brand           string            `json:"brand,omitempty"`
	CurrentPrice    float64           `json:"currentPrice"`
	Source          string            `json:"source"`
	Similarity      float64           `json:"similarity"`
	IsHighMatch     bool              `json:"isHighMatch"`
	Outcome         matching.Outcome  `json:"outcome"`
	MatchedTokens   []string          `json:"matchedTokens"`
	ProductFeatures matching.Features `json:"productFeatures"`
}

// PotentialMatchStats describes the review scoring pass
type PotentialMatchStats struct {
	Processed         int     `json:"processed"`
	Filtered          int     `json:"filtered"`
	HighMatches       int     `json:"highMatches"`
	ProcessingTimeMs  int64   `json:"processingTimeMs"`
	AverageScoreTop10 float64 `json:"averageScoreTop10"`
}

// PotentialMatches is the ranked review list for one specification
type PotentialMatches struct {
	SpecificationID string              `json:"specificationId"`
	ProductName     string              `json:"productName"`
	Category        domain.Category     `json:"category"`
	SpecFeatures    matching.Features   `json:"specFeatures"`
	Candidates      []Candidate         `json:"candidates"`
	Stats           PotentialMatchStats `json:"stats"`
}

// MatchRequest pairs a specification with a product for manual matching
type MatchRequest struct {
	SpecificationID string `json:"specificationId" binding:"required"`
	ProductID       string `json:"productId" binding:"required"`
}

// BulkItemResult is the outcome of one MatchRequest
type BulkItemResult struct {
	SpecificationID string              `json:"specificationId"`
	ProductID       string              `json:"productId"`
	Success         bool                `json:"success"`
	Match           *domain.MatchRecord `json:"match,omitempty"`
	Reason          string              `json:"reason,omitempty"`
}

// BulkResult reports a bulk manual match
type BulkResult struct {
	Successful int              `json:"successful"`
	Failed     int              `json:"failed"`
	Results    []BulkItemResult `json:"results"`
}

// CleanupResult reports a cleanup pass
type CleanupResult struct {
	TotalSpecifications     int           `json:"totalSpecifications"`
	SpecificationsProcessed int           `json:"specificationsProcessed"`
	MatchesRemoved          int           `json:"matchesRemoved"`
	MatchesRescored         int           `json:"matchesRescored"`
	Failed                  int           `json:"failed"`
	Failures                []ItemFailure `json:"failures,omitempty"`
	Duration                time.Duration `json:"duration"`
}

// CategoryCoverage is the share of a category's catalog that has a specification
type CategoryCoverage struct {
	Category            domain.Category `json:"category"`
	DisplayName         string          `json:"displayName"`
	TotalProducts       int             `json:"totalProducts"`
	SpecifiedProducts   int             `json:"specifiedProducts"`
	UnspecifiedProducts int             `json:"unspecifiedProducts"`
	CoveragePercentage  float64         `json:"coveragePercentage"`
	TotalSpecifications int             `json:"totalSpecifications"`
}

// CoverageReport aggregates coverage over all categories
type CoverageReport struct {
	Categories []CategoryCoverage `json:"categories"`
	Overall    CategoryCoverage   `json:"overall"`
}

// ProductSpecification is a reverse-lookup hit
type ProductSpecification struct {
	SpecificationID string          `json:"specificationId"`
	ProductName     string          `json:"productName"`
	Category        domain.Category `json:"category"`
	Confidence      float64         `json:"confidence"`
	MatchedAt       time.Time       `json:"matchedAt"`
	ManualMatch     bool            `json:"manualMatch"`
}
