package usecase

import "time"

// Metrics receives counters and timings from the matching workflows
type Metrics interface {
	// MatchesCreated counts new match records; manual distinguishes curator adds
	MatchesCreated(n int, manual bool)
	// MatchesRemoved counts deleted match records by reason
	MatchesRemoved(n int, reason string)
	// SpecificationProcessed records one specification pass of an operation
	SpecificationProcessed(operation string, err error)
	// ObserveScoring times a scoring pass over candidates
	ObserveScoring(operation string, candidates int, elapsed time.Duration)
}

// Removal reasons reported to Metrics
const (
	RemovalManual   = "manual"
	RemovalLowScore = "low_score"
	RemovalDangling = "dangling"
	RemovalInactive = "inactive"
	RemovalRematch  = "rematch"
	RemovalClearAll = "clear_all"
)

// NopMetrics discards everything
type NopMetrics struct{}

func (NopMetrics) MatchesCreated(int, bool) {}
func (NopMetrics) MatchesRemoved(int, string) {}
func (NopMetrics) SpecificationProcessed(string, error) {}
func (NopMetrics) ObserveScoring(string, int, time.Duration) {}
