// Package metrics provides Prometheus metrics for the matching workflows.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "scraper"

// Recorder implements usecase.Metrics on prometheus collectors
type Recorder struct {
	matchesCreated *prometheus.CounterVec
	matchesRemoved *prometheus.CounterVec
	processed      *prometheus.CounterVec
	scoring        *prometheus.HistogramVec
	candidates     *prometheus.HistogramVec
}

// NewRecorder registers the matcher collectors on reg. A nil reg uses the
// default registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Recorder{
		matchesCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "matches_created_total",
				Help:      "Total number of match records created",
			},
			[]string{"manual"},
		),
		matchesRemoved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "matches_removed_total",
				Help:      "Total number of match records removed by reason",
			},
			[]string{"reason"},
		),
		processed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "specifications_processed_total",
				Help:      "Specification passes by operation and status",
			},
			[]string{"operation", "status"},
		),
		scoring: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "scoring_duration_seconds",
				Help:      "Duration of scoring passes in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"operation"},
		),
		candidates: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "matching",
				Name:      "scoring_candidates",
				Help:      "Number of candidate products per scoring pass",
				Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
			},
			[]string{"operation"},
		),
	}
}

func (r *Recorder) MatchesCreated(n int, manual bool) {
	if n <= 0 {
		return
	}
	r.matchesCreated.WithLabelValues(strconv.FormatBool(manual)).Add(float64(n))
}

func (r *Recorder) MatchesRemoved(n int, reason string) {
	if n <= 0 {
		return
	}
	r.matchesRemoved.WithLabelValues(reason).Add(float64(n))
}

func (r *Recorder) SpecificationProcessed(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	r.processed.WithLabelValues(operation, status).Inc()
}

func (r *Recorder) ObserveScoring(operation string, candidates int, elapsed time.Duration) {
	r.scoring.WithLabelValues(operation).Observe(elapsed.Seconds())
	r.candidates.WithLabelValues(operation).Observe(float64(candidates))
}
