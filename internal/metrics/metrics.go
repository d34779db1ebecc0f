// Package metrics provides Prometheus instrumentation for recipient matching.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Match outcomes recorded per call.
const (
	OutcomeMatched      = "matched"
	OutcomeInvalidOffer = "invalid_offer"
	OutcomeFailed       = "failed"
)

// Metrics provides observability for the matching pipeline.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	// Match calls by outcome
	MatchRequests *prometheus.CounterVec

	// Candidates dropped after the directory query, by reason
	Exclusions *prometheus.CounterVec

	// Directory candidates per call, before the availability filter
	Candidates prometheus.Histogram

	// Eligible recipients returned per call
	Eligible prometheus.Histogram

	// Full match latency including the directory query
	MatchLatency prometheus.Histogram
}

// New creates and registers all matching metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	counts := []float64{0, 1, 2, 5, 10, 25, 50, 100, 250, 500}
	return &Metrics{
		MatchRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recipient_match_requests_total",
			Help: "Total match calls by outcome",
		}, []string{"outcome"}),

		Exclusions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "recipient_match_exclusions_total",
			Help: "Candidates excluded after the directory query, by reason",
		}, []string{"reason"}),

		Candidates: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recipient_match_candidates",
			Help:    "Number of directory candidates per match call",
			Buckets: counts,
		}),

		Eligible: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recipient_match_eligible",
			Help:    "Number of eligible recipients returned per match call",
			Buckets: counts,
		}),

		MatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "recipient_match_duration_seconds",
			Help:    "Duration of match calls including the directory query",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementOutcome records a match call outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	if m != nil {
		m.MatchRequests.WithLabelValues(outcome).Inc()
	}
}

// IncrementExclusion records one excluded candidate.
func (m *Metrics) IncrementExclusion(reason string) {
	if m != nil {
		m.Exclusions.WithLabelValues(reason).Inc()
	}
}

// ObserveCandidates records how many candidates the directory returned and
// how many survived.
func (m *Metrics) ObserveCandidates(candidates, eligible int) {
	if m != nil {
		m.Candidates.Observe(float64(candidates))
		m.Eligible.Observe(float64(eligible))
	}
}

// ObserveMatchLatency records the total match duration.
func (m *Metrics) ObserveMatchLatency(d time.Duration) {
	if m != nil {
		m.MatchLatency.Observe(d.Seconds())
	}
}
