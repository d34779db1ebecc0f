// Package service contains the business logic for the recipient service.
// Services validate inputs, enforce matching rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/harvestlink/recipient-service/internal/domain"
	"github.com/harvestlink/recipient-service/internal/metrics"
	"github.com/harvestlink/recipient-service/internal/repo"
)

const tracerName = "github.com/harvestlink/recipient-service/internal/service"

// MatchService finds the recipients eligible for a donation offer.
// It holds no mutable state, so one instance serves concurrent callers.
type MatchService struct {
	directory    repo.RecipientDirectory
	spatial      SpatialCapabilityFilter
	availability AvailabilityWindowFilter
	metrics      *metrics.Metrics
	logger       *slog.Logger
	tracer       trace.Tracer
}

// MatchOption configures optional MatchService collaborators.
type MatchOption func(*MatchService)

// WithTracerProvider makes Match record its spans on tp instead of the
// global provider.
func WithTracerProvider(tp trace.TracerProvider) MatchOption {
	return func(s *MatchService) {
		s.tracer = tp.Tracer(tracerName)
	}
}

// NewMatchService constructs a MatchService over directory.
// A nil logger uses slog.Default; a nil metrics disables instrumentation.
func NewMatchService(directory repo.RecipientDirectory, defaultRadiusKm float64, logger *slog.Logger, m *metrics.Metrics, opts ...MatchOption) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &MatchService{
		directory:    directory,
		spatial:      NewSpatialCapabilityFilter(defaultRadiusKm),
		availability: NewAvailabilityWindowFilter(logger),
		metrics:      m,
		logger:       logger,
		tracer:       otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Match returns views of every recipient eligible for offer, ordered by id.
// radiusKm is optional; nil searches the default radius.
//
// Returns domain.ErrInvalidOffer before touching the directory when the offer
// is malformed, and an error wrapping both domain.ErrMatchFailed and the
// directory's domain.ErrStoreUnavailable when the query fails. Per-recipient
// exclusions never produce an error.
func (s *MatchService) Match(ctx context.Context, offer domain.DonationOffer, radiusKm *float64) ([]domain.RecipientView, error) {
	start := time.Now()
	defer func() { s.metrics.ObserveMatchLatency(time.Since(start)) }()

	ctx, span := s.tracer.Start(ctx, "MatchService.Match")
	defer span.End()

	q, err := s.spatial.BuildQuery(offer, radiusKm)
	if err != nil {
		s.metrics.IncrementOutcome(metrics.OutcomeInvalidOffer)
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid offer")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("donation.type", q.Type),
		attribute.Int("donation.quantity", q.Quantity),
		attribute.String("donation.storage_capability", q.StorageCapability),
		attribute.Float64("match.radius_meters", q.RadiusMeters),
	)

	qctx, qspan := s.tracer.Start(ctx, "RecipientDirectory.Query")
	candidates, err := s.directory.Query(qctx, q)
	if err != nil {
		qspan.RecordError(err)
		qspan.SetStatus(codes.Error, "directory query failed")
	}
	qspan.End()
	if err != nil {
		s.metrics.IncrementOutcome(metrics.OutcomeFailed)
		span.RecordError(err)
		span.SetStatus(codes.Error, "directory query failed")
		return nil, fmt.Errorf("service.MatchService.Match: %w: %w", domain.ErrMatchFailed, err)
	}

	eligible := s.screen(ctx, q, candidates, offer.PickupAt)

	s.metrics.IncrementOutcome(metrics.OutcomeMatched)
	s.metrics.ObserveCandidates(len(candidates), len(eligible))
	span.SetAttributes(
		attribute.Int("match.candidates", len(candidates)),
		attribute.Int("match.eligible", len(eligible)),
	)

	return ToViews(eligible), nil
}

// screen computes an outcome per candidate and keeps the included ones.
// The coarse predicates are re-checked here so the result does not depend on
// how precisely the directory evaluated them.
func (s *MatchService) screen(ctx context.Context, q repo.DirectoryQuery, candidates []domain.Recipient, pickup time.Time) []domain.Recipient {
	eligible := make([]domain.Recipient, 0, len(candidates))
	seen := make(map[uuid.UUID]struct{}, len(candidates))

	for _, c := range candidates {
		if _, dup := seen[c.ID]; dup {
			continue
		}
		seen[c.ID] = struct{}{}

		outcome := q.Screen(c)
		if outcome.Included {
			outcome = s.availability.Evaluate(ctx, c, pickup)
		}
		if !outcome.Included {
			s.metrics.IncrementExclusion(string(outcome.Reason))
			s.logger.DebugContext(ctx, "recipient excluded",
				"recipient_id", c.ID,
				"reason", outcome.Reason,
			)
			continue
		}
		eligible = append(eligible, c)
	}

	slices.SortFunc(eligible, func(a, b domain.Recipient) int {
		return bytes.Compare(a.ID[:], b.ID[:])
	})
	return eligible
}
