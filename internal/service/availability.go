package service

import (
	"context"
	"log/slog"
	"time"
	_ "time/tzdata" // zone resolution must not depend on the host's zoneinfo

	"github.com/harvestlink/recipient-service/internal/domain"
)

// AvailabilityWindowFilter decides whether a recipient is open, in its own
// local time, at the pickup instant.
type AvailabilityWindowFilter struct {
	logger *slog.Logger
}

// NewAvailabilityWindowFilter constructs the filter; a nil logger uses slog.Default.
func NewAvailabilityWindowFilter(logger *slog.Logger) AvailabilityWindowFilter {
	if logger == nil {
		logger = slog.Default()
	}
	return AvailabilityWindowFilter{logger: logger}
}

// Evaluate converts pickup into the recipient's zone and looks for an open
// interval on that local weekday containing the local time, bounds inclusive.
// It never fails: an unresolvable zone, no intervals, or no matching interval
// all exclude just this recipient.
func (f AvailabilityWindowFilter) Evaluate(ctx context.Context, r domain.Recipient, pickup time.Time) domain.Outcome {
	loc, ok := resolveZone(r.Timezone)
	if !ok {
		f.logger.WarnContext(ctx, "recipient has unresolvable timezone",
			"recipient_id", r.ID,
			"timezone", r.Timezone,
		)
		return domain.Exclude(domain.ReasonInvalidTimezone)
	}
	if len(r.OpenIntervals) == 0 {
		return domain.Exclude(domain.ReasonNoOpenHours)
	}

	local := pickup.In(loc)
	day := local.Weekday()
	clock := domain.ClockOf(local)

	for _, iv := range r.OpenIntervals {
		if iv.Overnight() {
			f.logger.WarnContext(ctx, "ignoring unsupported overnight open interval",
				"recipient_id", r.ID,
				"day", domain.WeekdayToken(iv.Day),
				"open", iv.Open.String(),
				"close", iv.Close.String(),
			)
			continue
		}
		if iv.Contains(day, clock) {
			return domain.Include()
		}
	}
	return domain.Exclude(domain.ReasonClosed)
}

// resolveZone loads an IANA zone. The empty name and "Local" are rejected
// because LoadLocation maps them to UTC and the host zone respectively.
func resolveZone(name string) (*time.Location, bool) {
	if name == "" || name == "Local" {
		return nil, false
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, false
	}
	return loc, true
}
