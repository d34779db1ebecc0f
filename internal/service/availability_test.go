package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/harvestlink/recipient-service/internal/domain"
	"github.com/harvestlink/recipient-service/internal/service"
)

func TestAvailability_Evaluate(t *testing.T) {
	monday := func(open, closing domain.TimeOfDay) []domain.OpenInterval {
		return []domain.OpenInterval{{Day: time.Monday, Open: open, Close: closing}}
	}

	tests := []struct {
		name      string
		timezone  string
		intervals []domain.OpenInterval
		pickup    time.Time
		want      domain.Outcome
	}{
		{
			name:      "inside window",
			timezone:  "Asia/Kolkata",
			intervals: monday(tod(9, 0), tod(18, 0)),
			pickup:    mondayPickup, // 15:00 local
			want:      domain.Include(),
		},
		{
			name:      "open bound inclusive",
			timezone:  "Asia/Kolkata",
			intervals: monday(tod(15, 0), tod(18, 0)),
			pickup:    mondayPickup,
			want:      domain.Include(),
		},
		{
			name:      "close bound inclusive",
			timezone:  "Asia/Kolkata",
			intervals: monday(tod(9, 0), tod(15, 0)),
			pickup:    mondayPickup,
			want:      domain.Include(),
		},
		{
			name:      "one nanosecond after close",
			timezone:  "Asia/Kolkata",
			intervals: monday(tod(9, 0), tod(15, 0)),
			pickup:    mondayPickup.Add(time.Nanosecond),
			want:      domain.Exclude(domain.ReasonClosed),
		},
		{
			name:      "open until midnight, last instant of the day",
			timezone:  "Asia/Kolkata",
			intervals: monday(tod(18, 0), domain.EndOfDay),
			// 18:29:59.999999999 UTC is 23:59:59.999999999 in Kolkata.
			pickup: time.Date(2024, 3, 4, 18, 29, 59, 999_999_999, time.UTC),
			want:   domain.Include(),
		},
		{
			name:      "open until midnight, next day",
			timezone:  "Asia/Kolkata",
			intervals: monday(tod(18, 0), domain.EndOfDay),
			pickup:    time.Date(2024, 3, 4, 18, 30, 0, 0, time.UTC),
			want:      domain.Exclude(domain.ReasonClosed),
		},
		{
			name:      "after close",
			timezone:  "Asia/Kolkata",
			intervals: monday(tod(9, 0), tod(14, 0)),
			pickup:    mondayPickup,
			want:      domain.Exclude(domain.ReasonClosed),
		},
		{
			name:      "different local weekday",
			timezone:  "Asia/Kolkata",
			intervals: []domain.OpenInterval{{Day: time.Tuesday, Open: tod(0, 0), Close: tod(23, 59)}},
			pickup:    mondayPickup,
			want:      domain.Exclude(domain.ReasonClosed),
		},
		{
			name:     "local date differs from UTC date",
			timezone: "Asia/Tokyo",
			// Sunday 20:00 UTC is Monday 05:00 in Tokyo.
			intervals: monday(tod(5, 0), tod(6, 0)),
			pickup:    time.Date(2024, 3, 3, 20, 0, 0, 0, time.UTC),
			want:      domain.Include(),
		},
		{
			name:     "daylight saving offset applied",
			timezone: "America/New_York",
			// 2024-07-01 13:00 UTC is 09:00 EDT (UTC-4), not 08:00 EST.
			intervals: monday(tod(9, 0), tod(9, 0)),
			pickup:    time.Date(2024, 7, 1, 13, 0, 0, 0, time.UTC),
			want:      domain.Include(),
		},
		{
			name:      "empty intervals fail closed",
			timezone:  "Asia/Kolkata",
			intervals: nil,
			pickup:    mondayPickup,
			want:      domain.Exclude(domain.ReasonNoOpenHours),
		},
		{
			name:      "unknown timezone",
			timezone:  "Not/AZone",
			intervals: monday(tod(0, 0), tod(23, 59)),
			pickup:    mondayPickup,
			want:      domain.Exclude(domain.ReasonInvalidTimezone),
		},
		{
			name:      "empty timezone is not UTC",
			timezone:  "",
			intervals: monday(tod(0, 0), tod(23, 59)),
			pickup:    mondayPickup,
			want:      domain.Exclude(domain.ReasonInvalidTimezone),
		},
		{
			name:      "overnight interval ignored",
			timezone:  "Asia/Kolkata",
			intervals: monday(tod(22, 0), tod(2, 0)),
			pickup:    time.Date(2024, 3, 4, 17, 30, 0, 0, time.UTC), // 23:00 local
			want:      domain.Exclude(domain.ReasonClosed),
		},
		{
			name:     "second interval matches",
			timezone: "Asia/Kolkata",
			intervals: []domain.OpenInterval{
				{Day: time.Monday, Open: tod(8, 0), Close: tod(10, 0)},
				{Day: time.Monday, Open: tod(14, 0), Close: tod(16, 0)},
			},
			pickup: mondayPickup,
			want:   domain.Include(),
		},
	}

	filter := service.NewAvailabilityWindowFilter(nil)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := kolkataRecipient(tc.name)
			r.Timezone = tc.timezone
			r.OpenIntervals = tc.intervals

			got := filter.Evaluate(context.Background(), r, tc.pickup)

			assert.Equal(t, tc.want, got)
		})
	}
}
