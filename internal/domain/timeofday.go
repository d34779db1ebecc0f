package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time within a single local day, with nanosecond
// precision so that a pickup one instant after closing compares as later.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
	Nano   int `json:"nano,omitempty"`
}

// ClockOf returns the wall-clock time of t in t's own location.
// It reads the clock fields directly instead of subtracting local midnight,
// which keeps the result correct on days with a daylight-saving transition.
func ClockOf(t time.Time) TimeOfDay {
	h, m, s := t.Clock()
	return TimeOfDay{Hour: h, Minute: m, Second: s, Nano: t.Nanosecond()}
}

// EndOfDay is the "24:00" closing time Postgres TIME columns allow.
var EndOfDay = TimeOfDay{Hour: 24}

// ParseTimeOfDay parses "HH:MM" or "HH:MM:SS". "24:00" and "24:00:00" parse
// as EndOfDay so a range can close at midnight.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	if s == "24:00" || s == "24:00:00" {
		return EndOfDay, nil
	}
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("%w: invalid time of day %q", ErrValidation, s)
}

// Offset returns the elapsed wall-clock duration since 00:00.
func (t TimeOfDay) Offset() time.Duration {
	return time.Duration(t.Hour)*time.Hour +
		time.Duration(t.Minute)*time.Minute +
		time.Duration(t.Second)*time.Second +
		time.Duration(t.Nano)
}

// Before reports whether t is strictly earlier than u.
func (t TimeOfDay) Before(u TimeOfDay) bool {
	return t.Offset() < u.Offset()
}

// String formats t as "HH:MM:SS"; sub-second precision is dropped.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// weekdayTokens are the lowercase day names used on the wire and in storage.
var weekdayTokens = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday converts a day token ("monday", case-insensitive) into a time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	d, ok := weekdayTokens[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("%w: unknown weekday %q", ErrValidation, s)
	}
	return d, nil
}

// WeekdayToken returns the lowercase token for d ("monday").
func WeekdayToken(d time.Weekday) string {
	return strings.ToLower(d.String())
}

// openRangeSep separates the two ends of a rendered open range.
const openRangeSep = " - "

// FormatOpenRange renders iv as "HH:MM:SS - HH:MM:SS".
func FormatOpenRange(iv OpenInterval) string {
	return iv.Open.String() + openRangeSep + iv.Close.String()
}

// ParseOpenRange parses an "HH:MM - HH:MM" range for the given day. Spaces
// around the dash are optional. Overnight ranges are rejected because their
// meaning is undefined.
func ParseOpenRange(day time.Weekday, r string) (OpenInterval, error) {
	open, closing, ok := strings.Cut(r, "-")
	if !ok {
		return OpenInterval{}, fmt.Errorf("%w: invalid open range %q", ErrValidation, r)
	}
	o, err := ParseTimeOfDay(open)
	if err != nil {
		return OpenInterval{}, err
	}
	c, err := ParseTimeOfDay(closing)
	if err != nil {
		return OpenInterval{}, err
	}
	iv := OpenInterval{Day: day, Open: o, Close: c}
	if iv.Overnight() {
		return OpenInterval{}, fmt.Errorf("%w: overnight open range %q is not supported", ErrValidation, r)
	}
	return iv, nil
}
