/*
zone.go - Civil-calendar arithmetic in one fixed time zone

PURPOSE:
  Converts between absolute instants and the configured zone's civil
  calendar. Every day boundary in this system is a local-midnight boundary;
  this file is the only place that knows how to cross it safely across DST
  transitions.

WHY NOT FIXED OFFSETS:
  The deployment zone (America/Toronto by default) changes offset mid-year.
  Wall-clock arithmetic in a fixed-offset zone would shift day boundaries by
  an hour twice a year, silently moving events between pay days. All
  conversions here go through the IANA zone database via time.LoadLocation.

DST RESOLUTION:
  Midnight on a spring-forward or fall-back date is resolved by time.Date's
  standard rules for the zone. No custom fallback logic.

SEE ALSO:
  - window.go: Uses Midnight/CalendarDaysBetween for cycle math
  - aggregate.go: Uses DayKey to bucket events lacking a client day key
*/
package clock

import (
	"fmt"
	"time"
)

// DefaultZoneName is the deployment's documented civil zone.
const DefaultZoneName = "America/Toronto"

const dayKeyLayout = "2006-01-02"

// Zone performs civil-calendar conversions in one fixed IANA zone.
// Construct once at startup from validated configuration; immutable after.
type Zone struct {
	name string
	loc  *time.Location
}

// NewZone loads the named IANA zone.
func NewZone(name string) (Zone, error) {
	if name == "" {
		name = DefaultZoneName
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return Zone{}, fmt.Errorf("load zone %q: %w", name, err)
	}
	return Zone{name: name, loc: loc}, nil
}

// MustZone is for tests and constants known to be valid.
func MustZone(name string) Zone {
	z, err := NewZone(name)
	if err != nil {
		panic(err)
	}
	return z
}

// Name returns the IANA zone name.
func (z Zone) Name() string { return z.name }

// Location returns the underlying location.
func (z Zone) Location() *time.Location { return z.loc }

// DayKey renders the civil date (YYYY-MM-DD) of the instant in this zone.
func (z Zone) DayKey(t time.Time) string {
	return t.In(z.loc).Format(dayKeyLayout)
}

// Midnight converts a civil date key into the absolute instant of 00:00:00
// local time on that date, per the zone database's standard DST resolution.
func (z Zone) Midnight(dayKey string) (time.Time, error) {
	d, err := time.ParseInLocation(dayKeyLayout, dayKey, z.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", dayKey, err)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, z.loc), nil
}

// IsSunday reports whether the instant falls on a local Sunday.
func (z Zone) IsSunday(t time.Time) bool {
	return t.In(z.loc).Weekday() == time.Sunday
}

// CalendarDaysBetween counts civil days from a's local date to b's local
// date. The count is exact across DST transitions: both dates are
// re-anchored at UTC midnight before differencing, so 23- and 25-hour local
// days still count as one day.
func (z Zone) CalendarDaysBetween(a, b time.Time) int {
	ua := utcMidnight(a.In(z.loc))
	ub := utcMidnight(b.In(z.loc))
	return int(ub.Sub(ua).Hours() / 24)
}

// AddDays shifts a civil date key by n calendar days.
func AddDays(dayKey string, n int) (string, error) {
	d, err := time.Parse(dayKeyLayout, dayKey)
	if err != nil {
		return "", fmt.Errorf("invalid day key %q: %w", dayKey, err)
	}
	return d.AddDate(0, 0, n).Format(dayKeyLayout), nil
}

func utcMidnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
