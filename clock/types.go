/*
Package clock provides the core time-clock engine.

PURPOSE:
  This package contains the domain types and algorithms for geolocation-
  validated workforce time tracking: admission control for clock events,
  the per-day ordering state machine, anchored bi-weekly pay windows, and
  the daily/bi-weekly aggregation that turns raw events into payroll rows.

KEY CONCEPTS IN THIS FILE (types.go):
  - Action: The closed enumeration of clock actions (Entry, LunchStart, ...)
  - ClockEvent: An immutable, append-only record of one clock action
  - DayWindow: A 14-day pay cycle anchored to a fixed historical Sunday
  - DailyAggregate: One user's reduced view of one civil day
  - Site: The configured work-site geofence

DESIGN PRINCIPLES:
  1. Immutability: Events are appended once and never mutated
  2. Determinism: Every computation is a pure function of its inputs
  3. Civil time: Day boundaries follow a configured IANA zone, never UTC

SEE ALSO:
  - geo.go: Geofence/accuracy admission control
  - gate.go: Per-day ordering state machine
  - window.go: Bi-weekly window arithmetic
  - aggregate.go: Daily reduction
  - report.go: Bi-weekly roll-up
*/
package clock

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// ACTION - Closed enumeration of clock actions
// =============================================================================

type Action string

const (
	ActionEntry      Action = "Entry"
	ActionLunchStart Action = "LunchStart"
	ActionLunchEnd   Action = "LunchEnd"
	ActionExit       Action = "Exit"
)

// Actions lists the canonical actions in their daily sequence order.
func Actions() []Action {
	return []Action{ActionEntry, ActionLunchStart, ActionLunchEnd, ActionExit}
}

// ParseAction maps a client-supplied label to the canonical enumeration.
// Unknown labels are rejected; ingestion must not guess intent.
func ParseAction(label string) (Action, error) {
	if a, ok := normalizeLabel(label); ok {
		return a, nil
	}
	return "", &UnknownActionError{Label: label}
}

// NormalizeAction maps historic label variants to the canonical action.
// Unlike ParseAction it reports rather than errors: aggregation must stay
// defensive against labels that predate strict ingestion.
func NormalizeAction(label string) (Action, bool) {
	return normalizeLabel(label)
}

func normalizeLabel(label string) (Action, bool) {
	a := strings.ToUpper(strings.TrimSpace(label))
	switch {
	case strings.HasPrefix(a, "ENTRY"):
		return ActionEntry, true
	case strings.HasPrefix(a, "EXIT"):
		return ActionExit, true
	}
	switch a {
	case "LUNCHSTART", "LUNCH_START", "LUNCH-START", "LUNCH START", "LUNCH BEGIN", "LUNCHBEGIN":
		return ActionLunchStart, true
	case "LUNCHEND", "LUNCH_END", "LUNCH-END", "LUNCH END", "LUNCH STOP", "LUNCHSTOP", "LUNCH-STOP":
		return ActionLunchEnd, true
	}
	return "", false
}

// =============================================================================
// CLOCK EVENT - Immutable, append-only record
// =============================================================================

// ClockEvent is one recorded clock action. Created exactly once by a
// successful admission; never mutated or deleted by the engine.
type ClockEvent struct {
	ID       string
	UserKey  string // normalized identity, e.g. lowercased email
	UserName string // display label, defaults to UserKey

	Action     Action
	OccurredAt time.Time // client-asserted instant, not server receipt time
	DayKey     string    // client-supplied civil date (YYYY-MM-DD), authoritative for sequencing

	Latitude  float64
	Longitude float64
	Accuracy  *float64 // reported device accuracy radius in meters, optional

	// Admission audit trail.
	DistanceMeters float64
	WithinGeofence bool

	// Request forensics, recorded when available.
	UserAgent string
	RemoteIP  string

	CreatedAt time.Time
}

// DisplayName returns the human label, falling back to the user key.
func (e ClockEvent) DisplayName() string {
	if e.UserName != "" {
		return e.UserName
	}
	return e.UserKey
}

// =============================================================================
// SITE - Configured work-site geofence
// =============================================================================

// Site describes the work site events must be clocked from.
// FenceRadiusMeters <= 0 disables the fence; MinAccuracyMeters <= 0 disables
// the accuracy check.
type Site struct {
	Latitude          float64
	Longitude         float64
	FenceRadiusMeters float64
	MinAccuracyMeters float64
}

// =============================================================================
// DAY WINDOW - One 14-day pay cycle
// =============================================================================

// WindowLengthDays is the pay-cycle length. Reporting assumes bi-weekly
// cycles throughout; this is a constant, not configuration.
const WindowLengthDays = 14

// DayWindow is a value type describing one pay cycle. End boundaries are
// exclusive: an event exactly at End belongs to the next window.
type DayWindow struct {
	CycleIndex int // cycles since the anchor; negative before the anchor

	StartKey        string // civil date of the first day (YYYY-MM-DD)
	EndKeyExclusive string // civil date one past the last day

	Start        time.Time // absolute instant of local midnight on StartKey
	EndExclusive time.Time // absolute instant of local midnight on EndKeyExclusive
}

// Label renders the window for UI and report subjects.
func (w DayWindow) Label() string {
	return fmt.Sprintf("%s .. %s", w.StartKey, w.EndKeyExclusive)
}

// Contains reports whether the instant falls inside the window.
func (w DayWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.EndExclusive)
}

// =============================================================================
// DAILY AGGREGATE - Reduced view of one (user, day)
// =============================================================================

// Anomaly flags incomplete action pairs in a day's events.
type Anomaly string

const (
	AnomalyMissingEntry         Anomaly = "MissingEntry"
	AnomalyMissingExit          Anomaly = "MissingExit"
	AnomalyLunchStartWithoutEnd Anomaly = "LunchStartWithoutEnd"
	AnomalyLunchEndWithoutStart Anomaly = "LunchEndWithoutStart"
)

// DailyAggregate is one row per (UserKey, DayKey): the earliest instant seen
// for each action, the Entry-to-Exit span in minutes, and anomaly flags.
type DailyAggregate struct {
	UserKey  string
	UserName string
	DayKey   string

	EntryAt      *time.Time
	LunchStartAt *time.Time
	LunchEndAt   *time.Time
	ExitAt       *time.Time

	// MinutesWorked is the Entry-to-Exit span, rounded to the minute and
	// clamped at zero. Lunch is informational only and never deducted.
	MinutesWorked int

	Anomalies []Anomaly

	// Raw events that contributed to this row, for drill-down.
	Events []ClockEvent
}

// HasAnomaly reports whether the row carries the given flag.
func (d DailyAggregate) HasAnomaly(a Anomaly) bool {
	for _, x := range d.Anomalies {
		if x == a {
			return true
		}
	}
	return false
}

// Complete reports whether the day has both an Entry and an Exit.
// Only complete days count toward per-user day totals.
func (d DailyAggregate) Complete() bool {
	return d.EntryAt != nil && d.ExitAt != nil
}
