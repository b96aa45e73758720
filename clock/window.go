/*
window.go - Anchored bi-weekly pay-cycle windows

PURPOSE:
  Deterministically maps any instant to its 14-day pay cycle, anchored to a
  fixed historical Sunday, and enumerates pages of historical windows for
  reporting.

CYCLE MATH:
  cycleIndex = floorDiv(calendarDaysBetween(anchor, now), 14)
  startKey   = anchor + cycleIndex*14 days
  endKey     = startKey + 14 days (exclusive)

  floorDiv rounds toward negative infinity, so instants before the anchor
  still land in the correct, contiguous negative-index windows.

SEE ALSO:
  - zone.go: Local-midnight conversion and DST-safe day differences
  - report.go: Consumes windows for the bi-weekly roll-up
*/
package clock

import (
	"fmt"
	"time"
)

// DefaultAnchorDate is the historical Sunday the pay cycles are counted
// from. Configurable at construction; never mutated after.
const DefaultAnchorDate = "2025-07-27"

// Windower computes bi-weekly pay windows from a fixed anchor date.
type Windower struct {
	zone      Zone
	anchorKey string
}

// NewWindower validates the anchor date against the zone and returns an
// immutable windower. An empty anchor falls back to DefaultAnchorDate.
func NewWindower(zone Zone, anchorDate string) (*Windower, error) {
	if anchorDate == "" {
		anchorDate = DefaultAnchorDate
	}
	if _, err := zone.Midnight(anchorDate); err != nil {
		return nil, fmt.Errorf("anchor date: %w", err)
	}
	return &Windower{zone: zone, anchorKey: anchorDate}, nil
}

// AnchorDate returns the configured anchor day key.
func (w *Windower) AnchorDate() string { return w.anchorKey }

// Zone returns the windower's zone.
func (w *Windower) Zone() Zone { return w.zone }

// CurrentWindow returns the window containing now. The end boundary is
// exclusive: an event exactly at EndExclusive belongs to the next window.
func (w *Windower) CurrentWindow(now time.Time) DayWindow {
	return w.WindowAt(w.CycleIndexAt(now))
}

// CycleIndexAt returns the number of complete 14-day cycles between the
// anchor and the instant's local date. Negative before the anchor.
func (w *Windower) CycleIndexAt(now time.Time) int {
	anchorMidnight, _ := w.zone.Midnight(w.anchorKey)
	days := w.zone.CalendarDaysBetween(anchorMidnight, now)
	return floorDiv(days, WindowLengthDays)
}

// WindowAt materializes the window for a cycle index.
func (w *Windower) WindowAt(cycleIndex int) DayWindow {
	startKey, _ := AddDays(w.anchorKey, cycleIndex*WindowLengthDays)
	endKey, _ := AddDays(startKey, WindowLengthDays)
	start, _ := w.zone.Midnight(startKey)
	end, _ := w.zone.Midnight(endKey)
	return DayWindow{
		CycleIndex:      cycleIndex,
		StartKey:        startKey,
		EndKeyExclusive: endKey,
		Start:           start,
		EndExclusive:    end,
	}
}

// WindowsPage returns perPage windows, most recent first, for a 1-based
// page number. Page 1 begins at the window containing now. Deterministic
// and restartable given (page, perPage, now).
func (w *Windower) WindowsPage(page, perPage int, now time.Time) ([]DayWindow, error) {
	if page <= 0 || perPage <= 0 {
		return nil, fmt.Errorf("%w: page=%d per=%d", ErrInvalidPaging, page, perPage)
	}

	current := w.CycleIndexAt(now)
	first := current - (page-1)*perPage

	windows := make([]DayWindow, 0, perPage)
	for i := 0; i < perPage; i++ {
		windows = append(windows, w.WindowAt(first-i))
	}
	return windows, nil
}

// floorDiv divides rounding toward negative infinity, unlike Go's
// truncating integer division.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
