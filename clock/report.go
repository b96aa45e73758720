/*
report.go - Bi-weekly report roll-up

PURPOSE:
  Orchestrates the daily aggregation across one pay window and rolls the
  rows up into per-user totals (summed minutes, counted complete days).

AUTHORIZATION BOUNDARY:
  The engine does not enforce authorization. For a non-admin caller the
  event set must already be restricted to that caller by whoever fetched
  it; the builder trusts its input. The admin-only text filter is a
  convenience applied here because it operates on data already in hand.

SEE ALSO:
  - aggregate.go: Daily reduction
  - window.go: Window computation
*/
package clock

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// UserTotals is one user's roll-up for a window.
type UserTotals struct {
	UserKey  string
	UserName string

	// Minutes sums MinutesWorked across the window's complete days.
	Minutes int

	// Days counts days with both an Entry and an Exit.
	Days int
}

// Hours renders the total as decimal hours with two places.
func (t UserTotals) Hours() decimal.Decimal {
	return decimal.NewFromInt(int64(t.Minutes)).
		Div(decimal.NewFromInt(60)).
		Round(2)
}

// Report is the built view of one pay window.
type Report struct {
	Window DayWindow
	Daily  []DailyAggregate
	Totals []UserTotals
}

// BuildReport reduces a window's events into daily rows and per-user
// totals. Deterministic given identical inputs; no hidden state.
//
// textFilter is a case-insensitive substring match against user key and
// display name, honored only for admin callers. Non-admin callers must be
// handed an event set already restricted to callerUserKey.
func BuildReport(window DayWindow, events []ClockEvent, callerIsAdmin bool, callerUserKey, textFilter string, zone Zone) Report {
	if callerIsAdmin {
		if q := strings.ToLower(strings.TrimSpace(textFilter)); q != "" {
			filtered := make([]ClockEvent, 0, len(events))
			for _, e := range events {
				if strings.Contains(strings.ToLower(e.UserKey), q) ||
					strings.Contains(strings.ToLower(e.UserName), q) {
					filtered = append(filtered, e)
				}
			}
			events = filtered
		}
	}
	_ = callerUserKey // restriction happens at fetch time for non-admins

	daily := AggregateDaily(events, zone)

	byUser := make(map[string]*UserTotals)
	for _, row := range daily {
		t, ok := byUser[row.UserKey]
		if !ok {
			t = &UserTotals{UserKey: row.UserKey, UserName: row.UserName}
			byUser[row.UserKey] = t
		}
		if row.Complete() {
			t.Minutes += row.MinutesWorked
			t.Days++
		}
	}

	totals := make([]UserTotals, 0, len(byUser))
	for _, t := range byUser {
		totals = append(totals, *t)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].UserKey < totals[j].UserKey })

	return Report{Window: window, Daily: daily, Totals: totals}
}
