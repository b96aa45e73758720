/*
aggregate.go - Daily reduction of raw clock events

PURPOSE:
  Folds a batch of raw timestamped events (any order, any source) into one
  row per (user, civil day): earliest-seen timestamp per action, minutes
  worked, and anomaly flags for incomplete pairs.

DEFENSIVENESS:
  The gate should have prevented duplicates at write time, but aggregation
  is idempotent regardless: for each action within a day only the earliest
  occurrence counts. Historic label variants are normalized; labels that
  normalize to nothing contribute to the raw drill-down but never to the
  four slots.

COMPLEXITY:
  One pass with map-keyed grouping, O(n) in the number of events, plus the
  final sort of the day rows.

SEE ALSO:
  - types.go: DailyAggregate, Anomaly
  - report.go: Rolls daily rows up into per-user bi-weekly totals
*/
package clock

import (
	"sort"
	"time"
)

// AggregateDaily reduces events into one DailyAggregate per (user, day).
//
// Events carrying a client-supplied day key are bucketed by it; events
// without one fall back to the zone-derived civil date of OccurredAt.
// Events with an empty user key are skipped. Output is ordered by day key
// descending, then user key ascending, stable for pagination.
func AggregateDaily(events []ClockEvent, zone Zone) []DailyAggregate {
	type groupKey struct {
		UserKey string
		DayKey  string
	}

	rows := make(map[groupKey]*DailyAggregate)

	for _, e := range events {
		if e.UserKey == "" {
			continue
		}
		dayKey := e.DayKey
		if dayKey == "" {
			dayKey = zone.DayKey(e.OccurredAt)
		}

		k := groupKey{UserKey: e.UserKey, DayKey: dayKey}
		row, ok := rows[k]
		if !ok {
			row = &DailyAggregate{
				UserKey:  e.UserKey,
				UserName: e.DisplayName(),
				DayKey:   dayKey,
			}
			rows[k] = row
		}
		row.Events = append(row.Events, e)

		action, ok := NormalizeAction(string(e.Action))
		if !ok {
			continue
		}
		at := e.OccurredAt
		switch action {
		case ActionEntry:
			row.EntryAt = earliest(row.EntryAt, at)
		case ActionLunchStart:
			row.LunchStartAt = earliest(row.LunchStartAt, at)
		case ActionLunchEnd:
			row.LunchEndAt = earliest(row.LunchEndAt, at)
		case ActionExit:
			row.ExitAt = earliest(row.ExitAt, at)
		}
	}

	out := make([]DailyAggregate, 0, len(rows))
	for _, row := range rows {
		row.MinutesWorked = MinutesBetween(row.EntryAt, row.ExitAt)
		row.Anomalies = detectAnomalies(*row)
		out = append(out, *row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].DayKey != out[j].DayKey {
			return out[i].DayKey > out[j].DayKey
		}
		return out[i].UserKey < out[j].UserKey
	})
	return out
}

// MinutesBetween returns the entry-to-exit span rounded to the minute and
// clamped at zero. Either side missing yields zero.
func MinutesBetween(entry, exit *time.Time) int {
	if entry == nil || exit == nil {
		return 0
	}
	mins := int(exit.Sub(*entry).Round(time.Minute) / time.Minute)
	if mins < 0 {
		return 0
	}
	return mins
}

func detectAnomalies(row DailyAggregate) []Anomaly {
	var flags []Anomaly
	if row.EntryAt == nil {
		flags = append(flags, AnomalyMissingEntry)
	}
	if row.ExitAt == nil {
		flags = append(flags, AnomalyMissingExit)
	}
	if row.LunchStartAt != nil && row.LunchEndAt == nil {
		flags = append(flags, AnomalyLunchStartWithoutEnd)
	}
	if row.LunchEndAt != nil && row.LunchStartAt == nil {
		flags = append(flags, AnomalyLunchEndWithoutStart)
	}
	return flags
}

func earliest(current *time.Time, candidate time.Time) *time.Time {
	if current == nil || candidate.Before(*current) {
		t := candidate
		return &t
	}
	return current
}
