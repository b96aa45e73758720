package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timeclock-engine/clock"
)

// event builds a ClockEvent at the given Toronto wall-clock time.
func event(z clock.Zone, user string, action clock.Action, wall string) clock.ClockEvent {
	at, err := time.ParseInLocation("2006-01-02 15:04", wall, z.Location())
	if err != nil {
		panic(err)
	}
	return clock.ClockEvent{
		ID:         user + "/" + string(action) + "/" + wall,
		UserKey:    user,
		UserName:   user,
		Action:     action,
		OccurredAt: at,
		DayKey:     z.DayKey(at),
	}
}

func TestAggregateDaily_StandardDay(t *testing.T) {
	// End-to-end scenario: Entry@09:00, LunchStart@12:00, LunchEnd@12:30,
	// Exit@17:00 -> 480 minutes, no anomalies (lunch is not deducted).
	z := toronto(t)
	events := []clock.ClockEvent{
		event(z, "alice@example.com", clock.ActionEntry, "2025-08-11 09:00"),
		event(z, "alice@example.com", clock.ActionLunchStart, "2025-08-11 12:00"),
		event(z, "alice@example.com", clock.ActionLunchEnd, "2025-08-11 12:30"),
		event(z, "alice@example.com", clock.ActionExit, "2025-08-11 17:00"),
	}

	rows := clock.AggregateDaily(events, z)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "2025-08-11", row.DayKey)
	assert.Equal(t, 480, row.MinutesWorked)
	assert.Empty(t, row.Anomalies)
	assert.True(t, row.Complete())
	require.NotNil(t, row.EntryAt)
	assert.Equal(t, "09:00", row.EntryAt.In(z.Location()).Format("15:04"))
}

func TestAggregateDaily_EarliestWins(t *testing.T) {
	// GIVEN: duplicate entries for the same action in the same day
	// WHEN: aggregated (in any input order)
	// THEN: only the earliest occurrence counts

	z := toronto(t)
	events := []clock.ClockEvent{
		event(z, "alice@example.com", clock.ActionEntry, "2025-08-11 09:30"),
		event(z, "alice@example.com", clock.ActionEntry, "2025-08-11 08:45"),
		event(z, "alice@example.com", clock.ActionExit, "2025-08-11 17:00"),
	}

	rows := clock.AggregateDaily(events, z)
	require.Len(t, rows, 1)
	assert.Equal(t, "08:45", rows[0].EntryAt.In(z.Location()).Format("15:04"))
	assert.Equal(t, 495, rows[0].MinutesWorked)
}

func TestAggregateDaily_Idempotence(t *testing.T) {
	// Aggregating the same set twice yields identical output, and adding
	// only LATER duplicates changes no timestamps.
	z := toronto(t)
	base := []clock.ClockEvent{
		event(z, "alice@example.com", clock.ActionEntry, "2025-08-11 09:00"),
		event(z, "alice@example.com", clock.ActionExit, "2025-08-11 17:00"),
		event(z, "bruno@example.com", clock.ActionEntry, "2025-08-11 10:00"),
	}

	first := clock.AggregateDaily(base, z)
	second := clock.AggregateDaily(base, z)
	assert.Equal(t, first, second)

	superset := append(append([]clock.ClockEvent{}, base...),
		event(z, "alice@example.com", clock.ActionEntry, "2025-08-11 11:00"),
		event(z, "alice@example.com", clock.ActionExit, "2025-08-11 18:00"),
	)
	augmented := clock.AggregateDaily(superset, z)
	require.Len(t, augmented, 2)
	for i := range first {
		assert.Equal(t, first[i].EntryAt, augmented[i].EntryAt)
		assert.Equal(t, first[i].ExitAt, augmented[i].ExitAt)
		assert.Equal(t, first[i].MinutesWorked, augmented[i].MinutesWorked)
	}
}

func TestAggregateDaily_ClockSkewNeverNegative(t *testing.T) {
	z := toronto(t)
	events := []clock.ClockEvent{
		event(z, "alice@example.com", clock.ActionEntry, "2025-08-11 17:00"),
		event(z, "alice@example.com", clock.ActionExit, "2025-08-11 09:00"),
	}

	rows := clock.AggregateDaily(events, z)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, rows[0].MinutesWorked)
}

func TestAggregateDaily_Anomalies(t *testing.T) {
	z := toronto(t)

	tests := []struct {
		name   string
		events []clock.ClockEvent
		want   []clock.Anomaly
	}{
		{
			"entry only",
			[]clock.ClockEvent{event(z, "u", clock.ActionEntry, "2025-08-11 09:00")},
			[]clock.Anomaly{clock.AnomalyMissingExit},
		},
		{
			"exit only",
			[]clock.ClockEvent{event(z, "u", clock.ActionExit, "2025-08-11 17:00")},
			[]clock.Anomaly{clock.AnomalyMissingEntry},
		},
		{
			"lunch started never ended",
			[]clock.ClockEvent{
				event(z, "u", clock.ActionEntry, "2025-08-11 09:00"),
				event(z, "u", clock.ActionLunchStart, "2025-08-11 12:00"),
				event(z, "u", clock.ActionExit, "2025-08-11 17:00"),
			},
			[]clock.Anomaly{clock.AnomalyLunchStartWithoutEnd},
		},
		{
			"lunch ended never started",
			[]clock.ClockEvent{
				event(z, "u", clock.ActionEntry, "2025-08-11 09:00"),
				event(z, "u", clock.ActionLunchEnd, "2025-08-11 12:30"),
				event(z, "u", clock.ActionExit, "2025-08-11 17:00"),
			},
			[]clock.Anomaly{clock.AnomalyLunchEndWithoutStart},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := clock.AggregateDaily(tt.events, z)
			require.Len(t, rows, 1)
			assert.ElementsMatch(t, tt.want, rows[0].Anomalies)
		})
	}
}

func TestAggregateDaily_Ordering(t *testing.T) {
	// Output is day key descending, then user key ascending.
	z := toronto(t)
	events := []clock.ClockEvent{
		event(z, "bruno@example.com", clock.ActionEntry, "2025-08-11 09:00"),
		event(z, "alice@example.com", clock.ActionEntry, "2025-08-12 09:00"),
		event(z, "alice@example.com", clock.ActionEntry, "2025-08-11 09:00"),
		event(z, "bruno@example.com", clock.ActionEntry, "2025-08-12 09:00"),
	}

	rows := clock.AggregateDaily(events, z)
	require.Len(t, rows, 4)

	type key struct{ day, user string }
	var got []key
	for _, r := range rows {
		got = append(got, key{r.DayKey, r.UserKey})
	}
	assert.Equal(t, []key{
		{"2025-08-12", "alice@example.com"},
		{"2025-08-12", "bruno@example.com"},
		{"2025-08-11", "alice@example.com"},
		{"2025-08-11", "bruno@example.com"},
	}, got)
}

func TestAggregateDaily_LabelVariants(t *testing.T) {
	// Historic label variants still land in the canonical slots.
	z := toronto(t)
	at, _ := time.ParseInLocation("2006-01-02 15:04", "2025-08-11 12:00", z.Location())

	events := []clock.ClockEvent{
		{UserKey: "u", Action: clock.Action("ENTRY_MAIN_DOOR"), OccurredAt: at.Add(-3 * time.Hour), DayKey: "2025-08-11"},
		{UserKey: "u", Action: clock.Action("LUNCH BEGIN"), OccurredAt: at, DayKey: "2025-08-11"},
		{UserKey: "u", Action: clock.Action("lunch-stop"), OccurredAt: at.Add(30 * time.Minute), DayKey: "2025-08-11"},
		{UserKey: "u", Action: clock.Action("exit"), OccurredAt: at.Add(5 * time.Hour), DayKey: "2025-08-11"},
	}

	rows := clock.AggregateDaily(events, z)
	require.Len(t, rows, 1)
	assert.NotNil(t, rows[0].EntryAt)
	assert.NotNil(t, rows[0].LunchStartAt)
	assert.NotNil(t, rows[0].LunchEndAt)
	assert.NotNil(t, rows[0].ExitAt)
	assert.Empty(t, rows[0].Anomalies)
}

func TestAggregateDaily_UnrecognizedLabelDoesNotFillSlots(t *testing.T) {
	z := toronto(t)
	at, _ := time.ParseInLocation("2006-01-02 15:04", "2025-08-11 12:00", z.Location())

	events := []clock.ClockEvent{
		{UserKey: "u", Action: clock.Action("Break"), OccurredAt: at, DayKey: "2025-08-11"},
	}

	rows := clock.AggregateDaily(events, z)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].EntryAt)
	assert.Len(t, rows[0].Events, 1, "unrecognized labels stay visible in the raw drill-down")
}

func TestAggregateDaily_MissingDayKeyFallsBackToZone(t *testing.T) {
	z := toronto(t)
	// 03:00 UTC August 12 is 23:00 EDT August 11.
	at := time.Date(2025, time.August, 12, 3, 0, 0, 0, time.UTC)

	rows := clock.AggregateDaily([]clock.ClockEvent{
		{UserKey: "u", Action: clock.ActionEntry, OccurredAt: at},
	}, z)
	require.Len(t, rows, 1)
	assert.Equal(t, "2025-08-11", rows[0].DayKey)
}

func TestAggregateDaily_SkipsEmptyUserKey(t *testing.T) {
	z := toronto(t)
	rows := clock.AggregateDaily([]clock.ClockEvent{
		{Action: clock.ActionEntry, OccurredAt: time.Now(), DayKey: "2025-08-11"},
	}, z)
	assert.Empty(t, rows)
}

func TestMinutesBetween(t *testing.T) {
	entry := time.Date(2025, time.August, 11, 9, 0, 0, 0, time.UTC)
	exit := entry.Add(7*time.Hour + 59*time.Minute + 40*time.Second)

	assert.Equal(t, 480, clock.MinutesBetween(&entry, &exit), "rounds to the nearest minute")
	assert.Equal(t, 0, clock.MinutesBetween(&exit, &entry), "never negative")
	assert.Equal(t, 0, clock.MinutesBetween(nil, &exit))
	assert.Equal(t, 0, clock.MinutesBetween(&entry, nil))
}
