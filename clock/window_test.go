package clock_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/timeclock-engine/clock"
)

func newWindower(t *testing.T) *clock.Windower {
	t.Helper()
	w, err := clock.NewWindower(toronto(t), "2025-07-27")
	require.NoError(t, err)
	return w
}

func TestNewWindower_ValidatesAnchor(t *testing.T) {
	_, err := clock.NewWindower(toronto(t), "27-07-2025")
	assert.Error(t, err)

	w, err := clock.NewWindower(toronto(t), "")
	require.NoError(t, err)
	assert.Equal(t, clock.DefaultAnchorDate, w.AnchorDate())
}

func TestCurrentWindow_SecondCycle(t *testing.T) {
	// GIVEN: anchor 2025-07-27
	// WHEN: now is local midnight 2025-08-10 (exactly 14 days later)
	// THEN: cycleIndex is 1 and the window is [2025-08-10, 2025-08-24)

	w := newWindower(t)
	now, err := w.Zone().Midnight("2025-08-10")
	require.NoError(t, err)

	win := w.CurrentWindow(now)
	assert.Equal(t, 1, win.CycleIndex)
	assert.Equal(t, "2025-08-10", win.StartKey)
	assert.Equal(t, "2025-08-24", win.EndKeyExclusive)
}

func TestCurrentWindow_ExclusiveEnd(t *testing.T) {
	// An instant exactly at a boundary belongs to the NEXT window.
	w := newWindower(t)
	boundary, _ := w.Zone().Midnight("2025-08-10")

	before := w.CurrentWindow(boundary.Add(-time.Second))
	at := w.CurrentWindow(boundary)

	assert.Equal(t, 0, before.CycleIndex)
	assert.Equal(t, 1, at.CycleIndex)
	assert.False(t, before.Contains(boundary))
	assert.True(t, at.Contains(boundary))
}

func TestCurrentWindow_Contiguity(t *testing.T) {
	// endKeyExclusive of window n equals startKey of window n+1, across a
	// span that includes both DST transitions.
	w := newWindower(t)

	prev := w.WindowAt(-30)
	for i := -29; i <= 30; i++ {
		win := w.WindowAt(i)
		assert.Equal(t, prev.EndKeyExclusive, win.StartKey)
		assert.Equal(t, prev.EndExclusive, win.Start)
		days := w.Zone().CalendarDaysBetween(win.Start, win.EndExclusive)
		assert.Equal(t, clock.WindowLengthDays, days, "every window spans exactly 14 civil days")
		prev = win
	}
}

func TestCurrentWindow_BeforeAnchor(t *testing.T) {
	// GIVEN: now is before the anchor
	// WHEN: the cycle index is computed
	// THEN: floor division yields contiguous negative cycles, no gap at 0

	w := newWindower(t)

	// One day before the anchor: last day of cycle -1.
	day, _ := w.Zone().Midnight("2025-07-26")
	win := w.CurrentWindow(day)
	assert.Equal(t, -1, win.CycleIndex)
	assert.Equal(t, "2025-07-13", win.StartKey)
	assert.Equal(t, "2025-07-27", win.EndKeyExclusive)

	// 14 days before the anchor: first day of cycle -1.
	day, _ = w.Zone().Midnight("2025-07-13")
	assert.Equal(t, -1, w.CurrentWindow(day).CycleIndex)

	// 15 days before: cycle -2.
	day, _ = w.Zone().Midnight("2025-07-12")
	assert.Equal(t, -2, w.CurrentWindow(day).CycleIndex)
}

func TestWindowsPage_Consistency(t *testing.T) {
	// ListWindows(1, k)[0] == CurrentWindow(now) and each page descends by
	// one cycle per entry.
	w := newWindower(t)
	now, _ := w.Zone().Midnight("2025-08-15")
	current := w.CurrentWindow(now)

	for _, tc := range []struct{ page, per int }{{1, 5}, {2, 5}, {3, 2}, {1, 1}} {
		windows, err := w.WindowsPage(tc.page, tc.per, now)
		require.NoError(t, err)
		require.Len(t, windows, tc.per)

		for i, win := range windows {
			want := current.CycleIndex - ((tc.page-1)*tc.per + i)
			assert.Equal(t, want, win.CycleIndex, "page %d entry %d", tc.page, i)
		}
	}

	first, err := w.WindowsPage(1, 5, now)
	require.NoError(t, err)
	assert.Equal(t, current, first[0])
}

func TestWindowsPage_InvalidPaging(t *testing.T) {
	w := newWindower(t)
	now := time.Now()

	for _, tc := range []struct{ page, per int }{{0, 5}, {-1, 5}, {1, 0}, {1, -3}} {
		_, err := w.WindowsPage(tc.page, tc.per, now)
		assert.ErrorIs(t, err, clock.ErrInvalidPaging, "page=%d per=%d", tc.page, tc.per)
	}
}

func TestWindow_ExactlyOneWindowPerInstant(t *testing.T) {
	// Every probed instant is contained by its CurrentWindow and by no
	// neighbor.
	w := newWindower(t)

	probes := []string{
		"2025-07-27T04:00:00Z", // anchor midnight
		"2025-08-09T23:59:59Z",
		"2025-03-09T07:30:00Z", // inside spring-forward gap hour (UTC)
		"2025-11-02T05:30:00Z", // inside fall-back repeated hour (UTC)
		"2024-12-25T12:00:00Z", // well before the anchor
	}
	for _, p := range probes {
		instant, err := time.Parse(time.RFC3339, p)
		require.NoError(t, err)

		win := w.CurrentWindow(instant)
		assert.True(t, win.Contains(instant), "window must contain its instant: %s", p)
		assert.False(t, w.WindowAt(win.CycleIndex-1).Contains(instant))
		assert.False(t, w.WindowAt(win.CycleIndex+1).Contains(instant))
	}
}
