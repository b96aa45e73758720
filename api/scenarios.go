/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built datasets that populate the event store with
	realistic clock data for demos. Each scenario seeds a set of users
	and days inside the current pay window.

AVAILABLE SCENARIOS:

	clean-fortnight: Two users with complete Entry/Lunch/Exit days
	anomalies:       Missing exits, lunch without end, clock skew

HOW SCENARIOS WORK:
 1. Events are appended through the store (not the ingestor), so the
    demo data is deterministic and not subject to the geofence
 2. Days are placed relative to the current window's start
 3. Re-loading a scenario is idempotent per (user, day, action):
    duplicate appends are skipped

NOTE:

	Scenarios add data; they do not reset the store. Only use in
	development/demo environments.

SEE ALSO:
  - server.go: Route wiring
  - clock/store.go: Append contract
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/warp/timeclock-engine/clock"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "clean-fortnight",
		Name:        "Clean Fortnight",
		Description: "Two users with complete Entry/Lunch/Exit days across the current window",
	},
	{
		ID:          "anomalies",
		Name:        "Anomalies",
		Description: "Missing exits, lunch without end, and clock skew for anomaly-flag demos",
	},
}

// ListScenarios returns the available demo datasets.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// LoadScenario seeds a demo dataset into the store.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var err error
	switch req.ID {
	case "clean-fortnight":
		err = h.loadCleanFortnight(r.Context())
	case "anomalies":
		err = h.loadAnomalies(r.Context())
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario %q", req.ID), nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Scenario loaded", "id": req.ID})
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) loadCleanFortnight(ctx context.Context) error {
	win := h.Windower.CurrentWindow(h.now())

	for _, user := range []struct{ key, name string }{
		{"alice@example.com", "Alice Ng"},
		{"bruno@example.com", "Bruno Alves"},
	} {
		for dayOffset := 0; dayOffset < 5; dayOffset++ {
			day := win.Start.AddDate(0, 0, dayOffset)
			if err := h.seedDay(ctx, user.key, user.name, day, [4]int{9 * 60, 12 * 60, 12*60 + 30, 17 * 60}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (h *Handler) loadAnomalies(ctx context.Context) error {
	win := h.Windower.CurrentWindow(h.now())

	// Day 0: entry only, never clocked out.
	if err := h.seedDay(ctx, "carol@example.com", "Carol Mutegi", win.Start, [4]int{9 * 60, -1, -1, -1}); err != nil {
		return err
	}
	// Day 1: lunch started, never ended.
	if err := h.seedDay(ctx, "carol@example.com", "Carol Mutegi", win.Start.AddDate(0, 0, 1), [4]int{8 * 60, 12 * 60, -1, 16 * 60}); err != nil {
		return err
	}
	// Day 2: exit before entry (device clock skew); minutes must clamp to 0.
	return h.seedDay(ctx, "carol@example.com", "Carol Mutegi", win.Start.AddDate(0, 0, 2), [4]int{17 * 60, -1, -1, 9 * 60})
}

// seedDay appends up to four actions at minute offsets from local
// midnight; -1 skips the slot. Duplicate (user, day, action) appends are
// skipped so scenarios stay idempotent.
func (h *Handler) seedDay(ctx context.Context, userKey, userName string, dayStart time.Time, minuteOffsets [4]int) error {
	actions := clock.Actions()
	dayKey := h.Zone.DayKey(dayStart)

	for i, offset := range minuteOffsets {
		if offset < 0 {
			continue
		}
		at := dayStart.Add(time.Duration(offset) * time.Minute)
		// Skew scenario: Exit offset may point at a time "before" Entry;
		// both still land on the same local day.
		err := h.Store.Append(ctx, clock.ClockEvent{
			ID:             uuid.NewString(),
			UserKey:        userKey,
			UserName:       userName,
			Action:         actions[i],
			OccurredAt:     at,
			DayKey:         dayKey,
			Latitude:       43.6532,
			Longitude:      -79.3832,
			DistanceMeters: 0,
			WithinGeofence: true,
			CreatedAt:      h.now(),
		})
		if err != nil && !errors.Is(err, clock.ErrDuplicateAction) {
			return err
		}
	}
	return nil
}
