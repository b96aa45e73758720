/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs. DTOs are
  pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - clock/types.go: The domain model these project
*/
package api

import (
	"time"

	"github.com/warp/timeclock-engine/clock"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// SubmitEventRequest is one clock submission. Identity fields come from the
// identity middleware, not this body.
type SubmitEventRequest struct {
	Action     string   `json:"action"`
	ClientTime string   `json:"clientTime,omitempty"` // RFC3339; empty = server now
	DayKey     string   `json:"dayKey,omitempty"`     // YYYY-MM-DD; empty = derived
	Lat        *float64 `json:"lat"`
	Lon        *float64 `json:"lon"`
	Acc        *float64 `json:"acc,omitempty"`
}

// SubmitEventResponse reports a successful admission.
type SubmitEventResponse struct {
	Message        string               `json:"message"`
	EventID        string               `json:"eventId"`
	DistanceMeters float64              `json:"distanceMeters"`
	WithinGeofence bool                 `json:"withinGeofence"`
	Status         clock.DayStatusFlags `json:"status"`
}

// DayStatusRequest asks for the caller's presence flags on one day.
type DayStatusRequest struct {
	DayKey string `json:"dayKey"`
}

// WindowDTO is one pay cycle.
type WindowDTO struct {
	CycleIndex int    `json:"cycleIndex"`
	Label      string `json:"label"`
	StartKey   string `json:"startKey"`
	EndKey     string `json:"endKeyExclusive"`
	StartISO   string `json:"startIso"`
	EndISO     string `json:"endIsoExclusive"`
}

// DailyRowDTO is one (user, day) aggregate.
type DailyRowDTO struct {
	DayKey       string   `json:"dayKey"`
	UserKey      string   `json:"userKey"`
	UserName     string   `json:"userName,omitempty"`
	EntryAt      *string  `json:"entryAt,omitempty"`
	LunchStartAt *string  `json:"lunchStartAt,omitempty"`
	LunchEndAt   *string  `json:"lunchEndAt,omitempty"`
	ExitAt       *string  `json:"exitAt,omitempty"`
	Minutes      int      `json:"minutes"`
	Anomalies    []string `json:"anomalies,omitempty"`
}

// UserTotalsDTO is one user's roll-up for a window.
type UserTotalsDTO struct {
	UserKey  string `json:"userKey"`
	UserName string `json:"userName,omitempty"`
	Minutes  int    `json:"minutes"`
	Days     int    `json:"days"`
	Hours    string `json:"hours"`
}

// WindowReportDTO is one window's built report.
type WindowReportDTO struct {
	Window WindowDTO       `json:"window"`
	Daily  []DailyRowDTO   `json:"daily"`
	Totals []UserTotalsDTO `json:"totals"`
}

// BiweeklyReportResponse is the paged report listing.
type BiweeklyReportResponse struct {
	Page    int               `json:"page"`
	Per     int               `json:"per"`
	IsAdmin bool              `json:"isAdmin"`
	Windows []WindowReportDTO `json:"windows"`
}

// RunReportRequest carries the cron trigger flags.
type RunReportRequest struct {
	Force  bool `json:"force,omitempty"`
	DryRun bool `json:"dryRun,omitempty"`
}

// RunReportResponse reports the trigger outcome.
type RunReportResponse struct {
	OK      bool   `json:"ok"`
	Skipped bool   `json:"skipped,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Cycle   int    `json:"cycle"`
	Window  string `json:"window,omitempty"`
	Mailed  bool   `json:"mailed,omitempty"`
}

// ScenarioDTO describes one demo dataset.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a demo dataset to seed.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// ErrorResponse is the JSON error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func toWindowDTO(w clock.DayWindow) WindowDTO {
	return WindowDTO{
		CycleIndex: w.CycleIndex,
		Label:      w.Label(),
		StartKey:   w.StartKey,
		EndKey:     w.EndKeyExclusive,
		StartISO:   w.Start.UTC().Format(time.RFC3339),
		EndISO:     w.EndExclusive.UTC().Format(time.RFC3339),
	}
}

func toDailyRowDTO(d clock.DailyAggregate) DailyRowDTO {
	row := DailyRowDTO{
		DayKey:   d.DayKey,
		UserKey:  d.UserKey,
		UserName: d.UserName,
		Minutes:  d.MinutesWorked,
	}
	row.EntryAt = isoPtr(d.EntryAt)
	row.LunchStartAt = isoPtr(d.LunchStartAt)
	row.LunchEndAt = isoPtr(d.LunchEndAt)
	row.ExitAt = isoPtr(d.ExitAt)
	for _, a := range d.Anomalies {
		row.Anomalies = append(row.Anomalies, string(a))
	}
	return row
}

func toReportDTO(r clock.Report) WindowReportDTO {
	out := WindowReportDTO{
		Window: toWindowDTO(r.Window),
		Daily:  make([]DailyRowDTO, 0, len(r.Daily)),
		Totals: make([]UserTotalsDTO, 0, len(r.Totals)),
	}
	for _, d := range r.Daily {
		out.Daily = append(out.Daily, toDailyRowDTO(d))
	}
	for _, t := range r.Totals {
		out.Totals = append(out.Totals, UserTotalsDTO{
			UserKey:  t.UserKey,
			UserName: t.UserName,
			Minutes:  t.Minutes,
			Days:     t.Days,
			Hours:    t.Hours().StringFixed(2),
		})
	}
	return out
}

func isoPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
