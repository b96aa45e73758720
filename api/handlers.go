/*
handlers.go - HTTP API handlers for the time-clock engine

PURPOSE:
  Exposes the engine via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to domain logic.

ENDPOINTS:
  Clock:
    POST /api/clock             Submit a clock event (admission pipeline)
    POST /api/clock/status      Presence flags for the caller's day

  Windows:
    GET  /api/windows/current   The pay cycle containing now
    GET  /api/windows           A page of historical pay cycles

  Reports:
    GET  /api/reports/biweekly       Paged windows with daily rows + totals
    POST /api/reports/biweekly/run   Cron-triggered report mail

  Admin:
    GET  /api/admin/export       CSV export over a day-key range
    GET  /api/admin/export.xlsx  XLSX export over a day-key range

  Scenarios:
    GET  /api/scenarios          List demo datasets
    POST /api/scenarios/load     Seed a demo dataset

ERROR HANDLING:
  Engine rejections keep their specific kind and map to HTTP status:
  - 400: missing location, low accuracy, unknown action, invalid paging
  - 401: no caller identity
  - 403: outside geofence, non-admin on admin routes
  - 409: duplicate / out-of-order actions
  - 500: server misconfiguration, store failures

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - clock/ingest.go: The admission pipeline these delegate to
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/clock"
)

const (
	defaultWindowsPerPage = 5
	maxWindowsPerPage     = 10
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    clock.EventStore
	Ingestor *clock.Ingestor
	Windower *clock.Windower
	Zone     clock.Zone
	Admins   map[string]bool
	Reporter *Reporter
	Log      *zap.Logger

	// now is swappable for tests.
	now func() time.Time
}

// NewHandler creates a new handler with the given dependencies.
func NewHandler(store clock.EventStore, ingestor *clock.Ingestor, windower *clock.Windower, admins map[string]bool, reporter *Reporter, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Ingestor: ingestor,
		Windower: windower,
		Zone:     windower.Zone(),
		Admins:   admins,
		Reporter: reporter,
		Log:      log,
		now:      time.Now,
	}
}

// Health reports liveness and the stored event count.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.CountEvents(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "events": n})
}

// =============================================================================
// CLOCK HANDLERS
// =============================================================================

// SubmitEvent runs the admission pipeline for one clock action.
// POST /api/clock
func (h *Handler) SubmitEvent(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please sign in", nil)
		return
	}

	var req SubmitEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "Missing action", nil)
		return
	}
	if req.Lat == nil || req.Lon == nil {
		writeError(w, http.StatusBadRequest, "Geolocation required. Enable location and try again.", clock.ErrMissingLocation)
		return
	}

	var occurredAt time.Time
	if req.ClientTime != "" {
		t, err := time.Parse(time.RFC3339, req.ClientTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid clientTime (use RFC3339)", err)
			return
		}
		occurredAt = t
	}

	result, err := h.Ingestor.Submit(r.Context(), clock.SubmitRequest{
		UserKey:    caller.Email,
		UserName:   caller.Name,
		Action:     req.Action,
		OccurredAt: occurredAt,
		DayKey:     req.DayKey,
		Latitude:   *req.Lat,
		Longitude:  *req.Lon,
		Accuracy:   req.Acc,
		UserAgent:  r.UserAgent(),
		RemoteIP:   remoteIP(r),
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, SubmitEventResponse{
		Message:        string(result.Event.Action) + " recorded for " + result.Event.DisplayName(),
		EventID:        result.Event.ID,
		DistanceMeters: result.DistanceMeters,
		WithinGeofence: result.WithinGeofence,
		Status:         result.Status,
	})
}

// GetDayStatus returns the caller's presence flags for a day.
// POST /api/clock/status
func (h *Handler) GetDayStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please sign in", nil)
		return
	}

	var req DayStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.DayKey == "" {
		writeError(w, http.StatusBadRequest, "Missing dayKey", nil)
		return
	}

	status, err := h.Ingestor.DayStatus(r.Context(), caller.Email, req.DayKey)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to read day status", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// =============================================================================
// WINDOW HANDLERS
// =============================================================================

// CurrentWindow returns the pay cycle containing now.
// GET /api/windows/current
func (h *Handler) CurrentWindow(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toWindowDTO(h.Windower.CurrentWindow(h.now())))
}

// ListWindows returns a page of pay cycles, most recent first.
// GET /api/windows?page=1&per=5
func (h *Handler) ListWindows(w http.ResponseWriter, r *http.Request) {
	page, per, err := pagingParams(r, defaultWindowsPerPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paging", err)
		return
	}

	windows, err := h.Windower.WindowsPage(page, per, h.now())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	dtos := make([]WindowDTO, len(windows))
	for i, win := range windows {
		dtos[i] = toWindowDTO(win)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// BiweeklyReport returns a page of windows, each with daily rows and
// per-user totals. Non-admin callers see only their own events; admins may
// filter by q (substring) or email (exact).
// GET /api/reports/biweekly?page=1&per=5&q=&email=
func (h *Handler) BiweeklyReport(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please sign in", nil)
		return
	}

	page, per, err := pagingParams(r, defaultWindowsPerPage)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid paging", err)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	forEmail := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email")))

	windows, err := h.Windower.WindowsPage(page, per, h.now())
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	resp := BiweeklyReportResponse{Page: page, Per: per, IsAdmin: caller.IsAdmin}
	for _, win := range windows {
		// Authorization restriction happens here, at fetch time; the
		// report builder trusts the event set it is handed.
		restrictTo := ""
		if !caller.IsAdmin {
			restrictTo = caller.Email
		} else if forEmail != "" {
			restrictTo = forEmail
		}

		events, err := h.Store.LoadWindow(r.Context(), win.Start, win.EndExclusive, restrictTo)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load events", err)
			return
		}

		report := clock.BuildReport(win, events, caller.IsAdmin, caller.Email, q, h.Zone)
		resp.Windows = append(resp.Windows, toReportDTO(report))
	}

	writeJSON(w, http.StatusOK, resp)
}

// RunBiweeklyReport is the cron-facing trigger for the report mail.
// Guarded by a shared secret; skips unless forced on non-Sundays and
// off-parity cycles.
// POST /api/reports/biweekly/run?force=1&dryRun=1
func (h *Handler) RunBiweeklyReport(w http.ResponseWriter, r *http.Request) {
	if h.Reporter == nil {
		writeError(w, http.StatusServiceUnavailable, "Report delivery not configured", nil)
		return
	}
	if secret := r.Header.Get("X-Cron-Secret"); secret == "" || secret != h.Reporter.CronSecret {
		writeError(w, http.StatusUnauthorized, "Unauthorized", nil)
		return
	}

	var req RunReportRequest
	_ = json.NewDecoder(r.Body).Decode(&req) // flags optional; body may be empty
	force := req.Force || r.URL.Query().Get("force") == "1"
	dryRun := req.DryRun || r.URL.Query().Get("dryRun") == "1"

	outcome, err := h.Reporter.Run(r.Context(), h.now(), force, dryRun)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Report run failed", err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// =============================================================================
// HELPERS
// =============================================================================

// pagingParams parses page/per with defaults, rejecting non-positive
// values. per is capped to keep report fan-out bounded.
func pagingParams(r *http.Request, defaultPer int) (page, per int, err error) {
	page, per = 1, defaultPer

	if s := r.URL.Query().Get("page"); s != "" {
		if page, err = strconv.Atoi(s); err != nil || page <= 0 {
			return 0, 0, clock.ErrInvalidPaging
		}
	}
	if s := r.URL.Query().Get("per"); s != "" {
		if per, err = strconv.Atoi(s); err != nil || per <= 0 {
			return 0, 0, clock.ErrInvalidPaging
		}
	}
	if per > maxWindowsPerPage {
		per = maxWindowsPerPage
	}
	return page, per, nil
}

// writeEngineError maps engine rejections to HTTP status, preserving the
// specific kind in the message.
func (h *Handler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case clock.IsConfiguration(err):
		h.Log.Error("configuration fault", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server misconfigured: site lat/lon not set", err)
	case clock.IsForbidden(err):
		writeError(w, http.StatusForbidden, err.Error(), nil)
	case clock.IsConflict(err):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case clock.IsClientError(err):
		writeError(w, http.StatusBadRequest, err.Error(), nil)
	default:
		h.Log.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func remoteIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
