/*
export.go - Admin exports over a civil-day range

PURPOSE:
  Streams the aggregated daily rows for an arbitrary [start, end) day-key
  range as CSV or as an XLSX workbook (Summary + Details sheets). Admin
  only: exports span all users.

SEE ALSO:
  - clock/aggregate.go: The reduction these render
  - report_mail.go: The CSV shape shared with the mailed report
*/
package api

import (
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/clock"
)

var dayKeyPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ExportCSV streams daily aggregates for [start, end) as CSV.
// GET /api/admin/export?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.exportParams(w, r)
	if !ok {
		return
	}

	events, err := h.Store.LoadDayRange(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load events", err)
		return
	}

	report := clock.BuildReport(clock.DayWindow{StartKey: start, EndKeyExclusive: end}, events, true, "", "", h.Zone)

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=export_%s_%s.csv`, start, end))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderDetailsCSV(report))
}

// ExportXLSX streams daily aggregates for [start, end) as an XLSX workbook
// with a Summary sheet (per-user totals) and a Details sheet (daily rows).
// GET /api/admin/export.xlsx?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.exportParams(w, r)
	if !ok {
		return
	}

	events, err := h.Store.LoadDayRange(r.Context(), start, end)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load events", err)
		return
	}

	report := clock.BuildReport(clock.DayWindow{StartKey: start, EndKeyExclusive: end}, events, true, "", "", h.Zone)

	book, err := buildWorkbook(report)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build workbook", err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=export_%s_%s.xlsx`, start, end))
	w.WriteHeader(http.StatusOK)
	if err := book.Write(w); err != nil {
		h.Log.Error("xlsx write failed", zap.Error(err))
	}
}

// exportParams validates admin capability and the day-key range.
func (h *Handler) exportParams(w http.ResponseWriter, r *http.Request) (start, end string, ok bool) {
	caller, authed := CallerFrom(r.Context())
	if !authed {
		writeError(w, http.StatusUnauthorized, "Please sign in", nil)
		return "", "", false
	}
	if !caller.IsAdmin {
		writeError(w, http.StatusForbidden, "Admin only", nil)
		return "", "", false
	}

	start = strings.TrimSpace(r.URL.Query().Get("start"))
	end = strings.TrimSpace(r.URL.Query().Get("end"))
	if !dayKeyPattern.MatchString(start) || !dayKeyPattern.MatchString(end) {
		writeError(w, http.StatusBadRequest, "Missing or invalid start/end (use YYYY-MM-DD)", nil)
		return "", "", false
	}
	if end <= start {
		writeError(w, http.StatusBadRequest, "end must be after start", nil)
		return "", "", false
	}
	return start, end, true
}

func buildWorkbook(report clock.Report) (*excelize.File, error) {
	f := excelize.NewFile()

	const summary = "Summary"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return nil, err
	}
	summaryHeader := []any{"Name", "Email", "Hours", "Minutes", "Days"}
	if err := f.SetSheetRow(summary, "A1", &summaryHeader); err != nil {
		return nil, err
	}
	for i, t := range report.Totals {
		hours, _ := t.Hours().Float64()
		row := []any{t.UserName, t.UserKey, hours, t.Minutes, t.Days}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(summary, cell, &row); err != nil {
			return nil, err
		}
	}

	const details = "Details"
	if _, err := f.NewSheet(details); err != nil {
		return nil, err
	}
	detailsHeader := []any{"User", "Email", "Day", "Entry (UTC)", "LunchStart (UTC)", "LunchEnd (UTC)", "Exit (UTC)", "Minutes", "Anomalies"}
	if err := f.SetSheetRow(details, "A1", &detailsHeader); err != nil {
		return nil, err
	}
	for i, d := range report.Daily {
		anomalies := make([]string, len(d.Anomalies))
		for j, a := range d.Anomalies {
			anomalies[j] = string(a)
		}
		row := []any{
			d.UserName, d.UserKey, d.DayKey,
			isoOrEmpty(d.EntryAt), isoOrEmpty(d.LunchStartAt), isoOrEmpty(d.LunchEndAt), isoOrEmpty(d.ExitAt),
			d.MinutesWorked, strings.Join(anomalies, ";"),
		}
		cell := "A" + strconv.Itoa(i+2)
		if err := f.SetSheetRow(details, cell, &row); err != nil {
			return nil, err
		}
	}

	return f, nil
}
