/*
report_mail.go - Bi-weekly report rendering and delivery

PURPOSE:
  Builds the current pay cycle's report, renders summary and detail CSVs,
  and hands them to a Mailer. Actual SMTP delivery is an external
  collaborator; the Mailer interface is the seam, and the default
  implementation just logs.

SCHEDULE GUARDS:
  Delivery is meant to fire on the local Sunday that starts a new cycle.
  Run() enforces two guards unless forced:
  - local-Sunday guard (the cron may fire daily)
  - optional cycle parity ("odd"/"even") for deployments whose payroll
    only wants every other Sunday

  A last-sent cycle marker prevents double delivery when both the
  scheduler and the cron endpoint fire in the same window.

SEE ALSO:
  - scheduler.go: Background goroutine calling Run() hourly
  - handlers.go: RunBiweeklyReport (cron endpoint calling Run())
*/
package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/warp/timeclock-engine/clock"
)

// Attachment is one file handed to the Mailer.
type Attachment struct {
	Filename string
	Content  []byte
}

// Mailer delivers a rendered report. Implementations live outside the
// engine; LogMailer is the in-tree default.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string, attachments []Attachment) error
}

// LogMailer logs instead of sending. Used until real delivery is wired.
type LogMailer struct {
	Log *zap.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string, attachments []Attachment) error {
	names := make([]string, len(attachments))
	for i, a := range attachments {
		names[i] = fmt.Sprintf("%s (%d bytes)", a.Filename, len(a.Content))
	}
	m.Log.Info("report mail (log-only delivery)",
		zap.String("to", to),
		zap.String("subject", subject),
		zap.Strings("attachments", names),
	)
	return nil
}

// Reporter builds and delivers the bi-weekly report.
type Reporter struct {
	Store    clock.EventStore
	Windower *clock.Windower
	Zone     clock.Zone
	Mailer   Mailer
	Log      *zap.Logger

	CronSecret string
	Parity     string // "", "odd" or "even"
	Recipient  string

	mu            sync.Mutex
	lastSentCycle *int
}

// Run evaluates the schedule guards and, when due, builds the current
// window's report and mails it. force bypasses the guards; dryRun builds
// but does not mail.
func (rp *Reporter) Run(ctx context.Context, now time.Time, force, dryRun bool) (RunReportResponse, error) {
	win := rp.Windower.CurrentWindow(now)

	if !force && !rp.Zone.IsSunday(now) {
		rp.Log.Info("biweekly report skipped", zap.String("reason", "not Sunday"), zap.Int("cycle", win.CycleIndex))
		return RunReportResponse{OK: true, Skipped: true, Reason: "not Sunday", Cycle: win.CycleIndex}, nil
	}

	if !force && rp.Parity != "" {
		wantOdd := strings.EqualFold(rp.Parity, "odd")
		isOdd := mod(win.CycleIndex, 2) == 1
		if wantOdd != isOdd {
			rp.Log.Info("biweekly report skipped", zap.String("reason", "off-week"), zap.Int("cycle", win.CycleIndex))
			return RunReportResponse{OK: true, Skipped: true, Reason: "off-week", Cycle: win.CycleIndex}, nil
		}
	}

	rp.mu.Lock()
	alreadySent := rp.lastSentCycle != nil && *rp.lastSentCycle == win.CycleIndex
	rp.mu.Unlock()
	if !force && alreadySent {
		return RunReportResponse{OK: true, Skipped: true, Reason: "already sent", Cycle: win.CycleIndex}, nil
	}

	events, err := rp.Store.LoadWindow(ctx, win.Start, win.EndExclusive, "")
	if err != nil {
		return RunReportResponse{}, fmt.Errorf("load window events: %w", err)
	}

	report := clock.BuildReport(win, events, true, "", "", rp.Zone)
	summary := renderSummaryCSV(report)
	details := renderDetailsCSV(report)

	if dryRun {
		return RunReportResponse{OK: true, Cycle: win.CycleIndex, Window: win.Label()}, nil
	}

	subject := fmt.Sprintf("Bi-weekly Hours %s", win.Label())
	body := fmt.Sprintf("Bi-weekly hours report for %s: %d users, %d daily rows.",
		win.Label(), len(report.Totals), len(report.Daily))

	err = rp.Mailer.Send(ctx, rp.Recipient, subject, body, []Attachment{
		{Filename: fmt.Sprintf("summary_%s_%s.csv", win.StartKey, win.EndKeyExclusive), Content: summary},
		{Filename: fmt.Sprintf("details_%s_%s.csv", win.StartKey, win.EndKeyExclusive), Content: details},
	})
	if err != nil {
		return RunReportResponse{}, fmt.Errorf("send report: %w", err)
	}

	rp.mu.Lock()
	c := win.CycleIndex
	rp.lastSentCycle = &c
	rp.mu.Unlock()

	rp.Log.Info("biweekly report sent",
		zap.String("window", win.Label()),
		zap.Int("cycle", win.CycleIndex),
		zap.String("to", rp.Recipient),
	)
	return RunReportResponse{OK: true, Cycle: win.CycleIndex, Window: win.Label(), Mailed: true}, nil
}

// =============================================================================
// CSV RENDERING
// =============================================================================

func renderSummaryCSV(report clock.Report) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"Name", "Email", "Hours", "Minutes", "Days"})
	for _, t := range report.Totals {
		_ = w.Write([]string{
			t.UserName,
			t.UserKey,
			t.Hours().StringFixed(2),
			strconv.Itoa(t.Minutes),
			strconv.Itoa(t.Days),
		})
	}
	w.Flush()
	return buf.Bytes()
}

func renderDetailsCSV(report clock.Report) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{"User", "Email", "Day", "Entry (UTC)", "LunchStart (UTC)", "LunchEnd (UTC)", "Exit (UTC)", "Minutes", "Anomalies"})
	for _, d := range report.Daily {
		anomalies := make([]string, len(d.Anomalies))
		for i, a := range d.Anomalies {
			anomalies[i] = string(a)
		}
		_ = w.Write([]string{
			d.UserName,
			d.UserKey,
			d.DayKey,
			isoOrEmpty(d.EntryAt),
			isoOrEmpty(d.LunchStartAt),
			isoOrEmpty(d.LunchEndAt),
			isoOrEmpty(d.ExitAt),
			strconv.Itoa(d.MinutesWorked),
			strings.Join(anomalies, ";"),
		})
	}
	w.Flush()
	return buf.Bytes()
}

func isoOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// mod is a floored modulo: mod(-1, 2) == 1, so pre-anchor cycles keep a
// consistent parity sequence.
func mod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}
