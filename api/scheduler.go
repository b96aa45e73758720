/*
scheduler.go - Automated bi-weekly report scheduler

PURPOSE:
  Periodically checks whether the bi-weekly report mail is due and fires
  it. Deployments without an external cron get delivery for free; the
  Reporter's own guards (Sunday, parity, last-sent cycle) make the hourly
  check idempotent.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Delegates all schedule decisions to Reporter.Run (never forced)
  - Safe to run alongside the cron endpoint; the last-sent marker
    prevents double delivery

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReportScheduler(reporter, log)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - report_mail.go: Reporter.Run and its guards
  - handlers.go: RunBiweeklyReport (manual/cron trigger)
*/
package api

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReportScheduler fires the bi-weekly report when due.
type ReportScheduler struct {
	Reporter      *Reporter
	CheckInterval time.Duration
	Enabled       bool
	Log           *zap.Logger

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewReportScheduler creates a new scheduler.
func NewReportScheduler(reporter *Reporter, log *zap.Logger) *ReportScheduler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReportScheduler{
		Reporter:      reporter,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		Log:           log,
		stop:          make(chan struct{}),
	}
}

// Start begins the scheduler.
func (rs *ReportScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info("report scheduler disabled, not starting")
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.wg.Add(1)

	go rs.run()

	rs.Log.Info("report scheduler started", zap.Duration("interval", rs.CheckInterval))
}

// Stop stops the scheduler.
func (rs *ReportScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker != nil {
		rs.ticker.Stop()
		close(rs.stop)
		rs.wg.Wait()
		rs.Log.Info("report scheduler stopped")
	}
}

func (rs *ReportScheduler) run() {
	defer rs.wg.Done()

	// Check immediately on start
	rs.check()

	for {
		select {
		case <-rs.ticker.C:
			rs.check()
		case <-rs.stop:
			return
		}
	}
}

func (rs *ReportScheduler) check() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	outcome, err := rs.Reporter.Run(ctx, time.Now(), false, false)
	if err != nil {
		rs.Log.Error("scheduled report run failed", zap.Error(err))
		return
	}
	if outcome.Skipped {
		rs.Log.Debug("scheduled report skipped", zap.String("reason", outcome.Reason), zap.Int("cycle", outcome.Cycle))
	}
}
