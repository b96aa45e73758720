/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the time-clock engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (.env supported)
  2. Validate fatal invariants (site coordinates, zone, anchor)
  3. Build zap logger
  4. Initialize SQLite store
  5. Wire ingestor, windower, reporter, handler
  6. Start HTTP server and report scheduler with graceful shutdown

FATAL CONFIGURATION:
  The server refuses to start while SITE_LAT/SITE_LON are unset or not
  finite. Accepting clock events without a site to audit against would
  corrupt the ledger's geofence trail.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the report scheduler
  4. Close the database

SEE ALSO:
  - config/config.go: Recognized options
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/warp/timeclock-engine/api"
	"github.com/warp/timeclock-engine/clock"
	"github.com/warp/timeclock-engine/config"
	"github.com/warp/timeclock-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)
	defer log.Sync()

	zone, err := clock.NewZone(cfg.TimeZoneName)
	if err != nil {
		log.Fatal("invalid time zone", zap.Error(err))
	}
	windower, err := clock.NewWindower(zone, cfg.AnchorDate)
	if err != nil {
		log.Fatal("invalid anchor date", zap.Error(err))
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	ingestor := clock.NewIngestor(cfg.Site(), zone, store)

	reporter := &api.Reporter{
		Store:      store,
		Windower:   windower,
		Zone:       zone,
		Mailer:     &api.LogMailer{Log: log},
		Log:        log,
		CronSecret: cfg.CronSecret,
		Parity:     cfg.BiweeklyParity,
		Recipient:  cfg.ReportRecipient,
	}

	handler := api.NewHandler(store, ingestor, windower, cfg.AdminSet(), reporter, log)
	router := api.NewRouter(handler)

	scheduler := api.NewReportScheduler(reporter, log)
	scheduler.Enabled = cfg.ReportRecipient != ""
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.Port),
			zap.String("zone", zone.Name()),
			zap.String("anchor", windower.AnchorDate()),
			zap.Float64("fence_m", cfg.GeofenceMeters),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func newLogger(level string) *zap.Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	log, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	return log
}
