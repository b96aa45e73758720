/*
Package config loads and validates service configuration.

PURPOSE:
  One immutable Config built at startup from the environment (plus an
  optional .env file for local development). The server refuses to start
  while site coordinates are unset: accepting submissions in that state
  would record events nobody can audit against the fence.

RECOGNIZED OPTIONS:
  SITE_LAT, SITE_LON          Work-site coordinates (required, no default)
  GEOFENCE_METERS             Fence radius; 0 disables (default 0)
  MIN_ACCURACY_METERS         Accuracy floor; 0 disables (default 0)
  TIMECLOCK_TZ                IANA zone (default America/Toronto)
  ANCHOR_DATE                 Pay-cycle anchor Sunday (default 2025-07-27)
  PORT, DB_PATH               Serving basics
  ADMIN_EMAILS                Comma-separated admin allowlist
  CRON_SECRET                 Shared secret for the report trigger endpoint
  BIWEEKLY_PARITY             "odd"/"even" to mail only alternating cycles
  REPORT_RECIPIENT            Where the bi-weekly report mail goes
  LOG_LEVEL                   zap level (default info)

SEE ALSO:
  - clock/errors.go: ErrBadConfiguration (fatal, not retryable)
  - cmd/server/main.go: The only consumer
*/
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"

	"github.com/warp/timeclock-engine/clock"
)

// Config is the full service configuration. Built once, never mutated.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"timeclock.db"`

	// Geofence. NaN defaults force explicit configuration.
	SiteLat           float64 `env:"SITE_LAT" envDefault:"nan"`
	SiteLon           float64 `env:"SITE_LON" envDefault:"nan"`
	GeofenceMeters    float64 `env:"GEOFENCE_METERS" envDefault:"0"`
	MinAccuracyMeters float64 `env:"MIN_ACCURACY_METERS" envDefault:"0"`

	// Civil calendar.
	TimeZoneName string `env:"TIMECLOCK_TZ" envDefault:"America/Toronto"`
	AnchorDate   string `env:"ANCHOR_DATE" envDefault:"2025-07-27"`

	// Authorization capability input (identity itself arrives per request
	// from the upstream auth layer).
	AdminEmails string `env:"ADMIN_EMAILS" envDefault:""`

	// Bi-weekly report delivery.
	CronSecret      string `env:"CRON_SECRET" envDefault:""`
	BiweeklyParity  string `env:"BIWEEKLY_PARITY" envDefault:""`
	ReportRecipient string `env:"REPORT_RECIPIENT" envDefault:""`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if present) and the environment.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the fatal invariants. A failure here must stop startup.
func (c Config) Validate() error {
	if math.IsNaN(c.SiteLat) || math.IsInf(c.SiteLat, 0) ||
		math.IsNaN(c.SiteLon) || math.IsInf(c.SiteLon, 0) {
		return fmt.Errorf("%w: SITE_LAT/SITE_LON must be set to finite degrees", clock.ErrBadConfiguration)
	}
	if c.SiteLat < -90 || c.SiteLat > 90 || c.SiteLon < -180 || c.SiteLon > 180 {
		return fmt.Errorf("%w: SITE_LAT/SITE_LON out of range", clock.ErrBadConfiguration)
	}
	if _, err := clock.NewZone(c.TimeZoneName); err != nil {
		return fmt.Errorf("%w: %v", clock.ErrBadConfiguration, err)
	}
	if p := strings.ToLower(c.BiweeklyParity); p != "" && p != "odd" && p != "even" {
		return fmt.Errorf("%w: BIWEEKLY_PARITY must be empty, \"odd\" or \"even\"", clock.ErrBadConfiguration)
	}
	return nil
}

// Site builds the geofence description.
func (c Config) Site() clock.Site {
	return clock.Site{
		Latitude:          c.SiteLat,
		Longitude:         c.SiteLon,
		FenceRadiusMeters: c.GeofenceMeters,
		MinAccuracyMeters: c.MinAccuracyMeters,
	}
}

// AdminSet returns the lowercased admin allowlist.
func (c Config) AdminSet() map[string]bool {
	set := make(map[string]bool)
	for _, e := range strings.Split(c.AdminEmails, ",") {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = true
		}
	}
	return set
}
