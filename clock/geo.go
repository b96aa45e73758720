/*
geo.go - Geofence and accuracy admission control

PURPOSE:
  Decides whether a reported location is admissible against the configured
  work-site geofence. Pure function of its inputs; the rejection policy for
  an out-of-fence result lives in the caller (see ingest.go).

DISTANCE:
  Great-circle distance via the haversine formula with a mean Earth radius
  of 6,371,000 meters. Good to well under a meter at geofence scales.

SEE ALSO:
  - ingest.go: Applies the rejection policy and persists the audit fields
  - errors.go: AccuracyError, GeofenceError
*/
package clock

import (
	"math"
)

const earthRadiusMeters = 6371000

// GeoResult is the outcome of a geofence evaluation.
type GeoResult struct {
	DistanceMeters float64
	WithinFence    bool
}

// EvaluateGeo validates a reported location against the site.
//
// Returns ErrBadConfiguration if the site coordinates are not finite,
// ErrMissingLocation if the reported coordinates are not finite, and
// AccuracyError if a reported accuracy radius exceeds the configured floor.
// An out-of-fence location is NOT an error here: WithinFence is reported
// and the caller decides rejection.
func EvaluateGeo(site Site, lat, lon float64, accuracy *float64) (GeoResult, error) {
	if !finite(site.Latitude) || !finite(site.Longitude) {
		return GeoResult{}, ErrBadConfiguration
	}
	if !finite(lat) || !finite(lon) {
		return GeoResult{}, ErrMissingLocation
	}
	if site.MinAccuracyMeters > 0 && accuracy != nil && *accuracy > site.MinAccuracyMeters {
		return GeoResult{}, &AccuracyError{ReportedMeters: *accuracy, MinMeters: site.MinAccuracyMeters}
	}

	d := Haversine(lat, lon, site.Latitude, site.Longitude)
	within := site.FenceRadiusMeters <= 0 || d <= site.FenceRadiusMeters
	return GeoResult{DistanceMeters: d, WithinFence: within}, nil
}

// Haversine returns the great-circle distance in meters between two
// coordinate pairs given in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*sinLon*sinLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMeters * c
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
