/*
errors.go - Centralized error types for the time-clock engine

PURPOSE:
  All engine error types in one place. Callers branch on sentinels with
  errors.Is() and recover detail through the structured wrappers with
  errors.As().

ERROR CATEGORIES:
  1. Configuration errors - Fatal, not retryable (server misconfigured)
  2. Admission errors     - User-facing rejections (location, accuracy, fence)
  3. Sequencing errors    - Duplicate or out-of-order actions (conflict)
  4. Caller errors        - Invalid paging, unknown action labels

SEE ALSO:
  - geo.go: Produces configuration/admission errors
  - gate.go: Produces sequencing errors
  - window.go: Produces paging errors
*/
package clock

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBadConfiguration means the server-side site coordinates are unset
	// or not finite. Fatal: no submission may be accepted in this state.
	ErrBadConfiguration = errors.New("server misconfigured: site coordinates not set")

	// ErrMissingLocation means the client supplied no usable coordinates.
	ErrMissingLocation = errors.New("geolocation required")

	// ErrMissingUser means the submission carried no caller identity.
	// Identity is the auth collaborator's job; this guards against wiring
	// mistakes, not users.
	ErrMissingUser = errors.New("user identity required")

	// ErrAccuracyTooLow means the reported accuracy radius exceeds the
	// configured minimum. Retryable after the user moves to open sky.
	ErrAccuracyTooLow = errors.New("location accuracy too low")

	// ErrOutsideGeofence means the event was clocked beyond the fence radius.
	ErrOutsideGeofence = errors.New("outside geofence")

	// ErrDuplicateAction means the action was already recorded for the day.
	ErrDuplicateAction = errors.New("action already recorded today")

	// ErrOutOfOrder means a prerequisite action has not been recorded yet.
	ErrOutOfOrder = errors.New("action out of order")

	// ErrInvalidPaging means the caller asked for a non-positive page or
	// page size.
	ErrInvalidPaging = errors.New("invalid paging")

	// ErrUnknownAction means the submitted action label is not one of the
	// canonical four (or a recognized historic variant).
	ErrUnknownAction = errors.New("unknown action")
)

// =============================================================================
// STRUCTURED ERRORS - Carry context for human-readable messages
// =============================================================================

// AccuracyError reports a device accuracy radius above the configured floor.
type AccuracyError struct {
	ReportedMeters float64
	MinMeters      float64
}

func (e *AccuracyError) Error() string {
	return fmt.Sprintf("location accuracy too low (±%.0fm, need ≤%.0fm); move to an open area and retry",
		e.ReportedMeters, e.MinMeters)
}

func (e *AccuracyError) Unwrap() error { return ErrAccuracyTooLow }

// GeofenceError reports a clock attempt from outside the fence.
type GeofenceError struct {
	DistanceMeters float64
	FenceMeters    float64
}

func (e *GeofenceError) Error() string {
	return fmt.Sprintf("outside geofence (≈%.0fm from site, fence %.0fm); you must be on-site to clock",
		e.DistanceMeters, e.FenceMeters)
}

func (e *GeofenceError) Unwrap() error { return ErrOutsideGeofence }

// DuplicateActionError reports which action conflicted.
type DuplicateActionError struct {
	Action Action
}

func (e *DuplicateActionError) Error() string {
	return fmt.Sprintf("%s already recorded for this day", e.Action)
}

func (e *DuplicateActionError) Unwrap() error { return ErrDuplicateAction }

// OutOfOrderError reports which prerequisite is missing.
type OutOfOrderError struct {
	Action   Action
	Requires Action
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("%s required before %s", e.Requires, e.Action)
}

func (e *OutOfOrderError) Unwrap() error { return ErrOutOfOrder }

// UnknownActionError reports the rejected label.
type UnknownActionError struct {
	Label string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("unknown action %q", e.Label)
}

func (e *UnknownActionError) Unwrap() error { return ErrUnknownAction }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfiguration reports a fatal server-side misconfiguration.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrBadConfiguration)
}

// IsClientError reports rejections caused by client input or device state.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingLocation) ||
		errors.Is(err, ErrMissingUser) ||
		errors.Is(err, ErrAccuracyTooLow) ||
		errors.Is(err, ErrUnknownAction) ||
		errors.Is(err, ErrInvalidPaging)
}

// IsConflict reports sequencing rejections (duplicate / out-of-order);
// retryable only by choosing a different action.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateAction) || errors.Is(err, ErrOutOfOrder)
}

// IsForbidden reports geofence rejections.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrOutsideGeofence)
}
