/*
ingest.go - Event submission orchestration

PURPOSE:
  The single write path into the ledger: geofence/accuracy admission, a
  fresh re-read of the day's status, the ordering gate, and the append,
  in this order.

RACES:
  The day status is re-read on every submission, never cached. Two rapid
  double-submits can still both pass the gate; the store's uniqueness
  constraint serializes them and the loser gets DuplicateActionError, as
  if the gate had caught it.

SEE ALSO:
  - geo.go: Admission control
  - gate.go: Ordering state machine
  - store.go: EventStore contract
*/
package clock

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubmitRequest carries one clock submission.
type SubmitRequest struct {
	UserKey  string
	UserName string

	Action     string // raw label; parsed strictly
	OccurredAt time.Time
	DayKey     string // client-supplied civil date, authoritative for sequencing

	Latitude  float64
	Longitude float64
	Accuracy  *float64

	UserAgent string
	RemoteIP  string
}

// AdmissionResult reports a successful submission.
type AdmissionResult struct {
	Event          ClockEvent
	DistanceMeters float64
	WithinGeofence bool

	// Status is the post-admission day state, for the caller's next UI.
	Status DayStatusFlags
}

// Ingestor validates and appends clock events. Stateless apart from its
// immutable collaborators; safe for concurrent use.
type Ingestor struct {
	site  Site
	zone  Zone
	store EventStore

	// now is swappable for tests.
	now func() time.Time
}

// NewIngestor wires the single write path.
func NewIngestor(site Site, zone Zone, store EventStore) *Ingestor {
	return &Ingestor{site: site, zone: zone, store: store, now: time.Now}
}

// Submit runs the full admission pipeline and appends the event.
//
// Rejections keep their specific kind: configuration faults, missing
// location, low accuracy, out-of-fence, unknown action, duplicate and
// out-of-order all surface as distinct errors from errors.go.
func (in *Ingestor) Submit(ctx context.Context, req SubmitRequest) (AdmissionResult, error) {
	userKey := strings.ToLower(strings.TrimSpace(req.UserKey))
	if userKey == "" {
		return AdmissionResult{}, ErrMissingUser
	}

	action, err := ParseAction(req.Action)
	if err != nil {
		return AdmissionResult{}, err
	}

	geo, err := EvaluateGeo(in.site, req.Latitude, req.Longitude, req.Accuracy)
	if err != nil {
		return AdmissionResult{}, err
	}
	if !geo.WithinFence {
		return AdmissionResult{}, &GeofenceError{
			DistanceMeters: geo.DistanceMeters,
			FenceMeters:    in.site.FenceRadiusMeters,
		}
	}

	occurredAt := req.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = in.now()
	}
	dayKey := req.DayKey
	if dayKey == "" {
		dayKey = in.zone.DayKey(occurredAt)
	}

	// Authoritative snapshot: re-read, never cached.
	actions, err := in.store.DayActions(ctx, userKey, dayKey)
	if err != nil {
		return AdmissionResult{}, err
	}
	status, err := FlagsFromActions(actions).Admit(action)
	if err != nil {
		return AdmissionResult{}, err
	}

	event := ClockEvent{
		ID:             uuid.NewString(),
		UserKey:        userKey,
		UserName:       strings.TrimSpace(req.UserName),
		Action:         action,
		OccurredAt:     occurredAt,
		DayKey:         dayKey,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		Accuracy:       req.Accuracy,
		DistanceMeters: geo.DistanceMeters,
		WithinGeofence: geo.WithinFence,
		UserAgent:      req.UserAgent,
		RemoteIP:       req.RemoteIP,
		CreatedAt:      in.now(),
	}

	if err := in.store.Append(ctx, event); err != nil {
		return AdmissionResult{}, err
	}

	return AdmissionResult{
		Event:          event,
		DistanceMeters: geo.DistanceMeters,
		WithinGeofence: geo.WithinFence,
		Status:         status,
	}, nil
}

// DayStatus returns the presence flags for (userKey, dayKey) from the
// authoritative store snapshot.
func (in *Ingestor) DayStatus(ctx context.Context, userKey, dayKey string) (DayStatusFlags, error) {
	actions, err := in.store.DayActions(ctx, strings.ToLower(strings.TrimSpace(userKey)), dayKey)
	if err != nil {
		return DayStatusFlags{}, err
	}
	return FlagsFromActions(actions), nil
}
