/*
store.go - Persistence interface for the clock-event ledger

PURPOSE:
  Defines the interface between the engine and the event store. The ledger
  is APPEND-ONLY: no update or delete methods exist. Corrections and
  exports are external concerns.

SERIALIZATION CONTRACT:
  Implementations MUST reject a second append for the same
  (user key, day key, action) with clock.DuplicateActionError in a single
  round trip. This is what makes the gate's check-then-append race-safe:
  two concurrent double-submits both pass the gate, one append wins, the
  other fails fast with the same error the gate would have produced.

IMPLEMENTATIONS:
  - store/sqlite: Production store, unique index on (user_key, day_key, action)
  - clock/store:  In-memory store for tests

SEE ALSO:
  - ingest.go: The only writer
  - store/sqlite/sqlite.go
*/
package clock

import (
	"context"
	"time"
)

// EventStore persists and queries clock events.
type EventStore interface {
	// Append persists one event. Returns DuplicateActionError if the
	// (UserKey, DayKey, Action) triple already exists. The ONLY write.
	Append(ctx context.Context, e ClockEvent) error

	// DayActions returns the actions already recorded for (userKey, dayKey),
	// in insertion order. Used as the gate's authoritative day snapshot.
	DayActions(ctx context.Context, userKey, dayKey string) ([]Action, error)

	// LoadWindow returns events with OccurredAt in [from, to), ordered by
	// OccurredAt ascending. userKey restricts to one user when non-empty.
	LoadWindow(ctx context.Context, from, to time.Time, userKey string) ([]ClockEvent, error)

	// LoadDayRange returns events with DayKey in [startKey, endKeyExclusive),
	// ordered by user key, day key, then OccurredAt. Used by exports.
	LoadDayRange(ctx context.Context, startKey, endKeyExclusive string) ([]ClockEvent, error)

	// CountEvents returns the total number of stored events.
	CountEvents(ctx context.Context) (int64, error)
}
