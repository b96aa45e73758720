/*
Package sqlite provides a SQLite-backed implementation of the event store.

PURPOSE:
  Implements clock.EventStore using SQLite. In production the same patterns
  apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The store enforces append-only semantics:
  - No UPDATE statements on work_logs
  - No DELETE statements on work_logs
  - Exports and retention are external concerns

KEY TABLE:
  work_logs: Immutable ledger of all clock events, one row per admitted
  action, audit columns (distance, fence outcome, user agent, remote IP)
  preserved verbatim.

CONCURRENCY:
  The unique index idx_unique_day_action on (user_key, day_key, action)
  serializes the gate's check-then-append per (user, day) in a single round
  trip: the losing side of a double-submit fails fast and is mapped to
  clock.DuplicateActionError.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  multiple readers don't block, single writer at a time.

USAGE:
  store, err := sqlite.New("./data/timeclock.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - clock/store.go: Interface definition and serialization contract
  - clock/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/timeclock-engine/clock"
)

// Store implements clock.EventStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Clock events (append-only ledger)
	CREATE TABLE IF NOT EXISTS work_logs (
		id TEXT PRIMARY KEY,
		user_key TEXT NOT NULL,
		user_name TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		day_key TEXT NOT NULL,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		accuracy_m REAL,
		distance_m REAL NOT NULL,
		within_fence INTEGER NOT NULL,
		user_agent TEXT NOT NULL DEFAULT '',
		remote_ip TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- CRITICAL: one action per (user, local day). This is what serializes
	-- concurrent double-submits past the gate.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_unique_day_action
		ON work_logs(user_key, day_key, action);

	-- Day-status reads (hot path on every submission)
	CREATE INDEX IF NOT EXISTS idx_work_logs_user_day
		ON work_logs(user_key, day_key);

	-- Window queries by instant
	CREATE INDEX IF NOT EXISTS idx_work_logs_occurred
		ON work_logs(occurred_at);

	-- Export queries by civil day
	CREATE INDEX IF NOT EXISTS idx_work_logs_day
		ON work_logs(day_key);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// WRITES
// =============================================================================

// Append persists one event. The ONLY write.
func (s *Store) Append(ctx context.Context, e clock.ClockEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO work_logs
		(id, user_key, user_name, action, occurred_at, day_key,
		 latitude, longitude, accuracy_m, distance_m, within_fence,
		 user_agent, remote_ip, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.UserKey,
		e.UserName,
		string(e.Action),
		e.OccurredAt.UTC().Format(time.RFC3339Nano),
		e.DayKey,
		e.Latitude,
		e.Longitude,
		nullFloat(e.Accuracy),
		e.DistanceMeters,
		boolToInt(e.WithinGeofence),
		e.UserAgent,
		e.RemoteIP,
		createdAt.UTC().Format(time.RFC3339Nano),
	)

	if err != nil {
		if isUniqueConstraintError(err) {
			return &clock.DuplicateActionError{Action: e.Action}
		}
		return fmt.Errorf("failed to append event: %w", err)
	}

	return nil
}

// =============================================================================
// READS
// =============================================================================

// DayActions returns the actions recorded for (userKey, dayKey).
func (s *Store) DayActions(ctx context.Context, userKey, dayKey string) ([]clock.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT action FROM work_logs WHERE user_key = ? AND day_key = ? ORDER BY rowid`,
		userKey, dayKey,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query day actions: %w", err)
	}
	defer rows.Close()

	var actions []clock.Action
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		actions = append(actions, clock.Action(a))
	}
	return actions, rows.Err()
}

// LoadWindow returns events with occurred_at in [from, to).
func (s *Store) LoadWindow(ctx context.Context, from, to time.Time, userKey string) ([]clock.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + `
		WHERE occurred_at >= ? AND occurred_at < ?`
	args := []any{
		from.UTC().Format(time.RFC3339Nano),
		to.UTC().Format(time.RFC3339Nano),
	}
	if userKey != "" {
		query += ` AND user_key = ?`
		args = append(args, userKey)
	}
	query += ` ORDER BY occurred_at`

	return s.queryEvents(ctx, query, args...)
}

// LoadDayRange returns events with day_key in [startKey, endKeyExclusive).
func (s *Store) LoadDayRange(ctx context.Context, startKey, endKeyExclusive string) ([]clock.ClockEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := selectColumns + `
		WHERE day_key >= ? AND day_key < ?
		ORDER BY user_key, day_key, occurred_at`
	return s.queryEvents(ctx, query, startKey, endKeyExclusive)
}

// CountEvents returns the total number of stored events.
func (s *Store) CountEvents(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM work_logs`).Scan(&n)
	return n, err
}

const selectColumns = `
	SELECT id, user_key, user_name, action, occurred_at, day_key,
	       latitude, longitude, accuracy_m, distance_m, within_fence,
	       user_agent, remote_ip, created_at
	FROM work_logs`

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]clock.ClockEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []clock.ClockEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func scanEvent(rows *sql.Rows) (clock.ClockEvent, error) {
	var (
		e           clock.ClockEvent
		action      string
		occurredAt  string
		accuracy    sql.NullFloat64
		withinFence int
		createdAt   string
	)

	err := rows.Scan(
		&e.ID, &e.UserKey, &e.UserName, &action, &occurredAt, &e.DayKey,
		&e.Latitude, &e.Longitude, &accuracy, &e.DistanceMeters, &withinFence,
		&e.UserAgent, &e.RemoteIP, &createdAt,
	)
	if err != nil {
		return clock.ClockEvent{}, fmt.Errorf("failed to scan event: %w", err)
	}

	e.Action = clock.Action(action)
	e.WithinGeofence = withinFence != 0
	if accuracy.Valid {
		v := accuracy.Float64
		e.Accuracy = &v
	}
	if e.OccurredAt, err = time.Parse(time.RFC3339Nano, occurredAt); err != nil {
		return clock.ClockEvent{}, fmt.Errorf("bad occurred_at %q: %w", occurredAt, err)
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return clock.ClockEvent{}, fmt.Errorf("bad created_at %q: %w", createdAt, err)
	}
	return e, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
