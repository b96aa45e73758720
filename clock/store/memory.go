// Package store provides EventStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/timeclock-engine/clock"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu     sync.RWMutex
	events []clock.ClockEvent
	seen   map[tripleKey]bool
}

type tripleKey struct {
	UserKey string
	DayKey  string
	Action  clock.Action
}

func NewMemory() *Memory {
	return &Memory{seen: make(map[tripleKey]bool)}
}

// Append adds one event. Enforces the same (user, day, action) uniqueness
// the sqlite store enforces with its unique index.
func (m *Memory) Append(_ context.Context, e clock.ClockEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := tripleKey{UserKey: e.UserKey, DayKey: e.DayKey, Action: e.Action}
	if m.seen[k] {
		return &clock.DuplicateActionError{Action: e.Action}
	}
	m.seen[k] = true
	m.events = append(m.events, e)
	return nil
}

func (m *Memory) DayActions(_ context.Context, userKey, dayKey string) ([]clock.Action, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var actions []clock.Action
	for _, e := range m.events {
		if e.UserKey == userKey && e.DayKey == dayKey {
			actions = append(actions, e.Action)
		}
	}
	return actions, nil
}

func (m *Memory) LoadWindow(_ context.Context, from, to time.Time, userKey string) ([]clock.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []clock.ClockEvent
	for _, e := range m.events {
		if e.OccurredAt.Before(from) || !e.OccurredAt.Before(to) {
			continue
		}
		if userKey != "" && e.UserKey != userKey {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

func (m *Memory) LoadDayRange(_ context.Context, startKey, endKeyExclusive string) ([]clock.ClockEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []clock.ClockEvent
	for _, e := range m.events {
		if e.DayKey >= startKey && e.DayKey < endKeyExclusive {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.UserKey != b.UserKey {
			return a.UserKey < b.UserKey
		}
		if a.DayKey != b.DayKey {
			return a.DayKey < b.DayKey
		}
		return a.OccurredAt.Before(b.OccurredAt)
	})
	return out, nil
}

func (m *Memory) CountEvents(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.events)), nil
}
