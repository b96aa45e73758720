/*
gate.go - Per-day action ordering state machine

PURPOSE:
  Decides whether a new clock action is admissible for a (user, day) given
  which actions that day has already recorded. The state is just four
  presence flags; the machine enforces Entry -> Lunch -> Exit ordering and
  rejects duplicates.

TRANSITIONS:
  Entry       admissible iff !hasEntry
  LunchStart  admissible iff hasEntry && !hasLunchStart
  LunchEnd    admissible iff hasLunchStart && !hasLunchEnd
  Exit        admissible iff hasEntry && !hasExit   (lunch is optional)

RACES:
  The gate only decides; it does not persist. The check-then-append sequence
  is serialized by the store's unique (user, day, action) index, so a lost
  race between two concurrent submissions surfaces as DuplicateActionError
  at append time. See store/sqlite.

SEE ALSO:
  - ingest.go: Evaluates the gate against a freshly re-read day snapshot
  - errors.go: DuplicateActionError, OutOfOrderError
*/
package clock

// DayStatusFlags records which actions a (user, day) has already logged.
// Derived by scanning the day's events; ephemeral, never persisted.
type DayStatusFlags struct {
	HasEntry      bool `json:"hasEntry"`
	HasLunchStart bool `json:"hasLunchStart"`
	HasLunchEnd   bool `json:"hasLunchEnd"`
	HasExit       bool `json:"hasExit"`
}

// FlagsFromActions derives day status from the day's recorded actions.
func FlagsFromActions(actions []Action) DayStatusFlags {
	var f DayStatusFlags
	for _, a := range actions {
		switch a {
		case ActionEntry:
			f.HasEntry = true
		case ActionLunchStart:
			f.HasLunchStart = true
		case ActionLunchEnd:
			f.HasLunchEnd = true
		case ActionExit:
			f.HasExit = true
		}
	}
	return f
}

// Admit decides whether action is admissible given the current flags.
// On admission it returns the flags with the action's bit set, for the
// caller to hand back as the post-admission day state. On rejection the
// flags are returned unchanged alongside the specific error.
func (f DayStatusFlags) Admit(action Action) (DayStatusFlags, error) {
	switch action {
	case ActionEntry:
		if f.HasEntry {
			return f, &DuplicateActionError{Action: ActionEntry}
		}
		f.HasEntry = true

	case ActionLunchStart:
		if !f.HasEntry {
			return f, &OutOfOrderError{Action: ActionLunchStart, Requires: ActionEntry}
		}
		if f.HasLunchStart {
			return f, &DuplicateActionError{Action: ActionLunchStart}
		}
		f.HasLunchStart = true

	case ActionLunchEnd:
		if !f.HasLunchStart {
			return f, &OutOfOrderError{Action: ActionLunchEnd, Requires: ActionLunchStart}
		}
		if f.HasLunchEnd {
			return f, &DuplicateActionError{Action: ActionLunchEnd}
		}
		f.HasLunchEnd = true

	case ActionExit:
		if !f.HasEntry {
			return f, &OutOfOrderError{Action: ActionExit, Requires: ActionEntry}
		}
		if f.HasExit {
			return f, &DuplicateActionError{Action: ActionExit}
		}
		f.HasExit = true

	default:
		return f, &UnknownActionError{Label: string(action)}
	}

	return f, nil
}
