// Package models defines the wire and domain types of the guest-desk
// client: visit entries with their lifecycle state, catalog entities, users
// and roles, and the snapshot/event payloads of the sync channel.
package models

import (
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/timex"
)

// State is the entry lifecycle code as the backend stores it. The numeric
// values are part of the wire contract and must not be renumbered.
type State int

const (
	StateDraft         State = 10
	StateCancelled     State = 20
	StateArrived       State = 30
	StateRejected      State = 40
	StatePendingResult State = 50
	StateEmployed      State = 60
)

// Phase is the lifecycle view over State: has the visit not happened yet,
// is it in progress, or is it settled.
type Phase int

const (
	PhaseDraft Phase = iota
	PhaseActive
	PhaseTerminal
)

// Outcome is the meeting-result view over State.
type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomePending
	OutcomeRejected
	OutcomeEmployed
)

// Phase maps the stored code to its lifecycle phase. Unknown codes resolve
// to PhaseTerminal so an unexpected state never looks editable.
func (s State) Phase() Phase {
	switch s {
	case StateDraft:
		return PhaseDraft
	case StateArrived, StatePendingResult:
		return PhaseActive
	default:
		return PhaseTerminal
	}
}

// Outcome maps the stored code to its meeting-result view.
func (s State) Outcome() Outcome {
	switch s {
	case StatePendingResult:
		return OutcomePending
	case StateRejected:
		return OutcomeRejected
	case StateEmployed:
		return OutcomeEmployed
	default:
		return OutcomeNone
	}
}

// IsCompleted reports whether the visit occurred: the entry advanced past
// draft and was not cancelled.
func (s State) IsCompleted() bool {
	return s == StateArrived || s.HasResult()
}

func (s State) IsCancelled() bool { return s == StateCancelled }

// HasResult reports whether a meeting result (including the interim pending
// one) is recorded.
func (s State) HasResult() bool { return s.Outcome() != OutcomeNone }

func (s State) String() string {
	switch s {
	case StateDraft:
		return "draft"
	case StateCancelled:
		return "cancelled"
	case StateArrived:
		return "arrived"
	case StateRejected:
		return "rejected"
	case StatePendingResult:
		return "pending_result"
	case StateEmployed:
		return "employed"
	default:
		return "unknown"
	}
}

// PassStatus tracks the physical access-pass workflow, an axis independent
// of State.
type PassStatus string

const (
	PassNone    PassStatus = "none"
	PassOrdered PassStatus = "ordered"
	PassFailed  PassStatus = "failed"
)

// Entry is a single visitor appointment. The backend owns it; the client
// only ever replaces whole entries with authoritative versions.
type Entry struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Responsible    string     `json:"responsible,omitempty"`
	Datetime       time.Time  `json:"datetime"`
	State          State      `json:"state"`
	VisitGoalIDs   []string   `json:"visit_goal_ids"`
	PassStatus     PassStatus `json:"pass_status"`
	ResultReasonID string     `json:"result_reason_id,omitempty"`
}

// DateKey returns the calendar-date bucket key the entry belongs to.
func (e *Entry) DateKey() string {
	return timex.DateKey(e.Datetime)
}

// VisitGoal is a catalog entity referenced by entries. Read-only here;
// administration screens own it.
type VisitGoal struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// Reason is a catalog entity attached to a meeting result.
type Reason struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ReferenceDates are the server-computed neighbors of today. Either side may
// be absent around holidays.
type ReferenceDates struct {
	PreviousWorkday string `json:"previous_workday,omitempty"`
	NextWorkday     string `json:"next_workday,omitempty"`
}

// CalendarDay is one visible day of the server-supplied calendar structure.
type CalendarDay struct {
	Date    string `json:"date"`
	Weekday string `json:"weekday"`
}

// Snapshot is a complete replacement view of all entries for the visible
// date range. Every sync-channel event carries one; the initial load fetches
// one over REST.
type Snapshot struct {
	Entries           []Entry        `json:"entries"`
	ReferenceDates    ReferenceDates `json:"reference_dates"`
	CalendarStructure []CalendarDay  `json:"calendar_structure"`
}
