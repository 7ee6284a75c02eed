// Package lifecycle is the single authority for entry state transitions.
// Every call site (menu construction, the command pipeline, tests) asks
// Check instead of re-deriving guard logic from numeric state codes.
package lifecycle

import (
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/perm"
	"github.com/underflow1/ce-guests-front-sub000/internal/timex"
)

// Action is a user-triggerable operation on an entry. The server-pushed
// pass failure is deliberately absent: the client renders it but can never
// trigger it.
type Action int

const (
	ActionMarkCompleted Action = iota
	ActionUnmarkCompleted
	ActionMarkCancelled
	ActionUnmarkCancelled
	ActionSetResultRejected
	ActionSetResultEmployed
	ActionRollbackResult
	ActionMove
	ActionEditDetails
	ActionOrderPass
	ActionRevokePass
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionMarkCompleted:
		return "mark_completed"
	case ActionUnmarkCompleted:
		return "unmark_completed"
	case ActionMarkCancelled:
		return "mark_cancelled"
	case ActionUnmarkCancelled:
		return "unmark_cancelled"
	case ActionSetResultRejected:
		return "set_result_rejected"
	case ActionSetResultEmployed:
		return "set_result_employed"
	case ActionRollbackResult:
		return "rollback_result"
	case ActionMove:
		return "move"
	case ActionEditDetails:
		return "edit_details"
	case ActionOrderPass:
		return "order_pass"
	case ActionRevokePass:
		return "revoke_pass"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// DenyReason is a stable machine code explaining a denied transition.
type DenyReason string

const (
	DenyNone         DenyReason = ""
	DenyNoPermission DenyReason = "no_permission"
	DenyWrongState   DenyReason = "wrong_state"
	DenyPastDate     DenyReason = "past_date"
	DenyPassState    DenyReason = "pass_state"
)

// Decision is the outcome of a guard check.
type Decision struct {
	Allowed bool
	Reason  DenyReason
}

func allow() Decision            { return Decision{Allowed: true} }
func deny(r DenyReason) Decision { return Decision{Reason: r} }
func gated(ok bool, r DenyReason) Decision {
	if ok {
		return allow()
	}
	return deny(r)
}

// Check evaluates whether action is legal for the entry under the given
// capability set. It is a pure function of its inputs; now supplies the
// clock for the pass-order date guard.
func Check(e *models.Entry, action Action, caps perm.Capabilities, now func() time.Time) Decision {
	switch action {
	case ActionMarkCompleted:
		if e.State != models.StateDraft {
			return deny(DenyWrongState)
		}
		return gated(caps.CanMarkCompleted, DenyNoPermission)

	case ActionUnmarkCompleted:
		if e.State != models.StateArrived {
			return deny(DenyWrongState)
		}
		return gated(caps.CanUnmarkCompleted, DenyNoPermission)

	case ActionMarkCancelled:
		// Cancelling an arrived visit is allowed only while no result is
		// recorded yet.
		if e.State != models.StateDraft && e.State != models.StateArrived {
			return deny(DenyWrongState)
		}
		return gated(caps.CanMarkCancelled, DenyNoPermission)

	case ActionUnmarkCancelled:
		if e.State != models.StateCancelled {
			return deny(DenyWrongState)
		}
		return gated(caps.CanUnmarkCancelled, DenyNoPermission)

	case ActionSetResultRejected, ActionSetResultEmployed:
		switch e.State {
		case models.StateArrived, models.StatePendingResult:
			return gated(caps.CanSetMeetingResult, DenyNoPermission)
		case models.StateRejected, models.StateEmployed:
			// Changing an already-recorded result needs the stronger grant.
			return gated(caps.CanChangeMeetingResult, DenyNoPermission)
		default:
			return deny(DenyWrongState)
		}

	case ActionRollbackResult:
		if !e.State.HasResult() {
			return deny(DenyWrongState)
		}
		return gated(caps.CanRollbackMeetingResult, DenyNoPermission)

	case ActionMove:
		if e.State != models.StateDraft {
			return deny(DenyWrongState)
		}
		return gated(caps.CanMove, DenyNoPermission)

	case ActionEditDetails:
		// Cancelled and completed entries are never field-edited directly;
		// only the explicit transitions above touch them.
		if e.State != models.StateDraft {
			return deny(DenyWrongState)
		}
		return gated(caps.CanEditEntry, DenyNoPermission)

	case ActionOrderPass:
		if !caps.CanMarkPass {
			return deny(DenyNoPermission)
		}
		if e.State == models.StateCancelled || e.State == models.StateRejected {
			return deny(DenyWrongState)
		}
		if e.PassStatus == models.PassOrdered {
			return deny(DenyPassState)
		}
		if timex.BeforeToday(e.DateKey(), now) {
			return deny(DenyPastDate)
		}
		return allow()

	case ActionRevokePass:
		if !caps.CanRevokePass {
			return deny(DenyNoPermission)
		}
		// No date restriction on revoking an existing pass.
		if e.PassStatus != models.PassOrdered {
			return deny(DenyPassState)
		}
		return allow()

	case ActionDelete:
		if !caps.CanDelete {
			return deny(DenyNoPermission)
		}
		// Non-admins may delete drafts only; admins may delete from any state.
		if !caps.IsAdmin && e.State != models.StateDraft {
			return deny(DenyWrongState)
		}
		return allow()

	default:
		return deny(DenyWrongState)
	}
}

// ResultActionFor maps a target result state to its action, or false for
// states that are not meeting results.
func ResultActionFor(target models.State) (Action, bool) {
	switch target {
	case models.StateRejected:
		return ActionSetResultRejected, true
	case models.StateEmployed:
		return ActionSetResultEmployed, true
	default:
		return 0, false
	}
}
