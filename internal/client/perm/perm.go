// Package perm evaluates a user's role into the fixed set of UI
// capabilities. Evaluation is pure: the same user record always yields the
// same capability set, and nothing is cached across user changes.
package perm

import "github.com/underflow1/ce-guests-front-sub000/internal/client/models"

// Capability codes as granted on roles by the backend.
const (
	CodeMove                  = "move"
	CodeMarkCompleted         = "mark_completed"
	CodeUnmarkCompleted       = "unmark_completed"
	CodeMarkCancelled         = "mark_cancelled"
	CodeUnmarkCancelled       = "unmark_cancelled"
	CodeMarkPass              = "mark_pass"
	CodeRevokePass            = "revoke_pass"
	CodeEditEntry             = "edit_entry"
	CodeDelete                = "delete"
	CodeSetMeetingResult      = "set_meeting_result"
	CodeChangeMeetingResult   = "change_meeting_result"
	CodeRollbackMeetingResult = "rollback_meeting_result"
)

// Capabilities is the evaluated set of boolean UI permissions.
type Capabilities struct {
	CanMove                  bool
	CanMarkCompleted         bool
	CanUnmarkCompleted       bool
	CanMarkCancelled         bool
	CanUnmarkCancelled       bool
	CanMarkPass              bool
	CanRevokePass            bool
	CanEditEntry             bool
	CanDelete                bool
	CanSetMeetingResult      bool
	CanChangeMeetingResult   bool
	CanRollbackMeetingResult bool

	// IsAdmin rides along so downstream guards (delete from non-draft
	// states) can tell an admin grant from a role grant.
	IsAdmin bool
}

// Evaluate computes the capability set for a user record. A nil user (not
// authenticated) gets nothing; an administrator gets everything; otherwise
// each capability equals membership of its code in the role's granted set.
func Evaluate(user *models.User) Capabilities {
	if user == nil {
		return Capabilities{}
	}

	if user.IsAdmin {
		return Capabilities{
			CanMove:                  true,
			CanMarkCompleted:         true,
			CanUnmarkCompleted:       true,
			CanMarkCancelled:         true,
			CanUnmarkCancelled:       true,
			CanMarkPass:              true,
			CanRevokePass:            true,
			CanEditEntry:             true,
			CanDelete:                true,
			CanSetMeetingResult:      true,
			CanChangeMeetingResult:   true,
			CanRollbackMeetingResult: true,
			IsAdmin:                  true,
		}
	}

	granted := make(map[string]struct{})
	if user.Role != nil {
		for _, code := range user.Role.Permissions {
			granted[code] = struct{}{}
		}
	}
	has := func(code string) bool {
		_, ok := granted[code]
		return ok
	}

	return Capabilities{
		CanMove:                  has(CodeMove),
		CanMarkCompleted:         has(CodeMarkCompleted),
		CanUnmarkCompleted:       has(CodeUnmarkCompleted),
		CanMarkCancelled:         has(CodeMarkCancelled),
		CanUnmarkCancelled:       has(CodeUnmarkCancelled),
		CanMarkPass:              has(CodeMarkPass),
		CanRevokePass:            has(CodeRevokePass),
		CanEditEntry:             has(CodeEditEntry),
		CanDelete:                has(CodeDelete),
		CanSetMeetingResult:      has(CodeSetMeetingResult),
		CanChangeMeetingResult:   has(CodeChangeMeetingResult),
		CanRollbackMeetingResult: has(CodeRollbackMeetingResult),
	}
}
