package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/perm"
)

var testNow = func() time.Time {
	return time.Date(2024, 3, 7, 10, 0, 0, 0, time.Local)
}

func entryIn(state models.State) *models.Entry {
	return &models.Entry{
		ID:         "e1",
		Name:       "Visitor",
		Datetime:   testNow().Add(2 * time.Hour),
		State:      state,
		PassStatus: models.PassNone,
	}
}

func allCaps() perm.Capabilities {
	return perm.Evaluate(&models.User{IsAdmin: true})
}

func TestCheck_TransitionTable(t *testing.T) {
	tests := []struct {
		name    string
		state   models.State
		action  Action
		allowed bool
		reason  DenyReason
	}{
		{"draft can be completed", models.StateDraft, ActionMarkCompleted, true, DenyNone},
		{"arrived cannot be completed again", models.StateArrived, ActionMarkCompleted, false, DenyWrongState},
		{"cancelled cannot be completed", models.StateCancelled, ActionMarkCompleted, false, DenyWrongState},

		{"arrived can be uncompleted", models.StateArrived, ActionUnmarkCompleted, true, DenyNone},
		{"draft cannot be uncompleted", models.StateDraft, ActionUnmarkCompleted, false, DenyWrongState},
		{"employed cannot be uncompleted", models.StateEmployed, ActionUnmarkCompleted, false, DenyWrongState},

		{"draft can be cancelled", models.StateDraft, ActionMarkCancelled, true, DenyNone},
		{"arrived without result can be cancelled", models.StateArrived, ActionMarkCancelled, true, DenyNone},
		{"pending result cannot be cancelled", models.StatePendingResult, ActionMarkCancelled, false, DenyWrongState},
		{"rejected cannot be cancelled", models.StateRejected, ActionMarkCancelled, false, DenyWrongState},

		{"cancelled can be reopened", models.StateCancelled, ActionUnmarkCancelled, true, DenyNone},
		{"draft cannot be uncancelled", models.StateDraft, ActionUnmarkCancelled, false, DenyWrongState},

		{"arrived can get result", models.StateArrived, ActionSetResultRejected, true, DenyNone},
		{"pending can get result", models.StatePendingResult, ActionSetResultEmployed, true, DenyNone},
		{"rejected result can be changed", models.StateRejected, ActionSetResultEmployed, true, DenyNone},
		{"employed result can be changed", models.StateEmployed, ActionSetResultRejected, true, DenyNone},
		{"draft cannot get result", models.StateDraft, ActionSetResultRejected, false, DenyWrongState},
		{"cancelled cannot get result", models.StateCancelled, ActionSetResultEmployed, false, DenyWrongState},

		{"rejected can roll back", models.StateRejected, ActionRollbackResult, true, DenyNone},
		{"employed can roll back", models.StateEmployed, ActionRollbackResult, true, DenyNone},
		{"pending can roll back", models.StatePendingResult, ActionRollbackResult, true, DenyNone},
		{"arrived has no result to roll back", models.StateArrived, ActionRollbackResult, false, DenyWrongState},

		{"draft can move", models.StateDraft, ActionMove, true, DenyNone},
		{"arrived cannot move", models.StateArrived, ActionMove, false, DenyWrongState},

		{"draft is editable", models.StateDraft, ActionEditDetails, true, DenyNone},
		{"cancelled is not editable", models.StateCancelled, ActionEditDetails, false, DenyWrongState},
		{"arrived is not editable", models.StateArrived, ActionEditDetails, false, DenyWrongState},
		{"employed is not editable", models.StateEmployed, ActionEditDetails, false, DenyWrongState},
	}

	caps := allCaps()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := Check(entryIn(tc.state), tc.action, caps, testNow)
			require.Equal(t, tc.allowed, d.Allowed)
			require.Equal(t, tc.reason, d.Reason)
		})
	}
}

func TestCheck_CapabilityGate(t *testing.T) {
	// Same states as above but with no capabilities granted: every legal
	// transition must now fail with no_permission.
	var none perm.Capabilities

	tests := []struct {
		state  models.State
		action Action
	}{
		{models.StateDraft, ActionMarkCompleted},
		{models.StateArrived, ActionUnmarkCompleted},
		{models.StateDraft, ActionMarkCancelled},
		{models.StateCancelled, ActionUnmarkCancelled},
		{models.StateArrived, ActionSetResultRejected},
		{models.StateRejected, ActionRollbackResult},
		{models.StateDraft, ActionMove},
		{models.StateDraft, ActionEditDetails},
		{models.StateDraft, ActionOrderPass},
		{models.StateDraft, ActionDelete},
	}

	for _, tc := range tests {
		t.Run(tc.action.String(), func(t *testing.T) {
			d := Check(entryIn(tc.state), tc.action, none, testNow)
			require.False(t, d.Allowed)
			require.Equal(t, DenyNoPermission, d.Reason)
		})
	}
}

func TestCheck_ResultGuardSplit(t *testing.T) {
	setOnly := perm.Capabilities{CanSetMeetingResult: true}
	changeOnly := perm.Capabilities{CanChangeMeetingResult: true}

	// Setting a first result needs set_meeting_result.
	require.True(t, Check(entryIn(models.StateArrived), ActionSetResultRejected, setOnly, testNow).Allowed)
	require.False(t, Check(entryIn(models.StateArrived), ActionSetResultRejected, changeOnly, testNow).Allowed)

	// Changing an existing result needs change_meeting_result.
	require.True(t, Check(entryIn(models.StateRejected), ActionSetResultEmployed, changeOnly, testNow).Allowed)
	require.False(t, Check(entryIn(models.StateRejected), ActionSetResultEmployed, setOnly, testNow).Allowed)
}

func TestCheck_PassOrderDateGuard(t *testing.T) {
	caps := perm.Capabilities{CanMarkPass: true}

	yesterday := entryIn(models.StateDraft)
	yesterday.Datetime = testNow().AddDate(0, 0, -1)
	d := Check(yesterday, ActionOrderPass, caps, testNow)
	require.False(t, d.Allowed)
	require.Equal(t, DenyPastDate, d.Reason)

	// Blocked regardless of the capability: an admin gets the same denial.
	d = Check(yesterday, ActionOrderPass, allCaps(), testNow)
	require.False(t, d.Allowed)
	require.Equal(t, DenyPastDate, d.Reason)

	today := entryIn(models.StateDraft)
	today.Datetime = testNow()
	require.True(t, Check(today, ActionOrderPass, caps, testNow).Allowed)

	tomorrow := entryIn(models.StateDraft)
	tomorrow.Datetime = testNow().AddDate(0, 0, 1)
	require.True(t, Check(tomorrow, ActionOrderPass, caps, testNow).Allowed)
}

func TestCheck_PassOrderStateGuard(t *testing.T) {
	caps := perm.Capabilities{CanMarkPass: true}

	for _, state := range []models.State{models.StateCancelled, models.StateRejected} {
		e := entryIn(state)
		d := Check(e, ActionOrderPass, caps, testNow)
		require.False(t, d.Allowed, "order pass must be denied in %s", state)
		require.Equal(t, DenyWrongState, d.Reason)
	}

	ordered := entryIn(models.StateDraft)
	ordered.PassStatus = models.PassOrdered
	d := Check(ordered, ActionOrderPass, caps, testNow)
	require.False(t, d.Allowed)
	require.Equal(t, DenyPassState, d.Reason)

	// Re-ordering after a failed order is allowed, same date rules.
	failed := entryIn(models.StateDraft)
	failed.PassStatus = models.PassFailed
	require.True(t, Check(failed, ActionOrderPass, caps, testNow).Allowed)
}

func TestCheck_PassRevoke(t *testing.T) {
	caps := perm.Capabilities{CanRevokePass: true}

	ordered := entryIn(models.StateDraft)
	ordered.PassStatus = models.PassOrdered
	// Past date does not block revocation.
	ordered.Datetime = testNow().AddDate(0, 0, -3)
	require.True(t, Check(ordered, ActionRevokePass, caps, testNow).Allowed)

	none := entryIn(models.StateDraft)
	d := Check(none, ActionRevokePass, caps, testNow)
	require.False(t, d.Allowed)
	require.Equal(t, DenyPassState, d.Reason)
}

func TestCheck_DeleteGuard(t *testing.T) {
	nonAdmin := perm.Capabilities{CanDelete: true}
	admin := allCaps()

	require.True(t, Check(entryIn(models.StateDraft), ActionDelete, nonAdmin, testNow).Allowed)

	d := Check(entryIn(models.StateArrived), ActionDelete, nonAdmin, testNow)
	require.False(t, d.Allowed)
	require.Equal(t, DenyWrongState, d.Reason)

	for _, state := range []models.State{
		models.StateDraft, models.StateCancelled, models.StateArrived,
		models.StateRejected, models.StatePendingResult, models.StateEmployed,
	} {
		require.True(t, Check(entryIn(state), ActionDelete, admin, testNow).Allowed,
			"admin delete from %s", state)
	}
}

func TestCheck_IsPure(t *testing.T) {
	caps := perm.Capabilities{CanMarkCompleted: true}
	e := entryIn(models.StateDraft)

	first := Check(e, ActionMarkCompleted, caps, testNow)
	for i := 0; i < 20; i++ {
		require.Equal(t, first, Check(e, ActionMarkCompleted, caps, testNow))
	}
}

func TestResultActionFor(t *testing.T) {
	a, ok := ResultActionFor(models.StateRejected)
	require.True(t, ok)
	require.Equal(t, ActionSetResultRejected, a)

	a, ok = ResultActionFor(models.StateEmployed)
	require.True(t, ok)
	require.Equal(t, ActionSetResultEmployed, a)

	_, ok = ResultActionFor(models.StateDraft)
	require.False(t, ok)
}
