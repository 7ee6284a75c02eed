package models

// ChangeKind discriminates the sync-channel events. The kind only selects
// the notification text; the snapshot attached to the event always updates
// the store regardless of kind.
type ChangeKind string

const (
	ChangeEntryCreated    ChangeKind = "entry_created"
	ChangeEntryUpdated    ChangeKind = "entry_updated"
	ChangeResultSet       ChangeKind = "result_set"
	ChangeResultRollback  ChangeKind = "result_rollback"
	ChangeEntryCompleted  ChangeKind = "entry_completed"
	ChangeEntryUncomplete ChangeKind = "entry_uncompleted"
	ChangeVisitCancelled  ChangeKind = "visit_cancelled"
	ChangeVisitUncancel   ChangeKind = "visit_uncancelled"
	ChangePassOrdered     ChangeKind = "pass_ordered"
	ChangePassOrderFailed ChangeKind = "pass_order_failed"
	ChangePassRevoked     ChangeKind = "pass_revoked"
	ChangeEntryMoved      ChangeKind = "entry_moved"
	ChangeEntryDeleted    ChangeKind = "entry_deleted"
	ChangeAllDeleted      ChangeKind = "entries_deleted_all"
)

// ChangeEvent is one inbound data frame of the sync channel: the kind of
// change, the single changed entry when applicable, and the authoritative
// snapshot as of send time.
type ChangeEvent struct {
	Kind     ChangeKind `json:"type"`
	Entry    *Entry     `json:"entry,omitempty"`
	Snapshot Snapshot   `json:"snapshot"`
}
