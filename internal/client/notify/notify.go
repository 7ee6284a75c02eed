// Package notify turns sync-channel events into user-visible toasts. The
// filter decides visibility per interface type; it never decides whether
// the store updates, since that already happened by the time an event gets
// here.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/timex"
)

// Sink renders the toasts. cmd/agent plugs in the colored terminal sink.
type Sink interface {
	Info(text string)
	Error(text string)
}

type Notifier struct {
	iface models.InterfaceType
	sink  Sink
	now   func() time.Time
}

func New(iface models.InterfaceType, sink Sink) *Notifier {
	return &Notifier{iface: iface, sink: sink, now: time.Now}
}

// WithClock overrides the clock used for the duty-officer date filter.
func (n *Notifier) WithClock(now func() time.Time) *Notifier {
	n.now = now
	return n
}

// Notify shows the toast for a channel event unless the interface policy
// filters it out.
func (n *Notifier) Notify(ctx context.Context, ev models.ChangeEvent) {
	if !n.visible(ev) {
		return
	}
	if text := Text(ev); text != "" {
		n.sink.Info(text)
	}
}

// visible applies the per-interface policy: the duty officer does not act
// on future entries yet, so changes to them are noise; the standard
// interface shows everything. The check uses only the event's entry date,
// never who originated the change.
func (n *Notifier) visible(ev models.ChangeEvent) bool {
	if n.iface != models.InterfaceDutyOfficer {
		return true
	}
	if ev.Entry == nil {
		return true
	}
	return !timex.AfterToday(ev.Entry.DateKey(), n.now)
}

// Text composes the toast line for an event kind. Empty means no toast.
func Text(ev models.ChangeEvent) string {
	name := ""
	if ev.Entry != nil {
		name = ev.Entry.Name
	}

	switch ev.Kind {
	case models.ChangeEntryCreated:
		return fmt.Sprintf("New visit entry: %s", name)
	case models.ChangeEntryUpdated:
		return fmt.Sprintf("Visit entry updated: %s", name)
	case models.ChangeResultSet:
		return fmt.Sprintf("Meeting result recorded for %s", name)
	case models.ChangeResultRollback:
		return fmt.Sprintf("Meeting result rolled back for %s", name)
	case models.ChangeEntryCompleted:
		return fmt.Sprintf("Visitor arrived: %s", name)
	case models.ChangeEntryUncomplete:
		return fmt.Sprintf("Arrival rolled back: %s", name)
	case models.ChangeVisitCancelled:
		return fmt.Sprintf("Visit cancelled: %s", name)
	case models.ChangeVisitUncancel:
		return fmt.Sprintf("Visit reopened: %s", name)
	case models.ChangePassOrdered:
		return fmt.Sprintf("Pass ordered for %s", name)
	case models.ChangePassOrderFailed:
		return fmt.Sprintf("Pass order failed for %s", name)
	case models.ChangePassRevoked:
		return fmt.Sprintf("Pass revoked for %s", name)
	case models.ChangeEntryMoved:
		if ev.Entry != nil {
			return fmt.Sprintf("Visit rescheduled: %s to %s", name,
				ev.Entry.Datetime.Format("2006-01-02 15:04"))
		}
		return "Visit rescheduled"
	case models.ChangeEntryDeleted:
		return fmt.Sprintf("Visit entry deleted: %s", name)
	case models.ChangeAllDeleted:
		return "All visit entries were deleted"
	default:
		return ""
	}
}
