package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/api"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/lifecycle"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/pipeline"
	"github.com/underflow1/ce-guests-front-sub000/internal/timex"
)

const datetimeLayout = "2006-01-02 15:04"

// repl runs the interactive command loop for one session. Returns quit=true
// when the operator exits the program, quit=false after a logout.
func (a *App) repl(ctx context.Context, user *models.User, pipe *pipeline.Pipeline, loggedOut <-chan struct{}) (bool, error) {
	fmt.Fprintln(a.out, "Guest desk (type 'help' for commands)")

	for {
		select {
		case <-loggedOut:
			return false, nil
		case <-ctx.Done():
			return true, nil
		default:
		}

		fmt.Fprintf(a.out, "guests %s > ", user.Name)
		line, err := a.reader.ReadString('\n')
		if err != nil {
			return true, nil
		}

		select {
		case <-loggedOut:
			return false, nil
		default:
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			a.printHelp()
		case "dates":
			a.printDates()
		case "list":
			a.printBucket(args)
		case "show":
			a.printEntry(args)
		case "add":
			a.addEntry(ctx, pipe)
		case "edit":
			a.editEntry(ctx, pipe, args)
		case "move":
			a.moveEntry(ctx, pipe, args)
		case "complete":
			a.withID(args, func(id string) { _, _ = pipe.MarkCompleted(ctx, id, true) })
		case "uncomplete":
			a.withID(args, func(id string) { _, _ = pipe.MarkCompleted(ctx, id, false) })
		case "cancel":
			a.withID(args, func(id string) { _, _ = pipe.MarkCancelled(ctx, id, true) })
		case "uncancel":
			a.withID(args, func(id string) { _, _ = pipe.MarkCancelled(ctx, id, false) })
		case "reject":
			a.setResult(ctx, pipe, args, models.StateRejected)
		case "employ":
			a.setResult(ctx, pipe, args, models.StateEmployed)
		case "rollback":
			a.withID(args, func(id string) { _, _ = pipe.RollbackResult(ctx, id) })
		case "pass":
			a.withID(args, func(id string) { _, _ = pipe.OrderPass(ctx, id) })
		case "revoke":
			a.withID(args, func(id string) { _, _ = pipe.RevokePass(ctx, id) })
		case "delete":
			a.withID(args, func(id string) { _ = pipe.Delete(ctx, id) })
		case "logout":
			a.sess.Logout(ctx)
			return false, nil
		case "exit", "quit":
			fmt.Fprintln(a.out, "Bye!")
			return true, nil
		default:
			fmt.Fprintln(a.out, "Unknown command:", cmd)
		}
	}
}

func (a *App) printHelp() {
	fmt.Fprintln(a.out, `Available commands:
  dates                       visible dates
  list [date|today]           entries for a date
  show <id>                   one entry in full
  add                         create a new entry
  edit <id>                   edit a draft entry
  move <id> <date> <time>     reschedule a draft entry
  complete <id>               mark the visitor as arrived
  uncomplete <id>             roll back an arrival
  cancel <id> / uncancel <id> cancel or reopen a visit
  reject <id> [reason-id]     record a rejection
  employ <id> [reason-id]     record an employment
  rollback <id>               clear a recorded result
  pass <id> / revoke <id>     order or revoke an access pass
  delete <id>                 delete an entry
  logout / exit`)
}

func (a *App) printDates() {
	refs := a.store.ReferenceDates()
	for _, d := range a.store.VisibleDates() {
		marker := ""
		switch d {
		case refs.PreviousWorkday:
			marker = " (previous workday)"
		case refs.NextWorkday:
			marker = " (next workday)"
		case timex.Today(time.Now):
			marker = " (today)"
		}
		fmt.Fprintf(a.out, "%s%s  %d entries\n", d, marker, len(a.store.Bucket(d)))
	}
}

func (a *App) printBucket(args []string) {
	date := timex.Today(time.Now)
	if len(args) > 0 && args[0] != "today" {
		date = args[0]
	}

	entries := a.store.Bucket(date)
	if len(entries) == 0 {
		fmt.Fprintln(a.out, "No entries for", date)
		return
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "%s  %s  %-14s %s\n",
			e.Datetime.Format("15:04"), e.ID, e.State, e.Name)
	}
}

func (a *App) printEntry(args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: show <id>")
		return
	}
	e, ok := a.store.Lookup(args[0])
	if !ok {
		fmt.Fprintln(a.out, "No such entry")
		return
	}

	fmt.Fprintf(a.out, "Name:        %s\n", e.Name)
	fmt.Fprintf(a.out, "Datetime:    %s\n", e.Datetime.Format(datetimeLayout))
	fmt.Fprintf(a.out, "State:       %s\n", e.State)
	if e.Responsible != "" {
		fmt.Fprintf(a.out, "Responsible: %s\n", e.Responsible)
	}
	if e.PassStatus != "" && e.PassStatus != models.PassNone {
		fmt.Fprintf(a.out, "Pass:        %s\n", e.PassStatus)
	}
	if len(e.VisitGoalIDs) > 0 {
		fmt.Fprintf(a.out, "Goals:       %s\n", strings.Join(e.VisitGoalIDs, ", "))
	}
}

func (a *App) addEntry(ctx context.Context, pipe *pipeline.Pipeline) {
	name, err := promptLine(a.reader, "Visitor name", a.out)
	if err != nil {
		return
	}
	responsible, err := promptLine(a.reader, "Responsible (optional)", a.out)
	if err != nil {
		return
	}
	when, err := a.readDatetime()
	if err != nil {
		fmt.Fprintln(a.out, "Invalid datetime:", err)
		return
	}
	goals, err := promptLine(a.reader, "Visit goal ids (comma-separated)", a.out)
	if err != nil {
		return
	}

	created, err := pipe.Create(ctx, api.EntryDraft{
		Name:         name,
		Responsible:  responsible,
		Datetime:     when,
		VisitGoalIDs: splitIDs(goals),
	})
	if err == nil {
		fmt.Fprintln(a.out, "Created", created.ID)
	}
}

func (a *App) editEntry(ctx context.Context, pipe *pipeline.Pipeline, args []string) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "Usage: edit <id>")
		return
	}
	id := args[0]
	e, ok := a.store.Lookup(id)
	if !ok {
		fmt.Fprintln(a.out, "No such entry")
		return
	}
	if d := pipe.Can(id, lifecycle.ActionEditDetails); !d.Allowed {
		fmt.Fprintln(a.out, "Entry is not editable")
		return
	}

	pipe.OpenForEdit(id)
	defer pipe.Close()

	name, err := promptLine(a.reader, fmt.Sprintf("Visitor name [%s]", e.Name), a.out)
	if err != nil {
		return
	}
	if name == "" {
		name = e.Name
	}
	responsible, err := promptLine(a.reader, fmt.Sprintf("Responsible [%s]", e.Responsible), a.out)
	if err != nil {
		return
	}
	if responsible == "" {
		responsible = e.Responsible
	}
	goals, err := promptLine(a.reader, fmt.Sprintf("Visit goal ids [%s]", strings.Join(e.VisitGoalIDs, ",")), a.out)
	if err != nil {
		return
	}
	goalIDs := e.VisitGoalIDs
	if goals != "" {
		goalIDs = splitIDs(goals)
	}

	_, _ = pipe.EditDetails(ctx, id, api.EntryDetails{
		Name:         name,
		Responsible:  responsible,
		VisitGoalIDs: goalIDs,
	})
}

func (a *App) moveEntry(ctx context.Context, pipe *pipeline.Pipeline, args []string) {
	if len(args) < 3 {
		fmt.Fprintln(a.out, "Usage: move <id> <yyyy-mm-dd> <hh:mm>")
		return
	}
	when, err := time.ParseInLocation(datetimeLayout, args[1]+" "+args[2], time.Local)
	if err != nil {
		fmt.Fprintln(a.out, "Invalid datetime:", err)
		return
	}
	_, _ = pipe.Move(ctx, args[0], when)
}

func (a *App) setResult(ctx context.Context, pipe *pipeline.Pipeline, args []string, target models.State) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "An entry id is required")
		return
	}
	reasonID := ""
	if len(args) > 1 {
		reasonID = args[1]
	}
	_, _ = pipe.SetResult(ctx, args[0], target, reasonID)
}

func (a *App) withID(args []string, fn func(id string)) {
	if len(args) == 0 {
		fmt.Fprintln(a.out, "An entry id is required")
		return
	}
	fn(args[0])
}

func (a *App) readDatetime() (time.Time, error) {
	raw, err := promptLine(a.reader, "Datetime (yyyy-mm-dd hh:mm)", a.out)
	if err != nil {
		return time.Time{}, err
	}
	return time.ParseInLocation(datetimeLayout, raw, time.Local)
}

func splitIDs(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
