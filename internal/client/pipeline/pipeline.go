// Package pipeline executes user-initiated entry commands. Despite the
// optimistic-sounding flow, every command is confirm-then-apply: the
// backend's authoritative entry is awaited before the local store changes,
// and a failed command leaves the entry exactly as it was. The pipeline
// also owns the edit-mode switches that follow certain rollbacks, and the
// surfaced-error slot with duplicate suppression.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/underflow1/ce-guests-front-sub000/internal/client/api"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/lifecycle"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/models"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/notify"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/perm"
	"github.com/underflow1/ce-guests-front-sub000/internal/client/store"
	"github.com/underflow1/ce-guests-front-sub000/internal/common"
	"github.com/underflow1/ce-guests-front-sub000/internal/logging"
	"github.com/underflow1/ce-guests-front-sub000/internal/metrics"
)

// minSuggestionQuery is the autocomplete threshold; shorter queries never
// hit the backend.
const minSuggestionQuery = 3

// EditMode is the form state for the currently open entry.
type EditMode int

const (
	ModeView EditMode = iota
	ModeEdit
)

// EditState tracks which entry the form shows and whether it is editable.
type EditState struct {
	EntryID string
	Mode    EditMode
}

type Pipeline struct {
	api     api.Client
	store   *store.Store
	caps    perm.Capabilities
	log     logging.Logger
	metrics *metrics.Metrics
	sink    notify.Sink
	now     func() time.Time

	mu        sync.Mutex
	edit      EditState
	lastError string
	reasons   map[models.State][]models.Reason
}

func New(apiClient api.Client, st *store.Store, caps perm.Capabilities,
	sink notify.Sink, log logging.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		api:     apiClient,
		store:   st,
		caps:    caps,
		log:     log,
		metrics: m,
		sink:    sink,
		now:     time.Now,
		reasons: make(map[models.State][]models.Reason),
	}
}

// WithClock overrides the clock used for date guards.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Can exposes the transition guard for UI construction (enabling and
// disabling controls) without running anything.
func (p *Pipeline) Can(id string, action lifecycle.Action) lifecycle.Decision {
	entry, ok := p.store.Lookup(id)
	if !ok {
		return lifecycle.Decision{Reason: lifecycle.DenyWrongState}
	}
	return lifecycle.Check(&entry, action, p.caps, p.now)
}

// Open shows an entry in the form in view mode.
func (p *Pipeline) Open(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edit = EditState{EntryID: id, Mode: ModeView}
}

// OpenForEdit shows an entry in the form in edit mode.
func (p *Pipeline) OpenForEdit(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edit = EditState{EntryID: id, Mode: ModeEdit}
}

// Close clears the form.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.edit = EditState{}
}

// EditState returns the current form state.
func (p *Pipeline) EditState() EditState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.edit
}

// LastError returns the currently surfaced error text, empty when the last
// command succeeded.
func (p *Pipeline) LastError() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastError
}

// Create sends a new draft entry. No lifecycle guard applies: creation is
// gated by the UI offering the form at all.
func (p *Pipeline) Create(ctx context.Context, draft api.EntryDraft) (models.Entry, error) {
	if draft.Name == "" {
		return models.Entry{}, p.fail(ctx, "create", fmt.Errorf("%w: visitor name is required", common.ErrValidation))
	}
	if len(draft.VisitGoalIDs) == 0 {
		return models.Entry{}, p.fail(ctx, "create", fmt.Errorf("%w: at least one visit goal is required", common.ErrValidation))
	}

	p.metrics.CommandsSent.Inc()
	created, err := p.api.CreateEntry(ctx, draft)
	if err != nil {
		return models.Entry{}, p.fail(ctx, "create", err)
	}

	p.store.ApplyEntry(created, created.DateKey())
	p.clearError()
	return created, nil
}

// EditDetails updates name/responsible/visit goals of a draft entry.
func (p *Pipeline) EditDetails(ctx context.Context, id string, details api.EntryDetails) (models.Entry, error) {
	return p.run(ctx, id, lifecycle.ActionEditDetails, func(ctx context.Context) (models.Entry, error) {
		if details.Name == "" {
			return models.Entry{}, fmt.Errorf("%w: visitor name is required", common.ErrValidation)
		}
		if len(details.VisitGoalIDs) == 0 {
			return models.Entry{}, fmt.Errorf("%w: at least one visit goal is required", common.ErrValidation)
		}
		return p.api.UpdateDetails(ctx, id, details)
	})
}

// Move reschedules a draft entry to a new datetime.
func (p *Pipeline) Move(ctx context.Context, id string, datetime time.Time) (models.Entry, error) {
	return p.run(ctx, id, lifecycle.ActionMove, func(ctx context.Context) (models.Entry, error) {
		return p.api.MoveEntry(ctx, id, datetime)
	})
}

// MarkCompleted records or rolls back the visitor's arrival. Rolling back
// while the entry is open in the form re-enters edit mode for it, since
// the entry just became editable again.
func (p *Pipeline) MarkCompleted(ctx context.Context, id string, completed bool) (models.Entry, error) {
	action := lifecycle.ActionMarkCompleted
	if !completed {
		action = lifecycle.ActionUnmarkCompleted
	}

	updated, err := p.run(ctx, id, action, func(ctx context.Context) (models.Entry, error) {
		return p.api.SetCompleted(ctx, id, completed)
	})
	if err != nil {
		return models.Entry{}, err
	}

	if completed {
		p.leaveEditIfOpen(id)
	} else {
		p.enterEditIfOpen(id)
	}
	return updated, nil
}

// MarkCancelled cancels or reopens a visit.
func (p *Pipeline) MarkCancelled(ctx context.Context, id string, cancelled bool) (models.Entry, error) {
	action := lifecycle.ActionMarkCancelled
	if !cancelled {
		action = lifecycle.ActionUnmarkCancelled
	}

	updated, err := p.run(ctx, id, action, func(ctx context.Context) (models.Entry, error) {
		return p.api.SetCancelled(ctx, id, cancelled)
	})
	if err != nil {
		return models.Entry{}, err
	}

	if cancelled {
		p.leaveEditIfOpen(id)
	}
	return updated, nil
}

// SetResult records a meeting result. When the reason catalog for the
// target state is non-empty, a reason must be supplied; the catalog is
// fetched once per state and cached for the session.
func (p *Pipeline) SetResult(ctx context.Context, id string, target models.State, reasonID string) (models.Entry, error) {
	action, ok := lifecycle.ResultActionFor(target)
	if !ok {
		return models.Entry{}, p.fail(ctx, "set_result",
			fmt.Errorf("%w: %s is not a meeting result", common.ErrValidation, target))
	}

	return p.run(ctx, id, action, func(ctx context.Context) (models.Entry, error) {
		catalog, err := p.reasonCatalog(ctx, target)
		if err != nil {
			return models.Entry{}, err
		}
		if len(catalog) > 0 && reasonID == "" {
			return models.Entry{}, fmt.Errorf("%w: a reason is required for %s", common.ErrValidation, target)
		}
		return p.api.SetResult(ctx, id, target, reasonID)
	})
}

// RollbackResult clears a recorded meeting result, returning the entry to
// draft. If the entry is open in the form, the form switches to edit mode.
func (p *Pipeline) RollbackResult(ctx context.Context, id string) (models.Entry, error) {
	updated, err := p.run(ctx, id, lifecycle.ActionRollbackResult, func(ctx context.Context) (models.Entry, error) {
		return p.api.RollbackResult(ctx, id)
	})
	if err != nil {
		return models.Entry{}, err
	}

	p.enterEditIfOpen(id)
	return updated, nil
}

// OrderPass orders a physical access pass.
func (p *Pipeline) OrderPass(ctx context.Context, id string) (models.Entry, error) {
	return p.run(ctx, id, lifecycle.ActionOrderPass, func(ctx context.Context) (models.Entry, error) {
		return p.api.OrderPass(ctx, id)
	})
}

// RevokePass revokes an ordered pass.
func (p *Pipeline) RevokePass(ctx context.Context, id string) (models.Entry, error) {
	return p.run(ctx, id, lifecycle.ActionRevokePass, func(ctx context.Context) (models.Entry, error) {
		return p.api.RevokePass(ctx, id)
	})
}

// Delete removes the entry. The backend soft-deletes; the client drops it
// from view entirely.
func (p *Pipeline) Delete(ctx context.Context, id string) error {
	entry, ok := p.store.Lookup(id)
	if !ok {
		return p.fail(ctx, "delete", common.ErrNotFound)
	}
	if d := lifecycle.Check(&entry, lifecycle.ActionDelete, p.caps, p.now); !d.Allowed {
		return p.fail(ctx, "delete", denyError(d))
	}

	p.metrics.CommandsSent.Inc()
	if err := p.api.DeleteEntry(ctx, id); err != nil {
		return p.fail(ctx, "delete", err)
	}

	p.store.Remove(id)
	p.closeIfOpen(id)
	p.clearError()
	return nil
}

// Suggestions returns responsible-name completions. Queries shorter than
// three characters never reach the backend.
func (p *Pipeline) Suggestions(ctx context.Context, query string) ([]string, error) {
	if len([]rune(query)) < minSuggestionQuery {
		return nil, nil
	}
	out, err := p.api.ResponsibleSuggestions(ctx, query)
	if err != nil {
		return nil, p.fail(ctx, "suggestions", err)
	}
	return out, nil
}

// run is the shared command skeleton: guard, send, await the authoritative
// entry, apply. The store is untouched on any failure.
func (p *Pipeline) run(ctx context.Context, id string, action lifecycle.Action,
	call func(ctx context.Context) (models.Entry, error)) (models.Entry, error) {

	entry, ok := p.store.Lookup(id)
	if !ok {
		return models.Entry{}, p.fail(ctx, action.String(), common.ErrNotFound)
	}

	if d := lifecycle.Check(&entry, action, p.caps, p.now); !d.Allowed {
		return models.Entry{}, p.fail(ctx, action.String(), denyError(d))
	}

	p.metrics.CommandsSent.Inc()
	updated, err := call(ctx)
	if err != nil {
		return models.Entry{}, p.fail(ctx, action.String(), err)
	}

	p.store.ApplyEntry(updated, entry.DateKey())
	p.clearError()
	return updated, nil
}

func (p *Pipeline) reasonCatalog(ctx context.Context, state models.State) ([]models.Reason, error) {
	p.mu.Lock()
	cached, ok := p.reasons[state]
	p.mu.Unlock()
	if ok {
		return cached, nil
	}

	catalog, err := p.api.Reasons(ctx, state)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.reasons[state] = catalog
	p.mu.Unlock()
	return catalog, nil
}

// fail records and surfaces a command error. Consecutive identical
// messages produce exactly one visible notification.
func (p *Pipeline) fail(ctx context.Context, command string, err error) error {
	p.metrics.CommandErrors.WithLabelValues(command).Inc()
	p.log.Warn(ctx, "command failed", "command", command, "error", err)

	msg := err.Error()
	p.mu.Lock()
	repeat := msg == p.lastError
	p.lastError = msg
	p.mu.Unlock()

	if !repeat {
		p.sink.Error(msg)
	}
	return err
}

func (p *Pipeline) clearError() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastError = ""
}

func (p *Pipeline) enterEditIfOpen(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.edit.EntryID == id {
		p.edit.Mode = ModeEdit
	}
}

func (p *Pipeline) leaveEditIfOpen(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.edit.EntryID == id {
		p.edit.Mode = ModeView
	}
}

func (p *Pipeline) closeIfOpen(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.edit.EntryID == id {
		p.edit = EditState{}
	}
}

func denyError(d lifecycle.Decision) error {
	switch d.Reason {
	case lifecycle.DenyNoPermission:
		return fmt.Errorf("%w: action is not permitted for this account", common.ErrForbidden)
	case lifecycle.DenyPastDate:
		return fmt.Errorf("%w: a pass cannot be ordered for a past date", common.ErrValidation)
	case lifecycle.DenyPassState:
		return fmt.Errorf("%w: pass action is not available in the current pass status", common.ErrValidation)
	default:
		return fmt.Errorf("%w: action is not available in the current entry state", common.ErrValidation)
	}
}
