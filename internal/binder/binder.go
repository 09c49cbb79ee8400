// Package binder implements an object-lifecycle adapter that binds a caller
// (CLI command, MCP session, test harness) to a domain model. The binder
// owns the current model reference, exposes derived capability flags, and
// proxies asynchronous verbs (refresh, save) and synchronous verbs (cancel,
// addNew, remove, delete) into property-change notifications.
//
// The binder never assumes a concrete model type; it probes the model
// package's capability traits before invoking trait-specific operations.
package binder

import (
	"context"
	"sync"

	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/model"
)

// Observable property names delivered to subscribers.
const (
	PropModel     = "Model"
	PropIsBusy    = "IsBusy"
	PropError     = "Error"
	PropCanSave   = "CanSave"
	PropCanCancel = "CanCancel"
	PropCanAddNew = "CanAddNew"
	PropCanRemove = "CanRemove"
	PropCanDelete = "CanDelete"

	// EventSaved fires after every save completion, success or failure,
	// after capability recomputation.
	EventSaved = "Saved"
)

// Factory resolves and invokes a named creation method producing a model.
type Factory interface {
	Invoke(ctx context.Context, method string, args ...any) (any, error)
}

// Binder adapts a single model's lifecycle. At most one asynchronous verb is
// in flight at a time; a second Refresh/Save while busy fails with
// CONCURRENT_OPERATION. Factory and save failures are captured into the
// observable Err property rather than returned to the caller.
type Binder struct {
	factory Factory
	exec    Executor

	// manageLifetime controls whether the binder brackets the model in
	// begin/apply/cancel edit sessions as a side effect of verbs. Fixed at
	// construction. When false the model is a borrowed reference and the
	// binder never opens sessions it does not own.
	manageLifetime bool

	mu        sync.Mutex
	m         any
	busy      bool
	lastErr   error
	canSave   bool
	canCancel bool
	canAddNew bool
	canRemove bool
	canDelete bool

	notifier notifier
}

// Option configures a Binder.
type Option func(*Binder)

// WithManagedLifetime makes the binder own the model's edit sessions:
// refresh and save open a session on the incoming model, save applies the
// open session before dispatch, and cancel discards it.
func WithManagedLifetime() Option {
	return func(b *Binder) { b.manageLifetime = true }
}

// WithExecutor sets the completion executor. Defaults to Direct.
func WithExecutor(exec Executor) Option {
	return func(b *Binder) { b.exec = exec }
}

// New creates a Binder with no model bound.
func New(factory Factory, opts ...Option) *Binder {
	b := &Binder{
		factory: factory,
		exec:    Direct,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Subscribe registers a property-change handler, called with the property
// name. Handlers run synchronously in subscription order; notifications
// raised from inside a handler are queued, not interleaved. The returned
// function unsubscribes.
func (b *Binder) Subscribe(fn func(prop string)) func() {
	return b.notifier.Subscribe(fn)
}

// Model returns the currently bound model, or nil.
func (b *Binder) Model() any {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.m
}

// SetModel replaces the bound model wholesale. With a managed lifetime, an
// edit session is begun on the incoming model if it supports Undoable.
// Capability flags reflect the new model before SetModel returns.
func (b *Binder) SetModel(m any) {
	b.mu.Lock()
	b.m = m
	changed := []string{PropModel}
	if b.manageLifetime {
		if u, ok := model.As[model.Undoable](m); ok {
			u.BeginEdit()
		}
	}
	changed = append(changed, b.recompute()...)
	b.mu.Unlock()

	b.notifier.Notify(changed...)
}

// Invalidate re-evaluates the capability flags against the model's current
// state and notifies any that changed. Callers that mutate the bound model
// in place use it to keep the flags honest.
func (b *Binder) Invalidate() {
	b.mu.Lock()
	changed := b.recompute()
	b.mu.Unlock()

	b.notifier.Notify(changed...)
}

// IsBusy reports whether an asynchronous verb is in flight.
func (b *Binder) IsBusy() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.busy
}

// Err returns the failure captured from the last verb invocation, or nil.
// It is cleared at the start of each new refresh or save.
func (b *Binder) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// CanSave reports whether the model tracks status and is dirty and valid.
func (b *Binder) CanSave() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canSave
}

// CanCancel reports whether the binder manages the lifetime and the model is
// undoable and dirty.
func (b *Binder) CanCancel() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canCancel
}

// CanAddNew reports whether the model is list-shaped.
func (b *Binder) CanAddNew() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canAddNew
}

// CanRemove reports whether the model is an ordered collection.
func (b *Binder) CanRemove() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canRemove
}

// CanDelete reports whether the model is an editable root.
func (b *Binder) CanDelete() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.canDelete
}

// Refresh invokes the named factory method asynchronously and, on success,
// replaces the model with the result. The error return covers only
// caller-contract violations (CONCURRENT_OPERATION); factory failures are
// captured into Err, leaving the model unchanged.
func (b *Binder) Refresh(ctx context.Context, method string, args ...any) error {
	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		return errors.NewConcurrentOperation("refresh")
	}
	changed := b.clearError()
	b.busy = true
	changed = append(changed, PropIsBusy)
	changed = append(changed, b.recompute()...)
	b.mu.Unlock()

	b.notifier.Notify(changed...)

	go func() {
		m, err := b.factory.Invoke(ctx, method, args...)
		b.exec(func() { b.completeRefresh(method, m, err) })
	}()
	return nil
}

func (b *Binder) completeRefresh(method string, m any, err error) {
	b.mu.Lock()
	b.busy = false
	var changed []string
	if err != nil {
		b.lastErr = errors.NewFactoryError(method, err)
		changed = append(changed, PropError)
	} else {
		b.m = m
		changed = append(changed, PropModel)
		// Session opens strictly after the swap, before recomputation.
		if b.manageLifetime {
			if u, ok := model.As[model.Undoable](m); ok {
				u.BeginEdit()
			}
		}
	}
	changed = append(changed, b.recompute()...)
	// IsBusy goes out last so a subscriber waiting for idle has already
	// seen the rest of the completion's notifications.
	changed = append(changed, PropIsBusy)
	b.mu.Unlock()

	b.notifier.Notify(changed...)
}

// Save applies the open edit session (managed lifetime only) and dispatches
// the model's save asynchronously. On success the model is replaced by the
// post-save object; on failure the pre-save model re-enters an edit session
// so the caller can fix and retry, and Err is set. EventSaved fires after
// either branch. Contract violations (no model: INVALID_STATE, model not
// Savable: UNSUPPORTED_OPERATION, already busy: CONCURRENT_OPERATION) are
// returned immediately.
func (b *Binder) Save(ctx context.Context) error {
	b.mu.Lock()
	if b.busy {
		b.mu.Unlock()
		return errors.NewConcurrentOperation("save")
	}
	if b.m == nil {
		b.mu.Unlock()
		return errors.NewInvalidState("save requires a bound model")
	}
	s, ok := model.As[model.Savable](b.m)
	if !ok {
		b.mu.Unlock()
		return errors.NewUnsupportedOperation("save", string(model.TraitSavable))
	}

	changed := b.clearError()
	if b.manageLifetime {
		if u, ok := model.As[model.Undoable](b.m); ok {
			u.ApplyEdit()
		}
	}
	prev := b.m
	b.busy = true
	changed = append(changed, PropIsBusy)
	changed = append(changed, b.recompute()...)
	b.mu.Unlock()

	b.notifier.Notify(changed...)

	go func() {
		m, err := s.Save(ctx)
		b.exec(func() { b.completeSave(prev, m, err) })
	}()
	return nil
}

func (b *Binder) completeSave(prev, m any, err error) {
	b.mu.Lock()
	b.busy = false
	var changed []string
	if err != nil {
		b.lastErr = errors.NewSaveError(err)
		changed = append(changed, PropError)
		// Re-open the session on the pre-save model so it stays editable.
		if b.manageLifetime {
			if u, ok := model.As[model.Undoable](prev); ok {
				u.BeginEdit()
			}
		}
	} else {
		b.m = m
		changed = append(changed, PropModel)
		if b.manageLifetime {
			if u, ok := model.As[model.Undoable](m); ok {
				u.BeginEdit()
			}
		}
	}
	changed = append(changed, b.recompute()...)
	changed = append(changed, EventSaved, PropIsBusy)
	b.mu.Unlock()

	b.notifier.Notify(changed...)
}

// Cancel discards the open edit session, restoring the model's prior field
// values, then begins a fresh session so the model stays editable. No-op
// unless the binder manages the lifetime and the model is undoable. A second
// Cancel with no intervening edits changes nothing and notifies nothing.
func (b *Binder) Cancel() {
	b.mu.Lock()
	if !b.manageLifetime {
		b.mu.Unlock()
		return
	}
	u, ok := model.As[model.Undoable](b.m)
	if !ok {
		b.mu.Unlock()
		return
	}
	u.CancelEdit()
	u.BeginEdit()
	changed := b.recompute()
	b.mu.Unlock()

	b.notifier.Notify(changed...)
}

// AddNew appends a new item to a list-shaped model and returns it.
func (b *Binder) AddNew() (any, error) {
	b.mu.Lock()
	a, ok := model.As[model.Appender](b.m)
	if !ok {
		b.mu.Unlock()
		return nil, errors.NewUnsupportedOperation("addNew", string(model.TraitAppender))
	}
	item, err := a.AddNew()
	if err != nil {
		b.mu.Unlock()
		return nil, err
	}
	changed := b.recompute()
	b.mu.Unlock()

	b.notifier.Notify(changed...)
	return item, nil
}

// Remove removes item from an ordered-collection model.
func (b *Binder) Remove(item any) error {
	b.mu.Lock()
	r, ok := model.As[model.Remover](b.m)
	if !ok {
		b.mu.Unlock()
		return errors.NewUnsupportedOperation("remove", string(model.TraitRemover))
	}
	if err := r.Remove(item); err != nil {
		b.mu.Unlock()
		return err
	}
	changed := b.recompute()
	b.mu.Unlock()

	b.notifier.Notify(changed...)
	return nil
}

// Delete marks an editable-root model for deletion; the mark takes effect on
// the next Save.
func (b *Binder) Delete() error {
	b.mu.Lock()
	d, ok := model.As[model.Deleter](b.m)
	if !ok {
		b.mu.Unlock()
		return errors.NewUnsupportedOperation("delete", string(model.TraitDeleter))
	}
	d.MarkDeleted()
	changed := b.recompute()
	b.mu.Unlock()

	b.notifier.Notify(changed...)
	return nil
}

// clearError resets the captured error at the start of a verb. Caller holds mu.
func (b *Binder) clearError() []string {
	if b.lastErr == nil {
		return nil
	}
	b.lastErr = nil
	return []string{PropError}
}

// recompute derives the capability flags from the current model and returns
// the names of flags that changed. Every flag short-circuits to false when
// no model is bound; trait absence is not an error. Caller holds mu.
func (b *Binder) recompute() []string {
	var canSave, canCancel, canAddNew, canRemove, canDelete bool
	if b.m != nil {
		if st, ok := model.As[model.StatusTracker](b.m); ok {
			canSave = st.IsDirty() && st.IsValid()
			canCancel = b.manageLifetime && model.Supports[model.Undoable](b.m) && st.IsDirty()
		}
		canAddNew = model.Supports[model.Appender](b.m)
		canRemove = model.Supports[model.Remover](b.m)
		canDelete = model.Supports[model.Deleter](b.m)
	}

	var changed []string
	if canSave != b.canSave {
		b.canSave = canSave
		changed = append(changed, PropCanSave)
	}
	if canCancel != b.canCancel {
		b.canCancel = canCancel
		changed = append(changed, PropCanCancel)
	}
	if canAddNew != b.canAddNew {
		b.canAddNew = canAddNew
		changed = append(changed, PropCanAddNew)
	}
	if canRemove != b.canRemove {
		b.canRemove = canRemove
		changed = append(changed, PropCanRemove)
	}
	if canDelete != b.canDelete {
		b.canDelete = canDelete
		changed = append(changed, PropCanDelete)
	}
	return changed
}
