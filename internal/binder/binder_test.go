package binder

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/hpungsan/trak/internal/errors"
)

// stubFactory adapts a function to the Factory interface.
type stubFactory func(ctx context.Context, method string, args ...any) (any, error)

func (f stubFactory) Invoke(ctx context.Context, method string, args ...any) (any, error) {
	return f(ctx, method, args...)
}

// plainModel implements no traits.
type plainModel struct{}

// trackedModel implements StatusTracker only.
type trackedModel struct {
	dirty, valid bool
}

func (m *trackedModel) IsDirty() bool { return m.dirty }
func (m *trackedModel) IsValid() bool { return m.valid }

// editModel implements StatusTracker, Undoable, Savable, and Deleter with
// counters so tests can assert session bracketing.
type editModel struct {
	mu      sync.Mutex
	dirty   bool
	valid   bool
	begins  int
	applies int
	cancels int
	deleted bool

	saveResult  any
	saveErr     error
	saveStarted chan struct{} // closed when Save is entered, if set
	saveRelease chan struct{} // Save blocks until closed, if set
}

func (m *editModel) IsDirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

func (m *editModel) IsValid() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.valid
}

func (m *editModel) BeginEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.begins++
}

func (m *editModel) ApplyEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applies++
}

func (m *editModel) CancelEdit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancels++
	m.dirty = false // discard restores the snapshot baseline
}

func (m *editModel) MarkDeleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = true
	m.dirty = true
}

func (m *editModel) Save(_ context.Context) (any, error) {
	if m.saveStarted != nil {
		close(m.saveStarted)
	}
	if m.saveRelease != nil {
		<-m.saveRelease
	}
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	if m.saveResult != nil {
		return m.saveResult, nil
	}
	return m, nil
}

func (m *editModel) beginCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.begins
}

func (m *editModel) applyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applies
}

// listModel implements Appender and Remover.
type listModel struct {
	items []any
}

func (l *listModel) AddNew() (any, error) {
	item := &plainModel{}
	l.items = append(l.items, item)
	return item, nil
}

func (l *listModel) Remove(item any) error {
	for i, it := range l.items {
		if it == item {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFound("item")
}

// recorder captures notifications in delivery order.
type recorder struct {
	mu    sync.Mutex
	props []string
}

func (r *recorder) record(prop string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.props = append(r.props, prop)
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.props))
	copy(out, r.props)
	return out
}

func (r *recorder) count(prop string) int {
	n := 0
	for _, p := range r.all() {
		if p == prop {
			n++
		}
	}
	return n
}

// awaitIdle subscribes before returning a wait function, so a completion
// between verb start and wait cannot be missed.
func awaitIdle(t *testing.T, b *Binder) func() {
	t.Helper()
	idle := make(chan struct{})
	var once sync.Once
	unsub := b.Subscribe(func(prop string) {
		if prop == PropIsBusy && !b.IsBusy() {
			once.Do(func() { close(idle) })
		}
	})
	return func() {
		defer unsub()
		select {
		case <-idle:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for binder to go idle")
		}
	}
}

func TestCapabilitiesNoModel(t *testing.T) {
	b := New(nil, WithManagedLifetime())

	if b.CanSave() || b.CanCancel() || b.CanAddNew() || b.CanRemove() || b.CanDelete() {
		t.Error("all capability flags must be false with no model bound")
	}
}

func TestCanCancelRequiresUndoable(t *testing.T) {
	// A dirty tracked model without Undoable never allows cancel, managed
	// lifetime or not.
	for _, managed := range []bool{false, true} {
		var opts []Option
		if managed {
			opts = append(opts, WithManagedLifetime())
		}
		b := New(nil, opts...)
		b.SetModel(&trackedModel{dirty: true, valid: true})

		if b.CanCancel() {
			t.Errorf("managed=%v: CanCancel = true for non-Undoable model", managed)
		}
		if !b.CanSave() {
			t.Errorf("managed=%v: CanSave = false for dirty valid model", managed)
		}
	}
}

func TestCanSaveRequiresDirty(t *testing.T) {
	b := New(nil)
	b.SetModel(&trackedModel{dirty: false, valid: true})

	if b.CanSave() {
		t.Error("CanSave = true for a clean model")
	}
}

func TestCanSaveRequiresValid(t *testing.T) {
	b := New(nil)
	b.SetModel(&trackedModel{dirty: true, valid: false})

	if b.CanSave() {
		t.Error("CanSave = true for an invalid model")
	}
}

func TestSetModelFlagsReflectNewModel(t *testing.T) {
	b := New(nil, WithManagedLifetime())
	b.SetModel(&listModel{})

	if !b.CanAddNew() || !b.CanRemove() {
		t.Error("flags should reflect the list model")
	}
	if b.CanSave() || b.CanDelete() {
		t.Error("list model supports neither save nor delete")
	}

	// Swap to a tracked model; a synchronous read must see the new traits.
	b.SetModel(&trackedModel{dirty: true, valid: true})
	if b.CanAddNew() || b.CanRemove() {
		t.Error("flags still reflect the previous model after swap")
	}
	if !b.CanSave() {
		t.Error("CanSave should reflect the new dirty valid model")
	}
}

func TestSetModelManagedBeginsEdit(t *testing.T) {
	m := &editModel{valid: true}
	b := New(nil, WithManagedLifetime())
	b.SetModel(m)

	if m.beginCount() != 1 {
		t.Errorf("begins = %d, want 1", m.beginCount())
	}
}

func TestSetModelBorrowedSkipsEdit(t *testing.T) {
	m := &editModel{valid: true}
	b := New(nil)
	b.SetModel(m)

	if m.beginCount() != 0 {
		t.Errorf("begins = %d, want 0 for unmanaged lifetime", m.beginCount())
	}
}

func TestWithExecutorMarshalsCompletions(t *testing.T) {
	exec := NewSerialExecutor()
	defer exec.Close()

	var mu sync.Mutex
	completions := 0
	m1 := &editModel{valid: true}
	factory := stubFactory(func(context.Context, string, ...any) (any, error) {
		return m1, nil
	})

	b := New(factory, WithExecutor(func(fn func()) {
		mu.Lock()
		completions++
		mu.Unlock()
		exec.Do(fn)
	}))

	wait := awaitIdle(t, b)
	if err := b.Refresh(context.Background(), "project.get"); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	wait()

	wait = awaitIdle(t, b)
	if err := b.Save(context.Background()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	wait()

	mu.Lock()
	defer mu.Unlock()
	if completions != 2 {
		t.Errorf("completions through executor = %d, want 2", completions)
	}
	if b.Err() != nil {
		t.Errorf("Err = %v, want nil", b.Err())
	}
}

func TestInvalidateReflectsInPlaceMutation(t *testing.T) {
	m := &trackedModel{dirty: false, valid: true}
	b := New(nil)
	b.SetModel(m)

	if b.CanSave() {
		t.Fatal("CanSave = true for a clean model")
	}

	m.dirty = true
	if b.CanSave() {
		t.Fatal("flags should not move until Invalidate")
	}

	rec := &recorder{}
	b.Subscribe(rec.record)
	b.Invalidate()

	if !b.CanSave() {
		t.Error("CanSave should flip after Invalidate")
	}
	if got := rec.all(); len(got) != 1 || got[0] != PropCanSave {
		t.Errorf("notifications = %v, want [%s]", got, PropCanSave)
	}

	// No flag movement means no notifications.
	b.Invalidate()
	if rec.count(PropCanSave) != 1 {
		t.Error("idempotent Invalidate should notify nothing")
	}
}

func TestRefreshSuccess(t *testing.T) {
	m1 := &editModel{valid: true}
	factory := stubFactory(func(_ context.Context, method string, args ...any) (any, error) {
		if method != "project.get" {
			t.Errorf("method = %q, want project.get", method)
		}
		if len(args) != 1 || args[0] != 42 {
			t.Errorf("args = %v, want [42]", args)
		}
		return m1, nil
	})

	b := New(factory, WithManagedLifetime())
	rec := &recorder{}
	unsub := b.Subscribe(rec.record)
	defer unsub()

	wait := awaitIdle(t, b)
	if err := b.Refresh(context.Background(), "project.get", 42); err != nil {
		t.Fatalf("Refresh returned %v", err)
	}
	if !b.IsBusy() {
		t.Error("IsBusy should be true immediately after Refresh")
	}
	wait()

	if b.IsBusy() {
		t.Error("IsBusy should be false after completion")
	}
	if b.Model() != m1 {
		t.Error("model should be the factory result")
	}
	if b.Err() != nil {
		t.Errorf("Err = %v, want nil", b.Err())
	}
	if m1.beginCount() != 1 {
		t.Errorf("begins = %d, want 1 (managed lifetime opens a session)", m1.beginCount())
	}
	if rec.count(PropIsBusy) != 2 {
		t.Errorf("IsBusy notified %d times, want 2 (true then false)", rec.count(PropIsBusy))
	}
	if rec.count(PropModel) != 1 {
		t.Errorf("Model notified %d times, want 1", rec.count(PropModel))
	}
}

func TestRefreshFailureLeavesModel(t *testing.T) {
	boom := stderrors.New("boom")
	factory := stubFactory(func(_ context.Context, _ string, _ ...any) (any, error) {
		return nil, boom
	})

	prior := &trackedModel{dirty: true, valid: true}
	b := New(factory)
	b.SetModel(prior)

	wait := awaitIdle(t, b)
	if err := b.Refresh(context.Background(), "project.get", "nope"); err != nil {
		t.Fatalf("Refresh returned %v", err)
	}
	wait()

	if b.Model() != prior {
		t.Error("failed refresh must leave the prior model bound")
	}
	if !errors.Is(b.Err(), errors.ErrFactory) {
		t.Errorf("Err = %v, want FACTORY_ERROR", b.Err())
	}
	if !stderrors.Is(b.Err(), boom) {
		t.Error("captured error should unwrap to the factory failure")
	}
}

func TestRefreshClearsPreviousError(t *testing.T) {
	calls := 0
	m := &plainModel{}
	factory := stubFactory(func(_ context.Context, _ string, _ ...any) (any, error) {
		calls++
		if calls == 1 {
			return nil, stderrors.New("first fails")
		}
		return m, nil
	})

	b := New(factory)

	wait := awaitIdle(t, b)
	_ = b.Refresh(context.Background(), "project.get")
	wait()
	if b.Err() == nil {
		t.Fatal("first refresh should capture an error")
	}

	wait = awaitIdle(t, b)
	_ = b.Refresh(context.Background(), "project.get")
	wait()
	if b.Err() != nil {
		t.Errorf("Err = %v, want nil after successful retry", b.Err())
	}
	if b.Model() != m {
		t.Error("model should be the retry result")
	}
}

func TestSaveSuccessReplacesModel(t *testing.T) {
	post := &editModel{valid: true}
	pre := &editModel{dirty: true, valid: true, saveResult: post}

	b := New(nil, WithManagedLifetime())
	b.SetModel(pre)

	rec := &recorder{}
	unsub := b.Subscribe(rec.record)
	defer unsub()

	wait := awaitIdle(t, b)
	if err := b.Save(context.Background()); err != nil {
		t.Fatalf("Save returned %v", err)
	}
	wait()

	if b.Model() != post {
		t.Error("model should be the post-save object")
	}
	if b.Err() != nil {
		t.Errorf("Err = %v, want nil", b.Err())
	}
	if pre.applyCount() != 1 {
		t.Errorf("pre-save applies = %d, want 1 (session committed before dispatch)", pre.applyCount())
	}
	if post.beginCount() != 1 {
		t.Errorf("post-save begins = %d, want 1 (new session on new model)", post.beginCount())
	}
	if rec.count(EventSaved) != 1 {
		t.Errorf("Saved fired %d times, want 1", rec.count(EventSaved))
	}

	// Saved fires after the completion's capability recomputation; the
	// trailing IsBusy marks the pass as fully delivered.
	props := rec.all()
	if len(props) < 2 || props[len(props)-2] != EventSaved || props[len(props)-1] != PropIsBusy {
		t.Errorf("notification tail = %v, want [... %q %q]", props, EventSaved, PropIsBusy)
	}
}

func TestSaveFailureReopensEditSession(t *testing.T) {
	saveErr := stderrors.New("constraint violation")
	m2 := &editModel{dirty: true, valid: true, saveErr: saveErr}

	b := New(nil, WithManagedLifetime())
	b.SetModel(m2) // begins = 1
	if !b.CanCancel() {
		t.Fatal("precondition: CanCancel should be true for dirty undoable model")
	}

	rec := &recorder{}
	unsub := b.Subscribe(rec.record)
	defer unsub()

	wait := awaitIdle(t, b)
	if err := b.Save(context.Background()); err != nil {
		t.Fatalf("Save returned %v", err)
	}
	wait()

	if b.Model() != m2 {
		t.Error("failed save must leave the pre-save model bound")
	}
	if !errors.Is(b.Err(), errors.ErrSave) {
		t.Errorf("Err = %v, want SAVE_ERROR", b.Err())
	}
	if !stderrors.Is(b.Err(), saveErr) {
		t.Error("captured error should unwrap to the save failure")
	}
	// apply before dispatch, begin again on failure: still editable for retry.
	if m2.applyCount() != 1 {
		t.Errorf("applies = %d, want 1", m2.applyCount())
	}
	if m2.beginCount() != 2 {
		t.Errorf("begins = %d, want 2 (SetModel + failure reopen)", m2.beginCount())
	}
	if !b.CanCancel() {
		t.Error("CanCancel should be true again after the failed save")
	}
	if rec.count(EventSaved) != 1 {
		t.Errorf("Saved fired %d times, want 1 (fires on failure too)", rec.count(EventSaved))
	}
}

func TestSaveNoModel(t *testing.T) {
	b := New(nil)
	err := b.Save(context.Background())
	if !errors.Is(err, errors.ErrInvalidState) {
		t.Errorf("Save with no model = %v, want INVALID_STATE", err)
	}
}

func TestSaveNotSavable(t *testing.T) {
	b := New(nil)
	b.SetModel(&trackedModel{dirty: true, valid: true})
	err := b.Save(context.Background())
	if !errors.Is(err, errors.ErrUnsupportedOperation) {
		t.Errorf("Save on non-Savable model = %v, want UNSUPPORTED_OPERATION", err)
	}
}

func TestConcurrentSaveRejected(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	m := &editModel{dirty: true, valid: true, saveStarted: started, saveRelease: release}

	b := New(nil, WithManagedLifetime())
	b.SetModel(m)

	wait := awaitIdle(t, b)
	if err := b.Save(context.Background()); err != nil {
		t.Fatalf("first Save returned %v", err)
	}
	<-started

	err := b.Save(context.Background())
	if !errors.Is(err, errors.ErrConcurrentOperation) {
		t.Errorf("second Save = %v, want CONCURRENT_OPERATION", err)
	}
	if !b.IsBusy() {
		t.Error("rejected save must not alter IsBusy")
	}
	if b.Model() != m {
		t.Error("rejected save must not alter the model")
	}

	close(release)
	wait()
}

func TestConcurrentRefreshRejected(t *testing.T) {
	release := make(chan struct{})
	factory := stubFactory(func(_ context.Context, _ string, _ ...any) (any, error) {
		<-release
		return &plainModel{}, nil
	})

	b := New(factory)

	wait := awaitIdle(t, b)
	if err := b.Refresh(context.Background(), "project.get"); err != nil {
		t.Fatalf("first Refresh returned %v", err)
	}

	err := b.Refresh(context.Background(), "project.get")
	if !errors.Is(err, errors.ErrConcurrentOperation) {
		t.Errorf("second Refresh = %v, want CONCURRENT_OPERATION", err)
	}

	close(release)
	wait()
}

func TestCancelDiscardsAndReopens(t *testing.T) {
	m := &editModel{dirty: true, valid: true}
	b := New(nil, WithManagedLifetime())
	b.SetModel(m) // begins = 1

	if !b.CanCancel() {
		t.Fatal("precondition: CanCancel should be true")
	}

	b.Cancel()

	if m.cancels != 1 {
		t.Errorf("cancels = %d, want 1", m.cancels)
	}
	if m.beginCount() != 2 {
		t.Errorf("begins = %d, want 2 (reopen after discard)", m.beginCount())
	}
	if b.CanCancel() {
		t.Error("CanCancel should be false once changes are discarded")
	}
}

func TestCancelIdempotent(t *testing.T) {
	m := &editModel{dirty: true, valid: true}
	b := New(nil, WithManagedLifetime())
	b.SetModel(m)

	b.Cancel()

	rec := &recorder{}
	unsub := b.Subscribe(rec.record)
	defer unsub()

	// Second cancel with no intervening edits: no observable change, no
	// duplicate notifications of unchanged values.
	b.Cancel()

	if got := rec.all(); len(got) != 0 {
		t.Errorf("second Cancel notified %v, want none", got)
	}
}

func TestCancelUnmanagedIsNoop(t *testing.T) {
	m := &editModel{dirty: true, valid: true}
	b := New(nil)
	b.SetModel(m)

	b.Cancel()

	if m.cancels != 0 {
		t.Error("Cancel must not touch sessions the binder does not manage")
	}
}

func TestAddNewAndRemove(t *testing.T) {
	l := &listModel{}
	b := New(nil)
	b.SetModel(l)

	item, err := b.AddNew()
	if err != nil {
		t.Fatalf("AddNew returned %v", err)
	}
	if len(l.items) != 1 {
		t.Fatalf("items = %d, want 1", len(l.items))
	}

	if err := b.Remove(item); err != nil {
		t.Fatalf("Remove returned %v", err)
	}
	if len(l.items) != 0 {
		t.Errorf("items = %d, want 0", len(l.items))
	}
}

func TestAddNewUnsupported(t *testing.T) {
	b := New(nil)
	b.SetModel(&trackedModel{})

	if _, err := b.AddNew(); !errors.Is(err, errors.ErrUnsupportedOperation) {
		t.Errorf("AddNew = %v, want UNSUPPORTED_OPERATION", err)
	}

	// Absent model is equally unsupported.
	b2 := New(nil)
	if _, err := b2.AddNew(); !errors.Is(err, errors.ErrUnsupportedOperation) {
		t.Errorf("AddNew with no model = %v, want UNSUPPORTED_OPERATION", err)
	}
}

func TestDeleteMarksModel(t *testing.T) {
	m := &editModel{valid: true}
	b := New(nil, WithManagedLifetime())
	b.SetModel(m)

	if err := b.Delete(); err != nil {
		t.Fatalf("Delete returned %v", err)
	}
	if !m.deleted {
		t.Error("model should be marked for deletion")
	}
	if !b.CanSave() {
		t.Error("marking for deletion dirties the model, so CanSave should flip on")
	}
}

func TestDeleteUnsupported(t *testing.T) {
	prior := &trackedModel{dirty: true, valid: true}
	b := New(nil)
	b.SetModel(prior)

	err := b.Delete()
	if !errors.Is(err, errors.ErrUnsupportedOperation) {
		t.Errorf("Delete = %v, want UNSUPPORTED_OPERATION", err)
	}
	if b.Model() != prior {
		t.Error("failed Delete must leave the model unchanged")
	}
}

func TestRefreshThenSaveRoundTrip(t *testing.T) {
	m := &editModel{valid: true} // clean: underlying save is a no-op returning itself
	factory := stubFactory(func(_ context.Context, _ string, _ ...any) (any, error) {
		return m, nil
	})

	b := New(factory, WithManagedLifetime())
	rec := &recorder{}
	unsub := b.Subscribe(rec.record)
	defer unsub()

	wait := awaitIdle(t, b)
	_ = b.Refresh(context.Background(), "project.get", "p1")
	wait()

	wait = awaitIdle(t, b)
	if err := b.Save(context.Background()); err != nil {
		t.Fatalf("Save returned %v", err)
	}
	wait()

	if b.Model() != m {
		t.Error("round trip should end on the identity-equivalent model")
	}
	if b.Err() != nil {
		t.Errorf("Err = %v, want nil", b.Err())
	}
	if rec.count(PropError) != 0 {
		t.Errorf("Error notified %d times, want 0", rec.count(PropError))
	}
}
