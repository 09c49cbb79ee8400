package binder

// Executor schedules async verb completions onto the binder's owning
// context. The binder's state mutation and notification delivery for a
// completion happen inside the scheduled function, so an executor that
// serializes callbacks gives UI-thread-style marshaling without the binder
// knowing about any concrete runtime.
type Executor func(fn func())

// Direct runs the completion inline on the goroutine the underlying
// operation finished on. The binder's internal locking keeps state
// consistent, so Direct is safe when callers do not require a single
// delivery thread.
func Direct(fn func()) {
	fn()
}

// SerialExecutor runs completions one at a time on a dedicated goroutine,
// in submission order.
type SerialExecutor struct {
	work chan func()
	done chan struct{}
}

// NewSerialExecutor starts the executor's delivery goroutine.
func NewSerialExecutor() *SerialExecutor {
	e := &SerialExecutor{
		work: make(chan func(), 16),
		done: make(chan struct{}),
	}
	go e.run()
	return e
}

func (e *SerialExecutor) run() {
	defer close(e.done)
	for fn := range e.work {
		fn()
	}
}

// Do schedules fn for execution. Do after Close panics, matching send on a
// closed channel.
func (e *SerialExecutor) Do(fn func()) {
	e.work <- fn
}

// Close stops the executor after draining queued work and waits for the
// delivery goroutine to exit.
func (e *SerialExecutor) Close() {
	close(e.work)
	<-e.done
}
