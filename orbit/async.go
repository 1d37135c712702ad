package orbit

import "sync"

// Task is the handle for a value that resolves asynchronously. A read
// function returns one as its value, or a write function returns one as its
// effect; the store installs a continuation that commits the settlement and
// re-notifies. Settling is one-shot: later Resolve/Reject calls are ignored.
type Task struct {
	mu      sync.Mutex
	done    chan struct{}
	value   any
	err     error
	settled bool
}

func NewTask() *Task {
	return &Task{done: make(chan struct{})}
}

// Go runs fn in its own goroutine and returns a task settled by its result.
func Go(fn func() (any, error)) *Task {
	t := NewTask()
	go func() {
		v, err := fn()
		if err != nil {
			t.Reject(err)
			return
		}
		t.Resolve(v)
	}()
	return t
}

func (t *Task) Resolve(v any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.settled {
		return
	}
	t.value = v
	t.settled = true
	close(t.done)
}

func (t *Task) Reject(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.settled {
		return
	}
	t.err = err
	t.settled = true
	close(t.done)
}

// Done is closed once the task has settled.
func (t *Task) Done() <-chan struct{} { return t.done }

func (t *Task) result() (any, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.value, t.err
}

// trackRead marks a record pending-read and installs the settlement
// continuation for the given generation. A recomputation or direct set that
// happens before settlement bumps the epoch, so a superseded task's result
// never commits; this is the only form of cancellation.
func (s *Store) trackRead(rec *record, t *Task, epoch uint64) {
	rec.status = StatusPendingRead
	rec.err = nil
	rec.task = t
	go func() {
		<-t.Done()
		v, err := t.result()
		s.mu.Lock()
		defer s.mu.Unlock()
		if rec.epoch != epoch {
			return
		}
		if err != nil {
			rec.err = err
			rec.status = StatusErrored
			rec.task = nil
			s.invalidateFrom(rec)
		} else {
			s.commitSettled(rec, v)
		}
		if s.batchDepth == 0 {
			s.flushPendingLocked()
		}
	}()
}

// trackWrite marks a record pending-write. The previously settled value stays
// readable; only completion of the write is outstanding, which is what lets a
// consumer keep showing the value while disabling further writes.
func (s *Store) trackWrite(rec *record, t *Task) {
	rec.epoch++
	epoch := rec.epoch
	rec.status = StatusPendingWrite
	rec.task = t
	s.queueListeners(rec)
	go func() {
		<-t.Done()
		_, err := t.result()
		s.mu.Lock()
		defer s.mu.Unlock()
		if rec.epoch != epoch {
			return
		}
		if err != nil {
			rec.err = err
			rec.status = StatusErrored
		} else {
			rec.status = StatusSettled
		}
		rec.task = nil
		s.queueListeners(rec)
		if s.batchDepth == 0 {
			s.flushPendingLocked()
		}
	}()
}

// chainTask supports functional updates against an unsettled value: the
// returned task settles with fn applied to the awaited result, or with the
// original rejection. Installing the chained task as the record's pending
// computation is what lets several queued functional updates compose in
// order, each one chaining off the previous.
func chainTask(t *Task, fn func(any) any) *Task {
	next := NewTask()
	go func() {
		<-t.Done()
		v, err := t.result()
		if err != nil {
			next.Reject(err)
			return
		}
		next.Resolve(fn(v))
	}()
	return next
}
