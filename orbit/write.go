package orbit

// Write applies an update to an atom. For primitives the update is the next
// value, a functional update, or the Reset sentinel; for writable derived
// atoms the atom's write function runs with a transaction that may set any
// number of atoms. All sets issued in one Write share a single propagation
// pass, and listeners are flushed once at the end unless a batch is open.
func (s *Store) Write(a *Atom, update any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.write(a, update); err != nil {
		return err
	}
	if s.batchDepth == 0 {
		s.flushPendingLocked()
	}
	return nil
}

func (s *Store) write(a *Atom, update any) error {
	rec := s.openRecord(a)
	switch a.kind {
	case KindDerivedReadOnly:
		return ErrNotWritable
	case KindPrimitive:
		s.setValue(rec, update)
		return nil
	default:
		tx := &Txn{s: s, self: rec}
		t, err := a.write(tx, update)
		if err != nil {
			return err
		}
		if t != nil {
			s.trackWrite(rec, t)
		}
		return nil
	}
}

// setValue commits an update to a record, honoring the Reset sentinel and
// functional updates. A functional update against an unsettled value chains a
// new task off the in-flight one, applying to its resolved value; the chained
// task becomes the record's pending computation, so a later functional write
// composes on top of it instead of racing the original task.
func (s *Store) setValue(rec *record, update any) {
	if update == Reset {
		rec.epoch++
		s.commitSettled(rec, rec.atom.initial)
		return
	}
	if fn, ok := update.(func(any) any); ok {
		if rec.status == StatusPendingRead && rec.task != nil {
			rec.epoch++
			s.trackRead(rec, chainTask(rec.task, fn), rec.epoch)
			return
		}
		rec.epoch++
		s.commitSettled(rec, fn(rec.value))
		return
	}
	rec.epoch++
	if t, ok := update.(*Task); ok {
		s.trackRead(rec, t, rec.epoch)
		s.invalidateFrom(rec)
		return
	}
	s.commitSettled(rec, update)
}

// commitSettled stores a settled value and starts invalidation of everything
// downstream. This is the only path that marks dependents stale.
func (s *Store) commitSettled(rec *record, v any) {
	rec.value = v
	rec.err = nil
	rec.status = StatusSettled
	rec.task = nil
	s.invalidateFrom(rec)
}

// Txn is handed to a writable atom's write function for the duration of one
// write pass.
type Txn struct {
	s    *Store
	self *record
}

// Get returns an atom's current value without registering a dependency edge.
func (tx *Txn) Get(a *Atom) (any, error) {
	return tx.s.readRecord(tx.s.openRecord(a))
}

// Set updates the write function's own atom directly, or recurses into a
// write of any other atom. Invalidation from every Set in the pass is
// coalesced into one flush.
func (tx *Txn) Set(a *Atom, update any) error {
	if a == tx.self.atom {
		tx.s.setValue(tx.self, update)
		return nil
	}
	return tx.s.write(a, update)
}
