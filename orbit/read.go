package orbit

import (
	"errors"

	mapset "github.com/deckarep/golang-set/v2"
)

// Read resolves the atom's current value, recomputing derived atoms on
// demand. A settled, non-stale record is returned as-is; this memoized path
// is the common case. Read never blocks on an in-flight value: it returns
// ErrPending (or the stored error) and leaves the caller to decide how to
// handle it.
func (s *Store) Read(a *Atom) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRecord(s.openRecord(a))
}

func (s *Store) readRecord(rec *record) (any, error) {
	if rec.computing {
		return nil, ErrCyclicDependency
	}
	// Primitives are settled once assigned; no recomputation ever occurs.
	if rec.atom.kind != KindPrimitive && rec.stale {
		s.recompute(rec)
	}
	return s.current(rec)
}

func (s *Store) current(rec *record) (any, error) {
	switch rec.status {
	case StatusPendingRead:
		return nil, ErrPending
	case StatusErrored:
		return nil, rec.err
	default:
		// Pending-write still exposes the previously settled value; only the
		// completion of the write is outstanding.
		return rec.value, nil
	}
}

// recompute re-evaluates a derived atom under a fresh tracking frame. The
// dependency set is rebuilt from empty on every evaluation; edges the new
// evaluation no longer reads are pruned, never merged.
func (s *Store) recompute(rec *record) {
	rec.computing = true
	rec.epoch++
	epoch := rec.epoch

	prevDeps := rec.dependencies
	rec.dependencies = mapset.NewSet[*record]()

	get := func(dep *Atom) (any, error) {
		if dep == rec.atom {
			// Reading yourself while re-evaluating yields your previous
			// settled value and registers no edge.
			return rec.value, nil
		}
		depRec := s.openRecord(dep)
		v, err := s.readRecord(depRec)
		rec.dependencies.Add(depRec)
		depRec.dependents.Add(rec)
		return v, err
	}

	v, err := rec.atom.read(get)

	rec.computing = false
	rec.stale = false

	for dropped := range prevDeps.Difference(rec.dependencies).Iter() {
		dropped.dependents.Remove(rec)
		s.maybeDiscard(dropped)
	}

	switch {
	case err != nil && errors.Is(err, ErrPending):
		// Pending bubbled up from a dependency. No task of our own; the
		// upstream settlement invalidates us through the dependents walk.
		rec.status = StatusPendingRead
		rec.task = nil
	case err != nil:
		rec.status = StatusErrored
		rec.err = err
		rec.task = nil
	default:
		if t, ok := v.(*Task); ok {
			s.trackRead(rec, t, epoch)
		} else {
			rec.value = v
			rec.err = nil
			rec.status = StatusSettled
			rec.task = nil
		}
	}
}
