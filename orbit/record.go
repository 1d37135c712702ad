package orbit

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// record is the mutable state behind one live atom. Records are created
// lazily on first read, write or subscribe, and discarded once nothing
// observes them (no listeners, no dependents).
type record struct {
	atom *Atom

	value  any
	err    error
	status Status

	// stale is set when an upstream dependency changed since the last
	// evaluation; the next read recomputes.
	stale bool
	// computing guards against re-entrant evaluation of the same record.
	computing bool

	// epoch increments on every recomputation and every direct set. An
	// asynchronous settlement only commits when the epoch it was installed
	// under is still current.
	epoch uint64
	task  *Task

	// dependencies is the exact set of records read during the most recent
	// evaluation; dependents is its inverse across all records.
	dependencies mapset.Set[*record]
	dependents   mapset.Set[*record]

	listeners []*subscription
}

type subscription struct {
	rec     *record
	fn      func()
	removed bool
}

func (s *Store) openRecord(a *Atom) *record {
	if rec, ok := s.records[a]; ok {
		return rec
	}
	rec := &record{
		atom:         a,
		value:        a.initial,
		stale:        a.kind != KindPrimitive,
		dependencies: mapset.NewSet[*record](),
		dependents:   mapset.NewSet[*record](),
	}
	s.records[a] = rec
	return rec
}

// maybeDiscard drops a record that no listener or dependent chain can reach
// anymore, releasing its own dependency edges recursively. Callers must not
// rely on discard timing; this is a cleanup sweep, not a guarantee.
func (s *Store) maybeDiscard(rec *record) {
	if rec.computing || len(rec.listeners) > 0 || rec.dependents.Cardinality() > 0 {
		return
	}
	if _, ok := s.records[rec.atom]; !ok {
		return
	}
	delete(s.records, rec.atom)
	for dep := range rec.dependencies.Iter() {
		dep.dependents.Remove(rec)
		s.maybeDiscard(dep)
	}
	rec.dependencies.Clear()
}
