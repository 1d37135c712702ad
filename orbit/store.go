package orbit

import (
	"sync"

	mapset "github.com/deckarep/golang-set/v2"
)

// Store owns the records for one independent graph of atoms. Stores are
// explicit and passable so separate graphs (per test, per scope) never
// interfere; there is no process-wide registry.
//
// All graph mutation runs under one mutex. Synchronous callers drive the
// store single-threaded; the lock exists because asynchronous settlements
// re-enter from their own goroutines and must interleave safely with writes
// issued in between.
type Store struct {
	mu      sync.Mutex
	records map[*Atom]*record

	batchDepth int

	// queue holds listeners reached by invalidation, deduplicated per pass
	// by queuedSeen, and drained only in the flush phase.
	queue      []*subscription
	queuedSeen mapset.Set[*subscription]
}

func New() *Store {
	return &Store{
		records:    map[*Atom]*record{},
		queuedSeen: mapset.NewSet[*subscription](),
	}
}

// Len reports the number of live records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Status reports the record state of an atom. An atom that was never read,
// written or subscribed has no record and reports settled.
func (s *Store) Status(a *Atom) Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[a]
	if !ok {
		return StatusSettled
	}
	return rec.status
}

// Subscribe registers a listener invoked after any settle or invalidation
// reaching the atom. The returned function removes the listener and is
// idempotent.
func (s *Store) Subscribe(a *Atom, fn func()) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.openRecord(a)
	// Mount: a derived atom is evaluated on first subscribe so its dependency
	// edges exist before any write needs to reach this listener.
	if a.kind != KindPrimitive && rec.stale && !rec.computing {
		s.recompute(rec)
	}
	sub := &subscription{rec: rec, fn: fn}
	rec.listeners = append(rec.listeners, sub)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub.removed {
			return
		}
		sub.removed = true
		for i, l := range rec.listeners {
			if l == sub {
				rec.listeners = append(rec.listeners[:i], rec.listeners[i+1:]...)
				break
			}
		}
		s.maybeDiscard(rec)
	}
}
