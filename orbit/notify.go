package orbit

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// invalidateFrom walks the dependents graph from a changed record, marking
// every reachable record stale exactly once per pass. Listeners of every
// record in the reachable set (the origin included) are queued, deduplicated,
// and invoked only in the flush phase, after marking is complete, so no
// listener observes a mid-pass state.
func (s *Store) invalidateFrom(origin *record) {
	visited := mapset.NewSet[*record]()
	s.queueListeners(origin)
	s.markStale(origin, visited)
}

func (s *Store) markStale(rec *record, visited mapset.Set[*record]) {
	for dep := range rec.dependents.Iter() {
		if !visited.Add(dep) {
			continue
		}
		dep.stale = true
		s.queueListeners(dep)
		s.markStale(dep, visited)
	}
}

func (s *Store) queueListeners(rec *record) {
	for _, sub := range rec.listeners {
		if s.queuedSeen.Add(sub) {
			s.queue = append(s.queue, sub)
		}
	}
}

// StartBatch suspends listener flushing until the matching EndBatch, so
// several independent writes coalesce into one notification pass.
func (s *Store) StartBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchDepth++
}

func (s *Store) EndBatch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batchDepth--
	if s.batchDepth == 0 {
		s.flushPendingLocked()
	}
}

func (s *Store) Batch(cb func()) {
	s.StartBatch()
	defer s.EndBatch()
	cb()
}

// FlushPending drains queued notifications. Flushing with nothing queued is a
// no-op; the collaborator responsible for scheduling may call it freely.
func (s *Store) FlushPending() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushPendingLocked()
}

func (s *Store) flushPendingLocked() {
	for len(s.queue) > 0 {
		queued := s.queue
		s.queue = nil
		s.queuedSeen = mapset.NewSet[*subscription]()
		for _, sub := range queued {
			if sub.removed {
				continue
			}
			// Listeners re-enter the store (typically to re-read), so the
			// lock is released around each call.
			s.mu.Unlock()
			sub.fn()
			s.mu.Lock()
		}
	}
}
