package orbit

import (
	"errors"

	"github.com/cespare/xxhash/v2"
)

var (
	// ErrNotWritable is returned by Write when the target atom has no write
	// function.
	ErrNotWritable = errors.New("orbit: atom is not writable")

	// ErrCyclicDependency is returned when an atom transitively reads itself
	// during its own evaluation.
	ErrCyclicDependency = errors.New("orbit: cyclic dependency")

	// ErrPending is returned by Read while an atom's value is an in-flight
	// asynchronous computation. It is a value state, not an engine failure;
	// readers see it until the atom resettles.
	ErrPending = errors.New("orbit: value is pending")
)

// Reset is the distinguished update value meaning "restore the atom to its
// initial state" rather than "store this literal value". Write functions that
// forward updates must pass it through unchanged.
var Reset any = int64(xxhash.Sum64String("ORBIT_RESET") & 0x7fffffffffffffff)

// Status is the lifecycle state of an atom's record.
type Status uint8

const (
	// StatusSettled means the record holds a current, cacheable value.
	StatusSettled Status = iota
	// StatusPendingRead means the displayed value is not yet known.
	StatusPendingRead
	// StatusPendingWrite means a write's effect has not yet finished; the
	// previously settled value is still readable.
	StatusPendingWrite
	// StatusErrored means the last evaluation or settlement failed.
	StatusErrored
)

func (st Status) String() string {
	switch st {
	case StatusSettled:
		return "settled"
	case StatusPendingRead:
		return "pending-read"
	case StatusPendingWrite:
		return "pending-write"
	case StatusErrored:
		return "errored"
	}
	return "unknown"
}
