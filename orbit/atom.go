package orbit

// Getter is handed to a derived atom's read function. Every call registers the
// read atom as a dependency of the atom being evaluated, except a read of the
// atom itself, which returns its previous settled value edge-free.
type Getter func(a *Atom) (any, error)

// ReadFunc computes a derived atom's value from other atoms.
// Returning a *Task marks the atom pending until the task settles.
type ReadFunc func(get Getter) (any, error)

// WriteFunc applies an update to a writable derived atom. It may set its own
// atom or fan out into writes of any number of other atoms through tx.
// Returning a non-nil *Task marks the atom pending-write until it settles.
type WriteFunc func(tx *Txn, update any) (*Task, error)

type Kind uint8

const (
	KindPrimitive Kind = iota
	KindDerivedReadOnly
	KindDerivedWritable
)

func (k Kind) String() string {
	switch k {
	case KindPrimitive:
		return "primitive"
	case KindDerivedReadOnly:
		return "derived read-only"
	case KindDerivedWritable:
		return "derived writable"
	}
	return "unknown"
}

// Atom is an immutable descriptor for one cell of state. Its identity, not its
// contents, is the cache key: two atoms built from identical functions are
// distinct cells. All mutable state lives in the store's record for the atom.
type Atom struct {
	name    string
	kind    Kind
	read    ReadFunc
	write   WriteFunc
	initial any
}

func (a *Atom) Name() string { return a.name }
func (a *Atom) Kind() Kind   { return a.kind }

// Primitive creates a settable atom holding a plain value.
func Primitive(name string, initial any) *Atom {
	return &Atom{name: name, kind: KindPrimitive, initial: initial}
}

// Derived creates a read-only atom computed from other atoms.
func Derived(name string, read ReadFunc) *Atom {
	return &Atom{name: name, kind: KindDerivedReadOnly, read: read}
}

// Writable creates a derived atom that also accepts writes.
func Writable(name string, read ReadFunc, write WriteFunc) *Atom {
	return &Atom{name: name, kind: KindDerivedWritable, read: read, write: write}
}
