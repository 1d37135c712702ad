package orbit_test

import (
	"testing"

	"github.com/atomparty/atomparty/orbit"
	"github.com/stretchr/testify/assert"
)

// A -> {B, C} -> D: writing A fires D's listener exactly once
func TestDiamondNotifiesOnce(t *testing.T) {
	s := orbit.New()
	a := orbit.Primitive("a", 1)
	b := orbit.Derived("b", func(get orbit.Getter) (any, error) {
		v, _ := get(a)
		return v.(int) + 1, nil
	})
	c := orbit.Derived("c", func(get orbit.Getter) (any, error) {
		v, _ := get(a)
		return v.(int) * 10, nil
	})
	d := orbit.Derived("d", func(get orbit.Getter) (any, error) {
		bv, _ := get(b)
		cv, _ := get(c)
		return bv.(int) + cv.(int), nil
	})

	fired := 0
	unsub := s.Subscribe(d, func() { fired++ })
	defer unsub()

	v, err := s.Read(d)
	assert.NoError(t, err)
	assert.Equal(t, 12, v)

	assert.NoError(t, s.Write(a, 2))
	assert.Equal(t, 1, fired)

	v, err = s.Read(d)
	assert.NoError(t, err)
	assert.Equal(t, 23, v)
}

// every recomputation rebuilds the dependency set; dropped edges stop notifying
func TestDynamicDependencyPruning(t *testing.T) {
	s := orbit.New()
	flag := orbit.Primitive("flag", true)
	x := orbit.Primitive("x", 1)
	y := orbit.Primitive("y", 100)
	computes := 0
	pick := orbit.Derived("pick", func(get orbit.Getter) (any, error) {
		computes++
		f, _ := get(flag)
		if f.(bool) {
			return get(x)
		}
		return get(y)
	})

	fired := 0
	unsub := s.Subscribe(pick, func() { fired++ })
	defer unsub()
	assert.Equal(t, 1, computes)

	// y is not a dependency yet; writing it must not notify
	assert.NoError(t, s.Write(y, 200))
	assert.Equal(t, 0, fired)

	assert.NoError(t, s.Write(flag, false))
	assert.Equal(t, 1, fired)
	v, err := s.Read(pick)
	assert.NoError(t, err)
	assert.Equal(t, 200, v)
	assert.Equal(t, 2, computes)

	// x was pruned from the dependency set; writing it is now invisible
	assert.NoError(t, s.Write(x, 7))
	assert.Equal(t, 1, fired)
	_, err = s.Read(pick)
	assert.NoError(t, err)
	assert.Equal(t, 2, computes)
}

// a deep chain recomputes lazily and yields the propagated value
func TestDeepChain(t *testing.T) {
	s := orbit.New()
	src := orbit.Primitive("src", 0)
	last := src
	const depth = 100
	for i := 0; i < depth; i++ {
		prev := last
		last = orbit.Derived("link", func(get orbit.Getter) (any, error) {
			v, err := get(prev)
			if err != nil {
				return nil, err
			}
			return v.(int) + 1, nil
		})
	}

	v, err := s.Read(last)
	assert.NoError(t, err)
	assert.Equal(t, depth, v)

	assert.NoError(t, s.Write(src, 1000))
	v, err = s.Read(last)
	assert.NoError(t, err)
	assert.Equal(t, 1000+depth, v)
}

// records unreachable from any listener or dependent chain are discarded
func TestUnreachableRecordsDiscarded(t *testing.T) {
	s := orbit.New()
	price := orbit.Primitive("price", 10)
	doubled := orbit.Derived("doubled", func(get orbit.Getter) (any, error) {
		v, err := get(price)
		if err != nil {
			return nil, err
		}
		return v.(int) * 2, nil
	})

	unsub := s.Subscribe(doubled, func() {})
	assert.Equal(t, 2, s.Len())

	unsub()
	assert.Equal(t, 0, s.Len())

	// unsubscribe is idempotent
	unsub()
	assert.Equal(t, 0, s.Len())
}
