// Package statecache reuses mechanism states across differentiation
// passes. Constructing a state walks the topology and allocates the
// kinematic caches; mutating one is cheap. Differentiation sweeps
// evaluate an observable many times with a single element type, so
// keying constructed states by that type amortizes construction across
// a whole sweep while plain and dual evaluation coexist in one process.
package statecache

import (
	"reflect"

	"mechdiff/internal/mech"
	"mechdiff/internal/scalar"
)

// Cache holds at most one mechanism state per scalar element type, all
// bound to one fixed mechanism. The zero value is not usable; use New.
//
// A Cache is not safe for concurrent use: two goroutines racing on the
// first request for the same type is a data race. Prewarm the needed
// types before sharing, or give each goroutine its own Cache.
type Cache struct {
	mech   *mech.Mechanism
	states map[reflect.Type]any
}

// New creates an empty cache bound to the mechanism.
func New(m *mech.Mechanism) *Cache {
	return &Cache{
		mech:   m,
		states: make(map[reflect.Type]any),
	}
}

// Mechanism returns the mechanism all cached states belong to.
func (c *Cache) Mechanism() *mech.Mechanism { return c.mech }

// Len returns the number of element types with a live state.
func (c *Cache) Len() int { return len(c.states) }

// For returns the cache's state for element type T, constructing it on
// the first request. Repeated calls with the same T return the same
// instance; callers mutate it in place between calls.
//
// Whether T is arithmetically usable is not validated here: an
// unsuitable type fails at first use in the mechanics code, not at
// lookup.
func For[T scalar.Scalar[T]](c *Cache) *mech.State[T] {
	var zero T
	key := reflect.TypeOf(zero)
	if s, ok := c.states[key]; ok {
		return s.(*mech.State[T])
	}
	s := mech.NewState[T](c.mech)
	c.states[key] = s
	return s
}

// Prewarm constructs the state for element type T if it does not exist
// yet, for callers that need the cache populated before concurrent
// read-side use.
func Prewarm[T scalar.Scalar[T]](c *Cache) {
	For[T](c)
}
