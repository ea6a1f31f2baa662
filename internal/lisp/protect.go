package lisp

import (
	"fmt"

	"github.com/tracegc/tracegc/internal/gc"
)

// ProtectionPool is a fixed-capacity pool of temporary root slots (spec
// §6.4): every slot is registered with the collector once, up front, so
// Protect/Unprotect never touches the root set itself, only which slots
// are in use.
type ProtectionPool struct {
	rt    *gc.Runtime
	slots []gc.Address
	used  []bool
}

// NewProtectionPool registers capacity root slots with rt and returns a
// pool over them.
func NewProtectionPool(rt *gc.Runtime, capacity int) (*ProtectionPool, error) {
	p := &ProtectionPool{
		rt:    rt,
		slots: make([]gc.Address, capacity),
		used:  make([]bool, capacity),
	}
	for i := range p.slots {
		if err := rt.AddRoot(&p.slots[i]); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Protect claims a free slot, stores v in it, and returns a handle to pass
// to Unprotect. It panics if the pool is exhausted: a fixed-capacity pool
// exhausting under normal use is a caller bug (too few Unprotect calls),
// not a recoverable runtime condition.
func (p *ProtectionPool) Protect(v Value) int {
	for i, inUse := range p.used {
		if !inUse {
			p.used[i] = true
			p.slots[i] = gc.Address(v)
			return i
		}
	}
	panic(fmt.Sprintf("lisp: protection pool exhausted (capacity %d)", len(p.slots)))
}

// Unprotect releases a slot claimed by Protect. Typical use is
// `h := pool.Protect(v); defer pool.Unprotect(h)`.
func (p *ProtectionPool) Unprotect(handle int) {
	p.used[handle] = false
	p.slots[handle] = 0
}

// Set updates the value held in an already-claimed slot, so a single
// Protect/Unprotect pair can guard a value that changes across several
// allocating calls (e.g. the accumulator in a loop building a list).
func (p *ProtectionPool) Set(handle int, v Value) { p.slots[handle] = gc.Address(v) }

// Value returns the value currently held in handle's slot, which a
// collection running between Protect and Unprotect may have relocated.
func (p *ProtectionPool) Value(handle int) Value { return Value(p.slots[handle]) }
