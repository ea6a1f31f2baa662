// Package lisp is a minimal S-expression mutator used to exercise and
// visualize the collectors in internal/gc. It has no lexer or reader: an
// embedder builds expressions directly with the constructors below.
package lisp

import (
	"math"

	"github.com/tracegc/tracegc/internal/gc"
)

// Value is a managed pointer into the gc.Runtime's heap, or the zero value
// for the Lisp empty list / false.
type Value gc.Address

// IsNil reports whether v is the empty list.
func (v Value) IsNil() bool { return gc.Address(v).IsNil() }

// wordSize matches the collector's slot granularity; every field below is
// one word, except number's which stores a float64's raw bits.
const wordSize = 8

type kind int64

const (
	kindNumber kind = iota + 1
	kindSymbol
	kindString
	kindPair
	kindClosure
	kindBuiltin
	kindEnv
	kindBinding
)

func tagFor(k kind) gc.Tag {
	switch k {
	case kindNumber:
		return gc.TagNumber
	case kindSymbol:
		return gc.TagSymbol
	case kindString:
		return gc.TagString
	case kindPair:
		return gc.TagPair
	case kindClosure:
		return gc.TagLambda
	case kindBuiltin:
		return gc.TagBuiltin
	case kindEnv:
		return gc.TagEnv
	case kindBinding:
		return gc.TagBinding
	}
	return gc.TagUnknown
}

// protectChildren roots each address in vs for the duration of a
// constructor's own call to alloc: alloc's single allocation can itself
// trigger a collection, and a child Value received as an ordinary
// parameter is not safe across that collection unless something roots it
// for its own sake (spec §6.4) — being reachable via whatever rooted the
// caller's copy does not update this function's separate copy of it.
func protectChildren(rt *gc.Runtime, vs []gc.Address) (func(), error) {
	for i := range vs {
		if err := rt.AddRoot(&vs[i]); err != nil {
			for j := 0; j < i; j++ {
				rt.RemoveRoot(&vs[j])
			}
			return nil, err
		}
	}
	return func() {
		for i := range vs {
			rt.RemoveRoot(&vs[i])
		}
	}, nil
}

func alloc(rt *gc.Runtime, k kind, words int, trace gc.TraceFunc) (Value, error) {
	addr, err := rt.Allocate(uintptr(words) * wordSize)
	if err != nil {
		return Value(0), err
	}
	gc.WriteSlot(addr, 0, gc.Address(k))
	if trace != nil {
		rt.SetTrace(addr, trace)
	}
	rt.SetTag(addr, tagFor(k))
	return Value(addr), nil
}

// Kind returns v's kind tag, or 0 for the empty list.
func Kind(v Value) kind {
	if v.IsNil() {
		return 0
	}
	return kind(gc.ReadSlot(gc.Address(v), 0))
}

// NewNumber allocates a number object holding f.
func NewNumber(rt *gc.Runtime, f float64) (Value, error) {
	v, err := alloc(rt, kindNumber, 2, nil)
	if err != nil {
		return v, err
	}
	gc.WriteSlot(gc.Address(v), wordSize, gc.Address(math.Float64bits(f)))
	return v, nil
}

// NumberValue returns the float64 held by a number object.
func NumberValue(v Value) float64 {
	bits := uint64(gc.ReadSlot(gc.Address(v), wordSize))
	return math.Float64frombits(bits)
}

func newSymbolObject(rt *gc.Runtime, internID int) (Value, error) {
	v, err := alloc(rt, kindSymbol, 2, nil)
	if err != nil {
		return v, err
	}
	gc.WriteSlot(gc.Address(v), wordSize, gc.Address(internID))
	return v, nil
}

func newStringObject(rt *gc.Runtime, internID int) (Value, error) {
	v, err := alloc(rt, kindString, 2, nil)
	if err != nil {
		return v, err
	}
	gc.WriteSlot(gc.Address(v), wordSize, gc.Address(internID))
	return v, nil
}

// internID returns the Go-side interning slot a symbol or string object
// refers to. Neither kind has managed-pointer fields: the actual text
// lives in the Interpreter's intern table, not the GC heap, since the
// collector's slot primitives are word-granular (spec §6.4) and have
// nothing to offer raw byte storage.
func internID(v Value) int { return int(gc.ReadSlot(gc.Address(v), wordSize)) }

func tracePair(payload gc.Address, mark gc.MarkFunc) {
	gc.WriteSlot(payload, wordSize, mark(gc.ReadSlot(payload, wordSize)))
	gc.WriteSlot(payload, 2*wordSize, mark(gc.ReadSlot(payload, 2*wordSize)))
}

// NewPair allocates a cons cell.
func NewPair(rt *gc.Runtime, car, cdr Value) (Value, error) {
	children := []gc.Address{gc.Address(car), gc.Address(cdr)}
	release, err := protectChildren(rt, children)
	if err != nil {
		return Value(0), err
	}
	defer release()

	v, err := alloc(rt, kindPair, 3, tracePair)
	if err != nil {
		return v, err
	}
	gc.WriteSlot(gc.Address(v), wordSize, children[0])
	gc.WriteSlot(gc.Address(v), 2*wordSize, children[1])
	return v, nil
}

func Car(v Value) Value { return Value(gc.ReadSlot(gc.Address(v), wordSize)) }
func Cdr(v Value) Value { return Value(gc.ReadSlot(gc.Address(v), 2*wordSize)) }

// SetCar and SetCdr mutate a live pair in place, routing the store through
// the write barrier (spec §3.3, §6.4) so a generational collector notices
// a tenured pair pointing at a nursery object.
func SetCar(rt *gc.Runtime, pair, car Value) {
	slot := gc.SlotPointer(gc.Address(pair), wordSize)
	*slot = gc.Address(car)
	rt.WriteBarrier(gc.Address(pair), slot, gc.Address(car))
}

func SetCdr(rt *gc.Runtime, pair, cdr Value) {
	slot := gc.SlotPointer(gc.Address(pair), 2*wordSize)
	*slot = gc.Address(cdr)
	rt.WriteBarrier(gc.Address(pair), slot, gc.Address(cdr))
}

func traceClosure(payload gc.Address, mark gc.MarkFunc) {
	gc.WriteSlot(payload, wordSize, mark(gc.ReadSlot(payload, wordSize)))
	gc.WriteSlot(payload, 2*wordSize, mark(gc.ReadSlot(payload, 2*wordSize)))
	gc.WriteSlot(payload, 3*wordSize, mark(gc.ReadSlot(payload, 3*wordSize)))
}

// NewClosure allocates a closure over params (a list of symbols), body (a
// list of expressions), and the environment it closes over.
func NewClosure(rt *gc.Runtime, params, body, env Value) (Value, error) {
	children := []gc.Address{gc.Address(params), gc.Address(body), gc.Address(env)}
	release, err := protectChildren(rt, children)
	if err != nil {
		return Value(0), err
	}
	defer release()

	v, err := alloc(rt, kindClosure, 4, traceClosure)
	if err != nil {
		return v, err
	}
	gc.WriteSlot(gc.Address(v), wordSize, children[0])
	gc.WriteSlot(gc.Address(v), 2*wordSize, children[1])
	gc.WriteSlot(gc.Address(v), 3*wordSize, children[2])
	return v, nil
}

func ClosureParams(v Value) Value { return Value(gc.ReadSlot(gc.Address(v), wordSize)) }
func ClosureBody(v Value) Value   { return Value(gc.ReadSlot(gc.Address(v), 2*wordSize)) }
func ClosureEnv(v Value) Value    { return Value(gc.ReadSlot(gc.Address(v), 3*wordSize)) }

// NewBuiltin allocates a reference to the id-th entry of the Interpreter's
// builtin table. Builtins have no managed-pointer fields.
func NewBuiltin(rt *gc.Runtime, id int) (Value, error) {
	v, err := alloc(rt, kindBuiltin, 2, nil)
	if err != nil {
		return v, err
	}
	gc.WriteSlot(gc.Address(v), wordSize, gc.Address(id))
	return v, nil
}

func BuiltinID(v Value) int { return int(gc.ReadSlot(gc.Address(v), wordSize)) }

func traceEnv(payload gc.Address, mark gc.MarkFunc) {
	gc.WriteSlot(payload, wordSize, mark(gc.ReadSlot(payload, wordSize)))
	gc.WriteSlot(payload, 2*wordSize, mark(gc.ReadSlot(payload, 2*wordSize)))
}

// NewEnv allocates an environment frame with no bindings yet, chained to
// parent (the zero Value for the global frame's parent).
func NewEnv(rt *gc.Runtime, parent Value) (Value, error) {
	children := []gc.Address{gc.Address(parent)}
	release, err := protectChildren(rt, children)
	if err != nil {
		return Value(0), err
	}
	defer release()

	v, err := alloc(rt, kindEnv, 3, traceEnv)
	if err != nil {
		return v, err
	}
	gc.WriteSlot(gc.Address(v), 2*wordSize, children[0])
	return v, nil
}

func EnvBindings(v Value) Value { return Value(gc.ReadSlot(gc.Address(v), wordSize)) }
func EnvParent(v Value) Value   { return Value(gc.ReadSlot(gc.Address(v), 2*wordSize)) }

func SetEnvBindings(rt *gc.Runtime, env, bindings Value) {
	slot := gc.SlotPointer(gc.Address(env), wordSize)
	*slot = gc.Address(bindings)
	rt.WriteBarrier(gc.Address(env), slot, gc.Address(bindings))
}

func traceBinding(payload gc.Address, mark gc.MarkFunc) {
	gc.WriteSlot(payload, wordSize, mark(gc.ReadSlot(payload, wordSize)))
	gc.WriteSlot(payload, 2*wordSize, mark(gc.ReadSlot(payload, 2*wordSize)))
	gc.WriteSlot(payload, 3*wordSize, mark(gc.ReadSlot(payload, 3*wordSize)))
}

// NewBinding allocates one (symbol . value) link of an environment's
// binding list, chained to next.
func NewBinding(rt *gc.Runtime, symbol, value, next Value) (Value, error) {
	children := []gc.Address{gc.Address(symbol), gc.Address(value), gc.Address(next)}
	release, err := protectChildren(rt, children)
	if err != nil {
		return Value(0), err
	}
	defer release()

	v, err := alloc(rt, kindBinding, 4, traceBinding)
	if err != nil {
		return v, err
	}
	gc.WriteSlot(gc.Address(v), wordSize, children[0])
	gc.WriteSlot(gc.Address(v), 2*wordSize, children[1])
	gc.WriteSlot(gc.Address(v), 3*wordSize, children[2])
	return v, nil
}

func BindingSymbol(v Value) Value { return Value(gc.ReadSlot(gc.Address(v), wordSize)) }
func BindingValue(v Value) Value  { return Value(gc.ReadSlot(gc.Address(v), 2*wordSize)) }
func BindingNext(v Value) Value   { return Value(gc.ReadSlot(gc.Address(v), 3*wordSize)) }

func SetBindingValue(rt *gc.Runtime, binding, value Value) {
	slot := gc.SlotPointer(gc.Address(binding), 2*wordSize)
	*slot = gc.Address(value)
	rt.WriteBarrier(gc.Address(binding), slot, gc.Address(value))
}
