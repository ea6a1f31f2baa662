package lisp

import "github.com/tracegc/tracegc/internal/gc"

// builtinFunc is the Go-side implementation behind a builtin Value.
type builtinFunc func(it *Interpreter, args []Value) (Value, error)

// Interpreter ties a gc.Runtime to a global environment, a symbol/string
// intern table, and a builtin table. It is the thing cmd/gcbench and this
// package's tests drive.
type Interpreter struct {
	RT *gc.Runtime

	global gc.Address // the root cell: always registered via RT.AddRoot

	Pool *ProtectionPool

	symbols *internTable
	strings *internTable

	builtins []builtinFunc

	// True is the interned symbol used as every builtin predicate's "yes"
	// result; the empty list is the only false value (spec §1: no
	// dedicated boolean kind).
	True Value
}

// NewInterpreter allocates a global environment, registers it and a
// protection pool as roots, and installs the builtin table.
func NewInterpreter(rt *gc.Runtime) (*Interpreter, error) {
	it := &Interpreter{RT: rt}

	symbols, err := newInternTable(rt)
	if err != nil {
		return nil, err
	}
	it.symbols = symbols
	strings, err := newInternTable(rt)
	if err != nil {
		return nil, err
	}
	it.strings = strings

	env, err := NewEnv(rt, Value(0))
	if err != nil {
		return nil, err
	}
	it.global = gc.Address(env)
	if err := rt.AddRoot(&it.global); err != nil {
		return nil, err
	}

	pool, err := NewProtectionPool(rt, 64)
	if err != nil {
		return nil, err
	}
	it.Pool = pool

	if it.True, err = it.Intern("t"); err != nil {
		return nil, err
	}
	if err := it.installBuiltins(); err != nil {
		return nil, err
	}
	return it, nil
}

// Global returns the global environment Value.
func (it *Interpreter) Global() Value { return Value(it.global) }

// Intern returns the unique Symbol object for name, allocating one on
// first use.
func (it *Interpreter) Intern(name string) (Value, error) {
	return it.symbols.intern(name, func(id int) (Value, error) { return newSymbolObject(it.RT, id) })
}

// SymbolName returns the text a symbol object was interned with.
func (it *Interpreter) SymbolName(v Value) string { return it.symbols.name(internID(v)) }

// InternString returns the unique String object for s, allocating one on
// first use.
func (it *Interpreter) InternString(s string) (Value, error) {
	return it.strings.intern(s, func(id int) (Value, error) { return newStringObject(it.RT, id) })
}

func (it *Interpreter) registerBuiltin(name string, fn builtinFunc) error {
	sym, err := it.Intern(name)
	if err != nil {
		return err
	}
	id := len(it.builtins)
	it.builtins = append(it.builtins, fn)
	bv, err := NewBuiltin(it.RT, id)
	if err != nil {
		return err
	}
	h := it.Pool.Protect(bv)
	err = Define(it.RT, Value(it.global), sym, it.Pool.Value(h))
	it.Pool.Unprotect(h)
	return err
}

// boolValue converts a Go bool to the interpreter's truth representation.
func (it *Interpreter) boolValue(b bool) Value {
	if b {
		return it.True
	}
	return Value(0)
}

func isTruthy(v Value) bool { return !v.IsNil() }

// List builds a proper list from vs. Every element gets its own pool slot
// up front: vs itself is an ordinary Go slice the collector doesn't scan,
// so an element not yet consed is only safe across NewPair's allocation
// (which may itself trigger a collection, spec §6.4) once it is sitting in
// a registered root.
func (it *Interpreter) List(vs ...Value) (Value, error) {
	elemHandles := make([]int, len(vs))
	for i, v := range vs {
		elemHandles[i] = it.Pool.Protect(v)
	}
	tailH := it.Pool.Protect(Value(0))
	defer func() {
		it.Pool.Unprotect(tailH)
		for _, h := range elemHandles {
			it.Pool.Unprotect(h)
		}
	}()

	for i := len(vs) - 1; i >= 0; i-- {
		next, err := NewPair(it.RT, it.Pool.Value(elemHandles[i]), it.Pool.Value(tailH))
		if err != nil {
			return Value(0), err
		}
		it.Pool.Set(tailH, next)
	}
	return it.Pool.Value(tailH), nil
}
