package lisp

import "github.com/tracegc/tracegc/internal/gc"

// Lookup searches env and its parent chain for sym, comparing by intern
// ID (symbols are interned, so this is equivalent to identity comparison).
func Lookup(env, sym Value) (Value, bool) {
	for e := env; !e.IsNil(); e = EnvParent(e) {
		for b := EnvBindings(e); !b.IsNil(); b = BindingNext(b) {
			if internID(BindingSymbol(b)) == internID(sym) {
				return BindingValue(b), true
			}
		}
	}
	return Value(0), false
}

// Define prepends a new binding for sym to env's own frame, shadowing any
// binding of the same name in an outer frame.
func Define(rt *gc.Runtime, env, sym, val Value) error {
	envAddr := gc.Address(env)
	if err := rt.AddRoot(&envAddr); err != nil {
		return err
	}
	defer rt.RemoveRoot(&envAddr)

	binding, err := NewBinding(rt, sym, val, EnvBindings(Value(envAddr)))
	if err != nil {
		return err
	}
	SetEnvBindings(rt, Value(envAddr), binding)
	return nil
}

// SetBang mutates the nearest existing binding of sym in env's parent
// chain and reports whether one was found.
func SetBang(rt *gc.Runtime, env, sym, val Value) bool {
	for e := env; !e.IsNil(); e = EnvParent(e) {
		for b := EnvBindings(e); !b.IsNil(); b = BindingNext(b) {
			if internID(BindingSymbol(b)) == internID(sym) {
				SetBindingValue(rt, b, val)
				return true
			}
		}
	}
	return false
}
