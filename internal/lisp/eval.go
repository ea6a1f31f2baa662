package lisp

import "fmt"

// Eval evaluates expr in env. if, begin, and closure application loop
// back to the top instead of recursing, which keeps deeply nested tail
// positions from growing the Go stack, but this is not general tail-call
// optimization (spec §1 Non-goals): a non-tail call still recurses.
//
// expr and env are pool-protected for the whole call: a recursive Eval
// (evaluating a subexpression, applying a closure) can itself allocate and
// collect, and a pair held only in a bare Go variable across that call is
// not safe under any backend (spec §6.4) — nothing but a registered root
// gets revisited and rewritten by a collection. Every cursor this function
// walks (rest, body, params) and reuses after a recursive call gets its
// own pool slot for the same reason.
func (it *Interpreter) Eval(expr Value, env Value) (Value, error) {
	exprH := it.Pool.Protect(expr)
	defer it.Pool.Unprotect(exprH)
	envH := it.Pool.Protect(env)
	defer it.Pool.Unprotect(envH)

	for {
		expr = it.Pool.Value(exprH)
		env = it.Pool.Value(envH)

		switch Kind(expr) {
		case 0, kindNumber, kindString, kindBuiltin, kindClosure:
			return expr, nil

		case kindSymbol:
			v, ok := Lookup(env, expr)
			if !ok {
				return Value(0), fmt.Errorf("lisp: unbound symbol %q", it.SymbolName(expr))
			}
			return v, nil

		case kindPair:
			head := Car(expr)
			if Kind(head) == kindSymbol {
				switch it.SymbolName(head) {
				case "quote":
					return Car(Cdr(expr)), nil

				case "if":
					condExpr := Car(Cdr(expr))
					cond, err := it.Eval(condExpr, env)
					if err != nil {
						return Value(0), err
					}
					// Re-derive from the pool-backed expr: the recursive
					// Eval above may have collected and relocated it.
					rest := Cdr(Cdr(it.Pool.Value(exprH)))
					switch {
					case isTruthy(cond):
						it.Pool.Set(exprH, Car(rest))
					case !Cdr(rest).IsNil():
						it.Pool.Set(exprH, Car(Cdr(rest)))
					default:
						return Value(0), nil
					}
					continue

				case "lambda":
					rest := Cdr(expr)
					return NewClosure(it.RT, Car(rest), Cdr(rest), env)

				case "define":
					rest := Cdr(expr)
					val, err := it.Eval(Car(Cdr(rest)), env)
					if err != nil {
						return Value(0), err
					}
					// The symbol is read from the pool-backed expr after
					// each allocating call: a collection may relocate it.
					sym := Car(Cdr(it.Pool.Value(exprH)))
					h := it.Pool.Protect(val)
					err = Define(it.RT, it.Pool.Value(envH), sym, it.Pool.Value(h))
					it.Pool.Unprotect(h)
					if err != nil {
						return Value(0), err
					}
					return Car(Cdr(it.Pool.Value(exprH))), nil

				case "set!":
					rest := Cdr(expr)
					val, err := it.Eval(Car(Cdr(rest)), env)
					if err != nil {
						return Value(0), err
					}
					sym := Car(Cdr(it.Pool.Value(exprH)))
					valH := it.Pool.Protect(val)
					ok := SetBang(it.RT, it.Pool.Value(envH), sym, it.Pool.Value(valH))
					it.Pool.Unprotect(valH)
					if !ok {
						return Value(0), fmt.Errorf("lisp: set! on unbound symbol %q", it.SymbolName(sym))
					}
					return val, nil

				case "begin":
					// bodyH is released explicitly (not deferred): this
					// case loops back via `continue` to the same Eval
					// call's trampoline, and a deferred Unprotect would
					// not run until the whole call finally returns,
					// leaking a pool slot per begin encountered on the
					// way to a tail position.
					bodyH := it.Pool.Protect(Cdr(expr))
					if it.Pool.Value(bodyH).IsNil() {
						it.Pool.Unprotect(bodyH)
						return Value(0), nil
					}
					for !Cdr(it.Pool.Value(bodyH)).IsNil() {
						if _, err := it.Eval(Car(it.Pool.Value(bodyH)), it.Pool.Value(envH)); err != nil {
							it.Pool.Unprotect(bodyH)
							return Value(0), err
						}
						it.Pool.Set(bodyH, Cdr(it.Pool.Value(bodyH)))
					}
					it.Pool.Set(exprH, Car(it.Pool.Value(bodyH)))
					it.Pool.Unprotect(bodyH)
					continue
				}
			}

			// Application: the callee and every argument expression still
			// to be evaluated get their own pool slots, since evaluating
			// one can allocate while another is only reachable through a
			// bare local (spec §6.4).
			fnH := it.Pool.Protect(Value(0))
			fn, err := it.Eval(head, env)
			if err != nil {
				it.Pool.Unprotect(fnH)
				return Value(0), err
			}
			it.Pool.Set(fnH, fn)

			restH := it.Pool.Protect(Cdr(it.Pool.Value(exprH)))

			var argHandles []int
			cleanup := func() {
				for _, h := range argHandles {
					it.Pool.Unprotect(h)
				}
				it.Pool.Unprotect(restH)
				it.Pool.Unprotect(fnH)
			}
			for !it.Pool.Value(restH).IsNil() {
				a, err := it.Eval(Car(it.Pool.Value(restH)), it.Pool.Value(envH))
				if err != nil {
					cleanup()
					return Value(0), err
				}
				argHandles = append(argHandles, it.Pool.Protect(a))
				it.Pool.Set(restH, Cdr(it.Pool.Value(restH)))
			}

			args := make([]Value, len(argHandles))
			for i, h := range argHandles {
				args[i] = it.Pool.Value(h)
			}
			fn = it.Pool.Value(fnH)

			switch Kind(fn) {
			case kindBuiltin:
				result, err := it.builtins[BuiltinID(fn)](it, args)
				cleanup()
				return result, err

			case kindClosure:
				// bodyH is captured from fn before bindArgs/cleanup run:
				// cleanup releases fnH, and bindArgs' own allocations can
				// collect, so fn itself must not be read again afterward.
				bodyH := it.Pool.Protect(ClosureBody(fn))
				callEnv, err := it.bindArgs(fn, args)
				cleanup()
				if err != nil {
					it.Pool.Unprotect(bodyH)
					return Value(0), err
				}
				// callEnvH/bodyH are released explicitly for the same
				// reason as begin's bodyH above: this case continues the
				// same trampoline, so a defer here would only fire once
				// the whole Eval call unwinds.
				callEnvH := it.Pool.Protect(callEnv)
				if it.Pool.Value(bodyH).IsNil() {
					it.Pool.Unprotect(bodyH)
					it.Pool.Unprotect(callEnvH)
					return Value(0), nil
				}
				for !Cdr(it.Pool.Value(bodyH)).IsNil() {
					if _, err := it.Eval(Car(it.Pool.Value(bodyH)), it.Pool.Value(callEnvH)); err != nil {
						it.Pool.Unprotect(bodyH)
						it.Pool.Unprotect(callEnvH)
						return Value(0), err
					}
					it.Pool.Set(bodyH, Cdr(it.Pool.Value(bodyH)))
				}
				it.Pool.Set(exprH, Car(it.Pool.Value(bodyH)))
				it.Pool.Set(envH, it.Pool.Value(callEnvH))
				it.Pool.Unprotect(bodyH)
				it.Pool.Unprotect(callEnvH)
				continue

			default:
				cleanup()
				return Value(0), fmt.Errorf("lisp: not callable")
			}

		default:
			return Value(0), fmt.Errorf("lisp: cannot evaluate object of kind %d", Kind(expr))
		}
	}
}

// bindArgs builds the call frame binding closure's parameter list to args.
//
// args arrives as a plain slice of already-evaluated values: each element
// was produced under its own pool slot in Eval, but those slots are the
// caller's, released as soon as bindArgs returns. Re-protecting every
// element here (not just the params cursor) means a multi-parameter
// closure's later arguments survive the Define call that binds an earlier
// one, which itself allocates (spec §6.4).
func (it *Interpreter) bindArgs(closure Value, args []Value) (Value, error) {
	closureH := it.Pool.Protect(closure)
	defer it.Pool.Unprotect(closureH)

	env, err := NewEnv(it.RT, ClosureEnv(it.Pool.Value(closureH)))
	if err != nil {
		return Value(0), err
	}
	envH := it.Pool.Protect(env)
	defer it.Pool.Unprotect(envH)

	argHandles := make([]int, len(args))
	for i, a := range args {
		argHandles[i] = it.Pool.Protect(a)
	}
	defer func() {
		for _, h := range argHandles {
			it.Pool.Unprotect(h)
		}
	}()

	paramsH := it.Pool.Protect(ClosureParams(it.Pool.Value(closureH)))
	defer it.Pool.Unprotect(paramsH)

	i := 0
	for !it.Pool.Value(paramsH).IsNil() {
		if i >= len(args) {
			return Value(0), fmt.Errorf("lisp: too few arguments")
		}
		if err := Define(it.RT, it.Pool.Value(envH), Car(it.Pool.Value(paramsH)), it.Pool.Value(argHandles[i])); err != nil {
			return Value(0), err
		}
		it.Pool.Set(paramsH, Cdr(it.Pool.Value(paramsH)))
		i++
	}
	if i != len(args) {
		return Value(0), fmt.Errorf("lisp: too many arguments")
	}
	return it.Pool.Value(envH), nil
}
