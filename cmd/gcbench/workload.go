package main

import (
	"github.com/tracegc/tracegc/internal/gc"
	"github.com/tracegc/tracegc/internal/lisp"
)

// buildInterpreter initializes a runtime for backend with the given heap
// override (0 meaning "use the backend's default") and returns an
// interpreter ready to evaluate expressions against it.
func buildInterpreter(backend string, heapBytes uint64) (*gc.Runtime, *lisp.Interpreter, error) {
	rt := gc.NewRuntime()
	if err := rt.Init(gc.Config{Backend: backend, InitialHeapBytes: heapBytes}); err != nil {
		return nil, nil, err
	}
	it, err := lisp.NewInterpreter(rt)
	if err != nil {
		return nil, nil, err
	}
	return rt, it, nil
}

// runWorkload builds a fresh interpreter and runs the classic gcbench
// accumulator loop against it: (define sum 0) followed by iterations
// rounds of (set! sum (+ sum 1)). There is no lexer or reader (see
// internal/lisp's package doc): every expression is built directly with
// the Value constructors, the same way the package's own tests do.
//
// sum, plus, and set! survive the whole loop across many allocating Eval
// calls, so each is kept in its own Interpreter.Pool slot rather than a
// bare Go local: a symbol's canonical copy lives in the interned-symbol
// table and is updated there by a collection, but this function's own
// copy of it is a separate variable the collector never touches (spec
// §6.4) unless it is itself a registered root.
func runWorkload(backend string, heapBytes uint64, iterations int) (*gc.Runtime, *lisp.Interpreter, float64, error) {
	rt, it, err := buildInterpreter(backend, heapBytes)
	if err != nil {
		return nil, nil, 0, err
	}

	sumSym, err := it.Intern("sum")
	if err != nil {
		return nil, nil, 0, err
	}
	sumH := it.Pool.Protect(sumSym)
	defer it.Pool.Unprotect(sumH)

	plusSym, err := it.Intern("+")
	if err != nil {
		return nil, nil, 0, err
	}
	plusH := it.Pool.Protect(plusSym)
	defer it.Pool.Unprotect(plusH)

	setBangSym, err := it.Intern("set!")
	if err != nil {
		return nil, nil, 0, err
	}
	setBangH := it.Pool.Protect(setBangSym)
	defer it.Pool.Unprotect(setBangH)

	defineSym, err := it.Intern("define")
	if err != nil {
		return nil, nil, 0, err
	}
	defineH := it.Pool.Protect(defineSym)
	defer it.Pool.Unprotect(defineH)

	zero, err := lisp.NewNumber(rt, 0)
	if err != nil {
		return nil, nil, 0, err
	}
	zeroH := it.Pool.Protect(zero)

	defineExpr, err := it.List(it.Pool.Value(defineH), it.Pool.Value(sumH), it.Pool.Value(zeroH))
	it.Pool.Unprotect(zeroH)
	if err != nil {
		return nil, nil, 0, err
	}
	if _, err := it.Eval(defineExpr, it.Global()); err != nil {
		return nil, nil, 0, err
	}

	for i := 0; i < iterations; i++ {
		// Allocated fresh each pass: a Value held only in a Go-level local
		// across more than one allocating call is not safe under a moving
		// backend (spec §6.4), so this is not hoisted out of the loop.
		one, err := lisp.NewNumber(rt, 1)
		if err != nil {
			return nil, nil, 0, err
		}
		addExpr, err := it.List(it.Pool.Value(plusH), it.Pool.Value(sumH), one)
		if err != nil {
			return nil, nil, 0, err
		}
		stepExpr, err := it.List(it.Pool.Value(setBangH), it.Pool.Value(sumH), addExpr)
		if err != nil {
			return nil, nil, 0, err
		}
		if _, err := it.Eval(stepExpr, it.Global()); err != nil {
			return nil, nil, 0, err
		}
	}

	result, err := it.Eval(it.Pool.Value(sumH), it.Global())
	if err != nil {
		return nil, nil, 0, err
	}
	return rt, it, lisp.NumberValue(result), nil
}
