package lisp

import (
	"testing"

	"github.com/tracegc/tracegc/internal/gc"
)

func newInterpreter(t *testing.T, backend string) *Interpreter {
	t.Helper()
	rt := gc.NewRuntime()
	if err := rt.Init(gc.Config{Backend: backend}); err != nil {
		t.Fatalf("rt.Init: %v", err)
	}
	it, err := NewInterpreter(rt)
	if err != nil {
		t.Fatalf("NewInterpreter: %v", err)
	}
	return it
}

func mustNumber(t *testing.T, it *Interpreter, f float64) Value {
	t.Helper()
	v, err := NewNumber(it.RT, f)
	if err != nil {
		t.Fatalf("NewNumber: %v", err)
	}
	return v
}

func mustSym(t *testing.T, it *Interpreter, name string) Value {
	t.Helper()
	v, err := it.Intern(name)
	if err != nil {
		t.Fatalf("Intern(%q): %v", name, err)
	}
	return v
}

func mustList(t *testing.T, it *Interpreter, vs ...Value) Value {
	t.Helper()
	v, err := it.List(vs...)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	return v
}

func TestEvalArithmetic(t *testing.T) {
	for _, backend := range []string{"mark-sweep", "copying", "generational"} {
		t.Run(backend, func(t *testing.T) {
			it := newInterpreter(t, backend)
			// (+ 1 2 3)
			expr := mustList(t, it,
				mustSym(t, it, "+"),
				mustNumber(t, it, 1),
				mustNumber(t, it, 2),
				mustNumber(t, it, 3),
			)
			result, err := it.Eval(expr, it.Global())
			if err != nil {
				t.Fatalf("Eval: %v", err)
			}
			if got := NumberValue(result); got != 6 {
				t.Errorf("(+ 1 2 3) = %v, want 6", got)
			}
		})
	}
}

func TestEvalDefineAndLookup(t *testing.T) {
	it := newInterpreter(t, "mark-sweep")
	x := mustSym(t, it, "x")

	defineExpr := mustList(t, it, mustSym(t, it, "define"), x, mustNumber(t, it, 42))
	if _, err := it.Eval(defineExpr, it.Global()); err != nil {
		t.Fatalf("Eval(define): %v", err)
	}

	result, err := it.Eval(x, it.Global())
	if err != nil {
		t.Fatalf("Eval(x): %v", err)
	}
	if got := NumberValue(result); got != 42 {
		t.Errorf("x = %v, want 42", got)
	}
}

func TestEvalLambdaApplication(t *testing.T) {
	it := newInterpreter(t, "mark-sweep")
	a := mustSym(t, it, "a")
	b := mustSym(t, it, "b")

	// (define square (lambda (a) (* a a)))
	body := mustList(t, it, mustSym(t, it, "*"), a, a)
	params := mustList(t, it, a)
	lambdaExpr := mustList(t, it, mustSym(t, it, "lambda"), params, body)
	defineExpr := mustList(t, it, mustSym(t, it, "define"), mustSym(t, it, "square"), lambdaExpr)
	if _, err := it.Eval(defineExpr, it.Global()); err != nil {
		t.Fatalf("Eval(define square): %v", err)
	}

	callExpr := mustList(t, it, mustSym(t, it, "square"), mustNumber(t, it, 7))
	result, err := it.Eval(callExpr, it.Global())
	if err != nil {
		t.Fatalf("Eval(square 7): %v", err)
	}
	if got := NumberValue(result); got != 49 {
		t.Errorf("(square 7) = %v, want 49", got)
	}

	_ = b // interned but not used by the one-parameter lambda above
}

func TestEvalIfAndComparison(t *testing.T) {
	it := newInterpreter(t, "copying")
	// (if (< 1 2) 10 20)
	cond := mustList(t, it, mustSym(t, it, "<"), mustNumber(t, it, 1), mustNumber(t, it, 2))
	expr := mustList(t, it, mustSym(t, it, "if"), cond, mustNumber(t, it, 10), mustNumber(t, it, 20))

	result, err := it.Eval(expr, it.Global())
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got := NumberValue(result); got != 10 {
		t.Errorf("(if (< 1 2) 10 20) = %v, want 10", got)
	}
}

func TestEvalConsCarCdrEqNull(t *testing.T) {
	it := newInterpreter(t, "mark-sweep")
	one := mustNumber(t, it, 1)
	two := mustNumber(t, it, 2)

	pair, err := NewPair(it.RT, one, two)
	if err != nil {
		t.Fatalf("NewPair: %v", err)
	}
	if got := Car(pair); NumberValue(got) != 1 {
		t.Errorf("Car(pair) = %v, want 1", NumberValue(got))
	}
	if got := Cdr(pair); NumberValue(got) != 2 {
		t.Errorf("Cdr(pair) = %v, want 2", NumberValue(got))
	}

	nullExpr := mustList(t, it, mustSym(t, it, "null?"), mustList(t, it))
	result, err := it.Eval(nullExpr, it.Global())
	if err != nil {
		t.Fatalf("Eval(null? ()): %v", err)
	}
	if !isTruthy(result) {
		t.Errorf("(null? ()) should be truthy")
	}

	eqExpr := mustList(t, it, mustSym(t, it, "eq?"), mustSym(t, it, "car"), mustSym(t, it, "car"))
	result, err = it.Eval(eqExpr, it.Global())
	if err != nil {
		t.Fatalf("Eval(eq? car car): %v", err)
	}
	if !isTruthy(result) {
		t.Errorf("(eq? car car) should be truthy")
	}
}

// A long-running allocation workload must not corrupt live structure under
// any backend: a defensive check that Eval survives many collections (one
// forced after every iteration).
//
// sym is reused across all 500 iterations, so it is kept in its own pool
// slot rather than a bare local: its canonical copy lives in the interned-
// symbol table and is updated there by a collection, but a bare Go local
// holding an earlier read of it is not (spec §6.4).
func TestEvalSurvivesManyCollections(t *testing.T) {
	for _, backend := range []string{"mark-sweep", "copying", "generational"} {
		t.Run(backend, func(t *testing.T) {
			it := newInterpreter(t, backend)
			symH := it.Pool.Protect(mustSym(t, it, "sum"))
			defer it.Pool.Unprotect(symH)

			if _, err := it.Eval(mustList(t, it, mustSym(t, it, "define"), it.Pool.Value(symH), mustNumber(t, it, 0)), it.Global()); err != nil {
				t.Fatalf("Eval(define sum): %v", err)
			}
			for i := 0; i < 500; i++ {
				expr := mustList(t, it,
					mustSym(t, it, "set!"), it.Pool.Value(symH),
					mustList(t, it, mustSym(t, it, "+"), it.Pool.Value(symH), mustNumber(t, it, 1)),
				)
				if _, err := it.Eval(expr, it.Global()); err != nil {
					t.Fatalf("iteration %d: %v", i, err)
				}
				it.RT.Collect()
			}
			result, err := it.Eval(it.Pool.Value(symH), it.Global())
			if err != nil {
				t.Fatalf("final Eval: %v", err)
			}
			if got := NumberValue(result); got != 500 {
				t.Errorf("sum = %v, want 500", got)
			}
		})
	}
}
