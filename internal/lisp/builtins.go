package lisp

import "fmt"

func (it *Interpreter) installBuiltins() error {
	arith := map[string]func(a, b float64) float64{
		"+": func(a, b float64) float64 { return a + b },
		"-": func(a, b float64) float64 { return a - b },
		"*": func(a, b float64) float64 { return a * b },
		"/": func(a, b float64) float64 { return a / b },
	}
	for name, op := range arith {
		op := op
		if err := it.registerBuiltin(name, func(it *Interpreter, args []Value) (Value, error) {
			if len(args) == 0 {
				return Value(0), fmt.Errorf("lisp: %s needs at least one argument", name)
			}
			acc := NumberValue(args[0])
			for _, a := range args[1:] {
				acc = op(acc, NumberValue(a))
			}
			return NewNumber(it.RT, acc)
		}); err != nil {
			return err
		}
	}

	cmp := map[string]func(a, b float64) bool{
		"<": func(a, b float64) bool { return a < b },
		"=": func(a, b float64) bool { return a == b },
		">": func(a, b float64) bool { return a > b },
	}
	for name, op := range cmp {
		op := op
		if err := it.registerBuiltin(name, func(it *Interpreter, args []Value) (Value, error) {
			if len(args) != 2 {
				return Value(0), fmt.Errorf("lisp: %s needs exactly two arguments", name)
			}
			return it.boolValue(op(NumberValue(args[0]), NumberValue(args[1]))), nil
		}); err != nil {
			return err
		}
	}

	if err := it.registerBuiltin("cons", func(it *Interpreter, args []Value) (Value, error) {
		if len(args) != 2 {
			return Value(0), fmt.Errorf("lisp: cons needs exactly two arguments")
		}
		return NewPair(it.RT, args[0], args[1])
	}); err != nil {
		return err
	}

	if err := it.registerBuiltin("car", func(it *Interpreter, args []Value) (Value, error) {
		if len(args) != 1 || Kind(args[0]) != kindPair {
			return Value(0), fmt.Errorf("lisp: car needs a pair")
		}
		return Car(args[0]), nil
	}); err != nil {
		return err
	}

	if err := it.registerBuiltin("cdr", func(it *Interpreter, args []Value) (Value, error) {
		if len(args) != 1 || Kind(args[0]) != kindPair {
			return Value(0), fmt.Errorf("lisp: cdr needs a pair")
		}
		return Cdr(args[0]), nil
	}); err != nil {
		return err
	}

	if err := it.registerBuiltin("eq?", func(it *Interpreter, args []Value) (Value, error) {
		if len(args) != 2 {
			return Value(0), fmt.Errorf("lisp: eq? needs exactly two arguments")
		}
		return it.boolValue(args[0] == args[1]), nil
	}); err != nil {
		return err
	}

	if err := it.registerBuiltin("null?", func(it *Interpreter, args []Value) (Value, error) {
		if len(args) != 1 {
			return Value(0), fmt.Errorf("lisp: null? needs exactly one argument")
		}
		return it.boolValue(args[0].IsNil()), nil
	}); err != nil {
		return err
	}

	return nil
}
