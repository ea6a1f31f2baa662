package lisp

import (
	"fmt"

	"github.com/tracegc/tracegc/internal/gc"
)

// maxInternedNames bounds how many distinct symbols or strings a program
// can intern. Every slot is registered as a permanent GC root up front
// (same trick as ProtectionPool), so an interned object stays reachable
// for the interpreter's whole lifetime without the caller protecting it.
const maxInternedNames = 512

type internTable struct {
	ids   map[string]int
	names []string
	slots [maxInternedNames]gc.Address
}

func newInternTable(rt *gc.Runtime) (*internTable, error) {
	t := &internTable{ids: map[string]int{}}
	for i := range t.slots {
		if err := rt.AddRoot(&t.slots[i]); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// intern returns the existing object for name, or allocates one via alloc
// (passed the new intern ID) and records it.
func (t *internTable) intern(name string, alloc func(id int) (Value, error)) (Value, error) {
	if id, ok := t.ids[name]; ok {
		return Value(t.slots[id]), nil
	}
	id := len(t.names)
	if id >= len(t.slots) {
		return Value(0), fmt.Errorf("lisp: intern table exhausted (capacity %d)", len(t.slots))
	}
	v, err := alloc(id)
	if err != nil {
		return Value(0), err
	}
	t.slots[id] = gc.Address(v)
	t.ids[name] = id
	t.names = append(t.names, name)
	return v, nil
}

func (t *internTable) name(id int) string { return t.names[id] }
