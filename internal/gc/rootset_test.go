package gc

import "testing"

func TestRootSetAddFindRemove(t *testing.T) {
	rs := newRootSet()
	var a, b, c Address = 0x1000, 0x2000, 0x3000

	for _, slot := range []*Address{&a, &b, &c} {
		if err := rs.Add(slot); err != nil {
			t.Fatalf("Add(%p): %v", slot, err)
		}
	}
	if rs.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", rs.Len())
	}

	// Adding again is idempotent.
	if err := rs.Add(&a); err != nil {
		t.Fatalf("re-Add: %v", err)
	}
	if rs.Len() != 3 {
		t.Fatalf("Len() after re-Add = %d, want 3", rs.Len())
	}

	rs.Remove(&b)
	if rs.Len() != 2 {
		t.Fatalf("Len() after Remove = %d, want 2", rs.Len())
	}

	seen := map[*Address]bool{}
	rs.Each(func(slot *Address) { seen[slot] = true })
	if seen[&b] {
		t.Errorf("removed slot &b still visited by Each")
	}
	if !seen[&a] || !seen[&c] {
		t.Errorf("Each did not visit all remaining slots: %v", seen)
	}
}

func TestRootSetGrowsPastInitialCapacity(t *testing.T) {
	rs := newRootSet()
	slots := make([]Address, 100)
	for i := range slots {
		if err := rs.Add(&slots[i]); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	if rs.Len() != len(slots) {
		t.Fatalf("Len() = %d, want %d", rs.Len(), len(slots))
	}
	for i := range slots {
		if _, found := rs.find(&slots[i]); !found {
			t.Errorf("slot %d not found after growth", i)
		}
	}
}

func TestRootSetRemoveIf(t *testing.T) {
	rs := newRootSet()
	slots := make([]Address, 10)
	for i := range slots {
		slots[i] = Address(i)
		if err := rs.Add(&slots[i]); err != nil {
			t.Fatalf("Add(%d): %v", i, err)
		}
	}
	rs.RemoveIf(func(slot *Address) bool { return *slot%2 == 0 })
	if rs.Len() != 5 {
		t.Fatalf("Len() after RemoveIf = %d, want 5", rs.Len())
	}
	rs.Each(func(slot *Address) {
		if *slot%2 == 0 {
			t.Errorf("RemoveIf left an even-valued slot: %d", *slot)
		}
	})
}
