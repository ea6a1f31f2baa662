package gc

import "testing"

func TestRuntimeFallsBackToMarkSweep(t *testing.T) {
	cases := []string{"", "nonsense", "mark-sweep"}
	for _, backend := range cases {
		rt := NewRuntime()
		if err := rt.Init(Config{Backend: backend}); err != nil {
			t.Fatalf("Init(%q): %v", backend, err)
		}
		if rt.BackendName() != "mark-sweep" {
			t.Errorf("Init(%q).BackendName() = %q, want %q", backend, rt.BackendName(), "mark-sweep")
		}
	}
}

func TestRuntimeFallsBackBeforeInit(t *testing.T) {
	rt := NewRuntime()
	if name := rt.BackendName(); name != "mark-sweep" {
		t.Fatalf("BackendName() before Init = %q, want %q", name, "mark-sweep")
	}

	rt = NewRuntime()
	addr, err := rt.Allocate(16)
	if err != nil {
		t.Fatalf("Allocate before Init: %v", err)
	}
	if addr.IsNil() {
		t.Fatalf("Allocate before Init returned nil address")
	}
	if rt.BackendName() != "mark-sweep" {
		t.Errorf("BackendName() after lazy Allocate = %q, want %q", rt.BackendName(), "mark-sweep")
	}

	rt = NewRuntime()
	rt.Collect() // must not panic on a never-Init'd Runtime
}

func TestRuntimeBackendNameAliases(t *testing.T) {
	cases := map[string]string{
		"copy":         "copying",
		"copying":      "copying",
		"semispace":    "copying",
		"gen":          "generational",
		"generational": "generational",
	}
	for in, want := range cases {
		rt := NewRuntime()
		if err := rt.Init(Config{Backend: in}); err != nil {
			t.Fatalf("Init(%q): %v", in, err)
		}
		if rt.BackendName() != want {
			t.Errorf("Init(%q).BackendName() = %q, want %q", in, rt.BackendName(), want)
		}
	}
}

func TestRuntimeFlatHeapSnapshot(t *testing.T) {
	rt := NewRuntime()
	if err := rt.Init(Config{Backend: "mark-sweep", InitialHeapBytes: 64 << 10}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	var roots []Address
	for i := 0; i < 3; i++ {
		a := newNode(t, rt, 0)
		rt.SetTag(a, TagPair)
		roots = append(roots, a)
	}
	for i := range roots {
		if err := rt.AddRoot(&roots[i]); err != nil {
			t.Fatalf("AddRoot: %v", err)
		}
	}
	rt.Collect()

	words := make([]uint32, 3*FlatSnapshotWords)
	n := rt.FlatHeapSnapshot(words)
	if n != 3 {
		t.Fatalf("FlatHeapSnapshot returned %d records, want 3", n)
	}
	for i := 0; i < n; i++ {
		tag := words[i*FlatSnapshotWords+3]
		if Tag(tag) != TagPair {
			t.Errorf("record %d tag = %d, want %d", i, tag, TagPair)
		}
	}
}

func TestRuntimeInitialHeapSizeAccessors(t *testing.T) {
	rt := NewRuntime()
	rt.SetInitialHeapSize(123456)
	if got := rt.GetInitialHeapSize(); got != 123456 {
		t.Errorf("GetInitialHeapSize() = %d, want 123456", got)
	}
}
