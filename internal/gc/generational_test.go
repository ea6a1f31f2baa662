package gc

import "testing"

func newGenerationalRuntime(t *testing.T) *Runtime {
	t.Helper()
	rt := NewRuntime()
	if err := rt.Init(Config{Backend: "generational"}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return rt
}

func TestGenerationalNurseryUnreachableReclaimed(t *testing.T) {
	rt := newGenerationalRuntime(t)
	g := rt.backend.(*generational)
	_ = newNode(t, rt, 0)

	g.minorCollect()

	if rt.Stats().CurrentBytes != 0 {
		t.Errorf("CurrentBytes = %d after a minor collection with no roots, want 0", rt.Stats().CurrentBytes)
	}
}

// S4: an object surviving PROMOTE_AGE minor collections is promoted into
// the tenured generation.
func TestGenerationalPromotionAfterTwoMinors(t *testing.T) {
	rt := newGenerationalRuntime(t)
	g := rt.backend.(*generational)

	obj := newNode(t, rt, 0)
	root := obj
	if err := rt.AddRoot(&root); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}

	g.minorCollect()
	if g.isTenured(root) {
		t.Fatalf("object promoted after only one minor collection (PROMOTE_AGE=%d)", promoteAge)
	}

	g.minorCollect()
	if !g.isTenured(root) {
		t.Errorf("object not promoted after %d minor collections", promoteAge)
	}
	if rt.Stats().ObjectsPromoted == 0 {
		t.Errorf("ObjectsPromoted = 0, want at least 1")
	}
}

// S5: a write barrier recording a tenured-to-nursery pointer keeps the
// nursery object alive across a minor collection even though no root
// directly references it.
func TestGenerationalWriteBarrierSoundness(t *testing.T) {
	rt := newGenerationalRuntime(t)
	g := rt.backend.(*generational)

	obj := newNode(t, rt, 0)
	root := obj
	if err := rt.AddRoot(&root); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	g.minorCollect()
	g.minorCollect()
	if !g.isTenured(root) {
		t.Fatalf("setup: object did not promote after two minor collections")
	}

	child := newNode(t, rt, 0)
	slot := SlotPointer(root, 0)
	*slot = child
	rt.WriteBarrier(root, slot, child)

	g.minorCollect()

	survivor := ReadSlot(root, 0)
	if survivor.IsNil() {
		t.Fatalf("tenured object's nursery child was not preserved across a minor collection")
	}
}

// When the remembered-set entry's target no longer points into the
// (new) nursery, the entry is pruned rather than kept forever.
func TestGenerationalRememberedSetPruned(t *testing.T) {
	rt := newGenerationalRuntime(t)
	g := rt.backend.(*generational)

	obj := newNode(t, rt, 0)
	root := obj
	if err := rt.AddRoot(&root); err != nil {
		t.Fatalf("AddRoot: %v", err)
	}
	g.minorCollect()
	g.minorCollect()
	if !g.isTenured(root) {
		t.Fatalf("setup: object did not promote")
	}

	child := newNode(t, rt, 0)
	slot := SlotPointer(root, 0)
	*slot = child
	rt.WriteBarrier(root, slot, child)

	if g.remembered.Len() == 0 {
		t.Fatalf("setup: write barrier did not record a remembered-set entry")
	}

	// Drop the only reference to child; the next minor collection should
	// notice the slot no longer points into the nursery and prune it.
	*slot = 0
	g.minorCollect()

	if g.remembered.Len() != 0 {
		t.Errorf("remembered set still has %d entries after their targets died", g.remembered.Len())
	}
}

func TestGenerationalCollectForcesMinorAndMajor(t *testing.T) {
	rt := newGenerationalRuntime(t)
	before := rt.Stats().Collections

	rt.Collect()

	after := rt.Stats().Collections
	if after < before+2 {
		t.Errorf("Collections increased by %d, want at least 2 (one minor, one major)", after-before)
	}
}
