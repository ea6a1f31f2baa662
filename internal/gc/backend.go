package gc

// Backend is the dispatch table every collector implementation provides,
// per spec §4.1. The Runtime façade forwards every mutator call to exactly
// one selected Backend.
type Backend interface {
	// Init (re)initializes the backend: allocates its heap region(s) and
	// resets roots, remembered set, and statistics. Idempotent.
	Init(cfg Config) error

	// Allocate returns a zeroed, aligned payload address for size bytes.
	// May trigger a collection; if the request still cannot be satisfied
	// afterward, it returns ErrOutOfMemory (fatal for this instance).
	Allocate(size uintptr) (Address, error)

	// SetTrace installs payload's trace callback. No-op on a nil Address.
	SetTrace(payload Address, fn TraceFunc)

	// SetTag installs payload's diagnostic tag. Safe before or after
	// SetTrace.
	SetTag(payload Address, tag Tag)

	// MarkPointer is the sole primitive a trace callback uses to visit a
	// child reference. Outside of a collection it is the identity. Safe
	// on the null address.
	MarkPointer(payload Address) Address

	// AddRoot registers the address of a pointer cell as a root slot.
	// Idempotent.
	AddRoot(slot *Address) error

	// RemoveRoot unregisters a previously-registered root slot.
	RemoveRoot(slot *Address)

	// WriteBarrier informs the backend that *slot, a field inside owner,
	// now holds child. A no-op except in the generational backend.
	WriteBarrier(owner Address, slot *Address, child Address)

	// Collect forces a full collection cycle.
	Collect()

	// Free optionally reclaims payload immediately. No-op on null; a
	// no-op between collections for moving backends.
	Free(payload Address)

	// SetThreshold sets the bytes-allocated watermark that opportunistically
	// triggers a collection on the next allocation.
	SetThreshold(bytes uint64)

	// GetThreshold returns the current threshold. For the copying
	// backend this is always the semispace size.
	GetThreshold() uint64

	// Stats returns a snapshot of the cumulative statistics record.
	Stats() Stats

	// HeapSnapshot fills buf (up to len(buf) entries) with live-object
	// records and returns the number written. Order is backend-defined
	// but stable within one call.
	HeapSnapshot(buf []SnapshotRecord) int
}

// backendName recognizes the configuration strings from spec §4.1 /
// §6.2 and normalizes them to one of the three canonical names.
func backendName(s string) string {
	switch s {
	case "copy", "copying", "semispace":
		return "copying"
	case "gen", "generational":
		return "generational"
	case "mark-sweep":
		return "mark-sweep"
	default:
		// "Backend-not-selected" falls back to mark-sweep per spec §7.
		return "mark-sweep"
	}
}

// newBackend constructs a fresh, uninitialized Backend for the given
// canonical name.
func newBackend(name string) Backend {
	switch name {
	case "copying":
		return newCopying()
	case "generational":
		return newGenerational()
	default:
		return newMarkSweep()
	}
}
