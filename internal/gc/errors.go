package gc

import "errors"

// Failure kinds, per spec §7. OutOfMemory and RootSetGrowth are fatal: the
// façade logs and aborts the process rather than returning these to the
// mutator, matching spec §4.5 ("no exceptions bubble into the mutator").
// They are still typed errors internally so the fatal path itself can be
// tested without terminating the test process.
var (
	// ErrOutOfMemory is returned internally when allocate still cannot
	// satisfy a request after a collection.
	ErrOutOfMemory = errors.New("tracegc: out of memory")

	// ErrRootSetGrowth is returned internally when the root-set hash
	// table cannot grow to accommodate a new slot.
	ErrRootSetGrowth = errors.New("tracegc: root set growth failed")

	// ErrBackendNotSelected labels the log line Runtime.ensureBackend emits
	// when a call arrives before Init has resolved a backend; per spec §7
	// this falls back to mark-sweep rather than erroring, so it is never
	// returned to a caller.
	ErrBackendNotSelected = errors.New("tracegc: backend not selected")

	errNotANumber = errors.New("tracegc: not a number")
)
