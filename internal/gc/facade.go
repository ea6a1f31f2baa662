package gc

// Runtime is the single entry point a mutator talks to (spec §4.1): it
// owns exactly one selected Backend and forwards every operation to it.
// The mutator never imports a backend type directly.
type Runtime struct {
	backend Backend
	name    string
	cfg     Config
}

// NewRuntime returns an uninitialized Runtime. Call Init before using it.
func NewRuntime() *Runtime { return &Runtime{} }

var knownBackendStrings = map[string]bool{
	"mark-sweep": true, "copy": true, "copying": true, "semispace": true,
	"gen": true, "generational": true,
}

// Init selects and initializes a backend from cfg.Backend, falling back to
// mark-sweep (not an error) when the string is empty or unrecognized, per
// spec §7. Only a non-empty unrecognized string is logged.
func (r *Runtime) Init(cfg Config) error {
	if cfg.Backend != "" && !knownBackendStrings[cfg.Backend] {
		DefaultLogger.Printf("unrecognized backend %q, falling back to mark-sweep", cfg.Backend)
	}
	r.name = backendName(cfg.Backend)
	r.backend = newBackend(r.name)
	r.cfg = cfg
	return r.backend.Init(cfg)
}

// ensureBackend lazily resolves a mark-sweep backend the first time any
// method is called on a Runtime that was never Init'd, per spec §7's
// Backend-not-selected row ("fall back to mark-sweep"). Without this, every
// forwarding method below would nil-pointer-panic on a bare NewRuntime()
// instead of falling back.
func (r *Runtime) ensureBackend() {
	if r.backend != nil {
		return
	}
	DefaultLogger.Printf("%v: falling back to mark-sweep", ErrBackendNotSelected)
	r.name = backendName("")
	r.backend = newBackend(r.name)
	if err := r.backend.Init(r.cfg); err != nil {
		fatal("gc: mark-sweep fallback failed to initialize: %v", err)
	}
}

// BackendName returns the canonical name of the currently selected backend.
func (r *Runtime) BackendName() string {
	r.ensureBackend()
	return r.name
}

// SetInitialHeapSize and GetInitialHeapSize configure the heap-size hint
// consulted the next time Init runs (spec §6.1); they do not resize a
// live heap.
func (r *Runtime) SetInitialHeapSize(bytes uint64) { r.cfg.InitialHeapBytes = bytes }
func (r *Runtime) GetInitialHeapSize() uint64      { return r.cfg.InitialHeapBytes }

// Allocate forwards to the backend. A backend allocation failure
// (ErrOutOfMemory) is fatal: it is logged and the process exits.
func (r *Runtime) Allocate(size uintptr) (Address, error) {
	r.ensureBackend()
	payload, err := r.backend.Allocate(size)
	if err != nil {
		fatal("%s: %v", r.name, err)
	}
	return payload, err
}

func (r *Runtime) SetTrace(payload Address, fn TraceFunc) {
	r.ensureBackend()
	r.backend.SetTrace(payload, fn)
}
func (r *Runtime) SetTag(payload Address, tag Tag) {
	r.ensureBackend()
	r.backend.SetTag(payload, tag)
}

// MarkPointer is only meaningful when called from inside a trace callback
// during a collection; outside of one it is the identity (spec §4.1).
func (r *Runtime) MarkPointer(payload Address) Address {
	r.ensureBackend()
	return r.backend.MarkPointer(payload)
}

// AddRoot forwards to the backend. A root-set growth failure
// (ErrRootSetGrowth) is fatal: it is logged and the process exits.
func (r *Runtime) AddRoot(slot *Address) error {
	r.ensureBackend()
	if err := r.backend.AddRoot(slot); err != nil {
		fatal("%s: %v", r.name, err)
		return err
	}
	return nil
}
func (r *Runtime) RemoveRoot(slot *Address) {
	r.ensureBackend()
	r.backend.RemoveRoot(slot)
}

// WriteBarrier must be called after every store of child into a managed
// pointer field at slot inside owner (spec §3.3). It is a no-op on the
// mark-sweep and copying backends.
func (r *Runtime) WriteBarrier(owner Address, slot *Address, child Address) {
	r.ensureBackend()
	r.backend.WriteBarrier(owner, slot, child)
}

func (r *Runtime) Collect() {
	r.ensureBackend()
	r.backend.Collect()
}
func (r *Runtime) Free(payload Address) {
	r.ensureBackend()
	r.backend.Free(payload)
}

func (r *Runtime) SetThreshold(bytes uint64) {
	r.ensureBackend()
	r.backend.SetThreshold(bytes)
}
func (r *Runtime) GetThreshold() uint64 {
	r.ensureBackend()
	return r.backend.GetThreshold()
}

func (r *Runtime) Stats() Stats {
	r.ensureBackend()
	return r.backend.Stats()
}

func (r *Runtime) HeapSnapshot(buf []SnapshotRecord) int {
	r.ensureBackend()
	return r.backend.HeapSnapshot(buf)
}

// FlatHeapSnapshot packs up to len(words)/FlatSnapshotWords live-object
// records into words as (addr, size, generation, tag) quadruples of
// truncated 32-bit values, for out-of-process consumers that cannot share
// Go struct layouts (spec §4.1, §6.1).
func (r *Runtime) FlatHeapSnapshot(words []uint32) int {
	r.ensureBackend()
	maxRecords := len(words) / FlatSnapshotWords
	if maxRecords == 0 {
		return 0
	}
	buf := make([]SnapshotRecord, maxRecords)
	n := r.backend.HeapSnapshot(buf)
	for i := 0; i < n; i++ {
		rec := buf[i]
		base := i * FlatSnapshotWords
		words[base+0] = uint32(rec.Addr)
		words[base+1] = uint32(rec.Size)
		words[base+2] = uint32(rec.Generation)
		words[base+3] = uint32(rec.Tag)
	}
	return n
}
