// Package gc implements the tracing garbage collector at the core of
// tracegc: a shared object header model, a dispatch-table backend
// contract, and three interchangeable collector implementations
// (mark-sweep, copying, generational) behind a single runtime façade.
//
// The collector manages opaque byte payloads on behalf of a mutator (see
// internal/lisp). The mutator never sees a header or a backend-internal
// type; it holds only Address values returned by Allocate and slots
// (*Address) it registers as roots.
package gc

import (
	"log"
	"os"
	"unsafe"
)

// Address is the address of a byte within a backend's heap arena, or the
// zero value representing a null managed pointer. Unlike a Go pointer,
// an Address is just a number: backends are free to compare, offset, and
// rewrite it (forwarding, promotion) without the restrictions Go places on
// unsafe.Pointer arithmetic.
type Address uintptr

// IsNil reports whether a represents the null pointer.
func (a Address) IsNil() bool { return a == 0 }

func addressOf(p unsafe.Pointer) Address { return Address(uintptr(p)) }

func (a Address) pointer() unsafe.Pointer { return unsafe.Pointer(uintptr(a)) }

// ptrSize is the alignment unit used throughout the collector: every
// payload size is rounded up to a multiple of ptrSize, per spec §4.1.1.
const ptrSize = 8

// align rounds n up to the next multiple of ptrSize.
func align(n uintptr) uintptr {
	return (n + ptrSize - 1) &^ (ptrSize - 1)
}

// ReadSlot reads an Address-sized managed-pointer slot at byte offset off
// within the object at payload. Trace callbacks use this (and WriteSlot) to
// enumerate and update the managed-pointer fields of an object; it is the
// only way the mutator touches raw payload memory.
func ReadSlot(payload Address, off uintptr) Address {
	return *(*Address)(unsafe.Pointer(uintptr(payload) + off))
}

// WriteSlot stores v into the managed-pointer slot at byte offset off
// within the object at payload.
func WriteSlot(payload Address, off uintptr, v Address) {
	*(*Address)(unsafe.Pointer(uintptr(payload) + off)) = v
}

// SlotPointer returns a direct pointer to the managed-pointer slot at byte
// offset off within the object at payload. The generational backend's
// WriteBarrier needs the slot's own address, not just its value, so it can
// revisit that exact memory location from the remembered set during a
// later minor collection.
func SlotPointer(payload Address, off uintptr) *Address {
	return (*Address)(unsafe.Pointer(uintptr(payload) + off))
}

// MarkFunc is the sole primitive a trace callback uses to recursively visit
// a child reference. It returns the child's current address; the trace
// callback must write that value back into the slot it came from.
type MarkFunc func(Address) Address

// TraceFunc enumerates the managed-pointer fields of the object at payload,
// calling mark on each and writing the result back via WriteSlot. A nil
// TraceFunc means the object has no managed-pointer fields (e.g. a number).
type TraceFunc func(payload Address, mark MarkFunc)

// Tag is a small diagnostic/visualization-only enum identifying an object's
// logical kind. It has no effect on collection.
type Tag uint32

const (
	TagUnknown Tag = iota
	TagNumber
	TagSymbol
	TagPair
	TagLambda
	TagBuiltin
	_
	_
	_
	_
	TagEnv
	TagBinding
	TagString
)

// Generation classifies where a snapshot entry currently lives. Only the
// generational backend produces anything other than GenUnknown.
type Generation uint32

const (
	GenUnknown Generation = iota
	GenNursery
	GenOld
)

// Stats is the cumulative statistics record exported by every backend,
// per spec §6.3.
type Stats struct {
	Collections     uint64
	AllocatedBytes  uint64
	FreedBytes      uint64
	CurrentBytes    uint64
	ObjectsScanned  uint64
	ObjectsCopied   uint64
	ObjectsPromoted uint64
	SurvivalRate    float64

	MetadataBytes uint64
	WastedBytes   uint64

	LastGCPauseMs  float64
	AvgGCPauseMs   float64
	MaxGCPauseMs   float64
	TotalGCTimeMs  float64

	// Free-list backends only (mark-sweep heap, generational tenured).
	LargestFreeBlock          uint64
	TotalFreeMemory           uint64
	FreeBlocksCount           uint64
	AverageFreeBlockSize      float64
	FragmentationIndex        float64
	PeakFragmentationIndex    float64
	InternalFragmentationRatio float64
	AveragePaddingPerObject    float64
	FragmentationGrowthRate    float64
}

// SnapshotRecord describes one live object for external inspection, per
// spec §3.6.
type SnapshotRecord struct {
	Addr       Address
	Size       uint64
	Generation Generation
	Tag        Tag
}

// FlatSnapshotWords is the number of 32-bit words the façade packs each
// SnapshotRecord into for out-of-process consumers (addr, size,
// generation, tag), per spec §4.1.
const FlatSnapshotWords = 4

// Config carries the environment-style configuration keys recognized by
// every backend's Init, per spec §6.2.
type Config struct {
	// Backend selects the implementation: "mark-sweep" (default/unknown),
	// "copy"/"copying"/"semispace", or "gen"/"generational".
	Backend string

	// InitialHeapBytes, if non-zero, overrides the primary region size of
	// whichever backend is selected (the mark-sweep heap, each semispace
	// of the copying backend, or the generational tenured heap).
	InitialHeapBytes uint64
}

// ConfigFromEnv builds a Config from the TRACEGC_BACKEND and
// TRACEGC_HEAP_BYTES environment-style keys, using getenv to look them up
// (pass os.Getenv in production; a map lookup in tests).
func ConfigFromEnv(getenv func(string) string) Config {
	cfg := Config{Backend: getenv("TRACEGC_BACKEND")}
	if s := getenv("TRACEGC_HEAP_BYTES"); s != "" {
		if n, err := parseUint(s); err == nil {
			cfg.InitialHeapBytes = n
		}
	}
	return cfg
}

func parseUint(s string) (uint64, error) {
	var n uint64
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, errNotANumber
		}
		n = n*10 + uint64(c-'0')
	}
	return n, nil
}

// DefaultLogger is used for collection-cycle and OOM diagnostics. The
// teacher repository never pulls in a structured logging library anywhere
// in its retrieved tree, so tracegc follows suit with the standard log
// package (see SPEC_FULL.md §A.1).
var DefaultLogger = log.New(os.Stderr, "tracegc: ", log.LstdFlags)
