package gc

import "unsafe"

// header is the backend-owned record every managed object (and every free
// block, in the free-list backends) carries immediately before its
// payload, per spec §3.1. A single layout is shared by all three backends;
// each uses only the fields relevant to it:
//
//   - mark-sweep / generational tenured: size, prev, next (object list),
//     mark (mark bit). When the block is on the free list instead of
//     allocated, the same words are reused as the free-block header
//     described in spec §4.2: total holds the block's size including this
//     header, and next holds the free-list successor.
//   - copying / generational nursery: size, forward (forwarding address).
//   - generational nursery only: age.
//
// A header and its payload are contiguous: payloadAddr - headerSize ==
// headerAddr, satisfying the invariant in spec §3.1.
type header struct {
	size    uint64  // payload size in bytes
	total   uint64  // full block size including this header (free-list backends)
	prev    Address // object-list previous / unused
	next    Address // object-list next, or free-list successor
	forward Address // forwarding address set by evacuate (0 = not forwarded)
	mark    uint32  // mark bit (0/1)
	age     uint32  // nursery age in collections survived
}

// headerSize is the fixed, aligned size of a header.
const headerSize = unsafe.Sizeof(header{})

// headerAt interprets the bytes at addr as a *header. addr must be a
// header address returned by an allocator within this package; the
// backends never expose header addresses to the mutator.
func headerAt(addr Address) *header {
	return (*header)(addr.pointer())
}

// payloadOf returns the payload address for the object whose header is at
// headerAddr.
func payloadOf(headerAddr Address) Address {
	return headerAddr + Address(headerSize)
}

// headerOf returns the header address for the object whose payload is at
// payloadAddr.
func headerOf(payloadAddr Address) Address {
	return payloadAddr - Address(headerSize)
}

// zero fills n bytes starting at addr with zero, satisfying spec §3.1's
// "payload contents are zeroed at allocation" invariant.
func zero(addr Address, n uintptr) {
	b := unsafe.Slice((*byte)(addr.pointer()), n)
	for i := range b {
		b[i] = 0
	}
}

// copyBytes copies n bytes from src to dst (may be header+payload, per
// spec §4.3's "copy header+payload verbatim").
func copyBytes(dst, src Address, n uintptr) {
	d := unsafe.Slice((*byte)(dst.pointer()), n)
	s := unsafe.Slice((*byte)(src.pointer()), n)
	copy(d, s)
}
