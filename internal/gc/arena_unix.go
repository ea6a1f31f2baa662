//go:build darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package gc

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// arena is a contiguous region of raw memory backing one of a backend's
// heap regions (the mark-sweep heap, a copying semispace, a nursery
// semispace, or the tenured region). On unix it is backed by an anonymous
// mmap mapping, in the same spirit as the teacher repository's own model
// of a mutator's memory as a sequence of OS mappings (core.Mapping)
// rather than a plain Go byte slice; the teacher never itself calls mmap.
type arena struct {
	bytes []byte
	base  Address
}

func newArena(size uintptr) (*arena, error) {
	b, err := unix.Mmap(-1, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, err
	}
	return &arena{bytes: b, base: addressOf(unsafe.Pointer(&b[0]))}, nil
}

func (a *arena) release() error {
	if a == nil || a.bytes == nil {
		return nil
	}
	err := unix.Munmap(a.bytes)
	a.bytes = nil
	return err
}
