package gc

import "time"

// copyDefaultSemiBytes is each semispace's default capacity, per spec §3.4.
const copyDefaultSemiBytes = 32 << 20

// copying is a two-semispace Cheney collector (spec §4.3). Allocation is a
// pure bump pointer in the active space; collection swaps spaces and
// evacuates everything reachable from the roots into the new active space.
type copying struct {
	spaceA, spaceB *arena
	spaceSize      uintptr

	activeBase, activeLimit     Address
	inactiveBase, inactiveLimit Address
	bump                        Address

	meta  *metaTable
	roots *rootSet

	collecting bool
	stats      Stats
}

func newCopying() *copying {
	return &copying{meta: newMetaTable(), roots: newRootSet()}
}

func (c *copying) Init(cfg Config) error {
	size := uintptr(copyDefaultSemiBytes)
	if cfg.InitialHeapBytes != 0 {
		size = uintptr(cfg.InitialHeapBytes)
	}
	a, err := newArena(size)
	if err != nil {
		return err
	}
	b, err := newArena(size)
	if err != nil {
		return err
	}
	c.spaceA, c.spaceB = a, b
	c.spaceSize = size
	c.activeBase, c.activeLimit = a.base, a.base+Address(size)
	c.inactiveBase, c.inactiveLimit = b.base, b.base+Address(size)
	c.bump = c.activeBase
	c.meta = newMetaTable()
	c.roots = newRootSet()
	c.collecting = false
	c.stats = Stats{}
	return nil
}

func (c *copying) Allocate(size uintptr) (Address, error) {
	size = align(size)
	needed := Address(headerSize) + Address(size)

	addr, ok := c.tryBump(needed)
	if !ok {
		c.Collect()
		addr, ok = c.tryBump(needed)
		if !ok {
			DefaultLogger.Printf("copying: out of memory allocating %d bytes", size)
			return 0, ErrOutOfMemory
		}
	}

	*headerAt(addr) = header{size: uint64(size)}
	payload := payloadOf(addr)
	zero(payload, size)
	// Drop any entry left by an object that died at this address.
	c.meta.delete(payload)

	c.stats.AllocatedBytes += uint64(size)
	c.stats.CurrentBytes += uint64(size)
	return payload, nil
}

func (c *copying) tryBump(needed Address) (Address, bool) {
	if c.bump+needed > c.activeLimit {
		return 0, false
	}
	addr := c.bump
	c.bump += needed
	return addr, true
}

// pointerInSpace reports whether addr falls within [base, limit). Spec §9
// flags the source's strict ">" at the low bound as an ambiguity the
// rewrite should resolve with ">="; this does.
func pointerInSpace(addr, base, limit Address) bool {
	return addr >= base && addr < limit
}

// evacuate is both the MarkPointer primitive and the worker the Cheney
// scan uses on every child slot (spec §4.3). Outside of a collection it is
// the identity, per spec §9's note that trace callbacks invoked by the
// mutator between collections rely on that.
func (c *copying) evacuate(from Address) Address {
	if from.IsNil() || !c.collecting {
		return from
	}
	if pointerInSpace(from, c.activeBase, c.activeLimit) {
		return from
	}
	addr := headerOf(from)
	h := headerAt(addr)
	if !h.forward.IsNil() {
		return h.forward
	}

	blockSize := Address(headerSize) + Address(h.size)
	if c.bump+blockSize > c.activeLimit {
		fatal("copying: semispace exhausted mid-evacuation (misconfigured semispace)")
	}
	newAddr := c.bump
	c.bump += blockSize
	copyBytes(newAddr, addr, uintptr(blockSize))

	newPayload := payloadOf(newAddr)
	headerAt(addr).forward = newPayload
	c.meta.rekey(from, newPayload)
	c.stats.ObjectsCopied++
	return newPayload
}

func (c *copying) MarkPointer(payload Address) Address { return c.evacuate(payload) }

func (c *copying) SetTrace(payload Address, fn TraceFunc) {
	if payload.IsNil() {
		return
	}
	c.meta.setTrace(payload, fn)
}

func (c *copying) SetTag(payload Address, tag Tag) {
	if payload.IsNil() {
		return
	}
	c.meta.setTag(payload, tag)
}

func (c *copying) AddRoot(slot *Address) error            { return c.roots.Add(slot) }
func (c *copying) RemoveRoot(slot *Address)                { c.roots.Remove(slot) }
func (c *copying) WriteBarrier(Address, *Address, Address) {}
func (c *copying) Free(Address)                             {}

// SetThreshold is a no-op: the copying backend's threshold is always the
// semispace size (spec §4.1).
func (c *copying) SetThreshold(uint64)   {}
func (c *copying) GetThreshold() uint64 { return uint64(c.spaceSize) }

func (c *copying) Collect() {
	if c.collecting {
		return
	}
	c.collecting = true
	start := time.Now()
	beforeScanned, beforeCopied := c.stats.ObjectsScanned, c.stats.ObjectsCopied

	c.activeBase, c.inactiveBase = c.inactiveBase, c.activeBase
	c.activeLimit, c.inactiveLimit = c.inactiveLimit, c.activeLimit
	c.bump = c.activeBase

	c.roots.Each(func(slot *Address) {
		v := *slot
		if v.IsNil() {
			return
		}
		*slot = c.evacuate(v)
	})

	// Cheney scan: a lagging pointer trails the bump pointer, tracing
	// each object it passes until it catches up.
	scan := c.activeBase
	for scan < c.bump {
		h := headerAt(scan)
		payload := payloadOf(scan)
		c.stats.ObjectsScanned++
		if m := c.meta.get(payload); m.trace != nil {
			m.trace(payload, c.evacuate)
		}
		scan += Address(headerSize) + Address(h.size)
	}

	cycleScanned := c.stats.ObjectsScanned - beforeScanned
	cycleCopied := c.stats.ObjectsCopied - beforeCopied
	if cycleScanned > 0 {
		c.stats.SurvivalRate = float64(cycleCopied) / float64(cycleScanned)
	}

	c.stats.CurrentBytes = uint64(c.bump - c.activeBase)
	c.stats.FragmentationIndex = 0
	c.stats.Collections++
	recordPause(&c.stats, time.Since(start))
	c.collecting = false
}

func (c *copying) Stats() Stats { return c.stats }

func (c *copying) HeapSnapshot(buf []SnapshotRecord) int {
	n := 0
	cur := c.activeBase
	for cur < c.bump && n < len(buf) {
		h := headerAt(cur)
		payload := payloadOf(cur)
		m := c.meta.get(payload)
		buf[n] = SnapshotRecord{Addr: payload, Size: h.size, Generation: GenUnknown, Tag: m.tag}
		n++
		cur += Address(headerSize) + Address(h.size)
	}
	return n
}
