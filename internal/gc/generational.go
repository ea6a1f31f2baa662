package gc

import "time"

const (
	genNurseryDefaultBytes = 512 << 10
	genTenuredDefaultBytes = 4 << 20
	promoteAge              = 2
)

// genState tracks the collector's state machine (spec §4.4): idle, minor,
// or major. Re-entry into either collecting state is disallowed; a
// trigger that arrives mid-cycle is simply dropped.
type genState int

const (
	genIdle genState = iota
	genMinor
	genMajor
)

// generational is a copying nursery over a mark-sweep tenured generation
// (spec §4.4). Minor collections touch only the nursery; a major
// collection is a minor followed by a mark-sweep over tenured.
type generational struct {
	nurseryA, nurseryB *arena
	nurserySize        uintptr

	nurseryActiveBase, nurseryActiveLimit     Address
	nurseryInactiveBase, nurseryInactiveLimit Address
	nurseryBump                               Address

	// curFromBase/curFromLimit describe the in-progress minor collection's
	// from-space, so MarkPointer can dispatch correctly if invoked
	// reentrantly from outside the normal trace-callback path.
	curFromBase, curFromLimit Address

	tenured                    freeListHeap
	tenuredThreshold           uint64
	tenuredAllocatedSinceMajor uint64

	meta       *metaTable
	roots      *rootSet
	remembered *rootSet

	state           genState
	tracingPromoted bool
	promoteStack    []Address

	stats Stats
}

func newGenerational() *generational {
	return &generational{meta: newMetaTable(), roots: newRootSet(), remembered: newRootSet()}
}

func (g *generational) Init(cfg Config) error {
	nurserySize := uintptr(genNurseryDefaultBytes)
	tenuredSize := uintptr(genTenuredDefaultBytes)
	if cfg.InitialHeapBytes != 0 {
		tenuredSize = uintptr(cfg.InitialHeapBytes)
	}

	a, err := newArena(nurserySize)
	if err != nil {
		return err
	}
	b, err := newArena(nurserySize)
	if err != nil {
		return err
	}
	g.nurseryA, g.nurseryB = a, b
	g.nurserySize = nurserySize
	g.nurseryActiveBase, g.nurseryActiveLimit = a.base, a.base+Address(nurserySize)
	g.nurseryInactiveBase, g.nurseryInactiveLimit = b.base, b.base+Address(nurserySize)
	g.nurseryBump = g.nurseryActiveBase

	if err := g.tenured.init(tenuredSize); err != nil {
		return err
	}

	g.meta = newMetaTable()
	g.roots = newRootSet()
	g.remembered = newRootSet()
	g.state = genIdle
	g.tracingPromoted = false
	g.promoteStack = nil
	g.tenuredThreshold = uint64(tenuredSize) / 4
	g.tenuredAllocatedSinceMajor = 0
	g.stats = Stats{}
	return nil
}

func (g *generational) isTenured(addr Address) bool {
	return pointerInSpace(addr, g.tenured.base, g.tenured.limit)
}

func (g *generational) isInNursery(addr Address) bool {
	return pointerInSpace(addr, g.nurseryActiveBase, g.nurseryActiveLimit)
}

func (g *generational) tryNurseryBump(needed Address) (Address, bool) {
	if g.nurseryBump+needed > g.nurseryActiveLimit {
		return 0, false
	}
	addr := g.nurseryBump
	g.nurseryBump += needed
	return addr, true
}

// Allocate defaults to the nursery; on exhaustion it minor-collects, then
// major-collects, then gives up (spec §4.4 Allocation).
func (g *generational) Allocate(size uintptr) (Address, error) {
	size = align(size)
	needed := Address(headerSize) + Address(size)

	addr, ok := g.tryNurseryBump(needed)
	if !ok {
		g.minorCollect()
		if g.tenuredAllocatedSinceMajor > g.tenuredThreshold {
			g.majorCollect()
		}
		addr, ok = g.tryNurseryBump(needed)
	}
	if !ok {
		g.majorCollect()
		addr, ok = g.tryNurseryBump(needed)
	}
	if !ok {
		DefaultLogger.Printf("generational: out of memory allocating %d bytes", size)
		return 0, ErrOutOfMemory
	}

	*headerAt(addr) = header{size: uint64(size)}
	payload := payloadOf(addr)
	zero(payload, size)

	g.stats.AllocatedBytes += uint64(size)
	g.stats.CurrentBytes += uint64(size)
	return payload, nil
}

func (g *generational) SetTrace(payload Address, fn TraceFunc) {
	if payload.IsNil() {
		return
	}
	g.meta.setTrace(payload, fn)
}

func (g *generational) SetTag(payload Address, tag Tag) {
	if payload.IsNil() {
		return
	}
	g.meta.setTag(payload, tag)
}

func (g *generational) AddRoot(slot *Address) error { return g.roots.Add(slot) }
func (g *generational) RemoveRoot(slot *Address)    { g.roots.Remove(slot) }

// WriteBarrier records slot in the remembered set whenever owner is
// tenured and child is in the nursery (spec §3.3, §4.4).
func (g *generational) WriteBarrier(owner Address, slot *Address, child Address) {
	if owner.IsNil() || child.IsNil() {
		return
	}
	if g.isTenured(owner) && g.isInNursery(child) {
		if err := g.remembered.Add(slot); err != nil {
			fatal("generational: remembered set growth failed")
		}
	}
}

// MarkPointer dispatches to whichever sub-collector is currently running,
// or is the identity when idle (spec §9's open-question resolution).
func (g *generational) MarkPointer(payload Address) Address {
	switch g.state {
	case genMinor:
		return g.evacuateYoung(payload, g.curFromBase, g.curFromLimit)
	case genMajor:
		return g.markTenured(payload)
	default:
		return payload
	}
}

// evacuateYoung implements spec §4.4's Evacuate-young: copy within the
// nursery, or promote to tenured under the deep-promotion policy (already
// tracing a promoted object, old enough, or the nursery to-space is full).
func (g *generational) evacuateYoung(from, fromBase, fromLimit Address) Address {
	if from.IsNil() {
		return from
	}
	if !pointerInSpace(from, fromBase, fromLimit) {
		return from
	}
	addr := headerOf(from)
	h := headerAt(addr)
	if !h.forward.IsNil() {
		return h.forward
	}

	full := g.nurseryBump+Address(headerSize)+Address(h.size) > g.nurseryActiveLimit
	if g.tracingPromoted || h.age+1 >= promoteAge || full {
		newPayload, ok := g.promote(addr, h)
		if !ok {
			fatal("generational: tenured allocation failed during promotion")
		}
		h.forward = newPayload
		g.meta.rekey(from, newPayload)
		g.stats.ObjectsPromoted++
		g.promoteStack = append(g.promoteStack, newPayload)
		return newPayload
	}

	blockSize := Address(headerSize) + Address(h.size)
	newAddr := g.nurseryBump
	g.nurseryBump += blockSize
	copyBytes(newAddr, addr, uintptr(blockSize))
	headerAt(newAddr).age = h.age + 1

	newPayload := payloadOf(newAddr)
	h.forward = newPayload
	g.meta.rekey(from, newPayload)
	g.stats.ObjectsCopied++
	return newPayload
}

func (g *generational) promote(nurseryAddr Address, h *header) (Address, bool) {
	newPayload, _, ok := g.tenured.allocate(uintptr(h.size))
	if !ok {
		return 0, false
	}
	copyBytes(newPayload, payloadOf(nurseryAddr), uintptr(h.size))
	g.tenuredAllocatedSinceMajor += h.size
	return newPayload, true
}

// markTenured is the mark function a major collection's mark-sweep phase
// uses: it only marks and recurses through objects actually in tenured.
// A reference into the (already-evacuated) nursery is left untouched,
// since nursery survivors are not swept by a major collection.
func (g *generational) markTenured(payload Address) Address {
	if payload.IsNil() || !g.isTenured(payload) {
		return payload
	}
	h := headerAt(headerOf(payload))
	if h.mark != 0 {
		return payload
	}
	h.mark = 1
	g.stats.ObjectsScanned++
	if m := g.meta.get(payload); m.trace != nil {
		m.trace(payload, g.markTenured)
	}
	return payload
}

// minorCollect evacuates every nursery survivor, applying the
// deep-promotion policy of spec §4.4 step 4, then drops stale
// remembered-set entries.
func (g *generational) minorCollect() {
	if g.state != genIdle {
		return
	}
	g.state = genMinor
	start := time.Now()
	beforeScanned, beforeCopied := g.stats.ObjectsScanned, g.stats.ObjectsCopied

	fromBase, fromLimit := g.nurseryActiveBase, g.nurseryBump
	g.curFromBase, g.curFromLimit = fromBase, fromLimit

	g.nurseryActiveBase, g.nurseryInactiveBase = g.nurseryInactiveBase, g.nurseryActiveBase
	g.nurseryActiveLimit, g.nurseryInactiveLimit = g.nurseryInactiveLimit, g.nurseryActiveLimit
	g.nurseryBump = g.nurseryActiveBase

	g.tracingPromoted = false
	g.promoteStack = g.promoteStack[:0]

	evac := func(a Address) Address { return g.evacuateYoung(a, fromBase, fromLimit) }

	g.roots.Each(func(slot *Address) {
		v := *slot
		if v.IsNil() || !pointerInSpace(v, fromBase, fromLimit) {
			return
		}
		*slot = evac(v)
	})
	g.remembered.Each(func(slot *Address) {
		v := *slot
		if v.IsNil() || !pointerInSpace(v, fromBase, fromLimit) {
			return
		}
		*slot = evac(v)
	})

	// Cheney-scan nursery survivors.
	for scan := g.nurseryActiveBase; scan < g.nurseryBump; {
		h := headerAt(scan)
		payload := payloadOf(scan)
		g.stats.ObjectsScanned++
		if m := g.meta.get(payload); m.trace != nil {
			m.trace(payload, evac)
		}
		scan += Address(headerSize) + Address(h.size)
	}

	// Drain the promotion work stack: children discovered while tracing a
	// promoted object are themselves promoted (spec §4.4 step 4).
	g.tracingPromoted = true
	for len(g.promoteStack) > 0 {
		addr := g.promoteStack[len(g.promoteStack)-1]
		g.promoteStack = g.promoteStack[:len(g.promoteStack)-1]
		if m := g.meta.get(addr); m.trace != nil {
			m.trace(addr, evac)
		}
	}
	g.tracingPromoted = false

	// Anything left un-forwarded in from-space was unreachable.
	var dead uint64
	for cur := fromBase; cur < fromLimit; {
		h := headerAt(cur)
		size := h.size
		if h.forward.IsNil() {
			dead += size
			g.meta.delete(payloadOf(cur))
		}
		cur += Address(headerSize) + Address(size)
	}
	g.stats.FreedBytes += dead
	g.stats.CurrentBytes -= dead

	g.remembered.RemoveIf(func(slot *Address) bool {
		v := *slot
		return v.IsNil() || !g.isInNursery(v)
	})

	if cycleScanned := g.stats.ObjectsScanned - beforeScanned; cycleScanned > 0 {
		g.stats.SurvivalRate = float64(g.stats.ObjectsCopied-beforeCopied) / float64(cycleScanned)
	}

	g.stats.Collections++
	recordPause(&g.stats, time.Since(start))
	g.tenured.fragmentation(&g.stats)
	g.state = genIdle
}

// majorCollect mark-sweeps the tenured generation, rooted at registered
// roots and the remembered set (spec §4.4). A major collection always
// follows a minor one, so the nursery holds only that minor's survivors;
// they are not swept here, but every tenured object they reference is
// marked.
func (g *generational) majorCollect() {
	if g.state != genIdle {
		return
	}
	g.state = genMajor

	start := time.Now()
	g.roots.Each(func(slot *Address) {
		v := *slot
		if v.IsNil() {
			return
		}
		*slot = g.markTenured(v)
	})
	g.remembered.Each(func(slot *Address) {
		v := *slot
		if v.IsNil() {
			return
		}
		*slot = g.markTenured(v)
	})
	for cur := g.nurseryActiveBase; cur < g.nurseryBump; {
		h := headerAt(cur)
		payload := payloadOf(cur)
		if m := g.meta.get(payload); m.trace != nil {
			m.trace(payload, g.markTenured)
		}
		cur += Address(headerSize) + Address(h.size)
	}

	freed, wasted, freedCount := g.tenured.sweep(func(payload Address) { g.meta.delete(payload) })
	g.stats.FreedBytes += freed
	g.stats.CurrentBytes -= freed
	g.stats.WastedBytes -= wasted
	g.stats.MetadataBytes -= freedCount * uint64(headerSize)

	g.stats.Collections++
	recordPause(&g.stats, time.Since(start))
	g.tenured.fragmentation(&g.stats)
	g.tenuredThreshold = growThreshold(g.tenuredThreshold, 2.0, 4096, 0)
	g.tenuredAllocatedSinceMajor = 0
	g.state = genIdle
}

// Collect forces a full cycle: a minor collection followed unconditionally
// by a major one, per spec §4.1.
func (g *generational) Collect() {
	g.minorCollect()
	g.majorCollect()
}

func (g *generational) Free(payload Address) {
	if payload.IsNil() || !g.isTenured(payload) {
		return // nursery free is a no-op between collections (spec §4.1)
	}
	freed, wasted := g.tenured.free(payload)
	g.stats.FreedBytes += freed
	g.stats.CurrentBytes -= freed
	g.stats.WastedBytes -= wasted
	g.stats.MetadataBytes -= uint64(headerSize)
	g.meta.delete(payload)
}

// SetThreshold/GetThreshold govern the tenured (generational-old)
// watermark; the nursery has no configurable threshold, only exhaustion
// (spec §4.1).
func (g *generational) SetThreshold(bytes uint64) { g.tenuredThreshold = bytes }
func (g *generational) GetThreshold() uint64      { return g.tenuredThreshold }

func (g *generational) Stats() Stats { return g.stats }

func (g *generational) HeapSnapshot(buf []SnapshotRecord) int {
	n := 0
	for cur := g.nurseryActiveBase; cur < g.nurseryBump && n < len(buf); {
		h := headerAt(cur)
		payload := payloadOf(cur)
		m := g.meta.get(payload)
		buf[n] = SnapshotRecord{Addr: payload, Size: h.size, Generation: GenNursery, Tag: m.tag}
		n++
		cur += Address(headerSize) + Address(h.size)
	}
	n += g.tenured.snapshot(buf[n:], g.meta, GenOld)
	return n
}
