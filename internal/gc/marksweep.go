package gc

import "time"

// msDefaultHeapBytes is the mark-sweep heap's default capacity, per
// spec §3.4.
const msDefaultHeapBytes = 4 << 20

// markSweep is a single non-moving heap managed by the shared free-list
// allocator, per spec §4.2.
type markSweep struct {
	heap  freeListHeap
	meta  *metaTable
	roots *rootSet

	threshold        uint64
	allocatedSinceGC uint64
	collecting       bool

	stats Stats
}

func newMarkSweep() *markSweep {
	return &markSweep{meta: newMetaTable(), roots: newRootSet()}
}

func (b *markSweep) Init(cfg Config) error {
	size := uintptr(msDefaultHeapBytes)
	if cfg.InitialHeapBytes != 0 {
		size = uintptr(cfg.InitialHeapBytes)
	}
	if err := b.heap.init(size); err != nil {
		return err
	}
	b.meta = newMetaTable()
	b.roots = newRootSet()
	b.threshold = uint64(size) / 4
	b.allocatedSinceGC = 0
	b.collecting = false
	b.stats = Stats{}
	return nil
}

func (b *markSweep) Allocate(size uintptr) (Address, error) {
	size = align(size)

	payload, blockTotal, ok := b.heap.allocate(size)
	if !ok {
		b.Collect()
		payload, blockTotal, ok = b.heap.allocate(size)
		if !ok {
			DefaultLogger.Printf("mark-sweep: out of memory allocating %d bytes", size)
			return 0, ErrOutOfMemory
		}
	}

	wasted := uint64(blockTotal) - uint64(headerSize) - uint64(size)
	b.stats.WastedBytes += wasted
	b.stats.MetadataBytes += uint64(headerSize)
	b.stats.AllocatedBytes += uint64(size)
	b.stats.CurrentBytes += uint64(size)
	b.allocatedSinceGC += uint64(size)

	if !b.collecting && b.allocatedSinceGC > b.threshold {
		b.Collect()
	}
	return payload, nil
}

func (b *markSweep) SetTrace(payload Address, fn TraceFunc) {
	if payload.IsNil() {
		return
	}
	b.meta.setTrace(payload, fn)
}

func (b *markSweep) SetTag(payload Address, tag Tag) {
	if payload.IsNil() {
		return
	}
	b.meta.setTag(payload, tag)
}

// MarkPointer sets the mark bit on payload's object and, the first time it
// transitions from unmarked to marked, invokes its trace callback. There is
// no relocation, so it always returns its input (spec §4.2).
func (b *markSweep) MarkPointer(payload Address) Address {
	if payload.IsNil() {
		return payload
	}
	h := headerAt(headerOf(payload))
	if h.mark != 0 {
		return payload
	}
	h.mark = 1
	b.stats.ObjectsScanned++
	if m := b.meta.get(payload); m.trace != nil {
		m.trace(payload, b.MarkPointer)
	}
	return payload
}

func (b *markSweep) AddRoot(slot *Address) error              { return b.roots.Add(slot) }
func (b *markSweep) RemoveRoot(slot *Address)                 { b.roots.Remove(slot) }
func (b *markSweep) WriteBarrier(Address, *Address, Address) {}

func (b *markSweep) Collect() {
	if b.collecting {
		return
	}
	b.collecting = true
	start := time.Now()

	b.roots.Each(func(slot *Address) {
		v := *slot
		if v.IsNil() {
			return
		}
		*slot = b.MarkPointer(v)
	})

	freed, wasted, freedCount := b.heap.sweep(func(payload Address) { b.meta.delete(payload) })
	b.stats.FreedBytes += freed
	b.stats.CurrentBytes -= freed
	b.stats.WastedBytes -= wasted
	b.stats.MetadataBytes -= freedCount * uint64(headerSize)

	b.stats.Collections++
	recordPause(&b.stats, time.Since(start))
	b.heap.fragmentation(&b.stats)
	b.allocatedSinceGC = 0
	b.threshold = growThreshold(b.threshold, 1.5, 4096, b.heap.size())
	b.collecting = false
}

func (b *markSweep) Free(payload Address) {
	if payload.IsNil() {
		return
	}
	freed, wasted := b.heap.free(payload)
	b.stats.FreedBytes += freed
	b.stats.CurrentBytes -= freed
	b.stats.WastedBytes -= wasted
	b.stats.MetadataBytes -= uint64(headerSize)
	b.meta.delete(payload)
}

func (b *markSweep) SetThreshold(bytes uint64) { b.threshold = bytes }
func (b *markSweep) GetThreshold() uint64      { return b.threshold }

func (b *markSweep) Stats() Stats { return b.stats }

func (b *markSweep) HeapSnapshot(buf []SnapshotRecord) int {
	return b.heap.snapshot(buf, b.meta, GenUnknown)
}
