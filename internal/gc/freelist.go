package gc

// freeListHeap is the address-ordered, coalescing free-list allocator
// shared by the mark-sweep backend's single heap and the generational
// backend's tenured generation (spec §3.4, §4.2): both are non-moving
// regions with identical allocation, coalescing, and sweep rules, so the
// mechanics live here once and each backend supplies only its own
// root/remembered-set scanning and statistics bookkeeping.
type freeListHeap struct {
	arena *arena
	base  Address
	limit Address

	freeHead Address // address-ordered free list
	objHead  Address // doubly-linked object list
}

// minBlockSize is MIN_BLOCK_SIZE from spec §4.2: a free block must be able
// to hold a free header on its own.
const minBlockSize = uintptr(headerSize)

func (f *freeListHeap) init(size uintptr) error {
	a, err := newArena(size)
	if err != nil {
		return err
	}
	f.arena = a
	f.base = a.base
	f.limit = a.base + Address(size)
	f.freeHead = f.base
	f.objHead = 0
	*headerAt(f.base) = header{total: uint64(size)}
	return nil
}

func (f *freeListHeap) size() uint64 { return uint64(f.limit - f.base) }

// allocate finds the first free block that fits payloadSize bytes,
// splitting it when the remainder is at least minBlockSize (spec §4.2).
// blockTotal is the full size of the block actually consumed, for the
// caller's wasted-bytes accounting.
func (f *freeListHeap) allocate(payloadSize uintptr) (payload Address, blockTotal uintptr, ok bool) {
	needed := align(uintptr(headerSize) + payloadSize)
	if needed < minBlockSize {
		needed = minBlockSize
	}

	var prev Address
	cur := f.freeHead
	for cur != 0 {
		h := headerAt(cur)
		total := uintptr(h.total)
		next := h.next
		if total < needed {
			prev = cur
			cur = next
			continue
		}

		if total-needed >= minBlockSize {
			blockTotal = needed
			remaining := total - needed
			newFree := cur + Address(needed)
			*headerAt(newFree) = header{total: uint64(remaining), next: next}
			if prev == 0 {
				f.freeHead = newFree
			} else {
				headerAt(prev).next = newFree
			}
		} else {
			blockTotal = total
			if prev == 0 {
				f.freeHead = next
			} else {
				headerAt(prev).next = next
			}
		}

		ah := headerAt(cur)
		*ah = header{size: uint64(payloadSize), total: uint64(blockTotal)}
		ah.next = f.objHead
		if f.objHead != 0 {
			headerAt(f.objHead).prev = cur
		}
		f.objHead = cur

		payload = payloadOf(cur)
		zero(payload, payloadSize)
		return payload, blockTotal, true
	}
	return 0, 0, false
}

func (f *freeListHeap) unlinkObject(addr Address) {
	h := headerAt(addr)
	if h.prev != 0 {
		headerAt(h.prev).next = h.next
	} else if f.objHead == addr {
		f.objHead = h.next
	}
	if h.next != 0 {
		headerAt(h.next).prev = h.prev
	}
}

// insertFree reinserts a freed block into the address-ordered free list
// and coalesces it with both neighbors when contiguous (spec §4.2).
func (f *freeListHeap) insertFree(addr Address, size uintptr) {
	var prev Address
	cur := f.freeHead
	for cur != 0 && cur < addr {
		prev = cur
		cur = headerAt(cur).next
	}

	h := headerAt(addr)
	*h = header{total: uint64(size), next: cur}
	if prev == 0 {
		f.freeHead = addr
	} else {
		headerAt(prev).next = addr
	}

	if cur != 0 && addr+Address(size) == cur {
		ch := headerAt(cur)
		h.total += ch.total
		h.next = ch.next
	}
	if prev != 0 {
		ph := headerAt(prev)
		if prev+Address(ph.total) == addr {
			ph.total += h.total
			ph.next = h.next
		}
	}
}

// free immediately reclaims payload's block, returning its payload size
// and wasted (internal-fragmentation) bytes for stats bookkeeping.
func (f *freeListHeap) free(payload Address) (freedBytes, wasted uint64) {
	addr := headerOf(payload)
	h := headerAt(addr)
	f.unlinkObject(addr)
	wasted = uint64(uintptr(h.total) - uintptr(headerSize) - uintptr(h.size))
	freedBytes = h.size
	f.insertFree(addr, uintptr(h.total))
	return
}

// sweep reclaims every unmarked block in the object list and clears the
// mark bit on survivors, calling onFree(payload) just before each freed
// block's header memory is recycled so the caller can drop side-table
// metadata (spec §4.2 Sweep phase).
func (f *freeListHeap) sweep(onFree func(payload Address)) (freedBytes, wasted, freedCount uint64) {
	cur := f.objHead
	for cur != 0 {
		h := headerAt(cur)
		next := h.next
		payload := payloadOf(cur)
		if h.mark == 0 {
			f.unlinkObject(cur)
			wasted += uint64(uintptr(h.total) - uintptr(headerSize) - uintptr(h.size))
			freedBytes += h.size
			freedCount++
			onFree(payload)
			f.insertFree(cur, uintptr(h.total))
		} else {
			h.mark = 0
		}
		cur = next
	}
	return
}

func (f *freeListHeap) liveCount() uint64 {
	var n uint64
	for c := f.objHead; c != 0; c = headerAt(c).next {
		n++
	}
	return n
}

// fragmentation recomputes the free-list fragmentation metrics of spec
// §3.5 into s. s.WastedBytes and s.AllocatedBytes must already be current.
func (f *freeListHeap) fragmentation(s *Stats) {
	var total, largest, count uint64
	for cur := f.freeHead; cur != 0; cur = headerAt(cur).next {
		h := headerAt(cur)
		total += h.total
		if h.total > largest {
			largest = h.total
		}
		count++
	}
	s.TotalFreeMemory = total
	s.LargestFreeBlock = largest
	s.FreeBlocksCount = count
	if count > 0 {
		s.AverageFreeBlockSize = float64(total) / float64(count)
	} else {
		s.AverageFreeBlockSize = 0
	}

	if total > 0 {
		idx := 1 - float64(largest)/float64(total)
		if idx > s.PeakFragmentationIndex {
			s.FragmentationGrowthRate = idx - s.PeakFragmentationIndex
			s.PeakFragmentationIndex = idx
		}
		s.FragmentationIndex = idx
	} else {
		s.FragmentationIndex = 0
	}

	if s.AllocatedBytes > 0 {
		s.InternalFragmentationRatio = float64(s.WastedBytes) / float64(s.AllocatedBytes)
	}
	if live := f.liveCount(); live > 0 {
		s.AveragePaddingPerObject = float64(s.WastedBytes) / float64(live)
	} else {
		s.AveragePaddingPerObject = 0
	}
}

func (f *freeListHeap) snapshot(buf []SnapshotRecord, meta *metaTable, gen Generation) int {
	n := 0
	for cur := f.objHead; cur != 0 && n < len(buf); cur = headerAt(cur).next {
		h := headerAt(cur)
		payload := payloadOf(cur)
		m := meta.get(payload)
		buf[n] = SnapshotRecord{Addr: payload, Size: h.size, Generation: gen, Tag: m.tag}
		n++
	}
	return n
}
