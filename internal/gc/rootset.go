package gc

import "unsafe"

// rootSet is the shared root-slot registry described in spec §4.2's "root
// set implementation note": a hash table keyed by slot address (open
// addressing, power-of-two capacity, linear probing, 2x growth at load
// factor 1/2) whose table stores indices into a parallel dense vector. The
// dense vector, not the sparse table, is what mark scans, so a mostly-empty
// table after many removals doesn't slow down collection.
//
// All three backends use one of these for the registered root set; the
// generational backend uses a second instance for its remembered set
// (spec §3.3), since a remembered-set entry is exactly a root-like slot.
type rootSet struct {
	table []rootEntry
	used  int
	dense []*Address
}

type rootEntry struct {
	slot     *Address
	occupied bool
	idx      int // position of slot within dense
}

const rootSetInitialCap = 8

func newRootSet() *rootSet {
	return &rootSet{table: make([]rootEntry, rootSetInitialCap)}
}

func (r *rootSet) hash(slot *Address) int {
	h := uint64(uintptr(unsafe.Pointer(slot)))
	h *= 2654435761 // Knuth multiplicative hash
	return int(h) & (len(r.table) - 1)
}

// find returns the table slot holding key, or the first empty slot where
// it would be inserted.
func (r *rootSet) find(slot *Address) (pos int, found bool) {
	mask := len(r.table) - 1
	i := r.hash(slot)
	for n := 0; n < len(r.table); n++ {
		e := &r.table[i]
		if !e.occupied {
			return i, false
		}
		if e.slot == slot {
			return i, true
		}
		i = (i + 1) & mask
	}
	return -1, false
}

// Add registers slot. Idempotent: a duplicate slot collapses into the
// existing entry, per spec §3.2.
func (r *rootSet) Add(slot *Address) error {
	if slot == nil {
		return nil
	}
	if (r.used+1)*2 > len(r.table) {
		if err := r.grow(); err != nil {
			return err
		}
	}
	pos, found := r.find(slot)
	if found {
		return nil
	}
	if pos < 0 {
		return ErrRootSetGrowth
	}
	r.table[pos] = rootEntry{slot: slot, occupied: true, idx: len(r.dense)}
	r.dense = append(r.dense, slot)
	r.used++
	return nil
}

func (r *rootSet) grow() error {
	old := r.table
	next := make([]rootEntry, len(old)*2)
	if len(next) == 0 {
		next = make([]rootEntry, rootSetInitialCap)
	}
	r.table = next
	mask := len(r.table) - 1
	for _, e := range old {
		if !e.occupied {
			continue
		}
		i := r.hash(e.slot)
		for r.table[i].occupied {
			i = (i + 1) & mask
		}
		r.table[i] = e
	}
	return nil
}

// Remove unregisters slot, a no-op if it was never registered.
func (r *rootSet) Remove(slot *Address) {
	pos, found := r.find(slot)
	if !found {
		return
	}
	idx := r.table[pos].idx
	last := len(r.dense) - 1
	moved := r.dense[last]
	r.dense[idx] = moved
	r.dense = r.dense[:last]
	r.table[pos] = rootEntry{}
	r.used--

	if moved != slot {
		mpos, _ := r.find(moved)
		r.table[mpos].idx = idx
	}

	// Rehash the rest of this probe cluster so linear probing for keys
	// that hashed past pos still terminates.
	mask := len(r.table) - 1
	i := (pos + 1) & mask
	var cluster []rootEntry
	for r.table[i].occupied {
		cluster = append(cluster, r.table[i])
		r.table[i] = rootEntry{}
		i = (i + 1) & mask
	}
	for _, e := range cluster {
		j := r.hash(e.slot)
		for r.table[j].occupied {
			j = (j + 1) & mask
		}
		r.table[j] = e
	}
}

// Each calls fn for every registered slot, in unspecified order.
func (r *rootSet) Each(fn func(*Address)) {
	for _, s := range r.dense {
		fn(s)
	}
}

// RemoveIf drops every registered slot for which remove returns true. Used
// at the end of a minor collection to drop remembered-set entries that no
// longer point into the nursery (spec §3.3).
func (r *rootSet) RemoveIf(remove func(*Address) bool) {
	var victims []*Address
	for _, s := range r.dense {
		if remove(s) {
			victims = append(victims, s)
		}
	}
	for _, s := range victims {
		r.Remove(s)
	}
}

func (r *rootSet) Len() int { return len(r.dense) }
