package gc

// objMeta holds the parts of an object header that cannot live as raw
// bytes in the arena: a trace callback is a Go func value, not POD data a
// moving collector can memmove verbatim. tracegc keeps it in a side table
// keyed by payload address instead, and rekeys the entry whenever evacuate
// or promote relocates the payload. This does not change the contract in
// spec §3.1: the mutator still installs a trace callback once per object
// and never sees where it is stored.
type objMeta struct {
	trace TraceFunc
	tag   Tag
}

type metaTable struct {
	m map[Address]objMeta
}

func newMetaTable() *metaTable {
	return &metaTable{m: make(map[Address]objMeta)}
}

func (t *metaTable) get(addr Address) objMeta {
	return t.m[addr]
}

func (t *metaTable) setTrace(addr Address, fn TraceFunc) {
	e := t.m[addr]
	e.trace = fn
	t.m[addr] = e
}

func (t *metaTable) setTag(addr Address, tag Tag) {
	e := t.m[addr]
	e.tag = tag
	t.m[addr] = e
}

// rekey moves the metadata entry for old to new, used when a moving
// backend relocates a payload. If old has no entry, any stale entry at new
// is dropped.
func (t *metaTable) rekey(old, new Address) {
	if old == new {
		return
	}
	if e, ok := t.m[old]; ok {
		delete(t.m, old)
		t.m[new] = e
	} else {
		delete(t.m, new)
	}
}

func (t *metaTable) delete(addr Address) {
	delete(t.m, addr)
}
