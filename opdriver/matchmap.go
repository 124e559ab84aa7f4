package opdriver

// InnerMatchMap tracks, across an entire FULL join's outer loop, which inner
// tuples were matched at least once by some outer tuple. After the inner
// nested loop completes, a FULL join walks the inner table once more and
// emits a NULL-outer-padded row for every inner tuple this map never saw —
// the FULL-join post-pass of spec.md §4.6.
type InnerMatchMap struct {
	seen map[int64]struct{}
}

// NewInnerMatchMap builds an empty match map.
func NewInnerMatchMap() *InnerMatchMap {
	return &InnerMatchMap{seen: make(map[int64]struct{})}
}

// Mark records that the inner tuple at addr matched at least one outer
// tuple.
func (m *InnerMatchMap) Mark(addr int64) {
	m.seen[addr] = struct{}{}
}

// Matched reports whether addr was ever marked.
func (m *InnerMatchMap) Matched(addr int64) bool {
	_, ok := m.seen[addr]
	return ok
}
