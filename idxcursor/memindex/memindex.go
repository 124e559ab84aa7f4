// Package memindex is an in-memory, rank-queryable reference implementation
// of idxcursor.CountableIndex, used as the fake index the operator driver
// tests run against. It is not a storage engine: entries are held sorted in
// a plain slice and never mutated concurrently, trading every production
// concern (durability, concurrency, compaction) for a small, obviously
// correct oracle.
package memindex

import (
	"sort"

	"github.com/cockroachdb/idxexec/idxcursor"
	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/rowdata"
)

// entry pairs a key with the tuple it indexes.
type entry struct {
	key   *idxkey.Key
	tuple rowdata.Tuple
}

// Index is a sorted, in-memory CountableIndex. Entries are kept ordered by
// idxkey.Compare over the full key; ties (equal keys) retain insertion
// order, matching the stable enumeration order a real index guarantees for
// an EQ lookup.
type Index struct {
	name    string
	schema  *idxkey.Schema
	entries []entry
}

var _ idxcursor.CountableIndex = (*Index)(nil)

// New builds an empty Index over schema, named name for error messages.
func New(name string, schema *idxkey.Schema) *Index {
	return &Index{name: name, schema: schema}
}

// Insert adds (key, tuple) to the index, re-sorting to restore key order.
// Insert is not safe for concurrent use; tests build an Index once, then
// read it via cursors.
func (ix *Index) Insert(key *idxkey.Key, tuple rowdata.Tuple) {
	ix.entries = append(ix.entries, entry{key: key, tuple: tuple})
	sort.SliceStable(ix.entries, func(i, j int) bool {
		return idxkey.Compare(ix.entries[i].key, ix.entries[j].key) < 0
	})
}

func (ix *Index) Name() string             { return ix.name }
func (ix *Index) KeySchema() *idxkey.Schema { return ix.schema }
func (ix *Index) Size() int64              { return int64(len(ix.entries)) }

// lowerBound returns the index of the first entry whose key is >= k.
func (ix *Index) lowerBound(k *idxkey.Key) int {
	return sort.Search(len(ix.entries), func(i int) bool {
		return idxkey.Compare(ix.entries[i].key, k) >= 0
	})
}

// upperBound returns the index of the first entry whose key is > k.
func (ix *Index) upperBound(k *idxkey.Key) int {
	return sort.Search(len(ix.entries), func(i int) bool {
		return idxkey.Compare(ix.entries[i].key, k) > 0
	})
}

func (ix *Index) CountLE(k *idxkey.Key, strict bool) int64 {
	if strict {
		return int64(ix.lowerBound(k))
	}
	return int64(ix.upperBound(k))
}

func (ix *Index) CountGE(k *idxkey.Key, strict bool) int64 {
	if strict {
		return int64(len(ix.entries) - ix.upperBound(k))
	}
	return int64(len(ix.entries) - ix.lowerBound(k))
}

func (ix *Index) HasKey(k *idxkey.Key) bool {
	lo := ix.lowerBound(k)
	return lo < len(ix.entries) && idxkey.Compare(ix.entries[lo].key, k) == 0
}

func (ix *Index) NewCursor() idxcursor.Cursor {
	return &cursor{ix: ix, lo: 0, hi: len(ix.entries)}
}

// cursor walks ix.entries in one direction (dir = +1 forward, -1 reverse)
// within the half-open window [lo, hi), stopping and returning the null
// tuple once pos leaves that window.
//
// MoveToKey bounds the window to exactly the run of equal-keyed entries, so
// Next self-terminates after the last equal entry without any external
// per-tuple comparison. MoveToGreater/.../MoveToEnd instead leave the window
// at the index's full extent and only narrow the starting position,
// because those traversals run to the natural end of the index (subject to
// whatever end_expression the driver evaluates per tuple, which is the
// driver's concern, not the cursor's).
type cursor struct {
	ix  *Index
	pos int
	dir int
	lo  int
	hi  int
}

var _ idxcursor.Cursor = (*cursor)(nil)

func (c *cursor) Next() rowdata.Tuple {
	if c.pos < c.lo || c.pos >= c.hi {
		return rowdata.NullTuple
	}
	t := c.ix.entries[c.pos].tuple
	c.pos += c.dir
	return t
}

func (c *cursor) MoveToKey(k *idxkey.Key) {
	c.lo = c.ix.lowerBound(k)
	c.hi = c.ix.upperBound(k)
	c.pos = c.lo
	c.dir = 1
}

func (c *cursor) MoveToGreater(k *idxkey.Key) {
	c.lo, c.hi = 0, len(c.ix.entries)
	c.pos = c.ix.upperBound(k)
	c.dir = 1
}

func (c *cursor) MoveToGreaterOrEqual(k *idxkey.Key) {
	c.lo, c.hi = 0, len(c.ix.entries)
	c.pos = c.ix.lowerBound(k)
	c.dir = 1
}

func (c *cursor) MoveToLess(k *idxkey.Key) {
	c.lo, c.hi = 0, len(c.ix.entries)
	c.pos = c.ix.lowerBound(k) - 1
	c.dir = -1
}

func (c *cursor) MoveToLessOrEqual(k *idxkey.Key) {
	c.lo, c.hi = 0, len(c.ix.entries)
	c.pos = c.ix.upperBound(k) - 1
	c.dir = -1
}

func (c *cursor) MoveToEnd(toStart bool) {
	c.lo, c.hi = 0, len(c.ix.entries)
	if toStart {
		c.pos = 0
		c.dir = 1
	} else {
		c.pos = len(c.ix.entries) - 1
		c.dir = -1
	}
}

// MoveToCoveringCell has no spatial index to defer to here; geometry
// containment is an opaque collaborator this fake does not model, so it
// degrades to an exact-key match, sufficient for drivers that only need a
// cursor to hand back an unspecified-order set of candidates.
func (c *cursor) MoveToCoveringCell(k *idxkey.Key) {
	c.MoveToKey(k)
}

// MoveToBeforePriorEntry rewinds to the entry immediately before the one
// that just failed the forward-prime loop's initial_expression check, and
// flips to reverse traversal from there. At the moment this is called, pos
// sits one past the entry Next() just returned (the failing entry), so
// pos-2 is one before it — exactly where a reverse scan should resume.
func (c *cursor) MoveToBeforePriorEntry() {
	c.lo, c.hi = 0, len(c.ix.entries)
	c.pos -= 2
	c.dir = -1
}
