// Package idxcursor defines the stateful positioning contract over a
// countable index, plus a reference in-memory implementation used by tests.
// The index's internal data structure is an opaque collaborator; this
// package only describes — and, for tests, fakes — the cursor surface the
// operator drivers are built against.
package idxcursor

import (
	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/rowdata"
)

// Cursor is a single-threaded, stateful position over one index, scoped to
// one driver invocation.
type Cursor interface {
	// MoveToKey positions before the first entry whose key equals k; Next
	// yields each such entry in index order, then the null tuple.
	MoveToKey(k *idxkey.Key)
	// MoveToGreater positions to begin a forward traversal of entries with
	// key strictly greater than k.
	MoveToGreater(k *idxkey.Key)
	// MoveToGreaterOrEqual positions to begin a forward traversal of
	// entries with key greater than or equal to k.
	MoveToGreaterOrEqual(k *idxkey.Key)
	// MoveToLess positions to begin a reverse traversal of entries with key
	// strictly less than k.
	MoveToLess(k *idxkey.Key)
	// MoveToLessOrEqual positions to begin a reverse traversal of entries
	// with key less than or equal to k.
	MoveToLessOrEqual(k *idxkey.Key)
	// MoveToEnd positions at one end of the index; toStart selects forward
	// traversal from the minimum vs. reverse traversal from the maximum.
	MoveToEnd(toStart bool)
	// MoveToCoveringCell positions to enumerate entries whose spatial
	// extent contains point k; traversal order is unspecified.
	MoveToCoveringCell(k *idxkey.Key)
	// MoveToBeforePriorEntry rewinds two positions, so the next Next call
	// returns what was returned two calls ago. Used by the LTE
	// forward-prime pattern: prime a reverse scan by walking forward past
	// the boundary, then back up over the disqualifying entry.
	MoveToBeforePriorEntry()

	// Next advances and returns the next tuple, or the null tuple
	// (rowdata.NullTuple, with Valid=false) once exhausted.
	Next() rowdata.Tuple
}

// CountableIndex additionally exposes the rank primitives a countable index
// must support to serve CountDriver directly, plus cursor construction and
// identity.
type CountableIndex interface {
	// NewCursor returns a fresh cursor scoped to one driver invocation.
	NewCursor() Cursor

	// CountLE returns the number of entries with key <= k, or < k if
	// strict.
	CountLE(k *idxkey.Key, strict bool) int64
	// CountGE returns the number of entries with key >= k, or > k if
	// strict.
	CountGE(k *idxkey.Key, strict bool) int64
	// HasKey reports whether any entry with key exactly k exists.
	HasKey(k *idxkey.Key) bool
	// Size returns the total number of entries.
	Size() int64

	KeySchema() *idxkey.Schema
	Name() string
}
