// Package planspec defines the opaque plan-node contracts the operator
// drivers consume. Plan-node deserialization from a planner's wire format is
// out of scope; these are the already-deserialized shapes a driver
// receives.
package planspec

import (
	"github.com/cockroachdb/idxexec/exprtree"
	"github.com/cockroachdb/idxexec/rowdata"
	"github.com/cockroachdb/redact"
)

// CompareOp is the start-side (and, for scans, the only) comparison
// operator driving a key lookup.
type CompareOp int

const (
	// OpInvalid is a sentinel for pre-initialization only; it is never a
	// legal value at execute time.
	OpInvalid CompareOp = iota
	OpEQ
	OpGT
	OpGTE
	OpLT
	OpLTE
	OpGeoContains
)

func (op CompareOp) String() string {
	switch op {
	case OpEQ:
		return "EQ"
	case OpGT:
		return "GT"
	case OpGTE:
		return "GTE"
	case OpLT:
		return "LT"
	case OpLTE:
		return "LTE"
	case OpGeoContains:
		return "GEO_CONTAINS"
	default:
		return "INVALID"
	}
}

// SortDirection is the scan's requested output order.
type SortDirection int

const (
	SortUnspecified SortDirection = iota
	SortAsc
	SortDesc
)

// JoinType selects the nested-loop join's outer-padding and full-outer
// post-pass behavior.
type JoinType int

const (
	JoinInner JoinType = iota
	JoinLeft
	JoinFull
)

// IndexRef names the target table and index a driver should resolve against
// the storage layer; resolving it to a concrete idxcursor.Index is the
// caller's responsibility (storage internals are opaque, spec.md §1).
type IndexRef struct {
	TableName string
	IndexName string
}

// DebugString renders a redaction-safe identifier for error messages
// attached to a structured engine exception.
func (r IndexRef) DebugString() redact.RedactableString {
	return redact.Sprintf("%s@%s", redact.SafeString(r.TableName), redact.SafeString(r.IndexName))
}

// ScanSpec is the deserialized shape of an index-scan plan node.
type ScanSpec struct {
	Index IndexRef

	SearchKeyExprs []exprtree.Expression
	LookupType     CompareOp

	// EndExpression is re-evaluated per tuple to decide when to stop
	// scanning; nil means scan to the natural end of the cursor's
	// traversal.
	EndExpression exprtree.Expression
	// InitialExpression primes the LTE forward-scan pattern.
	InitialExpression exprtree.Expression
	// SkipNullPredicate identifies the leading NULL run to discard for an
	// underflow-promoted start or a reverse-scan edge case.
	SkipNullPredicate exprtree.Expression
	// Predicate is the post-filter applied to each candidate tuple.
	Predicate exprtree.Expression

	SortDirection SortDirection

	// Limit/Offset implement the inline LIMIT/OFFSET node; -1 means
	// unbounded / no offset.
	Limit  int
	Offset int

	// Projection, when non-nil, is applied to each qualifying tuple before
	// it reaches the sink. Nil means emit the raw tuple.
	Projection rowdata.Projection

	// EmptyScan short-circuits execution entirely (the planner determined
	// no rows can match, independent of range resolution).
	EmptyScan bool
}

// CountSpec is the deserialized shape of an index-count plan node. The
// source engine's planner historically emitted two near-identical loaders
// for this node; only the single canonical shape is modeled here.
type CountSpec struct {
	Index IndexRef

	SearchKeyExprs []exprtree.Expression
	LookupType     CompareOp

	EndKeyExprs []exprtree.Expression
	EndType     CompareOp

	// SkipNullPredicate serves the same role as in ScanSpec, for the
	// underflow and reverse-scan-edge null-counting passes.
	SkipNullPredicate exprtree.Expression
}

// JoinSpec is the deserialized shape of a nested-loop-index-join plan node.
type JoinSpec struct {
	Index IndexRef

	SearchKeyExprs []exprtree.Expression
	LookupType     CompareOp

	EndExpression     exprtree.Expression
	InitialExpression exprtree.Expression
	SkipNullPredicate exprtree.Expression
	// Predicate is the inner-scan post-filter (join condition plus any
	// additional inner-side filter).
	Predicate exprtree.Expression
	// PreJoinPredicate is evaluated against the outer tuple alone, before
	// any inner traversal.
	PreJoinPredicate exprtree.Expression
	// WherePredicate is applied to the assembled join tuple (outer + inner
	// columns) by the postfilter.
	WherePredicate exprtree.Expression

	SortDirection SortDirection
	JoinType      JoinType

	// OutputExprs produces the assembled join tuple's columns from
	// (outer, inner); the first NumOuterCols entries are expected to be
	// pass-through references to the outer row.
	OutputExprs  []exprtree.Expression
	NumOuterCols int

	Limit  int
	Offset int
}
