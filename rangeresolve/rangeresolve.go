// Package rangeresolve turns a marshalled search key (plus its evaluation
// outcome) into an EffectiveRange: the concrete cursor-positioning action a
// driver should take, or an early_empty verdict that lets the driver skip
// touching the cursor entirely. It is pure decision logic — no cursor, no
// index, no I/O — so it can be exercised by table-driven tests independent
// of any concrete index implementation.
package rangeresolve

import (
	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/planspec"
)

// StartResolution is the resolved effect of a start-side (search) key.
type StartResolution struct {
	// EarlyEmpty means the driver should short-circuit: CountDriver emits
	// 0, ScanDriver/JoinDriver emit no rows, without positioning a cursor.
	EarlyEmpty bool

	// NoStartKey means no search-key expressions were supplied at all; the
	// driver should move_to_end(to_start) instead of using Op/Key.
	NoStartKey bool

	// Op is the effective comparison operator after any promotion or
	// demotion; Key is the (possibly prefix-shortened or narrowed) key to
	// use with it.
	Op  planspec.CompareOp
	Key *idxkey.Key

	// SkipNull is true when an underflow-promoted start should engage the
	// skip-null predicate over the leading run of cursor output.
	SkipNull bool
}

// ResolveStart implements the start-side promotion table. numKeys is the
// number of search-key expressions the plan supplied (keys_requested);
// slotsFilled and outcome are KeyMarshaller.Marshal's return values for
// those expressions; k is the scratch key Marshal wrote into.
func ResolveStart(
	op planspec.CompareOp, numKeys int, slotsFilled int, outcome idxkey.Outcome, k *idxkey.Key,
) StartResolution {
	if numKeys == 0 {
		return StartResolution{NoStartKey: true}
	}

	last := numKeys - 1
	atLast := slotsFilled == last
	beforeLast := slotsFilled < last

	if outcome == idxkey.OutcomeNullComponent {
		return StartResolution{EarlyEmpty: true}
	}

	if op == planspec.OpEQ {
		switch outcome {
		case idxkey.OutcomeOverflow, idxkey.OutcomeUnderflow, idxkey.OutcomeTruncated:
			return StartResolution{EarlyEmpty: true}
		case idxkey.OutcomeOK:
			return StartResolution{Op: planspec.OpEQ, Key: k}
		default:
			return StartResolution{EarlyEmpty: true}
		}
	}

	// A boundary condition anywhere before the final requested component
	// always empties the range; only a failure exactly at the last
	// component is eligible for promotion/demotion.
	if outcome != idxkey.OutcomeOK && beforeLast {
		return StartResolution{EarlyEmpty: true}
	}

	if outcome == idxkey.OutcomeOK {
		switch op {
		case planspec.OpGT, planspec.OpGTE, planspec.OpLT, planspec.OpLTE, planspec.OpGeoContains:
			return StartResolution{Op: op, Key: k}
		default:
			return StartResolution{EarlyEmpty: true}
		}
	}

	if !atLast {
		return StartResolution{EarlyEmpty: true}
	}

	switch op {
	case planspec.OpGT:
		switch outcome {
		case idxkey.OutcomeOverflow:
			return StartResolution{EarlyEmpty: true}
		case idxkey.OutcomeUnderflow:
			return StartResolution{Op: planspec.OpGT, Key: k.Prefix(slotsFilled), SkipNull: true}
		case idxkey.OutcomeTruncated:
			return StartResolution{Op: planspec.OpGT, Key: k}
		}
	case planspec.OpGTE:
		switch outcome {
		case idxkey.OutcomeOverflow:
			return StartResolution{EarlyEmpty: true}
		case idxkey.OutcomeUnderflow:
			// Never re-promote to GTE here: GTE on a shortened prefix would
			// match a NULL in the dropped trailing column, which GTE must
			// never do.
			return StartResolution{Op: planspec.OpGT, Key: k.Prefix(slotsFilled), SkipNull: true}
		case idxkey.OutcomeTruncated:
			return StartResolution{Op: planspec.OpGT, Key: k}
		}
	case planspec.OpLT:
		switch outcome {
		case idxkey.OutcomeOverflow:
			return StartResolution{Op: planspec.OpLTE, Key: k.Prefix(slotsFilled)}
		case idxkey.OutcomeUnderflow:
			return StartResolution{EarlyEmpty: true}
		case idxkey.OutcomeTruncated:
			return StartResolution{Op: planspec.OpLTE, Key: k}
		}
	case planspec.OpLTE:
		switch outcome {
		case idxkey.OutcomeOverflow:
			return StartResolution{Op: planspec.OpLTE, Key: k.Prefix(slotsFilled)}
		case idxkey.OutcomeUnderflow:
			return StartResolution{EarlyEmpty: true}
		case idxkey.OutcomeTruncated:
			return StartResolution{Op: planspec.OpLTE, Key: k}
		}
	}
	return StartResolution{EarlyEmpty: true}
}

// EndResolution is the resolved effect of an end-side (count path only) key.
type EndResolution struct {
	EarlyEmpty bool
	// NoEndKey means no end-key expressions were supplied; CountDriver uses
	// Size() and treats the range as unbounded above.
	NoEndKey bool

	Op  planspec.CompareOp
	Key *idxkey.Key

	// Clamped is true when Key's final component was replaced with the
	// slot type's maximum value (an overflowing LT/LTE end key), rather
	// than evaluated naturally or narrowed by truncation.
	Clamped bool
}

// ResolveEnd implements the end-side promotion table for CountDriver. The
// scan path never calls this: an end key there is encoded as a per-tuple
// end_expression instead of a rank-queried boundary.
func ResolveEnd(
	op planspec.CompareOp, numKeys int, slotsFilled int, outcome idxkey.Outcome, k *idxkey.Key,
) EndResolution {
	if numKeys == 0 {
		return EndResolution{NoEndKey: true}
	}

	last := numKeys - 1
	atLast := slotsFilled == last
	beforeLast := slotsFilled < last

	if outcome == idxkey.OutcomeNullComponent {
		return EndResolution{EarlyEmpty: true}
	}
	if outcome != idxkey.OutcomeOK && beforeLast {
		return EndResolution{EarlyEmpty: true}
	}
	if outcome == idxkey.OutcomeOK {
		return EndResolution{Op: op, Key: k}
	}
	if !atLast {
		return EndResolution{EarlyEmpty: true}
	}

	switch op {
	case planspec.OpLT, planspec.OpLTE:
		switch outcome {
		case idxkey.OutcomeOverflow:
			clamped := k.Prefix(slotsFilled)
			clamped.Values[slotsFilled] = idxkey.MaxSlotValue(k.Schema.Slots[slotsFilled])
			clamped.Len = slotsFilled + 1
			return EndResolution{Op: planspec.OpLTE, Key: clamped, Clamped: true}
		case idxkey.OutcomeUnderflow:
			return EndResolution{EarlyEmpty: true}
		case idxkey.OutcomeTruncated:
			return EndResolution{Op: planspec.OpLTE, Key: k}
		}
	case planspec.OpGT, planspec.OpGTE:
		switch outcome {
		case idxkey.OutcomeOverflow:
			return EndResolution{EarlyEmpty: true}
		case idxkey.OutcomeUnderflow:
			return EndResolution{Op: planspec.OpGT, Key: k.Prefix(slotsFilled)}
		case idxkey.OutcomeTruncated:
			return EndResolution{Op: planspec.OpGT, Key: k}
		}
	}
	return EndResolution{EarlyEmpty: true}
}

// NeedsReverseEdgeSkipNull reports whether a reverse-scan edge case
// applies: fewer start-side key components were requested than end-side
// ones, and the end op bounds from above. In that shape the cursor's
// natural forward position can run through a leading NULL run before it
// reaches the first in-range entry, so the driver must discard that run
// once before consuming tuples normally.
func NeedsReverseEdgeSkipNull(numStartKeys, numEndKeys int, endOp planspec.CompareOp) bool {
	return numStartKeys < numEndKeys && (endOp == planspec.OpLT || endOp == planspec.OpLTE)
}
