// Package opdriver implements the three operator drivers of spec.md
// §4.4-§4.6 (CountDriver, ScanDriver, JoinDriver) by composing idxkey,
// rangeresolve, and idxcursor. This is where the pack's four leaf
// components meet the query-execution surface the engine actually calls.
package opdriver

import (
	"context"

	"github.com/cockroachdb/errors"

	"github.com/cockroachdb/idxexec/exprtree"
	"github.com/cockroachdb/idxexec/idxcursor"
	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/planspec"
	"github.com/cockroachdb/idxexec/rangeresolve"
	"github.com/cockroachdb/idxexec/rowdata"
)

// checkEQArity enforces spec.md §9's open-question resolution: EQ is only
// legal when the search-key count equals either the index's key arity or
// the end-key count. The planner is expected to avoid producing a violation;
// a driver that sees one treats it as fatal rather than silently truncating
// the key.
func checkEQArity(op planspec.CompareOp, numSearchKeys, arity, numEndKeys int) bool {
	if op != planspec.OpEQ {
		return true
	}
	return numSearchKeys == arity || (numEndKeys > 0 && numSearchKeys == numEndKeys)
}

// positionStart applies an EffectiveRange's StartAction to cur. LTE is never
// positioned with a direct move-to-less-or-equal call: spec.md §4.5 step 2
// mandates the forward-prime pattern of §4.3 for it.
func positionStart(
	ctx context.Context,
	cur idxcursor.Cursor,
	res rangeresolve.StartResolution,
	sortDir planspec.SortDirection,
	initialExpr exprtree.Expression,
) error {
	if res.NoStartKey {
		cur.MoveToEnd(sortDir != planspec.SortDesc)
		return nil
	}
	switch res.Op {
	case planspec.OpEQ:
		cur.MoveToKey(res.Key)
	case planspec.OpGT:
		cur.MoveToGreater(res.Key)
	case planspec.OpGTE:
		cur.MoveToGreaterOrEqual(res.Key)
	case planspec.OpLT:
		cur.MoveToLess(res.Key)
	case planspec.OpLTE:
		return forwardPrimeLTE(ctx, cur, res.Key, initialExpr)
	case planspec.OpGeoContains:
		cur.MoveToCoveringCell(res.Key)
	default:
		return errors.Newf("unsupported start action op %s", res.Op)
	}
	return nil
}

// forwardPrimeLTE implements the §4.3 LTE forward-prime pattern: walk
// forward past the inclusive upper bound to find the first entry that fails
// initialExpr (or exhaustion), then rewind so the cursor resumes as a
// reverse traversal from just inside the bound.
func forwardPrimeLTE(
	ctx context.Context, cur idxcursor.Cursor, key *idxkey.Key, initialExpr exprtree.Expression,
) error {
	cur.MoveToGreater(key)
	t := cur.Next()
	if !t.Valid {
		cur.MoveToEnd(false)
		return nil
	}
	for t.Valid {
		pass := true
		if initialExpr != nil {
			v, err := initialExpr.Eval(ctx, nil, t)
			if err != nil {
				return err
			}
			pass = v.IsTrue()
		}
		if !pass {
			cur.MoveToBeforePriorEntry()
			return nil
		}
		t = cur.Next()
	}
	cur.MoveToEnd(false)
	return nil
}

// evalSkipNull reports whether t belongs to the leading run a skip-null
// predicate should discard. A nil predicate never drops anything.
func evalSkipNull(ctx context.Context, pred exprtree.Expression, t rowdata.Tuple) (bool, error) {
	if pred == nil {
		return false, nil
	}
	v, err := pred.Eval(ctx, nil, t)
	if err != nil {
		return false, err
	}
	return v.IsTrue(), nil
}
