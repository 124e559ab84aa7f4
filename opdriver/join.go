package opdriver

import (
	"context"

	"go.uber.org/zap"

	"github.com/cockroachdb/idxexec/idxcursor"
	"github.com/cockroachdb/idxexec/idxerror"
	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/opmon"
	"github.com/cockroachdb/idxexec/planspec"
	"github.com/cockroachdb/idxexec/rangeresolve"
	"github.com/cockroachdb/idxexec/rowdata"
	"github.com/cockroachdb/idxexec/sink"
)

// OuterSource drives a JoinDriver's outer loop, one row at a time. Next
// returns rowdata.NullTuple (Valid=false) with a nil error once the outer
// relation is exhausted.
type OuterSource interface {
	Next(ctx context.Context) (rowdata.Tuple, error)
}

// JoinDriver implements the nested-loop index join of spec.md §4.6: for each
// outer tuple, a fresh EffectiveRange is resolved against the inner index
// using the outer row as the driving context for the search-key
// expressions, mirroring ScanDriver's per-tuple traversal but re-keyed per
// outer row.
type JoinDriver struct {
	Index      idxcursor.CountableIndex
	Marshaller *idxkey.Marshaller
	Logger     *zap.Logger
}

// NewJoinDriver builds a JoinDriver whose inner relation is index.
func NewJoinDriver(index idxcursor.CountableIndex, logger *zap.Logger) *JoinDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JoinDriver{Index: index, Marshaller: idxkey.NewMarshaller(index.KeySchema()), Logger: logger}
}

// Execute drives outerSrc through the nested loop against d.Index, assembles
// each qualifying (outer, inner) pair via spec.OutputExprs, and writes the
// result to out (or agg, if non-nil). LEFT and FULL joins emit a
// NULL-inner-padded row for an outer tuple with no inner match; FULL
// additionally walks the whole inner index once more after the main loop to
// emit a NULL-outer-padded row for every inner tuple no outer row ever
// matched.
func (d *JoinDriver) Execute(
	ctx context.Context, spec *planspec.JoinSpec, outerSrc OuterSource, out sink.Sink, agg Aggregate,
) (err error) {
	defer func() {
		if agg == nil {
			return
		}
		if fErr := agg.Finalize(ctx, out); fErr != nil && err == nil {
			err = idxerror.NewEngine("aggregate.Finalize", fErr)
		}
	}()

	arity := d.Index.KeySchema().Arity()
	if !checkEQArity(spec.LookupType, len(spec.SearchKeyExprs), arity, 0) {
		return idxerror.NewUnsupportedLookupType(spec.Index, spec.LookupType)
	}

	var matchMap *InnerMatchMap
	if spec.JoinType == planspec.JoinFull {
		matchMap = NewInnerMatchMap()
	}

	monitor, ctx := opmon.New(ctx, d.Logger, spec.Index, 0)
	pf := NewPostfilter(spec.WherePredicate, spec.Offset, spec.Limit)

	for pf.UnderLimit() {
		outer, oErr := outerSrc.Next(ctx)
		if oErr != nil {
			return idxerror.NewEngine("outer.Next", oErr)
		}
		if !outer.Valid {
			break
		}

		runInner := true
		if spec.PreJoinPredicate != nil {
			v, pErr := spec.PreJoinPredicate.Eval(ctx, nil, outer)
			if pErr != nil {
				return idxerror.NewEngine("pre-join predicate", pErr)
			}
			runInner = v.IsTrue()
		}

		matchedAny := false
		if runInner {
			var iErr error
			matchedAny, iErr = d.innerLoop(ctx, spec, outer, out, agg, pf, matchMap)
			if iErr != nil {
				return iErr
			}
		}
		if !matchedAny && spec.JoinType != planspec.JoinInner {
			if _, eErr := d.emitAssembled(ctx, spec, outer, rowdata.NullTuple, out, agg, pf); eErr != nil {
				return eErr
			}
		}

		if tickErr := monitor.Tick(ctx); tickErr != nil {
			return idxerror.NewEngine("canceled", tickErr)
		}
	}

	if matchMap != nil {
		if err := d.fullOuterPostPass(ctx, spec, matchMap, out, agg, pf); err != nil {
			return err
		}
	}
	return nil
}

// innerLoop resolves and traverses the inner range for one outer tuple,
// reporting whether at least one inner tuple satisfied the join predicate
// (independent of whether the assembled row then survived WherePredicate or
// LIMIT/OFFSET, which govern emission, not match existence).
func (d *JoinDriver) innerLoop(
	ctx context.Context,
	spec *planspec.JoinSpec,
	outer rowdata.Tuple,
	out sink.Sink,
	agg Aggregate,
	pf *Postfilter,
	matchMap *InnerMatchMap,
) (matchedAny bool, err error) {
	key := idxkey.NewKey(d.Index.KeySchema())
	filled, outcome, mErr := d.Marshaller.Marshal(ctx, spec.SearchKeyExprs, outer, key)
	if mErr != nil {
		return false, idxerror.NewKeyEvaluation(spec.Index, mErr)
	}
	startRes := rangeresolve.ResolveStart(spec.LookupType, len(spec.SearchKeyExprs), filled, outcome, key)
	if startRes.EarlyEmpty {
		return false, nil
	}

	cur := d.Index.NewCursor()
	if perr := positionStart(ctx, cur, startRes, spec.SortDirection, spec.InitialExpression); perr != nil {
		return false, idxerror.NewEngine("cursor.position", perr)
	}

	skipNull := startRes.SkipNull
	for pf.UnderLimit() {
		t := cur.Next()
		if !t.Valid {
			break
		}
		if t.Pending {
			continue
		}
		if skipNull {
			drop, sErr := evalSkipNull(ctx, spec.SkipNullPredicate, t)
			if sErr != nil {
				return matchedAny, idxerror.NewEngine("skip-null predicate", sErr)
			}
			if drop {
				continue
			}
			skipNull = false
		}
		if spec.EndExpression != nil {
			v, eErr := spec.EndExpression.Eval(ctx, outer, t)
			if eErr != nil {
				return matchedAny, idxerror.NewEngine("end-expression", eErr)
			}
			if !v.IsTrue() {
				break
			}
		}
		if spec.Predicate != nil {
			v, pErr := spec.Predicate.Eval(ctx, outer, t)
			if pErr != nil {
				return matchedAny, idxerror.NewEngine("join predicate", pErr)
			}
			if !v.IsTrue() {
				continue
			}
		}

		matchedAny = true
		if matchMap != nil {
			matchMap.Mark(t.Addr)
		}
		if _, eErr := d.emitAssembled(ctx, spec, outer, t, out, agg, pf); eErr != nil {
			return matchedAny, eErr
		}
	}
	return matchedAny, nil
}

// fullOuterPostPass walks the whole inner index once more, emitting a
// NULL-outer-padded row for every inner tuple matchMap never saw.
func (d *JoinDriver) fullOuterPostPass(
	ctx context.Context, spec *planspec.JoinSpec, matchMap *InnerMatchMap, out sink.Sink, agg Aggregate, pf *Postfilter,
) error {
	cur := d.Index.NewCursor()
	cur.MoveToEnd(true)
	for pf.UnderLimit() {
		t := cur.Next()
		if !t.Valid {
			break
		}
		if t.Pending || matchMap.Matched(t.Addr) {
			continue
		}
		if _, err := d.emitAssembled(ctx, spec, rowdata.NullTuple, t, out, agg, pf); err != nil {
			return err
		}
	}
	return nil
}

// emitAssembled evaluates spec.OutputExprs against (outer, inner), runs the
// result through pf (WherePredicate plus OFFSET/LIMIT), and writes it to out
// or agg if it survives.
func (d *JoinDriver) emitAssembled(
	ctx context.Context,
	spec *planspec.JoinSpec,
	outer, inner rowdata.Tuple,
	out sink.Sink,
	agg Aggregate,
	pf *Postfilter,
) (bool, error) {
	cols := make([]rowdata.Datum, len(spec.OutputExprs))
	for i, expr := range spec.OutputExprs {
		v, err := expr.Eval(ctx, outer, inner)
		if err != nil {
			return false, idxerror.NewEngine("output-expression", err)
		}
		cols[i] = rowdata.FromValue(v)
	}
	assembled := rowdata.Tuple{Cols: cols, Valid: true}

	accept, err := pf.Eval(ctx, rowdata.NullTuple, assembled)
	if err != nil {
		return false, idxerror.NewEngine("where-predicate", err)
	}
	if !accept {
		return false, nil
	}
	if agg != nil {
		if aErr := agg.Add(ctx, assembled); aErr != nil {
			return false, idxerror.NewEngine("aggregate.Add", aErr)
		}
	} else if iErr := out.InsertTempTuple(assembled); iErr != nil {
		return false, idxerror.NewEngine("sink.InsertTempTuple", iErr)
	}
	return true, nil
}
