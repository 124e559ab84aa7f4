package opdriver

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/cockroachdb/idxexec/exprtree"
	"github.com/cockroachdb/idxexec/idxcursor"
	"github.com/cockroachdb/idxexec/idxerror"
	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/planspec"
	"github.com/cockroachdb/idxexec/rangeresolve"
	"github.com/cockroachdb/idxexec/rowdata"
	"github.com/cockroachdb/idxexec/sink"
)

// CountDriver produces a single BIGINT tuple via rank arithmetic on a
// countable index, never enumerating matching rows (spec.md §4.4).
type CountDriver struct {
	Index      idxcursor.CountableIndex
	Marshaller *idxkey.Marshaller
	Logger     *zap.Logger
}

// NewCountDriver builds a CountDriver bound to index.
func NewCountDriver(index idxcursor.CountableIndex, logger *zap.Logger) *CountDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CountDriver{Index: index, Marshaller: idxkey.NewMarshaller(index.KeySchema()), Logger: logger}
}

// Execute resolves spec's search/end keys against d.Index and inserts one
// BIGINT tuple into out: the count of entries whose key satisfies the
// resolved range. A resolved early-empty range emits 0, never an error.
//
// The count is computed as size() minus the entries excluded by the start
// condition minus the entries excluded by the end condition — the same
// rank-arithmetic idea spec.md §4.4 describes via rk_start/rk_end, chosen
// here so that an inclusive (GTE/LTE) boundary excludes exactly the entries
// strictly on the wrong side of it, and an exclusive (GT/LT) boundary also
// excludes entries exactly at the boundary when present.
func (d *CountDriver) Execute(ctx context.Context, spec *planspec.CountSpec, out sink.Sink) error {
	if spec.LookupType == planspec.OpGeoContains || spec.EndType == planspec.OpGeoContains {
		return idxerror.NewUnsupportedLookupType(spec.Index, planspec.OpGeoContains)
	}
	arity := d.Index.KeySchema().Arity()
	if !checkEQArity(spec.LookupType, len(spec.SearchKeyExprs), arity, len(spec.EndKeyExprs)) {
		return idxerror.NewUnsupportedLookupType(spec.Index, spec.LookupType)
	}

	startKey := idxkey.NewKey(d.Index.KeySchema())
	filled, outcome, err := d.Marshaller.Marshal(ctx, spec.SearchKeyExprs, nil, startKey)
	if err != nil {
		return idxerror.NewKeyEvaluation(spec.Index, err)
	}
	startRes := rangeresolve.ResolveStart(spec.LookupType, len(spec.SearchKeyExprs), filled, outcome, startKey)

	endKey := idxkey.NewKey(d.Index.KeySchema())
	endFilled, endOutcome, err := d.Marshaller.Marshal(ctx, spec.EndKeyExprs, nil, endKey)
	if err != nil {
		return idxerror.NewKeyEvaluation(spec.Index, err)
	}
	endRes := rangeresolve.ResolveEnd(spec.EndType, len(spec.EndKeyExprs), endFilled, endOutcome, endKey)

	if startRes.EarlyEmpty || endRes.EarlyEmpty {
		d.Logger.Debug("count: early-empty range", zap.String("index", spec.Index.IndexName))
		return d.emit(out, 0)
	}

	excludedBelow, err := d.excludedBelow(ctx, spec, startRes)
	if err != nil {
		return idxerror.NewEngine("count.excludedBelow", err)
	}
	excludedAbove, err := d.excludedAbove(endRes)
	if err != nil {
		return idxerror.NewEngine("count.excludedAbove", err)
	}

	if rangeresolve.NeedsReverseEdgeSkipNull(len(spec.SearchKeyExprs), len(spec.EndKeyExprs), spec.EndType) {
		nulls, err := d.countReverseEdgeNulls(ctx, spec, startRes)
		if err != nil {
			return idxerror.NewEngine("count.reverseEdgeNulls", err)
		}
		excludedBelow += nulls
	}

	result := d.Index.Size() - excludedBelow - excludedAbove
	if result < 0 {
		result = 0
	}
	return d.emit(out, result)
}

func (d *CountDriver) excludedBelow(
	ctx context.Context, spec *planspec.CountSpec, res rangeresolve.StartResolution,
) (int64, error) {
	if res.NoStartKey {
		return 0, nil
	}
	if res.SkipNull {
		base := d.Index.CountLE(res.Key, true)
		nulls, err := d.countLeadingNullRun(ctx, spec.SkipNullPredicate, d.Index.NewCursor(), res.Key, true)
		if err != nil {
			return 0, err
		}
		return base + nulls, nil
	}
	switch res.Op {
	case planspec.OpGT:
		return d.Index.CountLE(res.Key, false), nil
	case planspec.OpGTE, planspec.OpEQ:
		return d.Index.CountLE(res.Key, true), nil
	default:
		return 0, errors.Newf("count path: unsupported start op %s", res.Op)
	}
}

func (d *CountDriver) excludedAbove(res rangeresolve.EndResolution) (int64, error) {
	if res.NoEndKey {
		return 0, nil
	}
	if res.Clamped {
		return d.Index.CountGE(res.Key, true), nil
	}
	switch res.Op {
	case planspec.OpLT:
		return d.Index.CountGE(res.Key, false), nil
	case planspec.OpLTE:
		return d.Index.CountGE(res.Key, true), nil
	default:
		return 0, errors.Newf("count path: unsupported end op %s", res.Op)
	}
}

// countLeadingNullRun positions a cursor at or after key when fromKey is set
// (or at the natural start of the index otherwise, ignoring key) and counts
// the leading run of entries
// for which spec's skip-null predicate returns true, stopping at the first
// false or at exhaustion — mirroring the reverse-scan skip-null contract of
// spec.md §4.2: "the predicate is consulted at most over the leading run."
func (d *CountDriver) countLeadingNullRun(
	ctx context.Context, pred exprtree.Expression, cur idxcursor.Cursor, key *idxkey.Key, fromKey bool,
) (int64, error) {
	if fromKey {
		cur.MoveToGreaterOrEqual(key)
	} else {
		cur.MoveToEnd(true)
	}
	var n int64
	for {
		t := cur.Next()
		if !t.Valid {
			return n, nil
		}
		drop, err := evalSkipNull(ctx, pred, t)
		if err != nil {
			return 0, err
		}
		if !drop {
			return n, nil
		}
		n++
	}
}

func (d *CountDriver) countReverseEdgeNulls(
	ctx context.Context, spec *planspec.CountSpec, startRes rangeresolve.StartResolution,
) (int64, error) {
	cur := d.Index.NewCursor()
	if startRes.SkipNull {
		// The start side already primed a forward walk from its prefix key;
		// the reverse-edge null run begins from that same position.
		return d.countLeadingNullRun(ctx, spec.SkipNullPredicate, cur, startRes.Key, true)
	}
	return d.countLeadingNullRun(ctx, spec.SkipNullPredicate, cur, nil, false)
}

func (d *CountDriver) emit(out sink.Sink, n int64) error {
	t := out.TempTuple()
	t.Cols = []rowdata.Datum{{Val: n}}
	if err := out.InsertTempTuple(t); err != nil {
		return idxerror.NewEngine("sink.InsertTempTuple", err)
	}
	return nil
}
