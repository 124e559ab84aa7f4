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

// Aggregate is the opaque inline-aggregation pipeline (spec.md §1) a
// ScanDriver or JoinDriver feeds qualifying tuples into instead of writing
// them straight to the sink. It is always finalized, on both the success and
// the early-return/cancellation paths, to preserve the sink's invariants
// (spec.md §7 "Propagation policy").
type Aggregate interface {
	Add(ctx context.Context, tuple rowdata.Tuple) error
	Finalize(ctx context.Context, out sink.Sink) error
}

// ScanDriver produces a stream of tuples from an index range, with
// post-predicate, projection, inline aggregation, and limit/offset
// (spec.md §4.5).
type ScanDriver struct {
	Index      idxcursor.CountableIndex
	Marshaller *idxkey.Marshaller
	Logger     *zap.Logger
}

// NewScanDriver builds a ScanDriver bound to index.
func NewScanDriver(index idxcursor.CountableIndex, logger *zap.Logger) *ScanDriver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScanDriver{Index: index, Marshaller: idxkey.NewMarshaller(index.KeySchema()), Logger: logger}
}

// Execute runs spec against d.Index, writing qualifying (optionally
// projected) tuples to out, or feeding them to agg if non-nil. agg may be
// nil for a plain row-producing scan.
func (d *ScanDriver) Execute(
	ctx context.Context, spec *planspec.ScanSpec, out sink.Sink, agg Aggregate,
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
	if spec.EmptyScan {
		return nil
	}

	key := idxkey.NewKey(d.Index.KeySchema())
	filled, outcome, mErr := d.Marshaller.Marshal(ctx, spec.SearchKeyExprs, nil, key)
	if mErr != nil {
		return idxerror.NewKeyEvaluation(spec.Index, mErr)
	}
	startRes := rangeresolve.ResolveStart(spec.LookupType, len(spec.SearchKeyExprs), filled, outcome, key)
	if startRes.EarlyEmpty {
		d.Logger.Debug("scan: early-empty range", zap.String("index", spec.Index.IndexName))
		return nil
	}

	cur := d.Index.NewCursor()
	if perr := positionStart(ctx, cur, startRes, spec.SortDirection, spec.InitialExpression); perr != nil {
		return idxerror.NewEngine("cursor.position", perr)
	}

	skipNull := startRes.SkipNull
	pf := NewPostfilter(spec.Predicate, spec.Offset, spec.Limit)
	monitor, ctx := opmon.New(ctx, d.Logger, spec.Index, 0)

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
				return idxerror.NewEngine("skip-null predicate", sErr)
			}
			if drop {
				continue
			}
			skipNull = false
		}
		if spec.EndExpression != nil {
			v, eErr := spec.EndExpression.Eval(ctx, nil, t)
			if eErr != nil {
				return idxerror.NewEngine("end-expression", eErr)
			}
			if !v.IsTrue() {
				break
			}
		}
		accept, pErr := pf.Eval(ctx, rowdata.NullTuple, t)
		if pErr != nil {
			return idxerror.NewEngine("predicate", pErr)
		}
		if accept {
			emit := t
			if spec.Projection != nil {
				emit, err = spec.Projection.Project(ctx, t)
				if err != nil {
					return idxerror.NewEngine("projection", err)
				}
			}
			if agg != nil {
				if aErr := agg.Add(ctx, emit); aErr != nil {
					return idxerror.NewEngine("aggregate.Add", aErr)
				}
			} else if iErr := out.InsertTempTuple(emit); iErr != nil {
				return idxerror.NewEngine("sink.InsertTempTuple", iErr)
			}
		}
		if tickErr := monitor.Tick(ctx); tickErr != nil {
			return idxerror.NewEngine("canceled", tickErr)
		}
	}
	return nil
}
