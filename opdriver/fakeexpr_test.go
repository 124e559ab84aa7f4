package opdriver

import (
	"context"

	"github.com/cockroachdb/idxexec/exprtree"
	"github.com/cockroachdb/idxexec/rowdata"
)

// literalExpr always evaluates to the same value, regardless of outer/inner.
type literalExpr struct{ v rowdata.Datum }

func lit(v int64) literalExpr { return literalExpr{v: rowdata.Datum{Val: v}} }

func litStr(s string) literalExpr { return literalExpr{v: rowdata.Datum{Val: s}} }

func (e literalExpr) Eval(context.Context, exprtree.Row, exprtree.Row) (exprtree.Value, error) {
	return e.v, nil
}

// colExpr reads column ord off outer (if fromOuter) or inner.
type colExpr struct {
	ord       int
	fromOuter bool
}

func col(ord int) colExpr      { return colExpr{ord: ord} }
func outerCol(ord int) colExpr { return colExpr{ord: ord, fromOuter: true} }

func (e colExpr) Eval(_ context.Context, outer, inner exprtree.Row) (exprtree.Value, error) {
	row := inner
	if e.fromOuter {
		row = outer
	}
	if row == nil {
		return rowdata.Datum{Null: true}, nil
	}
	v, ok := row.Column(e.ord)
	if !ok {
		return rowdata.Datum{Null: true}, nil
	}
	return v, nil
}

// predicateFunc adapts a Go closure to exprtree.Expression.
type predicateFunc func(ctx context.Context, outer, inner exprtree.Row) (exprtree.Value, error)

func (f predicateFunc) Eval(ctx context.Context, outer, inner exprtree.Row) (exprtree.Value, error) {
	return f(ctx, outer, inner)
}

func boolVal(b bool) rowdata.Datum { return rowdata.Datum{Val: b} }
