// Package rowdata provides the concrete Tuple/Value representation shared
// by the index cursor, the output sink, and the expression evaluator
// contract. Row storage and durability are opaque collaborators; this is
// the minimal in-memory shape the drivers pass around.
package rowdata

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/idxexec/exprtree"
)

// Datum is a single column value.
type Datum struct {
	Null bool
	Val  interface{}
}

func (d Datum) IsNull() bool { return d.Null }

// IsTrue implements exprtree.Value. A non-bool or NULL datum is never true.
func (d Datum) IsTrue() bool {
	if d.Null {
		return false
	}
	b, ok := d.Val.(bool)
	return ok && b
}

var _ exprtree.Value = Datum{}

// Int64 implements the optional accessor interface idxkey.Marshaller uses
// to place an IntSlot value.
func (d Datum) Int64() (int64, bool) {
	n, ok := d.Val.(int64)
	return n, ok
}

// Decimal implements the optional accessor interface idxkey.Marshaller uses
// to place a DecimalSlot value.
func (d Datum) Decimal() *apd.Decimal {
	dec, ok := d.Val.(apd.Decimal)
	if !ok {
		return nil
	}
	return &dec
}

// Bytes implements the optional accessor interface idxkey.Marshaller uses to
// place a VarLenSlot value.
func (d Datum) Bytes() []byte {
	switch v := d.Val.(type) {
	case []byte:
		return v
	case string:
		return []byte(v)
	default:
		return nil
	}
}

// Tuple is a flat row of column values, plus the bookkeeping bit the
// original engine carries on every physical tuple.
type Tuple struct {
	// Cols holds the tuple's column values. A nil Cols with Valid=false
	// represents the null-tuple sentinel returned by an exhausted cursor.
	Cols []Datum

	// Valid is false for the null-tuple sentinel.
	Valid bool

	// Pending marks a tuple the storage layer has logically deleted but not
	// yet reclaimed; operator drivers skip these, mirroring VoltDB's
	// isPendingDelete() check.
	Pending bool

	// Addr is the tuple's slot position in its table's live-tuple arena.
	// JoinDriver's InnerMatchMap indexes by Addr to track which inner
	// tuples a FULL join has matched at least once.
	Addr int64
}

// NullTuple is the sentinel returned by an exhausted cursor.
var NullTuple = Tuple{Valid: false}

// Column implements exprtree.Row.
func (t Tuple) Column(ord int) (exprtree.Value, bool) {
	if ord < 0 || ord >= len(t.Cols) {
		return nil, false
	}
	return t.Cols[ord], true
}

var _ exprtree.Row = Tuple{}

// FromValue adapts an exprtree.Value into a Datum for storage in a Tuple's
// Cols. Concrete evaluators in this module always produce Datum values
// already; the type assertion fallback only guards against a foreign
// exprtree.Value implementation reaching a driver's output-assembly path.
func FromValue(v exprtree.Value) Datum {
	if d, ok := v.(Datum); ok {
		return d
	}
	return Datum{Null: v.IsNull(), Val: v}
}

// Projection is the opaque inline-projection pipeline (spec.md §1) a driver
// applies to a qualifying tuple before it reaches the sink. Nil means emit
// the raw tuple unchanged.
type Projection interface {
	Project(ctx context.Context, tuple Tuple) (Tuple, error)
}
