package opdriver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cockroachdb/idxexec/exprtree"
	"github.com/cockroachdb/idxexec/idxcursor/memindex"
	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/planspec"
	"github.com/cockroachdb/idxexec/rowdata"
	"github.com/cockroachdb/idxexec/sink"
)

func buildVarcharScanIndex(schema *idxkey.Schema, vals ...string) *memindex.Index {
	ix := memindex.New("varchar_idx", schema)
	for i, s := range vals {
		k := idxkey.NewKey(schema)
		k.Values[0] = idxkey.SlotValue{Bytes: []byte(s)}
		ix.Insert(k, rowdata.Tuple{Valid: true, Addr: int64(i), Cols: []rowdata.Datum{{Val: s}}})
	}
	return ix
}

func intCols(out *sink.MemSink) []int64 {
	got := make([]int64, len(out.Rows))
	for i, r := range out.Rows {
		got[i] = r.Cols[0].Val.(int64)
	}
	return got
}

func strCols(out *sink.MemSink) []string {
	got := make([]string, len(out.Rows))
	for i, r := range out.Rows {
		got[i] = r.Cols[0].Val.(string)
	}
	return got
}

func TestScanDriverForwardRangeWithPredicate(t *testing.T) {
	ix := buildIntIndex("t", 64, 1, 2, 3, 4, 5)
	spec := &planspec.ScanSpec{
		Index:          planspec.IndexRef{TableName: "t", IndexName: "t_idx"},
		SearchKeyExprs: []exprtree.Expression{lit(2)},
		LookupType:     planspec.OpGTE,
		EndExpression: predicateFunc(func(_ context.Context, _, inner exprtree.Row) (exprtree.Value, error) {
			v, _ := inner.Column(0)
			return boolVal(v.(rowdata.Datum).Val.(int64) <= 4), nil
		}),
		SortDirection: planspec.SortAsc,
		Limit:         -1,
	}
	d := NewScanDriver(ix, nil)
	var out sink.MemSink
	require.NoError(t, d.Execute(context.Background(), spec, &out, nil))
	require.Equal(t, []int64{2, 3, 4}, intCols(&out))
}

func TestScanDriverOffsetAndLimit(t *testing.T) {
	ix := buildIntIndex("t", 64, 1, 2, 3, 4, 5)
	spec := &planspec.ScanSpec{
		Index:         planspec.IndexRef{TableName: "t", IndexName: "t_idx"},
		LookupType:    planspec.OpGTE,
		SortDirection: planspec.SortAsc,
		Offset:        1,
		Limit:         2,
	}
	d := NewScanDriver(ix, nil)
	var out sink.MemSink
	require.NoError(t, d.Execute(context.Background(), spec, &out, nil))
	require.Equal(t, []int64{2, 3}, intCols(&out))
}

func TestScanDriverVarcharTruncationReversesThroughForwardPrime(t *testing.T) {
	schema := &idxkey.Schema{Slots: []idxkey.Slot{{Kind: idxkey.VarLenSlot, MaxWidth: 2}}}
	ix := buildVarcharScanIndex(schema, "aa", "ab", "ba", "bb")
	spec := &planspec.ScanSpec{
		Index:          planspec.IndexRef{TableName: "t", IndexName: "varchar_idx"},
		SearchKeyExprs: []exprtree.Expression{litStr("abc")},
		LookupType:     planspec.OpLT,
		InitialExpression: predicateFunc(func(_ context.Context, _, inner exprtree.Row) (exprtree.Value, error) {
			v, _ := inner.Column(0)
			return boolVal(v.(rowdata.Datum).Val.(string) <= "abc"), nil
		}),
		SortDirection: planspec.SortDesc,
		Limit:         -1,
	}
	d := NewScanDriver(ix, nil)
	var out sink.MemSink
	require.NoError(t, d.Execute(context.Background(), spec, &out, nil))
	require.Equal(t, []string{"ab", "aa"}, strCols(&out))
}

func TestScanDriverEmptyScanShortCircuits(t *testing.T) {
	ix := buildIntIndex("t", 64, 1, 2, 3)
	spec := &planspec.ScanSpec{
		Index:      planspec.IndexRef{TableName: "t", IndexName: "t_idx"},
		LookupType: planspec.OpGTE,
		EmptyScan:  true,
		Limit:      -1,
	}
	d := NewScanDriver(ix, nil)
	var out sink.MemSink
	require.NoError(t, d.Execute(context.Background(), spec, &out, nil))
	require.Empty(t, out.Rows)
}
