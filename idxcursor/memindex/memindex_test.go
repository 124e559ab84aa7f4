package memindex

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/rowdata"
)

func varlenSchema(maxWidth int) *idxkey.Schema {
	return &idxkey.Schema{Slots: []idxkey.Slot{{Kind: idxkey.VarLenSlot, MaxWidth: maxWidth}}}
}

func strKey(schema *idxkey.Schema, s string) *idxkey.Key {
	k := idxkey.NewKey(schema)
	k.Values[0] = idxkey.SlotValue{Bytes: []byte(s)}
	return k
}

func tupleFor(s string) rowdata.Tuple {
	return rowdata.Tuple{Valid: true, Cols: []rowdata.Datum{{Val: s}}}
}

func buildVarcharIndex(t *testing.T, keys ...string) *Index {
	t.Helper()
	schema := varlenSchema(2)
	ix := New("varchar2_idx", schema)
	for _, s := range keys {
		ix.Insert(strKey(schema, s), tupleFor(s))
	}
	return ix
}

func drain(c interface{ Next() rowdata.Tuple }) []string {
	var out []string
	for {
		tup := c.Next()
		if !tup.Valid {
			return out
		}
		out = append(out, tup.Cols[0].Val.(string))
	}
}

func TestMoveToKeyEnumeratesEqualRunInInsertionOrder(t *testing.T) {
	schema := varlenSchema(2)
	ix := New("t", schema)
	// Two entries share the key "ab"; insertion order is "ab"#1 then "ab"#2.
	ix.Insert(strKey(schema, "aa"), tupleFor("aa"))
	ix.Insert(strKey(schema, "ab"), rowdata.Tuple{Valid: true, Cols: []rowdata.Datum{{Val: "ab#1"}}})
	ix.Insert(strKey(schema, "ab"), rowdata.Tuple{Valid: true, Cols: []rowdata.Datum{{Val: "ab#2"}}})
	ix.Insert(strKey(schema, "ba"), tupleFor("ba"))

	c := ix.NewCursor()
	c.MoveToKey(strKey(schema, "ab"))
	require.Equal(t, []string{"ab#1", "ab#2"}, drain(c))
}

func TestMoveToKeyNoMatchYieldsNullImmediately(t *testing.T) {
	ix := buildVarcharIndex(t, "aa", "ba", "bb")
	c := ix.NewCursor()
	c.MoveToKey(strKey(ix.schema, "ab"))
	require.False(t, c.Next().Valid)
}

func TestMoveToGreaterAndGreaterOrEqual(t *testing.T) {
	ix := buildVarcharIndex(t, "aa", "ab", "ba", "bb")

	c := ix.NewCursor()
	c.MoveToGreater(strKey(ix.schema, "ab"))
	require.Equal(t, []string{"ba", "bb"}, drain(c))

	c2 := ix.NewCursor()
	c2.MoveToGreaterOrEqual(strKey(ix.schema, "ab"))
	require.Equal(t, []string{"ab", "ba", "bb"}, drain(c2))
}

func TestMoveToLessAndLessOrEqual(t *testing.T) {
	ix := buildVarcharIndex(t, "aa", "ab", "ba", "bb")

	c := ix.NewCursor()
	c.MoveToLess(strKey(ix.schema, "ba"))
	require.Equal(t, []string{"ab", "aa"}, drain(c))

	c2 := ix.NewCursor()
	c2.MoveToLessOrEqual(strKey(ix.schema, "ba"))
	require.Equal(t, []string{"ba", "ab", "aa"}, drain(c2))
}

func TestMoveToEnd(t *testing.T) {
	ix := buildVarcharIndex(t, "aa", "ab", "ba", "bb")

	c := ix.NewCursor()
	c.MoveToEnd(true)
	require.Equal(t, []string{"aa", "ab", "ba", "bb"}, drain(c))

	c2 := ix.NewCursor()
	c2.MoveToEnd(false)
	require.Equal(t, []string{"bb", "ba", "ab", "aa"}, drain(c2))
}

// TestLTEForwardPrimePattern walks through the exact sequence an LTE scan
// driver runs for a VARCHAR(2) column truncated to "ab": MoveToGreater("ab")
// positions forward of everything <= "ab"; the first entry it returns
// ("ba") fails the caller's initial_expression, so the caller calls
// MoveToBeforePriorEntry and resumes in reverse, which must yield "ab" then
// "aa" — never "ba" again.
func TestLTEForwardPrimePattern(t *testing.T) {
	ix := buildVarcharIndex(t, "aa", "ab", "ba", "bb")
	c := ix.NewCursor()
	c.MoveToGreater(strKey(ix.schema, "ab"))

	first := c.Next()
	require.True(t, first.Valid)
	require.Equal(t, "ba", first.Cols[0].Val)

	c.MoveToBeforePriorEntry()
	require.Equal(t, []string{"ab", "aa"}, drain(c))
}

func TestCountAndHasKey(t *testing.T) {
	ix := buildVarcharIndex(t, "aa", "ab", "ab", "ba", "bb")
	k := strKey(ix.schema, "ab")

	require.Equal(t, int64(3), ix.CountLE(k, false))
	require.Equal(t, int64(1), ix.CountLE(k, true))
	require.Equal(t, int64(4), ix.CountGE(k, false))
	require.Equal(t, int64(2), ix.CountGE(k, true))
	require.True(t, ix.HasKey(k))
	require.False(t, ix.HasKey(strKey(ix.schema, "zz")))
	require.Equal(t, int64(5), ix.Size())
}

func TestMoveToKeyIsPrefixAware(t *testing.T) {
	// A two-column schema where the search key only constrains the first
	// column: entries whose leading column matches must all enumerate,
	// regardless of their second column's value.
	schema := &idxkey.Schema{Slots: []idxkey.Slot{
		{Kind: idxkey.VarLenSlot, MaxWidth: 2},
		{Kind: idxkey.IntSlot, IntWidth: 32},
	}}
	ix := New("composite", schema)
	mk := func(s string, n int64) *idxkey.Key {
		k := idxkey.NewKey(schema)
		k.Values[0] = idxkey.SlotValue{Bytes: []byte(s)}
		k.Values[1] = idxkey.SlotValue{Int: n}
		return k
	}
	ix.Insert(mk("ab", 1), tupleFor("ab,1"))
	ix.Insert(mk("ab", 2), tupleFor("ab,2"))
	ix.Insert(mk("ba", 1), tupleFor("ba,1"))

	prefix := idxkey.NewKey(schema)
	prefix.Values[0] = idxkey.SlotValue{Bytes: []byte("ab")}
	prefix.Len = 1

	c := ix.NewCursor()
	c.MoveToKey(prefix)
	require.Equal(t, []string{"ab,1", "ab,2"}, drain(c))
}
