package rangeresolve

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/cockroachdb/idxexec/idxkey"
	"github.com/cockroachdb/idxexec/planspec"
)

var opByName = map[string]planspec.CompareOp{
	"EQ":           planspec.OpEQ,
	"GT":           planspec.OpGT,
	"GTE":          planspec.OpGTE,
	"LT":           planspec.OpLT,
	"LTE":          planspec.OpLTE,
	"GEO_CONTAINS": planspec.OpGeoContains,
}

var outcomeByName = map[string]idxkey.Outcome{
	"ok":             idxkey.OutcomeOK,
	"null-component": idxkey.OutcomeNullComponent,
	"overflow":       idxkey.OutcomeOverflow,
	"underflow":      idxkey.OutcomeUnderflow,
	"truncated":      idxkey.OutcomeTruncated,
	"other-error":    idxkey.OutcomeOtherError,
}

func buildSchema(width, numKeys int) *idxkey.Schema {
	if numKeys == 0 {
		numKeys = 1
	}
	slots := make([]idxkey.Slot, numKeys)
	for i := range slots {
		slots[i] = idxkey.Slot{Kind: idxkey.IntSlot, IntWidth: width}
	}
	return &idxkey.Schema{Slots: slots}
}

func buildKey(schema *idxkey.Schema, slotsFilled int, outcome idxkey.Outcome) *idxkey.Key {
	k := idxkey.NewKey(schema)
	for i := 0; i < slotsFilled; i++ {
		k.Values[i] = idxkey.SlotValue{Int: int64(i + 1)}
	}
	if outcome == idxkey.OutcomeTruncated && slotsFilled < len(k.Values) {
		k.Values[slotsFilled] = idxkey.SlotValue{Int: int64(slotsFilled + 1)}
	}
	return k
}

func keyInts(k *idxkey.Key) []int64 {
	out := make([]int64, k.Len)
	for i := 0; i < k.Len; i++ {
		out[i] = k.Values[i].Int
	}
	return out
}

func TestResolveStartSide(t *testing.T) {
	datadriven.RunTest(t, "testdata/start_side", func(t *testing.T, d *datadriven.TestData) string {
		if d.Cmd != "resolve" {
			t.Fatalf("unknown command %q", d.Cmd)
		}
		var opName, outcomeName string
		var numKeys, filled, width int
		d.ScanArgs(t, "op", &opName)
		d.ScanArgs(t, "numkeys", &numKeys)
		d.ScanArgs(t, "filled", &filled)
		d.ScanArgs(t, "outcome", &outcomeName)
		width = 64
		if d.HasArg("width") {
			d.ScanArgs(t, "width", &width)
		}

		op := opByName[opName]
		outcome := outcomeByName[outcomeName]
		schema := buildSchema(width, numKeys)
		k := buildKey(schema, filled, outcome)

		res := ResolveStart(op, numKeys, filled, outcome, k)

		var sb strings.Builder
		switch {
		case res.NoStartKey:
			fmt.Fprintf(&sb, "no_start_key\n")
		case res.EarlyEmpty:
			fmt.Fprintf(&sb, "early_empty\n")
		default:
			fmt.Fprintf(&sb, "op=%s key=%v skip_null=%v\n", res.Op, keyInts(res.Key), res.SkipNull)
		}
		return sb.String()
	})
}

func TestResolveEndSide(t *testing.T) {
	datadriven.RunTest(t, "testdata/end_side", func(t *testing.T, d *datadriven.TestData) string {
		if d.Cmd != "resolve" {
			t.Fatalf("unknown command %q", d.Cmd)
		}
		var opName, outcomeName string
		var numKeys, filled, width int
		d.ScanArgs(t, "op", &opName)
		d.ScanArgs(t, "numkeys", &numKeys)
		d.ScanArgs(t, "filled", &filled)
		d.ScanArgs(t, "outcome", &outcomeName)
		width = 64
		if d.HasArg("width") {
			d.ScanArgs(t, "width", &width)
		}

		op := opByName[opName]
		outcome := outcomeByName[outcomeName]
		schema := buildSchema(width, numKeys)
		k := buildKey(schema, filled, outcome)

		res := ResolveEnd(op, numKeys, filled, outcome, k)

		var sb strings.Builder
		switch {
		case res.NoEndKey:
			fmt.Fprintf(&sb, "no_end_key\n")
		case res.EarlyEmpty:
			fmt.Fprintf(&sb, "early_empty\n")
		default:
			fmt.Fprintf(&sb, "op=%s key=%v clamped=%v\n", res.Op, keyInts(res.Key), res.Clamped)
		}
		return sb.String()
	})
}

func TestNeedsReverseEdgeSkipNull(t *testing.T) {
	cases := []struct {
		numStart, numEnd int
		endOp            planspec.CompareOp
		want             bool
	}{
		{1, 2, planspec.OpLT, true},
		{1, 2, planspec.OpLTE, true},
		{2, 2, planspec.OpLT, false},
		{1, 2, planspec.OpGT, false},
		{1, 1, planspec.OpLTE, false},
	}
	for _, c := range cases {
		got := NeedsReverseEdgeSkipNull(c.numStart, c.numEnd, c.endOp)
		if got != c.want {
			t.Errorf("NeedsReverseEdgeSkipNull(%d,%d,%v) = %v, want %v", c.numStart, c.numEnd, c.endOp, got, c.want)
		}
	}
}
