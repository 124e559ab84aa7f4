package idxkey

import (
	"context"

	"github.com/cockroachdb/apd/v3"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/idxexec/exprtree"
)

// Outcome classifies the result of evaluating and placing a single key
// component.
type Outcome int

const (
	// OutcomeOK means the component evaluated to a non-NULL value that fit
	// its slot without narrowing.
	OutcomeOK Outcome = iota
	// OutcomeNullComponent means the expression evaluated to SQL NULL.
	OutcomeNullComponent
	// OutcomeOverflow means the value was too large for the slot's type.
	OutcomeOverflow
	// OutcomeUnderflow means the value was too small (or rounded to zero
	// when it should not have) for the slot's type.
	OutcomeUnderflow
	// OutcomeTruncated means a variable-length value was narrowed to the
	// slot's declared width; the narrowed prefix was still stored.
	OutcomeTruncated
	// OutcomeOtherError means the expression raised an error unrelated to
	// the three boundary conditions above; it is propagated verbatim.
	OutcomeOtherError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNullComponent:
		return "null-component"
	case OutcomeOverflow:
		return "overflow"
	case OutcomeUnderflow:
		return "underflow"
	case OutcomeTruncated:
		return "truncated"
	default:
		return "other-error"
	}
}

// Marshaller evaluates an ordered list of key expressions against a target
// Schema, placing each value into the matching Key slot.
type Marshaller struct {
	Schema *Schema
}

// NewMarshaller constructs a Marshaller bound to the given key schema.
func NewMarshaller(schema *Schema) *Marshaller {
	return &Marshaller{Schema: schema}
}

// Marshal evaluates exprs left to right against (outer, nil) — outer is the
// driving row for a join's inner-key expressions, or nil outside a join —
// and stores each result into scratch. It stops at the first non-Ok outcome
// and returns how many slots were filled along with that outcome. Truncated
// is the only non-Ok outcome that still mutates the slot (with the narrowed
// prefix); the others leave it untouched.
func (m *Marshaller) Marshal(
	ctx context.Context, exprs []exprtree.Expression, outer exprtree.Row, scratch *Key,
) (slotsFilled int, outcome Outcome, err error) {
	if len(exprs) > m.Schema.Arity() {
		return 0, OutcomeOtherError, errors.Newf(
			"key expression count %d exceeds schema arity %d", len(exprs), m.Schema.Arity())
	}
	scratch.Reset()
	scratch.Len = len(exprs)
	for i, expr := range exprs {
		val, evalErr := expr.Eval(ctx, outer, nil)
		if evalErr != nil {
			oc, handled := m.classify(evalErr, i, scratch)
			if !handled {
				return i, OutcomeOtherError, evalErr
			}
			return i, oc, nil
		}
		if val.IsNull() {
			return i, OutcomeNullComponent, nil
		}
		if err := m.place(i, val, scratch); err != nil {
			oc, handled := m.classify(err, i, scratch)
			if !handled {
				return i, OutcomeOtherError, err
			}
			return i, oc, nil
		}
	}
	return len(exprs), OutcomeOK, nil
}

// classify inspects err for the exprtree.EvalError boundary flags and, when
// present, applies the corresponding slot mutation (Truncated stores the
// narrowed prefix; Overflow/Underflow/NullComponent store nothing).
func (m *Marshaller) classify(err error, slot int, scratch *Key) (Outcome, bool) {
	ee, ok := exprtree.AsEvalError(err)
	if !ok {
		return OutcomeOtherError, false
	}
	switch {
	case ee.Has(exprtree.FlagOverflow):
		return OutcomeOverflow, true
	case ee.Has(exprtree.FlagUnderflow):
		return OutcomeUnderflow, true
	case ee.Has(exprtree.FlagVarLengthMismatch):
		// The narrowed value is carried on the EvalError itself via a
		// type assertion to narrowValueCarrier; place it directly.
		if nv, isNarrow := ee.Err.(narrowValueCarrier); isNarrow {
			scratch.Values[slot] = nv.Narrowed()
		}
		return OutcomeTruncated, true
	default:
		return OutcomeOtherError, false
	}
}

// narrowValueCarrier lets a VarLenSlot overflow error carry the narrowed
// prefix computed by the evaluator (the evaluator, not the marshaller, knows
// how to truncate its own Value representation to N bytes).
type narrowValueCarrier interface {
	Narrowed() SlotValue
}

// place attempts in-range, in-width placement of val into scratch's slot i
// without any promotion logic (that belongs to rangeresolve); placement
// itself only classifies overflow/underflow/width using the slot's declared
// type, matching VoltDB's TableTuple::setNValue narrowing.
func (m *Marshaller) place(i int, val exprtree.Value, scratch *Key) error {
	slot := m.Schema.Slots[i]
	iv, isInt := val.(interface{ Int64() (int64, bool) })
	dv, isDecimal := val.(interface{ Decimal() *apd.Decimal })
	bv, isBytes := val.(interface{ Bytes() []byte })

	switch slot.Kind {
	case IntSlot:
		if !isInt {
			return errors.Newf("value is not an integer for int slot %d", i)
		}
		n, exact := iv.Int64()
		if !exact {
			return errors.Newf("value does not fit in int64 for slot %d", i)
		}
		min, max := intBounds(slot.IntWidth)
		if n > max {
			return &exprtree.EvalError{Flags: exprtree.FlagOverflow, Err: errors.Newf("%d overflows width %d", n, slot.IntWidth)}
		}
		if n < min {
			return &exprtree.EvalError{Flags: exprtree.FlagUnderflow, Err: errors.Newf("%d underflows width %d", n, slot.IntWidth)}
		}
		scratch.Values[i] = SlotValue{Int: n}
		return nil

	case DecimalSlot:
		var d *apd.Decimal
		if isDecimal {
			d = dv.Decimal()
		}
		if d == nil {
			return errors.Newf("value is not a decimal for slot %d", i)
		}
		fits, underflow := decimalFits(d, slot.DecimalPrecision, slot.DecimalScale)
		if !fits {
			if underflow {
				return &exprtree.EvalError{Flags: exprtree.FlagUnderflow, Err: errors.Newf("decimal underflows slot %d", i)}
			}
			return &exprtree.EvalError{Flags: exprtree.FlagOverflow, Err: errors.Newf("decimal overflows slot %d", i)}
		}
		scratch.Values[i] = SlotValue{Decimal: *d}
		return nil

	case VarLenSlot:
		if !isBytes {
			return errors.Newf("value is not byte-like for slot %d", i)
		}
		b := bv.Bytes()
		if len(b) > slot.MaxWidth {
			narrowed := append([]byte(nil), b[:slot.MaxWidth]...)
			return &exprtree.EvalError{
				Flags: exprtree.FlagVarLengthMismatch,
				Err:   varLenOverflow{narrowed: narrowed},
			}
		}
		scratch.Values[i] = SlotValue{Bytes: append([]byte(nil), b...)}
		return nil

	default:
		return errors.Newf("unknown slot kind %d", slot.Kind)
	}
}

// varLenOverflow carries the narrowed byte prefix for a VarLenSlot overflow,
// satisfying narrowValueCarrier so classify() can store it directly.
type varLenOverflow struct {
	narrowed []byte
}

func (v varLenOverflow) Error() string { return "variable-length value exceeds slot width" }

func (v varLenOverflow) Narrowed() SlotValue { return SlotValue{Bytes: v.narrowed} }
