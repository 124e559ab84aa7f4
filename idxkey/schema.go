// Package idxkey implements the KeyMarshaller: translating an ordered list
// of search-key or end-key expressions into a fixed-layout IndexKey value,
// classifying NULL, numeric overflow/underflow, and variable-length
// truncation as distinct, non-throwing outcomes.
package idxkey

import (
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// SlotKind is the declared type family of one key-schema slot.
type SlotKind int

const (
	// IntSlot holds a fixed-width signed integer (TINYINT..BIGINT).
	IntSlot SlotKind = iota
	// DecimalSlot holds an apd.Decimal narrowed to a declared
	// precision/scale.
	DecimalSlot
	// VarLenSlot holds a variable-length byte/string value narrowed to a
	// declared maximum width.
	VarLenSlot
)

// Slot describes one column of an index key schema.
type Slot struct {
	Kind SlotKind

	// IntWidth is the width in bits for IntSlot (8, 16, 32, 64).
	IntWidth int

	// DecimalPrecision/DecimalScale bound DecimalSlot values the way a
	// NUMERIC(precision, scale) column does.
	DecimalPrecision int
	DecimalScale     int

	// MaxWidth is the maximum byte length for VarLenSlot.
	MaxWidth int
}

// Schema is the ordered, fixed-arity layout of an index key.
type Schema struct {
	Slots []Slot
}

func (s *Schema) Arity() int { return len(s.Slots) }

// intBounds returns the minimum and maximum representable value for an
// IntSlot of the given width.
func intBounds(width int) (min, max int64) {
	switch width {
	case 8:
		return -1 << 7, 1<<7 - 1
	case 16:
		return -1 << 15, 1<<15 - 1
	case 32:
		return -1 << 31, 1<<31 - 1
	default:
		return -1 << 63, 1<<63 - 1
	}
}

// MaxSlotValue returns the maximum representable value for slot, used to
// clamp an overflowing end key under LT/LTE to the type's boundary instead
// of discarding the component entirely. VarLenSlot has no natural maximum
// (its place() never reports Overflow, only Truncated), so this branch
// exists only for completeness and is never exercised by the marshaller.
func MaxSlotValue(slot Slot) SlotValue {
	switch slot.Kind {
	case IntSlot:
		_, max := intBounds(slot.IntWidth)
		return SlotValue{Int: max}
	case DecimalSlot:
		return SlotValue{Decimal: maxDecimal(slot.DecimalPrecision, slot.DecimalScale)}
	default:
		b := make([]byte, slot.MaxWidth)
		for i := range b {
			b[i] = 0xFF
		}
		return SlotValue{Bytes: b}
	}
}

func maxDecimal(precision, scale int) apd.Decimal {
	var d apd.Decimal
	coeff := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(precision)), nil)
	coeff.Sub(coeff, big.NewInt(1))
	d.Coeff.SetMathBigInt(coeff)
	d.Exponent = int32(-scale)
	return d
}

// decimalFits rounds d to scale fractional digits and reports whether the
// rounded value fits precision/scale, mirroring VoltDB's shrinkAndSetNValue
// overflow check for DECIMAL: a nonzero d that rounds to zero reports
// underflow, and a rounded value with more than precision-scale integer
// digits reports overflow. Fractional digits lost to rounding otherwise are
// not reported.
func decimalFits(d *apd.Decimal, precision, scale int) (fits bool, underflow bool) {
	var rd apd.Decimal
	ctx := apd.BaseContext.WithPrecision(uint32(precision))
	_, _ = ctx.Quantize(&rd, d, int32(-scale))
	if rd.IsZero() && !d.IsZero() {
		return false, true
	}
	digits := rd.NumDigits()
	intDigits := digits - int64(scale)
	if intDigits > int64(precision-scale) {
		return false, false
	}
	return true, false
}
