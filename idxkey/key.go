package idxkey

import "github.com/cockroachdb/apd/v3"

// SlotValue is the narrowed value stored in one Key slot. Exactly one of the
// typed fields is meaningful, selected by the owning Schema.Slots[i].Kind;
// Null is true when the slot holds no value at all.
type SlotValue struct {
	Null    bool
	Int     int64
	Decimal apd.Decimal
	Bytes   []byte
}

// Key is a fixed-layout IndexKey value: exactly Schema.Arity() slots, each
// either NULL or a value of the slot's declared type, narrowed as described
// by spec.md §3. Len is the number of leading slots that are meaningful for
// comparison purposes; a Key with Len < Schema.Arity() is a prefix key (a
// search key constraining fewer columns than the index has), and cursor
// comparisons only consider its first Len slots.
type Key struct {
	Schema *Schema
	Values []SlotValue
	Len    int
}

// NewKey allocates a scratch Key for the given schema with all slots unset
// (treated as NULL until Marshal fills them in). Len defaults to the full
// schema arity.
func NewKey(schema *Schema) *Key {
	return &Key{Schema: schema, Values: make([]SlotValue, schema.Arity()), Len: schema.Arity()}
}

// Reset clears every slot back to NULL and restores Len to the full schema
// arity, so the same backing storage can be reused across invocations; the
// key's backing storage is owned by its driver for the driver's lifetime.
func (k *Key) Reset() {
	for i := range k.Values {
		k.Values[i] = SlotValue{Null: true}
	}
	k.Len = k.Schema.Arity()
}

// Prefix returns a copy of the key containing only the first n slots,
// leaving the rest NULL. Used when a promotion rule demotes a comparison to
// operate on the prefix preceding a failing component.
func (k *Key) Prefix(n int) *Key {
	p := NewKey(k.Schema)
	copy(p.Values, k.Values[:n])
	p.Len = n
	return p
}

// Compare orders a against b lexicographically, slot by slot, considering
// only the first min(a.Len, b.Len) slots — the common prefix both keys
// constrain. A full-arity entry key compared against a shorter prefix
// search key is therefore "equal" to it whenever the entry's leading
// columns match the prefix, independent of the entry's remaining (unasked
// about) columns — the standard prefix-scan semantics of a composite index.
// NULL sorts before any non-NULL value.
func Compare(a, b *Key) int {
	n := a.Len
	if b.Len < n {
		n = b.Len
	}
	for i := 0; i < n; i++ {
		if c := compareSlot(a.Schema.Slots[i].Kind, a.Values[i], b.Values[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareSlot(kind SlotKind, a, b SlotValue) int {
	if a.Null && b.Null {
		return 0
	}
	if a.Null {
		return -1
	}
	if b.Null {
		return 1
	}
	switch kind {
	case IntSlot:
		switch {
		case a.Int < b.Int:
			return -1
		case a.Int > b.Int:
			return 1
		default:
			return 0
		}
	case DecimalSlot:
		return a.Decimal.Cmp(&b.Decimal)
	case VarLenSlot:
		switch {
		case string(a.Bytes) < string(b.Bytes):
			return -1
		case string(a.Bytes) > string(b.Bytes):
			return 1
		default:
			return 0
		}
	default:
		return 0
	}
}
