package tomlspanner

import (
	"math"

	"github.com/exrok/toml-spanner/internal/dbg"
)

// Kind is the tag of an [Item]'s payload.
type Kind uint8

const (
	KindBool Kind = iota
	KindInteger
	KindFloat
	KindString
	KindDateTime
	KindArray
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindDateTime:
		return "datetime"
	case KindArray:
		return "array"
	case KindTable:
		return "table"
	default:
		return "unknown"
	}
}

// sourceForm records how a Table item came to exist, driving the freezing
// matrix in SPEC_FULL.md §4.3. Only meaningful when Kind == KindTable.
type sourceForm uint8

const (
	formImplicit sourceForm = iota
	formStandardHeader
	formDottedIntermediate
	formInlineTable
	formArrayElement
)

// Item is a 16-byte tagged union representing any TOML value: an 8-byte
// packed span/kind/form word, and an 8-byte payload reinterpreted
// according to Kind. Grounded on the teacher's zc (a packed
// offset+length word). A string payload fits the same 8 bytes because
// packStr stores a Str's 32-bit offset, 31-bit length and origin bit in
// one word, which keeps Item under the 24-byte budget.
type Item struct {
	meta uint64
	num  uint64
}

// Span returns the item's source span.
func (it Item) Span() Span { return unpackSpan(it.meta) }

// Kind returns the item's tag.
func (it Item) Kind() Kind { return unpackKind(it.meta) }

func (it Item) form() sourceForm { return unpackForm(it.meta) }

func newItem(span Span, kind Kind, form sourceForm, num uint64) Item {
	return Item{meta: packSpan(span.Start, span.Len(), kind, form), num: num}
}

func newBoolItem(span Span, v bool) Item {
	var n uint64
	if v {
		n = 1
	}
	return newItem(span, KindBool, 0, n)
}

func newIntItem(span Span, v int64) Item {
	return newItem(span, KindInteger, 0, uint64(v))
}

func newFloatItem(span Span, v float64) Item {
	return newItem(span, KindFloat, 0, math.Float64bits(v))
}

func newStringItem(span Span, s Str) Item {
	return newItem(span, KindString, 0, packStr(s))
}

func newDateTimeItem(span Span, h dateTimeHandle) Item {
	return newItem(span, KindDateTime, 0, uint64(uint32(h)))
}

func newArrayItem(span Span, h arrayHandle) Item {
	return newItem(span, KindArray, 0, uint64(uint32(h)))
}

func newTableItem(span Span, h tableHandle, form sourceForm) Item {
	return newItem(span, KindTable, form, uint64(uint32(h)))
}

func packStr(s Str) uint64 {
	dbg.Assert(s.length <= 0x7fffffff, "string length too large to pack: %d", s.length)
	v := uint64(s.offset) | uint64(s.length&0x7fffffff)<<32
	if s.isArena {
		v |= 1 << 63
	}
	return v
}

func unpackStr(v uint64) Str {
	return Str{
		offset:  uint32(v),
		length:  uint32((v >> 32) & 0x7fffffff),
		isArena: v&(1<<63) != 0,
	}
}

func (it Item) handle() tableHandle {
	return tableHandle(int32(uint32(it.num)))
}

// AsBool returns the item's boolean value and whether it was a boolean.
func (it Item) AsBool() (bool, bool) {
	if it.Kind() != KindBool {
		return false, false
	}
	return it.num != 0, true
}

// AsInt64 returns the item's integer value and whether it was an integer.
func (it Item) AsInt64() (int64, bool) {
	if it.Kind() != KindInteger {
		return 0, false
	}
	return int64(it.num), true
}

// AsFloat64 returns the item's float value and whether it was a float.
func (it Item) AsFloat64() (float64, bool) {
	if it.Kind() != KindFloat {
		return 0, false
	}
	return math.Float64frombits(it.num), true
}

// AsStr returns the item's string handle and whether it was a string.
func (it Item) AsStr() (Str, bool) {
	if it.Kind() != KindString {
		return Str{}, false
	}
	return unpackStr(it.num), true
}

// AsString decodes the item's string contents, given the original input
// and the owning Arena.
func (it Item) AsString(input []byte, a *Arena) (string, bool) {
	s, ok := it.AsStr()
	if !ok {
		return "", false
	}
	return s.String(input, &a.strings), true
}

// AsTable returns the item's table and whether it was a table.
func (it Item) AsTable(a *Arena) (*Table, bool) {
	if it.Kind() != KindTable {
		return nil, false
	}
	t := a.table(it.handle())
	return &t, true
}

// AsArray returns the item's array and whether it was an array.
func (it Item) AsArray(a *Arena) (*Array, bool) {
	if it.Kind() != KindArray {
		return nil, false
	}
	arr := a.array(it.handle())
	return &arr, true
}

// AsDateTime returns the item's datetime value and whether it was one.
func (it Item) AsDateTime(a *Arena) (DateTime, bool) {
	if it.Kind() != KindDateTime {
		return DateTime{}, false
	}
	return a.dateTime(it.handle()), true
}
