package tomlspanner

// MaybeItem is a chainable, never-panicking view over an Item that may be
// absent. Each navigation step (Field, Index) on a MaybeItem that is
// already absent, or whose underlying Item is the wrong kind, returns
// another absent MaybeItem instead of erroring; only the terminal
// accessor (Bool, Int64, etc.) reports success or failure. This mirrors
// the teacher's *Message accessor chains returning zero values on a type
// mismatch rather than panicking, generalized here to an explicit
// present/absent flag instead of relying on a zero Kind.
type MaybeItem struct {
	item    Item
	root    *Root
	present bool
}

// Maybe returns a present MaybeItem over r's top-level table, rooted at
// r, the Root whose Arena and input resolve any table/array/string
// payload reached from it.
func (r *Root) Maybe() MaybeItem {
	return MaybeItem{item: r.Item(), root: r, present: true}
}

func wrapMaybe(root *Root, item Item) MaybeItem {
	return MaybeItem{item: item, root: root, present: true}
}

// Present reports whether the chain up to this point resolved to a real
// value.
func (m MaybeItem) Present() bool { return m.present }

// Item returns the underlying Item and whether it is present.
func (m MaybeItem) Item() (Item, bool) { return m.item, m.present }

// Field navigates into a table field by name. Absent, or applied to a
// non-table value, it returns an absent MaybeItem.
func (m MaybeItem) Field(name string) MaybeItem {
	if !m.present || m.item.Kind() != KindTable {
		return MaybeItem{}
	}
	t := m.root.arena.table(m.item.handle())
	v, ok := t.Get(m.root.input, &m.root.arena.strings, name)
	if !ok {
		return MaybeItem{}
	}
	return wrapMaybe(m.root, v)
}

// Index navigates into an array element by position. Absent, out of
// range, or applied to a non-array value, it returns an absent
// MaybeItem.
func (m MaybeItem) Index(i int) MaybeItem {
	if !m.present || m.item.Kind() != KindArray {
		return MaybeItem{}
	}
	arr := m.root.arena.array(arrayHandle(m.item.handle()))
	v, ok := arr.Get(i)
	if !ok {
		return MaybeItem{}
	}
	return wrapMaybe(m.root, v)
}

// Bool returns the boolean value at this point in the chain.
func (m MaybeItem) Bool() (bool, bool) {
	if !m.present {
		return false, false
	}
	return m.item.AsBool()
}

// Int64 returns the integer value at this point in the chain.
func (m MaybeItem) Int64() (int64, bool) {
	if !m.present {
		return 0, false
	}
	return m.item.AsInt64()
}

// Float64 returns the float value at this point in the chain.
func (m MaybeItem) Float64() (float64, bool) {
	if !m.present {
		return 0, false
	}
	return m.item.AsFloat64()
}

// String returns the decoded string value at this point in the chain.
func (m MaybeItem) String() (string, bool) {
	if !m.present {
		return "", false
	}
	return m.item.AsString(m.root.input, m.root.arena)
}

// Len returns the element/entry count of an array or table at this
// point in the chain, or (0, false) if absent or scalar.
func (m MaybeItem) Len() (int, bool) {
	if !m.present {
		return 0, false
	}
	switch m.item.Kind() {
	case KindArray:
		arr := m.root.arena.array(arrayHandle(m.item.handle()))
		return arr.Len(), true
	case KindTable:
		t := m.root.arena.table(m.item.handle())
		return t.Len(), true
	default:
		return 0, false
	}
}
