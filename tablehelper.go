package tomlspanner

// TableHelper tracks which entries of a table have been claimed by a
// Required/Optional call during deserialization, so that ExpectEmpty can
// report every leftover field at once instead of failing on the first
// one. Grounded on the consumed-fields bookkeeping a hand-written
// Deserialize implementation needs to do anyway; TableHelper centralizes
// it instead of making every caller keep its own bitset.
type TableHelper struct {
	ctx      *Context
	table    Table
	item     Item
	consumed []bool
}

// Helper builds a TableHelper over r's top-level table.
func (r *Root) Helper(ctx *Context) *TableHelper {
	return newTableHelper(ctx, r.Item())
}

// TableHelper builds a TableHelper over it, failing if it is not a
// table.
func (it Item) TableHelper(ctx *Context) (*TableHelper, bool) {
	if it.Kind() != KindTable {
		return nil, false
	}
	return newTableHelper(ctx, it), true
}

func newTableHelper(ctx *Context, item Item) *TableHelper {
	t := ctx.root.arena.table(item.handle())
	return &TableHelper{ctx: ctx, table: t, item: item, consumed: make([]bool, len(t.entries))}
}

func (h *TableHelper) lookup(key string) (int, bool) {
	idx := h.table.indexOf(h.ctx.root.input, &h.ctx.root.arena.strings, key)
	if idx < 0 {
		return -1, false
	}
	h.consumed[idx] = true
	return idx, true
}

// Required looks up key, recording ErrMissingField on the Context if
// absent.
func (h *TableHelper) Required(key string) (Item, bool) {
	idx, ok := h.lookup(key)
	if !ok {
		h.ctx.addError(&Error{Kind: ErrMissingField, Key: key, Span: h.item.Span()})
		return Item{}, false
	}
	return h.table.entries[idx].item, true
}

// Optional looks up key. A missing key is not an error.
func (h *TableHelper) Optional(key string) (Item, bool) {
	idx, ok := h.lookup(key)
	if !ok {
		return Item{}, false
	}
	return h.table.entries[idx].item, true
}

func (h *TableHelper) wrongType(key string, item Item, want string) {
	h.ctx.addError(&Error{Kind: ErrWrongType, Key: key, Span: item.Span(), Message: "expected " + want + ", found " + item.Kind().String()})
}

// RequiredBool, RequiredInt64, RequiredFloat64, and RequiredString are
// typed conveniences over Required for TOML's scalar kinds.

func (h *TableHelper) RequiredBool(key string) (bool, bool) {
	item, ok := h.Required(key)
	if !ok {
		return false, false
	}
	v, ok := item.AsBool()
	if !ok {
		h.wrongType(key, item, "boolean")
	}
	return v, ok
}

func (h *TableHelper) RequiredInt64(key string) (int64, bool) {
	item, ok := h.Required(key)
	if !ok {
		return 0, false
	}
	v, ok := item.AsInt64()
	if !ok {
		h.wrongType(key, item, "integer")
	}
	return v, ok
}

func (h *TableHelper) RequiredFloat64(key string) (float64, bool) {
	item, ok := h.Required(key)
	if !ok {
		return 0, false
	}
	v, ok := item.AsFloat64()
	if !ok {
		h.wrongType(key, item, "float")
	}
	return v, ok
}

func (h *TableHelper) RequiredString(key string) (string, bool) {
	item, ok := h.Required(key)
	if !ok {
		return "", false
	}
	v, ok := item.AsString(h.ctx.root.input, h.ctx.root.arena)
	if !ok {
		h.wrongType(key, item, "string")
	}
	return v, ok
}

// OptionalBool, OptionalInt64, OptionalFloat64, and OptionalString mirror
// the Required* family but do not error on a missing key.

func (h *TableHelper) OptionalBool(key string) (bool, bool) {
	item, ok := h.Optional(key)
	if !ok {
		return false, false
	}
	v, ok := item.AsBool()
	if !ok {
		h.wrongType(key, item, "boolean")
	}
	return v, ok
}

func (h *TableHelper) OptionalInt64(key string) (int64, bool) {
	item, ok := h.Optional(key)
	if !ok {
		return 0, false
	}
	v, ok := item.AsInt64()
	if !ok {
		h.wrongType(key, item, "integer")
	}
	return v, ok
}

func (h *TableHelper) OptionalFloat64(key string) (float64, bool) {
	item, ok := h.Optional(key)
	if !ok {
		return 0, false
	}
	v, ok := item.AsFloat64()
	if !ok {
		h.wrongType(key, item, "float")
	}
	return v, ok
}

func (h *TableHelper) OptionalString(key string) (string, bool) {
	item, ok := h.Optional(key)
	if !ok {
		return "", false
	}
	v, ok := item.AsString(h.ctx.root.input, h.ctx.root.arena)
	if !ok {
		h.wrongType(key, item, "string")
	}
	return v, ok
}

// ExpectEmpty records an ErrUnexpectedField, in table order, for every
// entry no Required/Optional call has claimed, then returns an error
// aggregating them (nil if every entry was claimed).
func (h *TableHelper) ExpectEmpty() error {
	before := len(h.ctx.errors)
	for i, e := range h.table.entries {
		if h.consumed[i] {
			continue
		}
		name := e.key.String(h.ctx.root.input, &h.ctx.root.arena.strings)
		h.ctx.addError(&Error{Kind: ErrUnexpectedField, Key: name, Span: e.key.Span})
	}
	if len(h.ctx.errors) == before {
		return nil
	}
	return &multiError{first: h.ctx.errors[before], total: len(h.ctx.errors) - before}
}

// Entry is a decoded key paired with its Item, returned by IntoRemaining.
type Entry struct {
	Key  string
	Item Item
}

// IntoRemaining returns every entry not yet claimed by Required/Optional,
// in table order, and marks them all claimed. Used to drain the rest of
// a table into a catch-all field once the named fields are decoded.
func (h *TableHelper) IntoRemaining() []Entry {
	var out []Entry
	for i, e := range h.table.entries {
		if h.consumed[i] {
			continue
		}
		h.consumed[i] = true
		out = append(out, Entry{
			Key:  e.key.String(h.ctx.root.input, &h.ctx.root.arena.strings),
			Item: e.item,
		})
	}
	return out
}
