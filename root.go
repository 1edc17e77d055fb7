package tomlspanner

// Root is the result of a successful Parse: the document's top-level
// table, the Arena it lives in, and the original input its spans index
// into. A Root borrows both the input slice and the Arena; neither may
// be mutated while the Root is in use.
type Root struct {
	arena *Arena
	input []byte
	top   tableHandle
}

func newRoot(a *Arena, input []byte, top tableHandle) *Root {
	return &Root{arena: a, input: input, top: top}
}

// Arena returns the Arena backing r.
func (r *Root) Arena() *Arena { return r.arena }

// Input returns the original source bytes r's spans index into.
func (r *Root) Input() []byte { return r.input }

// Table returns the document's top-level table.
func (r *Root) Table() *Table {
	t := r.arena.table(r.top)
	return &t
}

// IntoTable returns the document's top-level table, the same value Table
// returns. It exists as a distinct entry point for callers that want to
// signal they are discarding the Root (and so, by convention, the Arena
// and Input it was built from) in favor of just the table.
func (r *Root) IntoTable() *Table { return r.Table() }

// Get looks up a top-level key by name.
func (r *Root) Get(name string) (Item, bool) {
	return r.Table().Get(r.input, &r.arena.strings, name)
}

// Item wraps the document's top-level table as an Item, letting callers
// use MaybeItem navigation (see maybe.go) starting from the root.
func (r *Root) Item() Item {
	return newTableItem(Span{Start: 0, End: len(r.input)}, r.top, formImplicit)
}

// IntoResult decodes a T out of r's top-level table, performing an
// all-or-nothing check: if decoding records any error, it returns the
// zero value together with every error recorded; otherwise it returns
// the populated value and a nil error slice. Unlike Required/Optional,
// which leave error accumulation to the caller's Context, IntoResult
// owns a fresh Context for the whole decode, making it the entry point
// for "parse this document into exactly one record or tell me
// everything wrong with it" callers.
func IntoResult[T any](r *Root) (T, []*Error) {
	ctx := NewContext(r)
	v, err := Decode[T](ctx, r.Item())
	if err != nil {
		ctx.addError(toError(err, r.Item().Span()))
	}
	if errs := ctx.Errors(); len(errs) > 0 {
		var zero T
		return zero, errs
	}
	return v, nil
}

// finalizeTables builds a hash index for every table allocated during
// parsing that reached hashIndexThreshold entries. Run once, after
// Parse's document loop completes: the tree is read-only from that point
// on, so an index built now never goes stale (see table.go).
func finalizeTables(a *Arena, input []byte) {
	n := a.tableCount()
	for i := 0; i < n; i++ {
		h := tableHandle(i)
		t := a.table(h)
		t.buildIndexIfNeeded(input, &a.strings)
		a.setTable(h, t)
	}
}
