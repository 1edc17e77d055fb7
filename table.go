package tomlspanner

// hashIndexThreshold is the entry count at which a Table gains a hash
// index. Below it, linear scan measures faster on cache terms (per
// spec.md §9); the exact threshold is an
// implementation choice, not part of the contract.
const hashIndexThreshold = 6

// entry is one key/value pair in a Table, in insertion order.
type entry struct {
	key  Key
	item Item
}

// Table is an ordered mapping from Key to Item, preserving insertion
// order for the lifetime of the tree (spec.md §3 invariant). Tables are
// stored by value in an Arena's table slab; see arena.go.
type Table struct {
	entries []entry
	form    sourceForm
	frozen  bool
	index   *hashIndex
}

// Len returns the number of entries in the table.
func (t *Table) Len() int { return len(t.entries) }

// Entries returns the table's entries in insertion order. The returned
// slice must not be retained past the next mutation of the table.
func (t *Table) Entries() []entry { return t.entries }

// IsFrozen reports whether the table rejects further additions. Frozen
// state is monotonic: once true, it is never cleared.
func (t *Table) IsFrozen() bool { return t.frozen }

// freeze marks the table frozen. Idempotent.
func (t *Table) freeze() { t.frozen = true }

// dottedExtensible reports whether a dotted key may add new entries to,
// or navigate through, this table. Every form except formInlineTable
// stays extensible after creation: a table introduced by a dotted key
// (formDottedIntermediate) can keep gaining fields from later dotted
// keys (fruit.apple.color, then later fruit.apple.taste), and a
// [header] table accepts both plain and dotted keys until the next
// header moves on. Only an inline table, which freezes the instant its
// closing '}' is seen, is ever not extensible.
func (t *Table) dottedExtensible() bool {
	return !t.frozen
}

// headerReopenable reports whether a standard header [a.b.c] may reopen
// this table as its target. Only a table that exists purely as an
// implicit path component - never itself the direct target of a dotted
// key or an earlier header - may later be given a real header, per the
// freezing matrix in SPEC_FULL.md §4.3.
func (t *Table) headerReopenable() bool {
	return t.form == formImplicit && !t.frozen
}

// find performs a linear scan for name, returning the entry index or -1.
func (t *Table) find(input []byte, arenaStrings *arenaBytes, name string) int {
	for i := range t.entries {
		if t.entries[i].key.String(input, arenaStrings) == name {
			return i
		}
	}
	return -1
}

// Get looks up name using the hash index when present, falling back to
// linear scan for small tables. Returns the entry's Item and whether it
// was found.
func (t *Table) Get(input []byte, arenaStrings *arenaBytes, name string) (Item, bool) {
	idx := t.indexOf(input, arenaStrings, name)
	if idx < 0 {
		return Item{}, false
	}
	return t.entries[idx].item, true
}

// indexOf returns the entry index for name, or -1 if absent.
func (t *Table) indexOf(input []byte, arenaStrings *arenaBytes, name string) int {
	if t.index != nil {
		return t.index.lookup(t, input, arenaStrings, name)
	}
	return t.find(input, arenaStrings, name)
}

// append adds a new entry in insertion order. Callers are responsible for
// checking IsFrozen/duplicate-key rules first; append performs no
// validation of its own.
func (t *Table) append(key Key, item Item) {
	t.entries = append(t.entries, entry{key: key, item: item})
	// The index, if any, is now stale; it is rebuilt wholesale the next
	// time buildIndexIfNeeded runs (see root.go's post-parse finalize
	// pass), rather than incrementally maintained, since tables stop
	// growing once parsing finishes.
	t.index = nil
}

// buildIndexIfNeeded constructs t's hash index when the entry count has
// reached hashIndexThreshold. Called once per table after parsing
// completes (see finalizeTables in root.go): the tree is read-only from
// that point on, so an index built then never goes stale.
func (t *Table) buildIndexIfNeeded(input []byte, arenaStrings *arenaBytes) {
	if t.index != nil || len(t.entries) < hashIndexThreshold {
		return
	}
	t.index = newHashIndex(t, input, arenaStrings)
}
