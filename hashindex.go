package tomlspanner

import "github.com/dolthub/maphash"

// hashIndex is a flat, open-addressed slot array mapping a fingerprint of
// a table's decoded keys to its entry index. Grounded on the teacher's
// internal/swiss/table.go (a ctrl-byte swiss table for Protobuf field
// lookup), simplified here to plain Go slices: each slot records whether
// it is occupied and, if so, the entry index it refers to. Collisions
// are resolved by linear probing, and a probe hit is always confirmed
// against the actual decoded key bytes (the fingerprint alone is not
// proof of equality).
//
// The index is rebuilt wholesale rather than incrementally maintained
// (see Table.buildIndexIfNeeded): tables in this library stop growing
// once parsing completes, so there is never a need to insert into an
// already-built index.
type hashIndex struct {
	slots []hashSlot
}

type hashSlot struct {
	occupied bool
	entry    int32
}

var keyHasher = maphash.NewHasher[string]()

// newHashIndex builds a hash index over t's current entries.
func newHashIndex(t *Table, input []byte, arenaStrings *arenaBytes) *hashIndex {
	n := len(t.entries)
	cap := nextPow2(n * 2)
	if cap < 8 {
		cap = 8
	}
	h := &hashIndex{slots: make([]hashSlot, cap)}
	mask := uint64(cap - 1)

	for i, e := range t.entries {
		name := e.key.String(input, arenaStrings)
		fp := keyHasher.Hash(name)
		slot := fp & mask
		for h.slots[slot].occupied {
			slot = (slot + 1) & mask
		}
		h.slots[slot] = hashSlot{occupied: true, entry: int32(i)}
	}
	return h
}

// lookup finds name's entry index using the hash index, falling back to
// confirming each probed candidate against the real decoded key (the
// fingerprint may collide). Returns -1 if name is absent.
func (h *hashIndex) lookup(t *Table, input []byte, arenaStrings *arenaBytes, name string) int {
	mask := uint64(len(h.slots) - 1)
	fp := keyHasher.Hash(name)
	slot := fp & mask

	for probes := 0; probes < len(h.slots); probes++ {
		s := h.slots[slot]
		if !s.occupied {
			return -1
		}
		if t.entries[s.entry].key.String(input, arenaStrings) == name {
			return int(s.entry)
		}
		slot = (slot + 1) & mask
	}
	return -1
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}
