// Package arena provides index-stable bump allocation for the parser.
//
// Unlike a classic pointer-returning bump allocator, [Arena] hands out
// opaque [Handle] values rather than pointers. A Handle stays valid for
// the lifetime of the Arena even as the backing storage grows and its
// address changes underneath it, because every access re-derives the
// current slice header from the Arena value instead of dereferencing a
// pointer captured before a resize. This gives the same "bump-allocate,
// free everything at once" contract as a pointer-chunked arena without
// requiring storage to be pinned in place.
//
// See DESIGN.md for why this repo does not reuse the teacher's
// pointer-chunked design.
package arena

// Handle is an opaque reference into an [Arena]. The first value Alloc
// hands out is Handle(0); [Nil], not the zero Handle, is the "no
// allocation" sentinel.
type Handle int32

// Nil is the sentinel Handle meaning "no allocation".
const Nil Handle = -1

// Arena is a growable, append-only slab of T. Nothing is ever freed
// individually; the whole Arena is reclaimed at once when it is dropped.
type Arena[T any] struct {
	slots []T
}

// Alloc appends v to the arena and returns a Handle that can later be used
// to Get or Set it.
func (a *Arena[T]) Alloc(v T) Handle {
	a.slots = append(a.slots, v)
	return Handle(len(a.slots) - 1)
}

// Get returns a copy of the value at h.
func (a *Arena[T]) Get(h Handle) T {
	return a.slots[h]
}

// Set overwrites the value at h.
func (a *Arena[T]) Set(h Handle, v T) {
	a.slots[h] = v
}

// Len returns the number of values allocated so far.
func (a *Arena[T]) Len() int {
	return len(a.slots)
}
