package tomlspanner

import "unsafe"

// Str is a compact, copyable handle to a decoded UTF-8 string. It either
// aliases a slice of the original input (the common case: no escape
// sequences, so no decoding was needed) or points into the arena's
// decoded-string storage (an escape sequence required materializing new
// bytes). Grounded on the teacher's zc type (zc.go), which plays the same
// role for raw byte slices in a Protobuf message.
type Str struct {
	offset  uint32
	length  uint32
	isArena bool
}

// emptyStr is the zero value: an empty, input-aliased string.
var emptyStr = Str{}

func newInputStr(start, end int) Str {
	return Str{offset: uint32(start), length: uint32(end - start)}
}

func newArenaStr(start, end int) Str {
	return Str{offset: uint32(start), length: uint32(end - start), isArena: true}
}

// Len returns the decoded string's byte length.
func (s Str) Len() int { return int(s.length) }

// Bytes returns the decoded contents of s as a byte slice, given the
// original input and the arena's decoded-string buffer. The returned
// slice must not be mutated: when isArena is false it aliases the
// caller's input.
func (s Str) Bytes(input []byte, arenaStrings *arenaBytes) []byte {
	if s.length == 0 {
		return nil
	}
	if s.isArena {
		return arenaStrings.Slice(int(s.offset), int(s.offset+s.length))
	}
	return input[s.offset : s.offset+s.length]
}

// String returns the decoded contents of s as a string, avoiding a copy
// in both the input-aliased and arena-decoded cases via [unsafe.String],
// mirroring zc.utf8's use of unsafe2.String.
func (s Str) String(input []byte, arenaStrings *arenaBytes) string {
	b := s.Bytes(input, arenaStrings)
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// Equal reports whether s and other decode to the same string contents.
func (s Str) Equal(input []byte, arenaStrings *arenaBytes, other Str) bool {
	return s.String(input, arenaStrings) == other.String(input, arenaStrings)
}
