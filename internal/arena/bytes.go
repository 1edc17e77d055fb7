package arena

// Bytes is a single growable byte buffer used both as the parser's escape
// decode scratch space and as permanent storage for decoded string
// content. Appends amortize to O(1) the same way a Go slice append does;
// offsets returned by Append remain valid for the buffer's lifetime
// because callers always re-slice the live buffer, never a captured
// sub-slice, across a growth event.
type Bytes struct {
	buf []byte
}

// Append copies data onto the end of the buffer and returns the
// [start, start+len(data)) range it now occupies.
func (b *Bytes) Append(data []byte) (start, end int) {
	start = len(b.buf)
	b.buf = append(b.buf, data...)
	return start, len(b.buf)
}

// AppendByte is an optimized single-byte form of Append.
func (b *Bytes) AppendByte(c byte) (start, end int) {
	start = len(b.buf)
	b.buf = append(b.buf, c)
	return start, len(b.buf)
}

// Slice returns the bytes in [start, end) of the buffer. The returned
// slice aliases the buffer's current backing array and must not be
// retained across a subsequent Append/Reset.
func (b *Bytes) Slice(start, end int) []byte {
	return b.buf[start:end]
}

// Len returns the number of bytes written so far.
func (b *Bytes) Len() int {
	return len(b.buf)
}

// Reset empties the buffer, allowing its backing array to be reused. Any
// offsets previously returned by Append become invalid.
func (b *Bytes) Reset() {
	b.buf = b.buf[:0]
}
