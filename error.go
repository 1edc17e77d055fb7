package tomlspanner

import "fmt"

// ErrorKind classifies an [Error]. Mirrors the taxonomy in SPEC_FULL.md §7.
type ErrorKind uint8

const (
	ErrUnexpectedEOF ErrorKind = iota
	ErrUnexpectedChar
	ErrInvalidNumber
	ErrInvalidFloat
	ErrInvalidEscape
	ErrInvalidUnicode
	ErrInvalidDatetime
	ErrDuplicateKey
	ErrDottedKeyInvalidType
	ErrRecursionLimit
	ErrInputTooLarge
	ErrMissingField
	ErrUnexpectedField
	ErrWrongType
	ErrCustom
)

var errKindText = [...]string{
	ErrUnexpectedEOF:        "unexpected end of input",
	ErrUnexpectedChar:       "unexpected character",
	ErrInvalidNumber:        "invalid number literal",
	ErrInvalidFloat:         "invalid float literal",
	ErrInvalidEscape:        "invalid escape sequence",
	ErrInvalidUnicode:       "escape does not encode a Unicode scalar value",
	ErrInvalidDatetime:      "invalid datetime",
	ErrDuplicateKey:         "duplicate key",
	ErrDottedKeyInvalidType: "dotted key traverses a non-table value",
	ErrRecursionLimit:       "nesting depth exceeds the recursion limit",
	ErrInputTooLarge:        "input exceeds the maximum supported size",
	ErrMissingField:         "missing required field",
	ErrUnexpectedField:      "unexpected field",
	ErrWrongType:            "value has the wrong type",
	ErrCustom:               "",
}

func (k ErrorKind) String() string {
	if int(k) < len(errKindText) {
		return errKindText[k]
	}
	return "unknown error"
}

// Error is a single diagnostic. It deliberately carries nothing but a
// kind, a span, the optional secondary span needed to render "already
// defined at ..." notes, and an optional field key and message —
// line/column and source snippets are
// computed on demand by [Render], never stored, so Error stays cheap to
// construct and to accumulate by the hundreds during deserialization.
type Error struct {
	Kind ErrorKind
	Span Span

	// Secondary, if SecondarySet is true, points at a related span (e.g.
	// the original definition in a duplicate-key conflict).
	Secondary    Span
	SecondarySet bool

	// Key, if non-empty, names the offending table/struct field. Used by
	// deserialize-phase errors (missing-field, unexpected-field).
	Key string

	// Message carries the text for ErrCustom and otherwise supplements
	// the kind's default text (e.g. "expected string, found integer").
	Message string
}

// Error implements the standard error interface using only the
// information the Error struct carries (no source access).
func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Message != "" {
		if msg == "" {
			msg = e.Message
		} else {
			msg = msg + ": " + e.Message
		}
	}
	if e.Key != "" {
		msg = fmt.Sprintf("%s (field %q)", msg, e.Key)
	}
	return fmt.Sprintf("toml-spanner: %s at %v", msg, e.Span)
}

// withSecondary returns a copy of e with its secondary span set.
func (e Error) withSecondary(s Span) Error {
	e.Secondary = s
	e.SecondarySet = true
	return e
}

// Render pretty-prints err against input as a source snippet with a caret
// underneath the offending span, resolving line/column on demand. This is
// deliberately not a method on Error so that Error itself never needs to
// borrow the input.
func Render(input []byte, err *Error) string {
	line, col := LineCol(input, err.Span.Start)
	out := fmt.Sprintf("error: %s\n  --> line %d, column %d\n", err.Error(), line, col)

	lineStart, lineEnd := lineBounds(input, err.Span.Start)
	out += fmt.Sprintf("%5d | %s\n", line, input[lineStart:lineEnd])

	caretLen := err.Span.End - err.Span.Start
	if caretLen < 1 {
		caretLen = 1
	}
	if err.Span.Start+caretLen > lineEnd {
		caretLen = lineEnd - err.Span.Start
	}
	pad := err.Span.Start - lineStart
	out += fmt.Sprintf("      | %s%s\n", spaces(pad), carets(caretLen))

	if err.SecondarySet {
		sLine, sCol := LineCol(input, err.Secondary.Start)
		out += fmt.Sprintf("note: first defined at line %d, column %d\n", sLine, sCol)
	}
	return out
}

func lineBounds(input []byte, off int) (start, end int) {
	start = off
	for start > 0 && input[start-1] != '\n' {
		start--
	}
	end = off
	for end < len(input) && input[end] != '\n' {
		end++
	}
	return start, end
}

func spaces(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func carets(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '^'
	}
	return string(b)
}
