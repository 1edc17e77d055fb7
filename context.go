package tomlspanner

import "fmt"

// Context accumulates errors produced while deserializing a parsed
// document into Go values. Unlike parsing, which stops at the first
// error, deserialization keeps going after a field fails so that
// ExpectEmpty and sibling field errors can all be reported together in
// one pass (SPEC_FULL.md §4.7).
type Context struct {
	root   *Root
	errors []*Error
}

// NewContext constructs a Context for deserializing values out of r.
func NewContext(r *Root) *Context {
	return &Context{root: r}
}

// Root returns the Root this Context resolves table/array/string
// payloads against.
func (c *Context) Root() *Root { return c.root }

func (c *Context) addError(err *Error) {
	c.errors = append(c.errors, err)
}

// Errors returns every error recorded so far, in the order encountered.
func (c *Context) Errors() []*Error { return c.errors }

// Err collapses the recorded errors into a single error, or nil if none
// were recorded. When more than one error is present it reports the
// first and the total count; callers that want every message should use
// Errors directly.
func (c *Context) Err() error {
	switch len(c.errors) {
	case 0:
		return nil
	case 1:
		return c.errors[0]
	default:
		return &multiError{first: c.errors[0], total: len(c.errors)}
	}
}

type multiError struct {
	first *Error
	total int
}

func (m *multiError) Error() string {
	if m.total <= 1 {
		return m.first.Error()
	}
	return fmt.Sprintf("%s (%d errors in total)", m.first.Error(), m.total)
}

// Unwrap exposes the first error for errors.Is/errors.As, matching the
// convention of other multi-cause error aggregates in the ecosystem.
func (m *multiError) Unwrap() error { return m.first }
