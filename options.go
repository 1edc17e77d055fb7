package tomlspanner

// parseOptions holds the resolved configuration for a single Parse call.
// Grounded on the teacher's options.go, which uses the same
// struct{ apply func(*Options) } pattern for CompileOption/UnmarshalOption
// so that options stay a concrete type (not an interface) on the hot path.
type parseOptions struct {
	maxDepth  int
	maxInput  int
}

func defaultParseOptions() parseOptions {
	return parseOptions{maxDepth: MaxDepth, maxInput: MaxInputSize}
}

// ParseOption configures a call to Parse.
type ParseOption struct{ apply func(*parseOptions) }

// WithMaxDepth overrides the default recursion limit (SPEC_FULL.md §4.3).
// As with MaxDepth, the limit applies to inline array/table nesting and,
// separately, to the segment count of each dotted key.
func WithMaxDepth(depth int) ParseOption {
	return ParseOption{func(o *parseOptions) { o.maxDepth = depth }}
}

// WithMaxInputSize tightens the default 512 MiB input ceiling. Values
// above MaxInputSize are clamped, since spans cannot address more. In
// practice Parse also rejects any document past MaxValueLength (just
// under 1 MiB),
// since the document's own top-level table spans the whole input; this
// option only narrows the ceiling further, it cannot raise it past
// MaxValueLength.
func WithMaxInputSize(n int) ParseOption {
	return ParseOption{func(o *parseOptions) {
		if n > MaxInputSize {
			n = MaxInputSize
		}
		o.maxInput = n
	}}
}
