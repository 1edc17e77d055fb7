package tomlspanner

// Key is a decoded key together with the span of its source occurrence.
type Key struct {
	Name Str
	Span Span
}

// String returns the decoded key name.
func (k Key) String(input []byte, arenaStrings *arenaBytes) string {
	return k.Name.String(input, arenaStrings)
}
