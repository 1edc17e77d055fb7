//go:build !debug

package dbg

// Enabled is true when the debug build tag is active.
const Enabled = false

// Log is a no-op in release builds; the compiler inlines it away.
func Log(format string, args ...any) {}

// Assert is a no-op in release builds.
func Assert(cond bool, format string, args ...any) {}
