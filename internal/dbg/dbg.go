//go:build debug

// Package dbg provides debugging helpers that compile to nothing unless
// the repo is built with -tags debug.
package dbg

import (
	"fmt"
	"os"

	"github.com/timandy/routine"
)

// Enabled is true when the debug build tag is active.
const Enabled = true

var goid = routine.NewGoIdGenerator()

// Log prints a debug line tagged with the calling goroutine's id.
func Log(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[goroutine %d] "+format+"\n",
		append([]any{goid.Generate()}, args...)...)
}

// Assert panics with the given message if cond is false. Compiled out
// entirely in release builds.
func Assert(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("toml-spanner: assertion failed: "+format, args...))
	}
}
