package tomlspanner

import "github.com/exrok/toml-spanner/internal/arena"

// arenaBytes is the decoded-string / scratch byte buffer type, reused
// directly from internal/arena.
type arenaBytes = arena.Bytes

// tableHandle, arrayHandle, and dateTimeHandle index into an Arena's
// typed slabs. All three are aliases of the same underlying handle type;
// they exist as separate names purely for readability at call sites.
type tableHandle = arena.Handle
type arrayHandle = arena.Handle
type dateTimeHandle = arena.Handle

// nilHandle is shared across all three handle kinds.
const nilHandle = arena.Nil

// Arena owns every piece of memory a parsed document allocates: tables,
// arrays, datetimes, and decoded string bytes. A caller constructs one
// with NewArena, passes it to Parse, and drops it (letting the GC reclaim
// everything at once) when the parsed tree is no longer needed.
//
// An Arena must not be used from two goroutines concurrently (SPEC_FULL.md
// §5); distinct Arenas may be used concurrently on separate threads with
// no coordination.
type Arena struct {
	tables    arena.Arena[Table]
	arrays    arena.Arena[Array]
	dateTimes arena.Arena[DateTime]
	strings   arenaBytes
}

// NewArena constructs an empty Arena ready to receive a parsed document.
func NewArena() *Arena {
	return &Arena{}
}

func (a *Arena) allocTable(t Table) tableHandle  { return a.tables.Alloc(t) }
func (a *Arena) table(h tableHandle) Table       { return a.tables.Get(h) }
func (a *Arena) setTable(h tableHandle, t Table) { a.tables.Set(h, t) }
func (a *Arena) tableCount() int                 { return a.tables.Len() }

func (a *Arena) allocArray(arr Array) arrayHandle { return a.arrays.Alloc(arr) }
func (a *Arena) array(h arrayHandle) Array        { return a.arrays.Get(h) }
func (a *Arena) setArray(h arrayHandle, arr Array) { a.arrays.Set(h, arr) }

func (a *Arena) allocDateTime(dt DateTime) dateTimeHandle { return a.dateTimes.Alloc(dt) }
func (a *Arena) dateTime(h dateTimeHandle) DateTime       { return a.dateTimes.Get(h) }

// internString copies data into the arena's permanent string storage and
// returns an arena-origin Str covering it.
func (a *Arena) internString(data []byte) Str {
	start, end := a.strings.Append(data)
	return newArenaStr(start, end)
}
