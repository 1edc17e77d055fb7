package tomlspanner

import "testing"

func parseOK(t *testing.T, src string) (*Root, *Arena) {
	t.Helper()
	a := NewArena()
	root, err := Parse([]byte(src), a)
	if err != nil {
		t.Fatalf("Parse(%q): %v", src, err)
	}
	return root, a
}

func TestSimpleKeyValueSpans(t *testing.T) {
	src := "answer = 42\n"
	root, _ := parseOK(t, src)

	item, ok := root.Get("answer")
	if !ok {
		t.Fatal("answer not found")
	}
	v, ok := item.AsInt64()
	if !ok || v != 42 {
		t.Fatalf("answer = %v, %v; want 42, true", v, ok)
	}
	span := item.Span()
	if got := src[span.Start:span.End]; got != "42" {
		t.Fatalf("span covers %q; want \"42\"", got)
	}
}

func TestDuplicateKeyError(t *testing.T) {
	a := NewArena()
	_, err := Parse([]byte("x = 1\nx = 2\n"), a)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	e, ok := err.(*Error)
	if !ok {
		t.Fatalf("error is not *Error: %v", err)
	}
	if e.Kind != ErrDuplicateKey {
		t.Fatalf("Kind = %v; want ErrDuplicateKey", e.Kind)
	}
	if !e.SecondarySet {
		t.Fatal("expected a secondary span pointing at the first definition")
	}
}

func TestDuplicateTableHeaderError(t *testing.T) {
	a := NewArena()
	_, err := Parse([]byte("[x]\na = 1\n[x]\nb = 2\n"), a)
	if err == nil {
		t.Fatal("expected duplicate table header error")
	}
	e, _ := err.(*Error)
	if e.Kind != ErrDuplicateKey {
		t.Fatalf("Kind = %v; want ErrDuplicateKey", e.Kind)
	}
}

func TestArrayOfTables(t *testing.T) {
	src := "[[t]]\nn = 1\n[[t]]\nn = 2\n"
	root, arena := parseOK(t, src)

	item, ok := root.Get("t")
	if !ok {
		t.Fatal("t not found")
	}
	arr, ok := item.AsArray(arena)
	if !ok {
		t.Fatalf("t is not an array: %v", item.Kind())
	}
	if arr.Len() != 2 {
		t.Fatalf("len(t) = %d; want 2", arr.Len())
	}
	for i, want := range []int64{1, 2} {
		elem, _ := arr.Get(i)
		tbl, ok := elem.AsTable(arena)
		if !ok {
			t.Fatalf("t[%d] is not a table", i)
		}
		n, ok := tbl.Get([]byte(src), &arena.strings, "n")
		if !ok {
			t.Fatalf("t[%d].n missing", i)
		}
		v, _ := n.AsInt64()
		if v != want {
			t.Fatalf("t[%d].n = %d; want %d", i, v, want)
		}
	}
}

func TestBasicStringEscape(t *testing.T) {
	src := "s = \"a\\u0041b\"\n"
	root, arena := parseOK(t, src)
	item, _ := root.Get("s")
	got, ok := item.AsString([]byte(src), arena)
	if !ok || got != "aAb" {
		t.Fatalf("s = %q, %v; want \"aAb\", true", got, ok)
	}
}

func TestLiteralStringNoEscape(t *testing.T) {
	src := `s = 'a\x41b'` + "\n"
	root, arena := parseOK(t, src)
	item, _ := root.Get("s")
	got, _ := item.AsString([]byte(src), arena)
	if got != `a\x41b` {
		t.Fatalf("s = %q; want literal backslash sequence preserved", got)
	}
}

func TestMultilineBasicStringTrimsLeadingNewline(t *testing.T) {
	src := "s = \"\"\"\nhello\"\"\"\n"
	root, arena := parseOK(t, src)
	item, _ := root.Get("s")
	got, _ := item.AsString([]byte(src), arena)
	if got != "hello" {
		t.Fatalf("s = %q; want %q", got, "hello")
	}
}

func TestDottedKeysBuildNestedTables(t *testing.T) {
	src := "a.b.c = 1\n"
	root, arena := parseOK(t, src)
	item, ok := root.Get("a")
	if !ok {
		t.Fatal("a not found")
	}
	tb, ok := item.AsTable(arena)
	if !ok {
		t.Fatal("a is not a table")
	}
	bItem, ok := tb.Get([]byte(src), &arena.strings, "b")
	if !ok {
		t.Fatal("a.b not found")
	}
	bTb, _ := bItem.AsTable(arena)
	cItem, ok := bTb.Get([]byte(src), &arena.strings, "c")
	if !ok {
		t.Fatal("a.b.c not found")
	}
	v, _ := cItem.AsInt64()
	if v != 1 {
		t.Fatalf("a.b.c = %d; want 1", v)
	}
}

func TestStandardHeaderTargetsLastArrayOfTablesElement(t *testing.T) {
	src := "[[fruits]]\nname = \"apple\"\n[fruits.physical]\ncolor = \"red\"\n"
	root, arena := parseOK(t, src)

	item, ok := root.Get("fruits")
	if !ok {
		t.Fatal("fruits not found")
	}
	arr, ok := item.AsArray(arena)
	if !ok || arr.Len() != 1 {
		t.Fatalf("fruits = %v (len %d); want a 1-element array", item.Kind(), arr.Len())
	}
	elem, _ := arr.Get(0)
	tbl, ok := elem.AsTable(arena)
	if !ok {
		t.Fatal("fruits[0] is not a table")
	}
	name, ok := tbl.Get([]byte(src), &arena.strings, "name")
	if !ok {
		t.Fatal("fruits[0].name missing")
	}
	if s, _ := name.AsString([]byte(src), arena); s != "apple" {
		t.Fatalf("fruits[0].name = %q; want \"apple\"", s)
	}
	physItem, ok := tbl.Get([]byte(src), &arena.strings, "physical")
	if !ok {
		t.Fatal("fruits[0].physical missing")
	}
	physTb, ok := physItem.AsTable(arena)
	if !ok {
		t.Fatal("fruits[0].physical is not a table")
	}
	color, ok := physTb.Get([]byte(src), &arena.strings, "color")
	if !ok {
		t.Fatal("fruits[0].physical.color missing")
	}
	if s, _ := color.AsString([]byte(src), arena); s != "red" {
		t.Fatalf("fruits[0].physical.color = %q; want \"red\"", s)
	}
}

func TestNestedArrayOfTablesUnderLastElement(t *testing.T) {
	src := "[[fruits]]\nname = \"apple\"\n" +
		"[[fruits.varieties]]\nname = \"red delicious\"\n" +
		"[[fruits.varieties]]\nname = \"granny smith\"\n"
	root, arena := parseOK(t, src)

	item, ok := root.Get("fruits")
	if !ok {
		t.Fatal("fruits not found")
	}
	fruits, ok := item.AsArray(arena)
	if !ok || fruits.Len() != 1 {
		t.Fatalf("fruits = %v (len %d); want a 1-element array", item.Kind(), fruits.Len())
	}
	elem, _ := fruits.Get(0)
	tbl, ok := elem.AsTable(arena)
	if !ok {
		t.Fatal("fruits[0] is not a table")
	}
	varItem, ok := tbl.Get([]byte(src), &arena.strings, "varieties")
	if !ok {
		t.Fatal("fruits[0].varieties missing")
	}
	varieties, ok := varItem.AsArray(arena)
	if !ok || varieties.Len() != 2 {
		t.Fatalf("fruits[0].varieties = %v (len %d); want a 2-element array", varItem.Kind(), varieties.Len())
	}
	for i, want := range []string{"red delicious", "granny smith"} {
		velem, _ := varieties.Get(i)
		vtb, ok := velem.AsTable(arena)
		if !ok {
			t.Fatalf("fruits[0].varieties[%d] is not a table", i)
		}
		nameItem, ok := vtb.Get([]byte(src), &arena.strings, "name")
		if !ok {
			t.Fatalf("fruits[0].varieties[%d].name missing", i)
		}
		if s, _ := nameItem.AsString([]byte(src), arena); s != want {
			t.Fatalf("fruits[0].varieties[%d].name = %q; want %q", i, s, want)
		}
	}
}

func TestStandardHeaderWithMultipleElementsTargetsLastOne(t *testing.T) {
	src := "[[servers]]\nhost = \"a\"\n[[servers]]\nhost = \"b\"\n[servers.settings]\nport = 80\n"
	root, arena := parseOK(t, src)

	item, ok := root.Get("servers")
	if !ok {
		t.Fatal("servers not found")
	}
	arr, ok := item.AsArray(arena)
	if !ok || arr.Len() != 2 {
		t.Fatalf("servers = %v (len %d); want a 2-element array", item.Kind(), arr.Len())
	}
	elem1, _ := arr.Get(1)
	tbl1, ok := elem1.AsTable(arena)
	if !ok {
		t.Fatal("servers[1] is not a table")
	}
	settings, ok := tbl1.Get([]byte(src), &arena.strings, "settings")
	if !ok {
		t.Fatal("servers[1].settings missing; [servers.settings] should target the last element")
	}
	settingsTb, ok := settings.AsTable(arena)
	if !ok {
		t.Fatal("servers[1].settings is not a table")
	}
	port, ok := settingsTb.Get([]byte(src), &arena.strings, "port")
	if !ok {
		t.Fatal("servers[1].settings.port missing")
	}
	v, _ := port.AsInt64()
	if v != 80 {
		t.Fatalf("servers[1].settings.port = %d; want 80", v)
	}
	elem0, _ := arr.Get(0)
	tbl0, _ := elem0.AsTable(arena)
	if _, ok := tbl0.Get([]byte(src), &arena.strings, "settings"); ok {
		t.Fatal("servers[0].settings should not have been set by a header targeting servers[1]")
	}
}

func TestInvalidDatetimeFeb29NonLeapYear(t *testing.T) {
	a := NewArena()
	_, err := Parse([]byte("d = 2023-02-29\n"), a)
	if err == nil {
		t.Fatal("expected an error for 2023-02-29")
	}
	e, _ := err.(*Error)
	if e.Kind != ErrInvalidDatetime {
		t.Fatalf("Kind = %v; want ErrInvalidDatetime", e.Kind)
	}
}

func TestInlineTableIsFrozen(t *testing.T) {
	a := NewArena()
	_, err := Parse([]byte("t = { a = 1 }\nt.b = 2\n"), a)
	if err == nil {
		t.Fatal("expected a duplicate/dotted-key error extending a frozen inline table")
	}
}

func TestArrayOfIntegers(t *testing.T) {
	src := "xs = [1, 2, 3]\n"
	root, arena := parseOK(t, src)
	item, _ := root.Get("xs")
	arr, ok := item.AsArray(arena)
	if !ok || arr.Len() != 3 {
		t.Fatalf("xs = %v, len %d; want array of 3", ok, arr.Len())
	}
}

func TestFloatsAndSpecials(t *testing.T) {
	cases := map[string]float64{
		"f = 3.14\n":  3.14,
		"f = -0.5\n":  -0.5,
		"f = 1e10\n":  1e10,
		"f = +inf\n":  posInf(),
	}
	for src, want := range cases {
		root, _ := parseOK(t, src)
		item, _ := root.Get("f")
		got, ok := item.AsFloat64()
		if !ok {
			t.Fatalf("%q: not a float", src)
		}
		if want != got && !(isInf(want) && isInf(got)) {
			t.Fatalf("%q: f = %v; want %v", src, got, want)
		}
	}
}

func posInf() float64 { return 1.0 / zero() }
func zero() float64   { return 0.0 }
func isInf(f float64) bool {
	return f > 1e300 || f < -1e300
}

func TestRadixIntegers(t *testing.T) {
	cases := map[string]int64{
		"n = 0xFF\n":       255,
		"n = 0o17\n":       15,
		"n = 0b1010\n":     10,
		"n = 1_000_000\n":  1000000,
	}
	for src, want := range cases {
		root, _ := parseOK(t, src)
		item, _ := root.Get("n")
		got, ok := item.AsInt64()
		if !ok || got != want {
			t.Fatalf("%q: n = %v, %v; want %d", src, got, ok, want)
		}
	}
}
