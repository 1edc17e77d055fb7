package tomlspanner

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/exrok/toml-spanner/internal/dbg"
)

// Parser holds the mutable state of a single Parse call: the shared
// cursor, the arena values are allocated into, recursion-depth tracking,
// and the table that bare/dotted key-value lines currently target.
// Grounded on the teacher's decoder (parse.go), which likewise bundles a
// cursor with its destination arena and options into one struct threaded
// through every parse* method by pointer receiver.
type Parser struct {
	cursor
	arena   *Arena
	opts    parseOptions
	depth   int
	current tableHandle
	root    tableHandle
}

// Parse parses input into a fresh document tree backed by a. The
// returned Root is valid only as long as a is not reused or mutated.
func Parse(input []byte, a *Arena, opts ...ParseOption) (*Root, error) {
	o := defaultParseOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	if len(input) > o.maxInput {
		return nil, &Error{Kind: ErrInputTooLarge, Span: Span{Start: 0, End: len(input)}}
	}
	// The top-level table's own Item spans the whole document (root.go's
	// Item), and every span's length is packed into 20 bits regardless of
	// what kind of value it belongs to, so no document longer than
	// MaxValueLength can be represented without truncating that field.
	if len(input) > MaxValueLength {
		return nil, &Error{Kind: ErrInputTooLarge, Span: Span{Start: 0, End: len(input)}}
	}

	root := a.allocTable(Table{form: formImplicit})
	p := &Parser{
		cursor:  cursor{input: input},
		arena:   a,
		opts:    o,
		current: root,
		root:    root,
	}
	p.skipBOM()
	if err := p.parseDocument(); err != nil {
		return nil, err
	}
	finalizeTables(a, input)
	return newRoot(a, input, root), nil
}

func (p *Parser) skipBOM() {
	p.consumeStr("\xEF\xBB\xBF")
}

// parseDocument drives the top-level statement loop: blank lines and
// comments between statements, then either a table header or a
// key-value line, each terminated by a line end (or EOF).
func (p *Parser) parseDocument() *Error {
	for {
		if err := p.skipBlankAndComments(); err != nil {
			return err
		}
		if p.eof() {
			return nil
		}
		b, _ := p.peek()
		var err *Error
		if b == '[' {
			err = p.parseTableHeader()
		} else {
			err = p.parseKeyValueLine()
		}
		if err != nil {
			return err
		}
		if err := p.consumeLineEnd(); err != nil {
			return err
		}
	}
}

// skipBlankAndComments consumes any run of whitespace-only and
// comment-only lines, stopping at the first byte of real content (or
// EOF).
func (p *Parser) skipBlankAndComments() *Error {
	for {
		p.skipHSpace()
		b, ok := p.peek()
		if !ok {
			return nil
		}
		if b == '#' {
			if err := p.skipToEOL(); err != nil {
				return err
			}
			b, ok = p.peek()
			if !ok {
				return nil
			}
		}
		if b == '\n' {
			p.pos++
			continue
		}
		if b == '\r' {
			nb, ok2 := p.peekAt(1)
			if !ok2 || nb != '\n' {
				return p.errHere(ErrUnexpectedChar)
			}
			p.pos += 2
			continue
		}
		return nil
	}
}

// consumeLineEnd requires that only whitespace, an optional comment, and
// a newline (or EOF) remain before the next statement.
func (p *Parser) consumeLineEnd() *Error {
	p.skipHSpace()
	b, ok := p.peek()
	if !ok {
		return nil
	}
	if b == '#' {
		if err := p.skipToEOL(); err != nil {
			return err
		}
		b, ok = p.peek()
		if !ok {
			return nil
		}
	}
	if b == '\n' {
		p.pos++
		return nil
	}
	if b == '\r' {
		nb, ok2 := p.peekAt(1)
		if ok2 && nb == '\n' {
			p.pos += 2
			return nil
		}
	}
	return p.errHere(ErrUnexpectedChar)
}

// ---- keys -----------------------------------------------------------

func (p *Parser) parseKey() (Key, *Error) {
	b, ok := p.peek()
	if !ok {
		return Key{}, p.errHere(ErrUnexpectedEOF)
	}
	start := p.pos
	switch {
	case b == '"':
		s, span, err := p.parseBasicString(false)
		if err != nil {
			return Key{}, err
		}
		return Key{Name: s, Span: span}, nil
	case b == '\'':
		s, span, err := p.parseLiteralString(false)
		if err != nil {
			return Key{}, err
		}
		return Key{Name: s, Span: span}, nil
	case isBareKeyByte(b):
		for {
			c, ok := p.peek()
			if !ok || !isBareKeyByte(c) {
				break
			}
			p.pos++
		}
		span := Span{Start: start, End: p.pos}
		return Key{Name: newInputStr(start, p.pos), Span: span}, nil
	default:
		return Key{}, p.errHere(ErrUnexpectedChar)
	}
}

// parseDottedKeyPath parses a.b.c, rejecting a key with more segments
// than the depth limit. The segment count is checked on its own; it is
// not added to the nesting depth of the value that follows.
func (p *Parser) parseDottedKeyPath() ([]Key, *Error) {
	k, err := p.parseKey()
	if err != nil {
		return nil, err
	}
	keys := []Key{k}
	for {
		save := p.pos
		p.skipHSpace()
		if !p.consume('.') {
			p.pos = save
			break
		}
		p.skipHSpace()
		k, err := p.parseKey()
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	if len(keys) > p.opts.maxDepth {
		return nil, p.errAt(ErrRecursionLimit, keys[0].Span.Start, keys[len(keys)-1].Span.End)
	}
	return keys, nil
}

// ---- tables -----------------------------------------------------------

// navigatePath walks keys from the table at start, creating implicit
// tables as needed, and returns the handle of the table the path ends
// at. newForm is the sourceForm given to any table created along the
// way: formImplicit for a table-header path, formDottedIntermediate for
// a dotted key-value or inline-table path. The freezing matrix
// (Table.dottedExtensible/headerReopenable) is enforced at each step.
func (p *Parser) navigatePath(start tableHandle, keys []Key, newForm sourceForm) (tableHandle, *Error) {
	cur := start
	for _, k := range keys {
		t := p.arena.table(cur)
		name := k.String(p.input, &p.arena.strings)
		idx := t.indexOf(p.input, &p.arena.strings, name)

		if idx < 0 {
			if !t.dottedExtensible() {
				return nilHandle, p.conflictErr(ErrDuplicateKey, k.Span, Span{})
			}
			h := p.arena.allocTable(Table{form: newForm})
			item := newTableItem(k.Span, h, newForm)
			t2 := p.arena.table(cur)
			t2.append(k, item)
			p.arena.setTable(cur, t2)
			cur = h
			continue
		}

		existing := t.entries[idx].item
		childH, err := p.descendInto(existing, k, t.entries[idx].key.Span)
		if err != nil {
			return nilHandle, err
		}
		cur = childH
	}
	return cur, nil
}

// descendInto resolves one path segment whose existing value is item,
// returning the table handle a path walk should continue from. A plain
// table descends into itself. An array of tables - the only other
// traversable kind a dotted key or header path may cross - descends into
// its last element, per TOML's rule that "[[fruits]]" followed by
// "[fruits.physical]" or "[[fruits.varieties]]" targets the most
// recently appended fruits table. Anything else is not navigable.
func (p *Parser) descendInto(existing Item, k Key, secondary Span) (tableHandle, *Error) {
	switch existing.Kind() {
	case KindTable:
		child := p.arena.table(existing.handle())
		if !child.dottedExtensible() {
			return nilHandle, p.conflictErr(ErrDuplicateKey, k.Span, secondary)
		}
		return existing.handle(), nil
	case KindArray:
		arr := p.arena.array(existing.handle())
		if arr.Len() == 0 {
			return nilHandle, p.conflictErr(ErrDottedKeyInvalidType, k.Span, secondary)
		}
		last, _ := arr.Get(arr.Len() - 1)
		if last.Kind() != KindTable {
			return nilHandle, p.conflictErr(ErrDottedKeyInvalidType, k.Span, secondary)
		}
		child := p.arena.table(last.handle())
		if !child.dottedExtensible() {
			return nilHandle, p.conflictErr(ErrDuplicateKey, k.Span, secondary)
		}
		return last.handle(), nil
	default:
		return nilHandle, p.conflictErr(ErrDottedKeyInvalidType, k.Span, secondary)
	}
}

// assignFinal assigns item to the terminal key of a key-value line or
// inline-table entry, checking for duplicates and table freezing first.
func (p *Parser) assignFinal(tableH tableHandle, k Key, item Item) *Error {
	t := p.arena.table(tableH)
	name := k.String(p.input, &p.arena.strings)
	if idx := t.indexOf(p.input, &p.arena.strings, name); idx >= 0 {
		return p.conflictErr(ErrDuplicateKey, k.Span, t.entries[idx].key.Span)
	}
	if !t.dottedExtensible() {
		return p.conflictErr(ErrDuplicateKey, k.Span, Span{})
	}
	t2 := p.arena.table(tableH)
	t2.append(k, item)
	p.arena.setTable(tableH, t2)
	return nil
}

// parseTableHeader parses a standard [a.b.c] or array-of-tables
// [[a.b.c]] header and updates p.current to the table it selects.
func (p *Parser) parseTableHeader() *Error {
	start := p.pos
	p.pos++ // first '['
	arrayOfTables := false
	if b, ok := p.peek(); ok && b == '[' {
		arrayOfTables = true
		p.pos++
	}
	p.skipHSpace()
	keys, err := p.parseDottedKeyPath()
	if err != nil {
		return err
	}
	p.skipHSpace()
	if !p.consume(']') {
		return p.errHere(ErrUnexpectedChar)
	}
	if arrayOfTables && !p.consume(']') {
		return p.errHere(ErrUnexpectedChar)
	}
	headerSpan := Span{Start: start, End: p.pos}

	parent, perr := p.navigatePath(p.root, keys[:len(keys)-1], formImplicit)
	if perr != nil {
		return perr
	}
	last := keys[len(keys)-1]
	name := last.String(p.input, &p.arena.strings)
	parentTable := p.arena.table(parent)
	idx := parentTable.indexOf(p.input, &p.arena.strings, name)

	if arrayOfTables {
		return p.openArrayOfTablesElement(parent, parentTable, idx, last, headerSpan)
	}
	return p.openStandardHeader(parent, parentTable, idx, last, headerSpan)
}

func (p *Parser) openArrayOfTablesElement(parent tableHandle, parentTable Table, idx int, last Key, headerSpan Span) *Error {
	var arrH arrayHandle
	if idx < 0 {
		if !parentTable.dottedExtensible() {
			return p.conflictErr(ErrDuplicateKey, last.Span, Span{})
		}
		arrH = p.arena.allocArray(Array{})
		arrItem := newArrayItem(headerSpan, arrH)
		pt := p.arena.table(parent)
		pt.append(last, arrItem)
		p.arena.setTable(parent, pt)
	} else {
		existing := parentTable.entries[idx].item
		if existing.Kind() != KindArray {
			return p.conflictErr(ErrDottedKeyInvalidType, last.Span, parentTable.entries[idx].key.Span)
		}
		arrH = existing.handle()
	}

	elemH := p.arena.allocTable(Table{form: formArrayElement})
	elemItem := newTableItem(headerSpan, elemH, formArrayElement)
	arr := p.arena.array(arrH)
	arr.append(elemItem)
	p.arena.setArray(arrH, arr)

	p.current = elemH
	return nil
}

func (p *Parser) openStandardHeader(parent tableHandle, parentTable Table, idx int, last Key, headerSpan Span) *Error {
	if idx < 0 {
		if !parentTable.dottedExtensible() {
			return p.conflictErr(ErrDuplicateKey, last.Span, Span{})
		}
		h := p.arena.allocTable(Table{form: formStandardHeader})
		item := newTableItem(headerSpan, h, formStandardHeader)
		pt := p.arena.table(parent)
		pt.append(last, item)
		p.arena.setTable(parent, pt)
		p.current = h
		return nil
	}

	existing := parentTable.entries[idx].item
	if existing.Kind() != KindTable {
		return p.conflictErr(ErrDuplicateKey, last.Span, parentTable.entries[idx].key.Span)
	}
	h := existing.handle()
	t := p.arena.table(h)
	if !t.headerReopenable() {
		return p.conflictErr(ErrDuplicateKey, last.Span, parentTable.entries[idx].key.Span)
	}
	// Only a formImplicit table (created as an ancestor on a [header] or
	// [[header]] path, never yet given its own header) may be reopened
	// this way; stamp it as the real header it now is.
	t.form = formStandardHeader
	p.arena.setTable(h, t)
	p.current = h
	return nil
}

// ---- key-value lines --------------------------------------------------

func (p *Parser) parseKeyValueLine() *Error {
	keys, err := p.parseDottedKeyPath()
	if err != nil {
		return err
	}
	p.skipHSpace()
	if !p.consume('=') {
		return p.errHere(ErrUnexpectedChar)
	}
	p.skipHSpace()
	item, err := p.parseValue(0)
	if err != nil {
		return err
	}

	target, err := p.navigatePath(p.current, keys[:len(keys)-1], formDottedIntermediate)
	if err != nil {
		return err
	}
	return p.assignFinal(target, keys[len(keys)-1], item)
}

// ---- values -------------------------------------------------------------

func (p *Parser) parseValue(depth int) (Item, *Error) {
	b, ok := p.peek()
	if !ok {
		return Item{}, p.errHere(ErrUnexpectedEOF)
	}
	switch {
	case b == '"' || b == '\'':
		return p.parseStringValue()
	case b == '[':
		return p.parseArray(depth)
	case b == '{':
		return p.parseInlineTable(depth)
	case p.matchAt(p.pos, "true"):
		start := p.pos
		p.pos += 4
		return newBoolItem(Span{Start: start, End: p.pos}, true), nil
	case p.matchAt(p.pos, "false"):
		start := p.pos
		p.pos += 5
		return newBoolItem(Span{Start: start, End: p.pos}, false), nil
	case isDigit(b) || b == '+' || b == '-' || p.matchAt(p.pos, "inf") || p.matchAt(p.pos, "nan"):
		return p.parseNumberOrDateTime()
	default:
		return Item{}, p.errHere(ErrUnexpectedChar)
	}
}

// matchAt reports whether s occurs at pos, without consuming it.
func (p *Parser) matchAt(pos int, s string) bool {
	if pos+len(s) > len(p.input) {
		return false
	}
	return string(p.input[pos:pos+len(s)]) == s
}

// ---- strings ------------------------------------------------------------

func (p *Parser) parseStringValue() (Item, *Error) {
	b, _ := p.peek()
	if b == '"' {
		multiline := p.matchAt(p.pos, `"""`)
		s, span, err := p.parseBasicString(multiline)
		if err != nil {
			return Item{}, err
		}
		return newStringItem(span, s), nil
	}
	multiline := p.matchAt(p.pos, `'''`)
	s, span, err := p.parseLiteralString(multiline)
	if err != nil {
		return Item{}, err
	}
	return newStringItem(span, s), nil
}

// parseBasicString parses a "..." or, when multiline, a """...""" basic
// string starting at the cursor. It is also used for bare-quoted keys
// (multiline=false). Content with no escapes aliases the input directly;
// content with escapes is decoded into the arena's string storage.
func (p *Parser) parseBasicString(multiline bool) (Str, Span, *Error) {
	start := p.pos
	openLen := 1
	if multiline {
		openLen = 3
	}
	p.pos += openLen
	if multiline {
		if b, ok := p.peek(); ok && b == '\n' {
			p.pos++
		} else if ok && b == '\r' {
			if nb, ok2 := p.peekAt(1); ok2 && nb == '\n' {
				p.pos += 2
			}
		}
	}
	contentStart := p.pos
	escaped := false
	var arenaStart int

	for {
		b, ok := p.peek()
		if !ok {
			return Str{}, Span{}, p.errAt(ErrUnexpectedEOF, start, p.pos)
		}
		switch {
		case b == '\\':
			if !escaped {
				escaped = true
				arenaStart, _ = p.arena.strings.Append(p.input[contentStart:p.pos])
			}
			if err := p.decodeEscape(multiline); err != nil {
				return Str{}, Span{}, err
			}
		case b == '"':
			run := 1
			if multiline {
				for {
					c, ok2 := p.peekAt(run)
					if !ok2 || c != '"' {
						break
					}
					run++
				}
			}
			if run < openLen {
				if escaped {
					p.arena.strings.Append(p.input[p.pos : p.pos+run])
				}
				p.pos += run
				continue
			}
			literalQuotes := run - openLen
			if literalQuotes > 2 {
				return Str{}, Span{}, p.errAt(ErrUnexpectedChar, p.pos, p.pos+run)
			}
			if literalQuotes > 0 && escaped {
				p.arena.strings.Append(p.input[p.pos : p.pos+literalQuotes])
			}
			contentEnd := p.pos + literalQuotes
			var s Str
			if escaped {
				s = newArenaStr(arenaStart, p.arena.strings.Len())
			} else {
				s = newInputStr(contentStart, contentEnd)
			}
			p.pos = contentEnd + openLen
			return s, Span{Start: start, End: p.pos}, nil
		case !multiline && b == '\n':
			return Str{}, Span{}, p.errHere(ErrUnexpectedChar)
		case b == '\r':
			nb, ok2 := p.peekAt(1)
			if !ok2 || nb != '\n' {
				return Str{}, Span{}, p.errHere(ErrUnexpectedChar)
			}
			if escaped {
				p.arena.strings.Append(p.input[p.pos : p.pos+2])
			}
			p.pos += 2
		case b < 0x20 && b != '\t' && b != '\n':
			return Str{}, Span{}, p.errHere(ErrUnexpectedChar)
		case b >= 0x80:
			n := decodeUTF8At(p.input, p.pos)
			if n == 0 {
				return Str{}, Span{}, p.errHere(ErrUnexpectedChar)
			}
			if escaped {
				p.arena.strings.Append(p.input[p.pos : p.pos+n])
			}
			p.pos += n
		default:
			if escaped {
				p.arena.strings.AppendByte(b)
			}
			p.pos++
		}
	}
}

// parseLiteralString parses a '...' or, when multiline, a '''...'''
// literal string. Literal strings never process escapes, so the result
// always aliases the input.
func (p *Parser) parseLiteralString(multiline bool) (Str, Span, *Error) {
	start := p.pos
	openLen := 1
	if multiline {
		openLen = 3
	}
	p.pos += openLen
	if multiline {
		if b, ok := p.peek(); ok && b == '\n' {
			p.pos++
		} else if ok && b == '\r' {
			if nb, ok2 := p.peekAt(1); ok2 && nb == '\n' {
				p.pos += 2
			}
		}
	}
	contentStart := p.pos

	for {
		b, ok := p.peek()
		if !ok {
			return Str{}, Span{}, p.errAt(ErrUnexpectedEOF, start, p.pos)
		}
		switch {
		case b == '\'':
			run := 1
			if multiline {
				for {
					c, ok2 := p.peekAt(run)
					if !ok2 || c != '\'' {
						break
					}
					run++
				}
			}
			if run < openLen {
				p.pos += run
				continue
			}
			literalQuotes := run - openLen
			if literalQuotes > 2 {
				return Str{}, Span{}, p.errAt(ErrUnexpectedChar, p.pos, p.pos+run)
			}
			contentEnd := p.pos + literalQuotes
			s := newInputStr(contentStart, contentEnd)
			p.pos = contentEnd + openLen
			return s, Span{Start: start, End: p.pos}, nil
		case !multiline && b == '\n':
			return Str{}, Span{}, p.errHere(ErrUnexpectedChar)
		case b == '\r':
			nb, ok2 := p.peekAt(1)
			if !ok2 || nb != '\n' {
				return Str{}, Span{}, p.errHere(ErrUnexpectedChar)
			}
			p.pos += 2
		case b < 0x20 && b != '\t' && b != '\n':
			return Str{}, Span{}, p.errHere(ErrUnexpectedChar)
		case b >= 0x80:
			n := decodeUTF8At(p.input, p.pos)
			if n == 0 {
				return Str{}, Span{}, p.errHere(ErrUnexpectedChar)
			}
			p.pos += n
		default:
			p.pos++
		}
	}
}

// decodeEscape consumes a backslash escape sequence (the cursor sits on
// the backslash) and appends its decoded bytes to the arena's string
// storage.
func (p *Parser) decodeEscape(multiline bool) *Error {
	start := p.pos
	p.pos++
	b, ok := p.peek()
	if !ok {
		return p.errAt(ErrUnexpectedEOF, start, p.pos)
	}
	switch b {
	case 'b':
		p.arena.strings.AppendByte('\b')
		p.pos++
	case 't':
		p.arena.strings.AppendByte('\t')
		p.pos++
	case 'n':
		p.arena.strings.AppendByte('\n')
		p.pos++
	case 'f':
		p.arena.strings.AppendByte('\f')
		p.pos++
	case 'r':
		p.arena.strings.AppendByte('\r')
		p.pos++
	case '"':
		p.arena.strings.AppendByte('"')
		p.pos++
	case '\\':
		p.arena.strings.AppendByte('\\')
		p.pos++
	case 'e':
		p.arena.strings.AppendByte(0x1B)
		p.pos++
	case 'x':
		p.pos++
		v, err := p.readHexDigits(2)
		if err != nil {
			return err
		}
		p.arena.strings.AppendByte(byte(v))
	case 'u':
		p.pos++
		v, err := p.readHexDigits(4)
		if err != nil {
			return err
		}
		if !appendRuneToArenaBytes(&p.arena.strings, rune(v)) {
			return p.errAt(ErrInvalidUnicode, start, p.pos)
		}
	case 'U':
		p.pos++
		v, err := p.readHexDigits(8)
		if err != nil {
			return err
		}
		if !appendRuneToArenaBytes(&p.arena.strings, rune(v)) {
			return p.errAt(ErrInvalidUnicode, start, p.pos)
		}
	case '\n':
		if !multiline {
			return p.errAt(ErrInvalidEscape, start, p.pos+1)
		}
		p.pos++
		p.skipLineTrimWhitespace()
	case '\r':
		if !multiline {
			return p.errAt(ErrInvalidEscape, start, p.pos+1)
		}
		nb, ok2 := p.peekAt(1)
		if !ok2 || nb != '\n' {
			return p.errHere(ErrUnexpectedChar)
		}
		p.pos += 2
		p.skipLineTrimWhitespace()
	case ' ', '\t':
		if !multiline {
			return p.errAt(ErrInvalidEscape, start, p.pos+1)
		}
		save := p.pos
		p.skipHSpace()
		nb, ok2 := p.peek()
		if !ok2 || (nb != '\n' && nb != '\r') {
			p.pos = save
			return p.errAt(ErrInvalidEscape, start, p.pos+1)
		}
		if nb == '\r' {
			nb2, ok3 := p.peekAt(1)
			if !ok3 || nb2 != '\n' {
				return p.errHere(ErrUnexpectedChar)
			}
			p.pos += 2
		} else {
			p.pos++
		}
		p.skipLineTrimWhitespace()
	default:
		return p.errAt(ErrInvalidEscape, start, p.pos+1)
	}
	return nil
}

// skipLineTrimWhitespace implements the "line-ending backslash" rule: a
// backslash followed by a newline (possibly with trailing horizontal
// whitespace first) elides that newline and all further whitespace up
// to the next non-whitespace character.
func (p *Parser) skipLineTrimWhitespace() {
	for {
		b, ok := p.peek()
		if !ok {
			return
		}
		switch b {
		case ' ', '\t', '\n':
			p.pos++
		case '\r':
			if nb, ok2 := p.peekAt(1); ok2 && nb == '\n' {
				p.pos += 2
			} else {
				return
			}
		default:
			return
		}
	}
}

func (p *Parser) readHexDigits(n int) (uint32, *Error) {
	start := p.pos
	var v uint32
	for i := 0; i < n; i++ {
		b, ok := p.peek()
		if !ok || !isHexDigit(b) {
			return 0, p.errAt(ErrInvalidEscape, start, p.pos)
		}
		v = v<<4 | uint32(hexDigitValue(b))
		p.pos++
	}
	return v, nil
}

func hexDigitValue(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}

func appendRuneToArenaBytes(out *arenaBytes, r rune) bool {
	if r > 0x10FFFF || (r >= 0xD800 && r <= 0xDFFF) {
		return false
	}
	var buf [4]byte
	n := utf8.EncodeRune(buf[:], r)
	out.Append(buf[:n])
	return true
}

// ---- arrays and inline tables ------------------------------------------

func (p *Parser) parseArray(depth int) (Item, *Error) {
	start := p.pos
	p.pos++ // '['
	if depth+1 > p.opts.maxDepth {
		return Item{}, p.errAt(ErrRecursionLimit, start, p.pos)
	}
	arr := Array{}
	for {
		if err := p.skipBracedWS(); err != nil {
			return Item{}, err
		}
		b, ok := p.peek()
		if !ok {
			return Item{}, p.errAt(ErrUnexpectedEOF, start, p.pos)
		}
		if b == ']' {
			p.pos++
			break
		}
		item, err := p.parseValue(depth + 1)
		if err != nil {
			return Item{}, err
		}
		arr.append(item)

		if err := p.skipBracedWS(); err != nil {
			return Item{}, err
		}
		b, ok = p.peek()
		if !ok {
			return Item{}, p.errAt(ErrUnexpectedEOF, start, p.pos)
		}
		if b == ',' {
			p.pos++
			continue
		}
		if b == ']' {
			p.pos++
			break
		}
		return Item{}, p.errHere(ErrUnexpectedChar)
	}
	h := p.arena.allocArray(arr)
	return newArrayItem(Span{Start: start, End: p.pos}, h), nil
}

// skipBracedWS skips whitespace, newlines, and comments permitted inside
// [ ] and { } (TOML 1.1 relaxes the classic "no newlines in inline
// tables" rule; arrays have always allowed them).
func (p *Parser) skipBracedWS() *Error {
	for {
		b, ok := p.peek()
		if !ok {
			return nil
		}
		switch {
		case b == ' ' || b == '\t':
			p.pos++
		case b == '#':
			if err := p.skipToEOL(); err != nil {
				return err
			}
		case b == '\n':
			p.pos++
		case b == '\r':
			nb, ok2 := p.peekAt(1)
			if !ok2 || nb != '\n' {
				return p.errHere(ErrUnexpectedChar)
			}
			p.pos += 2
		default:
			return nil
		}
	}
}

func (p *Parser) parseInlineTable(depth int) (Item, *Error) {
	start := p.pos
	p.pos++ // '{'
	if depth+1 > p.opts.maxDepth {
		return Item{}, p.errAt(ErrRecursionLimit, start, p.pos)
	}
	h := p.arena.allocTable(Table{form: formInlineTable})

	if err := p.skipBracedWS(); err != nil {
		return Item{}, err
	}
	if b, ok := p.peek(); ok && b == '}' {
		p.pos++
		return p.closeInlineTable(h, Span{Start: start, End: p.pos})
	}

	for {
		keys, err := p.parseDottedKeyPath()
		if err != nil {
			return Item{}, err
		}
		p.skipHSpace()
		if !p.consume('=') {
			return Item{}, p.errHere(ErrUnexpectedChar)
		}
		p.skipHSpace()
		item, err := p.parseValue(depth + 1)
		if err != nil {
			return Item{}, err
		}

		target, err := p.navigatePath(h, keys[:len(keys)-1], formDottedIntermediate)
		if err != nil {
			return Item{}, err
		}
		if err := p.assignFinal(target, keys[len(keys)-1], item); err != nil {
			return Item{}, err
		}

		if err := p.skipBracedWS(); err != nil {
			return Item{}, err
		}
		b, ok := p.peek()
		if !ok {
			return Item{}, p.errAt(ErrUnexpectedEOF, start, p.pos)
		}
		if b == ',' {
			p.pos++
			if err := p.skipBracedWS(); err != nil {
				return Item{}, err
			}
			if b2, ok2 := p.peek(); ok2 && b2 == '}' {
				p.pos++
				return p.closeInlineTable(h, Span{Start: start, End: p.pos})
			}
			continue
		}
		if b == '}' {
			p.pos++
			return p.closeInlineTable(h, Span{Start: start, End: p.pos})
		}
		return Item{}, p.errHere(ErrUnexpectedChar)
	}
}

func (p *Parser) closeInlineTable(h tableHandle, span Span) (Item, *Error) {
	t := p.arena.table(h)
	t.freeze()
	p.arena.setTable(h, t)
	return newTableItem(span, h, formInlineTable), nil
}

// ---- numbers and datetimes ----------------------------------------------

// parseNumberOrDateTime dispatches the byte run starting at the cursor
// to an integer, float, or datetime/time sub-parser, since TOML's
// numeric and temporal literals share a leading digit-or-sign shape and
// can only be told apart by scanning ahead.
func (p *Parser) parseNumberOrDateTime() (Item, *Error) {
	start := p.pos

	if b, ok := p.peek(); ok && b == '0' {
		if nb, ok2 := p.peekAt(1); ok2 {
			switch nb {
			case 'x':
				return p.parseRadixInt(start, 16)
			case 'o':
				return p.parseRadixInt(start, 8)
			case 'b':
				return p.parseRadixInt(start, 2)
			}
		}
	}

	sign := 1
	signLen := 0
	if b, ok := p.peek(); ok && (b == '+' || b == '-') {
		if b == '-' {
			sign = -1
		}
		signLen = 1
	}

	if p.matchAt(start+signLen, "inf") {
		p.pos = start + signLen + 3
		return newFloatItem(Span{Start: start, End: p.pos}, math.Inf(sign)), nil
	}
	if p.matchAt(start+signLen, "nan") {
		p.pos = start + signLen + 3
		v := math.NaN()
		if sign < 0 {
			v = math.Copysign(v, -1)
		}
		return newFloatItem(Span{Start: start, End: p.pos}, v), nil
	}

	digitsStart := start + signLen
	digitRunLen := p.scanDigitRunLen(digitsStart)
	if digitRunLen == 0 {
		p.pos = digitsStart
		return Item{}, p.errHere(ErrInvalidNumber)
	}
	after := digitsStart + digitRunLen

	if signLen == 0 && digitRunLen == 4 && after < len(p.input) && p.input[after] == '-' {
		p.pos = start
		return p.parseDateTimeFrom(start)
	}
	if signLen == 0 && digitRunLen == 2 && after < len(p.input) && p.input[after] == ':' {
		p.pos = start
		return p.parseLocalTimeFrom(start)
	}

	if after < len(p.input) && (p.input[after] == '.' || p.input[after] == 'e' || p.input[after] == 'E') {
		p.pos = digitsStart
		intDigits, ok := p.scanDigitsClean()
		if !ok || (len(intDigits) > 1 && intDigits[0] == '0') {
			return Item{}, p.errAt(ErrInvalidFloat, start, p.pos)
		}
		return p.finishFloat(start, sign, intDigits)
	}

	p.pos = digitsStart
	return p.finishInteger(start, sign)
}

// scanDigitRunLen reports the length of the [0-9_] run starting at from,
// without moving the cursor.
func (p *Parser) scanDigitRunLen(from int) int {
	i := from
	for i < len(p.input) && (isDigit(p.input[i]) || p.input[i] == '_') {
		i++
	}
	return i - from
}

// scanDigitsClean consumes a [0-9_] run at the cursor and returns its
// digits with underscores removed, rejecting a leading, trailing, or
// doubled underscore.
func (p *Parser) scanDigitsClean() ([]byte, bool) {
	start := p.pos
	for {
		b, ok := p.peek()
		if !ok || !(isDigit(b) || b == '_') {
			break
		}
		p.pos++
	}
	return stripDigitUnderscores(p.input[start:p.pos])
}

func stripDigitUnderscores(raw []byte) ([]byte, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	if raw[0] == '_' || raw[len(raw)-1] == '_' {
		return nil, false
	}
	out := make([]byte, 0, len(raw))
	prevUnderscore := false
	for _, b := range raw {
		if b == '_' {
			if prevUnderscore {
				return nil, false
			}
			prevUnderscore = true
			continue
		}
		prevUnderscore = false
		out = append(out, b)
	}
	return out, true
}

func (p *Parser) parseRadixInt(start, base int) (Item, *Error) {
	p.pos = start + 2 // skip "0x" / "0o" / "0b"
	var digits []byte
	first := true
	lastWasUnderscore := false
	for {
		b, ok := p.peek()
		if !ok {
			break
		}
		if b == '_' {
			if first || lastWasUnderscore {
				return Item{}, p.errHere(ErrInvalidNumber)
			}
			lastWasUnderscore = true
			p.pos++
			continue
		}
		if !radixDigitValid(b, base) {
			break
		}
		digits = append(digits, b)
		lastWasUnderscore = false
		first = false
		p.pos++
	}
	if len(digits) == 0 || lastWasUnderscore {
		return Item{}, p.errAt(ErrInvalidNumber, start, p.pos)
	}
	v, err := strconv.ParseUint(string(digits), base, 64)
	if err != nil {
		return Item{}, p.errAt(ErrInvalidNumber, start, p.pos)
	}
	return newIntItem(Span{Start: start, End: p.pos}, int64(v)), nil
}

func radixDigitValid(b byte, base int) bool {
	switch base {
	case 16:
		return isHexDigit(b)
	case 8:
		return b >= '0' && b <= '7'
	case 2:
		return b == '0' || b == '1'
	default:
		return false
	}
}

func (p *Parser) finishInteger(start, sign int) (Item, *Error) {
	digits, ok := p.scanDigitsClean()
	if !ok {
		return Item{}, p.errAt(ErrInvalidNumber, start, p.pos)
	}
	if len(digits) > 1 && digits[0] == '0' {
		return Item{}, p.errAt(ErrInvalidNumber, start, p.pos)
	}
	s := string(digits)
	if sign < 0 {
		s = "-" + s
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Item{}, p.errAt(ErrInvalidNumber, start, p.pos)
	}
	return newIntItem(Span{Start: start, End: p.pos}, v), nil
}

func (p *Parser) finishFloat(start, sign int, intDigits []byte) (Item, *Error) {
	var b strings.Builder
	if sign < 0 {
		b.WriteByte('-')
	}
	b.Write(intDigits)

	if c, ok := p.peek(); ok && c == '.' {
		p.pos++
		b.WriteByte('.')
		frac, ok2 := p.scanDigitsClean()
		if !ok2 {
			return Item{}, p.errAt(ErrInvalidFloat, start, p.pos)
		}
		b.Write(frac)
	}

	if c, ok := p.peek(); ok && (c == 'e' || c == 'E') {
		p.pos++
		b.WriteByte('e')
		if c2, ok2 := p.peek(); ok2 && (c2 == '+' || c2 == '-') {
			b.WriteByte(c2)
			p.pos++
		}
		exp, ok3 := p.scanDigitsClean()
		if !ok3 {
			return Item{}, p.errAt(ErrInvalidFloat, start, p.pos)
		}
		b.Write(exp)
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return Item{}, p.errAt(ErrInvalidFloat, start, p.pos)
	}
	return newFloatItem(Span{Start: start, End: p.pos}, v), nil
}

func (p *Parser) readFixedDigits(n int) (int, bool) {
	if p.pos+n > len(p.input) {
		return 0, false
	}
	v := 0
	for i := 0; i < n; i++ {
		b := p.input[p.pos+i]
		if !isDigit(b) {
			return 0, false
		}
		v = v*10 + int(b-'0')
	}
	p.pos += n
	return v, true
}

func (p *Parser) parseDateTimeFrom(start int) (Item, *Error) {
	year, ok := p.readFixedDigits(4)
	if !ok || !p.consume('-') {
		return Item{}, p.errAt(ErrInvalidDatetime, start, p.pos)
	}
	month, ok := p.readFixedDigits(2)
	if !ok || !p.consume('-') {
		return Item{}, p.errAt(ErrInvalidDatetime, start, p.pos)
	}
	day, ok := p.readFixedDigits(2)
	if !ok {
		return Item{}, p.errAt(ErrInvalidDatetime, start, p.pos)
	}
	date := Date{Year: uint16(year), Month: uint8(month), Day: uint8(day)}
	if !validateDate(date) {
		return Item{}, p.errAt(ErrInvalidDatetime, start, p.pos)
	}

	sep, ok := p.peek()
	takesTime := ok && (sep == 'T' || sep == 't' || sep == ' ')
	if takesTime && sep == ' ' {
		if nb, ok2 := p.peekAt(1); !ok2 || !isDigit(nb) {
			takesTime = false
		}
	}
	if !takesTime {
		h := p.arena.allocDateTime(DateTime{Kind: LocalDateKind, Date: date})
		return newDateTimeItem(Span{Start: start, End: p.pos}, h), nil
	}
	p.pos++ // separator

	tm, ok := p.readTimeBody()
	if !ok || !validateTime(tm) {
		return Item{}, p.errAt(ErrInvalidDatetime, start, p.pos)
	}

	off, hasOffset, ok := p.readOffset()
	if !ok {
		return Item{}, p.errAt(ErrInvalidDatetime, start, p.pos)
	}
	var dt DateTime
	if hasOffset {
		dt = DateTime{Kind: OffsetDateTimeKind, Date: date, Time: tm, Offset: off}
	} else {
		dt = DateTime{Kind: LocalDateTimeKind, Date: date, Time: tm}
	}
	h := p.arena.allocDateTime(dt)
	return newDateTimeItem(Span{Start: start, End: p.pos}, h), nil
}

func (p *Parser) parseLocalTimeFrom(start int) (Item, *Error) {
	tm, ok := p.readTimeBody()
	if !ok || !validateTime(tm) {
		return Item{}, p.errAt(ErrInvalidDatetime, start, p.pos)
	}
	h := p.arena.allocDateTime(DateTime{Kind: LocalTimeKind, Time: tm})
	return newDateTimeItem(Span{Start: start, End: p.pos}, h), nil
}

// readTimeBody parses HH:MM[:SS[.fraction]]; a missing seconds component
// defaults to 0, a TOML 1.1 relaxation of RFC 3339.
func (p *Parser) readTimeBody() (Time, bool) {
	hour, ok := p.readFixedDigits(2)
	if !ok || !p.consume(':') {
		return Time{}, false
	}
	minute, ok := p.readFixedDigits(2)
	if !ok {
		return Time{}, false
	}

	second := 0
	if p.consume(':') {
		second, ok = p.readFixedDigits(2)
		if !ok {
			return Time{}, false
		}
	}

	var nanos uint32
	if b, ok := p.peek(); ok && b == '.' {
		save := p.pos
		p.pos++
		fracStart := p.pos
		for {
			c, ok2 := p.peek()
			if !ok2 || !isDigit(c) {
				break
			}
			p.pos++
		}
		if p.pos == fracStart {
			p.pos = save
		} else {
			nanos = fracToNanos(p.input[fracStart:p.pos])
		}
	}

	return Time{Hour: uint8(hour), Minute: uint8(minute), Second: uint8(second), Nanos: nanos}, true
}

func fracToNanos(digits []byte) uint32 {
	var buf [9]byte
	for i := range buf {
		buf[i] = '0'
	}
	n := len(digits)
	if n > 9 {
		n = 9
	}
	copy(buf[:], digits[:n])
	v, _ := strconv.ParseUint(string(buf[:]), 10, 32)
	return uint32(v)
}

// readOffset parses a trailing Z or +HH:MM/-HH:MM UTC offset. Absence of
// either (hasOffset == false) means the caller has a LocalDateTime, not
// a parse failure.
func (p *Parser) readOffset() (off Offset, hasOffset bool, ok bool) {
	b, peeked := p.peek()
	if !peeked {
		return Offset{}, false, true
	}
	if b == 'Z' || b == 'z' {
		p.pos++
		return Offset{Kind: OffsetZ}, true, true
	}
	if b != '+' && b != '-' {
		return Offset{}, false, true
	}
	kind := OffsetPlus
	if b == '-' {
		kind = OffsetMinus
	}
	p.pos++
	hour, ok1 := p.readFixedDigits(2)
	if !ok1 || !p.consume(':') {
		return Offset{}, false, false
	}
	minute, ok2 := p.readFixedDigits(2)
	if !ok2 {
		return Offset{}, false, false
	}
	result := Offset{Kind: kind, Hour: uint8(hour), Minute: uint8(minute)}
	if !validateOffset(result) {
		return Offset{}, false, false
	}
	return result, true, true
}

// ---- error construction --------------------------------------------------

func (p *Parser) errHere(kind ErrorKind) *Error {
	return &Error{Kind: kind, Span: Span{Start: p.pos, End: p.pos + 1}}
}

func (p *Parser) errAt(kind ErrorKind, start, end int) *Error {
	dbg.Log("parse error %v at [%d:%d]", kind, start, end)
	return &Error{Kind: kind, Span: Span{Start: start, End: end}}
}

// conflictErr builds a duplicate-key/type-conflict error, attaching
// secondary points at the original definition when one is known.
func (p *Parser) conflictErr(kind ErrorKind, span, secondary Span) *Error {
	e := Error{Kind: kind, Span: span}
	if secondary != (Span{}) {
		e = e.withSecondary(secondary)
	}
	return &e
}
