package tomlspanner

import "github.com/k0kubun/pp/v3"

// DumpTree renders root's parsed tree as an indented, syntax-highlighted
// dump of the equivalent Go values, for ad hoc debugging sessions. It is
// not part of the stable API surface; its output format may change
// between versions.
func DumpTree(root *Root) string {
	return pp.Sprint(toPlain(root, root.Item()))
}

func toPlain(root *Root, item Item) any {
	switch item.Kind() {
	case KindBool:
		v, _ := item.AsBool()
		return v
	case KindInteger:
		v, _ := item.AsInt64()
		return v
	case KindFloat:
		v, _ := item.AsFloat64()
		return v
	case KindString:
		v, _ := item.AsString(root.input, root.arena)
		return v
	case KindDateTime:
		dt, _ := item.AsDateTime(root.arena)
		return dt.String()
	case KindArray:
		arr, _ := item.AsArray(root.arena)
		out := make([]any, arr.Len())
		for i, e := range arr.Items() {
			out[i] = toPlain(root, e)
		}
		return out
	case KindTable:
		t, _ := item.AsTable(root.arena)
		out := make(map[string]any, t.Len())
		for _, e := range t.Entries() {
			out[e.key.String(root.input, &root.arena.strings)] = toPlain(root, e.item)
		}
		return out
	default:
		return nil
	}
}
