package tomlspanner

import (
	"reflect"
	"strings"

	"github.com/stoewer/go-strcase"
)

// Deserialize is implemented by pointer-receiver types that know how to
// populate themselves from a parsed Item. It plays the same role here
// that encoding/json's Unmarshaler plays for JSON: a type that wants
// full control over its own decoding (custom validation, a non-struct
// representation, a map field alongside named ones) implements it
// directly; everything else falls back to the reflective struct decoder
// in Decode.
type Deserialize interface {
	DeserializeTOML(ctx *Context, item Item) error
}

// Required decodes the table field named key into a T, which must
// implement Deserialize via a pointer receiver (the PT type parameter
// exists only to express that constraint; callers never name it
// explicitly since it is inferred from T).
func Required[T any, PT interface {
	*T
	Deserialize
}](h *TableHelper, key string) (T, bool) {
	var v T
	item, ok := h.Required(key)
	if !ok {
		return v, false
	}
	before := len(h.ctx.errors)
	if err := PT(&v).DeserializeTOML(h.ctx, item); err != nil {
		recordFailure(h.ctx, before, err, item.Span())
		return v, false
	}
	return v, true
}

// Optional decodes the table field named key into a T if present. A
// missing field is not an error; a present-but-invalid one is.
func Optional[T any, PT interface {
	*T
	Deserialize
}](h *TableHelper, key string) (T, bool) {
	var v T
	item, ok := h.Optional(key)
	if !ok {
		return v, false
	}
	before := len(h.ctx.errors)
	if err := PT(&v).DeserializeTOML(h.ctx, item); err != nil {
		recordFailure(h.ctx, before, err, item.Span())
		return v, false
	}
	return v, true
}

// Spanned wraps a decoded value together with the span it came from, for
// diagnostics that need to point back at a field's source location after
// decoding has finished.
type Spanned[T any] struct {
	Value T
	Span  Span
}

// RequiredSpanned is Required, additionally capturing the field's span.
func RequiredSpanned[T any, PT interface {
	*T
	Deserialize
}](h *TableHelper, key string) (Spanned[T], bool) {
	var v T
	item, ok := h.Required(key)
	if !ok {
		return Spanned[T]{}, false
	}
	before := len(h.ctx.errors)
	if err := PT(&v).DeserializeTOML(h.ctx, item); err != nil {
		recordFailure(h.ctx, before, err, item.Span())
		return Spanned[T]{}, false
	}
	return Spanned[T]{Value: v, Span: item.Span()}, true
}

// RequiredSlice and OptionalSlice decode an array field into a []T,
// element by element, recording one error per failing element rather
// than aborting at the first.

func RequiredSlice[T any, PT interface {
	*T
	Deserialize
}](h *TableHelper, key string) ([]T, bool) {
	item, ok := h.Required(key)
	if !ok {
		return nil, false
	}
	return decodeSlice[T, PT](h.ctx, item)
}

func OptionalSlice[T any, PT interface {
	*T
	Deserialize
}](h *TableHelper, key string) ([]T, bool) {
	item, ok := h.Optional(key)
	if !ok {
		return nil, false
	}
	return decodeSlice[T, PT](h.ctx, item)
}

func decodeSlice[T any, PT interface {
	*T
	Deserialize
}](ctx *Context, item Item) ([]T, bool) {
	if item.Kind() != KindArray {
		ctx.addError(wrongTypeErr(item, "array"))
		return nil, false
	}
	arr := ctx.root.arena.array(arrayHandle(item.handle()))
	out := make([]T, 0, arr.Len())
	ok := true
	for _, elem := range arr.Items() {
		var v T
		before := len(ctx.errors)
		if err := PT(&v).DeserializeTOML(ctx, elem); err != nil {
			recordFailure(ctx, before, err, elem.Span())
			ok = false
			continue
		}
		out = append(out, v)
	}
	return out, ok
}

// recordFailure records err for a DeserializeTOML call that started when
// ctx held before errors, unless the call already recorded its own errors
// (as the TableHelper accessors and ExpectEmpty do), so that a single
// failure is not reported twice.
func recordFailure(ctx *Context, before int, err error, span Span) {
	if len(ctx.errors) > before {
		return
	}
	ctx.addError(toError(err, span))
}

func toError(err error, span Span) *Error {
	if e, ok := err.(*Error); ok {
		return e
	}
	return &Error{Kind: ErrCustom, Span: span, Message: err.Error()}
}

func wrongTypeErr(item Item, want string) *Error {
	return &Error{Kind: ErrWrongType, Span: item.Span(), Message: "expected " + want + ", found " + item.Kind().String()}
}

// Decode populates a new T from item. If *T implements Deserialize, its
// method handles the whole job; otherwise Decode reflects over T's
// exported fields, deriving each one's table key from a `toml:"name"`
// struct tag or, absent one, the field name converted to snake_case
// (e.g. MaxRetries -> max_retries). A `toml:"name,required"` tag marks a
// field as required; all other fields are optional and simply left zero
// when absent.
func Decode[T any](ctx *Context, item Item) (T, error) {
	var v T
	if d, ok := any(&v).(Deserialize); ok {
		return v, d.DeserializeTOML(ctx, item)
	}
	if err := decodeReflect(ctx, item, reflect.ValueOf(&v).Elem()); err != nil {
		return v, err
	}
	return v, nil
}

func decodeReflect(ctx *Context, item Item, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Bool:
		v, ok := item.AsBool()
		if !ok {
			return wrongTypeErr(item, "boolean")
		}
		rv.SetBool(v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, ok := item.AsInt64()
		if !ok {
			return wrongTypeErr(item, "integer")
		}
		rv.SetInt(v)
	case reflect.Float32, reflect.Float64:
		v, ok := item.AsFloat64()
		if !ok {
			return wrongTypeErr(item, "float")
		}
		rv.SetFloat(v)
	case reflect.String:
		s, ok := item.AsString(ctx.root.input, ctx.root.arena)
		if !ok {
			return wrongTypeErr(item, "string")
		}
		rv.SetString(s)
	case reflect.Slice:
		if item.Kind() != KindArray {
			return wrongTypeErr(item, "array")
		}
		arr := ctx.root.arena.array(arrayHandle(item.handle()))
		out := reflect.MakeSlice(rv.Type(), arr.Len(), arr.Len())
		for i, elem := range arr.Items() {
			if err := decodeReflect(ctx, elem, out.Index(i)); err != nil {
				return err
			}
		}
		rv.Set(out)
	case reflect.Ptr:
		elem := reflect.New(rv.Type().Elem())
		if err := decodeReflect(ctx, item, elem.Elem()); err != nil {
			return err
		}
		rv.Set(elem)
	case reflect.Struct:
		if item.Kind() != KindTable {
			return wrongTypeErr(item, "table")
		}
		h, _ := item.TableHelper(ctx)
		decodeStructFields(ctx, h, rv)
	default:
		return wrongTypeErr(item, "supported value")
	}
	return nil
}

func decodeStructFields(ctx *Context, h *TableHelper, rv reflect.Value) {
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, required := fieldKey(f)
		var fieldItem Item
		var present bool
		if required {
			fieldItem, present = h.Required(name)
		} else {
			fieldItem, present = h.Optional(name)
		}
		if !present {
			continue
		}
		if err := decodeReflect(ctx, fieldItem, rv.Field(i)); err != nil {
			ctx.addError(toError(err, fieldItem.Span()))
		}
	}
}

func fieldKey(f reflect.StructField) (name string, required bool) {
	tag := f.Tag.Get("toml")
	if tag == "" {
		return strcase.SnakeCase(f.Name), false
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = strcase.SnakeCase(f.Name)
	}
	for _, opt := range parts[1:] {
		if opt == "required" {
			required = true
		}
	}
	return name, required
}
