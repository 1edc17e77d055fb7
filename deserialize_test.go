package tomlspanner

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	deepcopy "github.com/tiendc/go-deepcopy"
)

// endpoint is a hand-written Deserialize implementation, exercising the
// TableHelper-based path rather than the reflective fallback.
type endpoint struct {
	Host string
	Port int64
}

func (e *endpoint) DeserializeTOML(ctx *Context, item Item) error {
	h, ok := item.TableHelper(ctx)
	if !ok {
		return wrongTypeErr(item, "table")
	}
	host, hostOK := h.RequiredString("host")
	port, portOK := h.RequiredInt64("port")
	e.Host, e.Port = host, port
	if err := h.ExpectEmpty(); err != nil {
		return err
	}
	if !hostOK || !portOK {
		// The missing or mistyped field is already recorded on ctx.
		return errEndpointIncomplete
	}
	return nil
}

var errEndpointIncomplete = errors.New("endpoint: a required field failed to decode")

func TestRequiredDecodesNestedStruct(t *testing.T) {
	root, _ := parseOK(t, "[server]\nhost = \"localhost\"\nport = 8080\n")
	ctx := NewContext(root)
	h := root.Helper(ctx)

	srv, ok := Required[endpoint](h, "server")
	require.True(t, ok)
	require.NoError(t, ctx.Err())
	require.Equal(t, endpoint{Host: "localhost", Port: 8080}, srv)
}

func TestRequiredMissingFieldStopsAtDeserializeError(t *testing.T) {
	root, _ := parseOK(t, "[server]\nhost = \"localhost\"\n")
	ctx := NewContext(root)
	h := root.Helper(ctx)

	_, ok := Required[endpoint](h, "server")
	require.False(t, ok)
	require.Error(t, ctx.Err())

	errs := ctx.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, ErrMissingField, errs[0].Kind)
	require.Equal(t, "port", errs[0].Key)
}

func TestExpectEmptyReportsEveryUnexpectedFieldInOrder(t *testing.T) {
	root, _ := parseOK(t, "[server]\nhost = \"localhost\"\nport = 8080\nextra1 = 1\nextra2 = 2\n")
	ctx := NewContext(root)
	h := root.Helper(ctx)

	_, ok := Required[endpoint](h, "server")
	require.False(t, ok)

	errs := ctx.Errors()
	require.Len(t, errs, 2)
	require.Equal(t, ErrUnexpectedField, errs[0].Kind)
	require.Equal(t, "extra1", errs[0].Key)
	require.Equal(t, ErrUnexpectedField, errs[1].Kind)
	require.Equal(t, "extra2", errs[1].Key)
}

func TestRequiredSliceDecodesEachElementIndependently(t *testing.T) {
	root, _ := parseOK(t, "[[servers]]\nhost = \"a\"\nport = 1\n[[servers]]\nhost = \"b\"\nport = 2\n")
	ctx := NewContext(root)
	h := root.Helper(ctx)

	got, ok := RequiredSlice[endpoint](h, "servers")
	require.True(t, ok)
	require.NoError(t, ctx.Err())

	want := []endpoint{{Host: "a", Port: 1}, {Host: "b", Port: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded slice mismatch (-want +got):\n%s", diff)
	}
}

func TestRequiredSliceRecordsOneErrorPerBadElementButKeepsGoing(t *testing.T) {
	root, _ := parseOK(t, "[[servers]]\nhost = \"a\"\nport = 1\n[[servers]]\nhost = \"b\"\n")
	ctx := NewContext(root)
	h := root.Helper(ctx)

	got, ok := RequiredSlice[endpoint](h, "servers")
	require.False(t, ok)
	require.Len(t, got, 1, "the one valid element should still be returned")
	require.Equal(t, "a", got[0].Host)

	errs := ctx.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, ErrMissingField, errs[0].Kind)
	require.Equal(t, "port", errs[0].Key)
}

func TestRequiredSpannedCapturesFieldSpan(t *testing.T) {
	src := "[server]\nhost = \"localhost\"\nport = 8080\n"
	root, _ := parseOK(t, src)
	ctx := NewContext(root)
	h := root.Helper(ctx)

	spanned, ok := RequiredSpanned[endpoint](h, "server")
	require.True(t, ok)
	require.Equal(t, "localhost", spanned.Value.Host)

	// A table opened by a [header] spans the header text itself.
	got := src[spanned.Span.Start:spanned.Span.End]
	require.Equal(t, "[server]", got)
	serverItem, _ := root.Get("server")
	require.Equal(t, serverItem.Span(), spanned.Span)
}

// plainConfig has no DeserializeTOML method, so Decode falls back to
// reflecting over its exported fields.
type plainConfig struct {
	MaxRetries int64 `toml:"max_retries,required"`
	Nickname   string
	Tags       []string
}

func TestDecodeReflectFallbackUsesSnakeCaseAndTags(t *testing.T) {
	root, _ := parseOK(t, "max_retries = 3\nnickname = \"bot\"\ntags = [\"a\", \"b\"]\n")
	ctx := NewContext(root)

	got, err := Decode[plainConfig](ctx, root.Item())
	require.NoError(t, err)

	want := plainConfig{MaxRetries: 3, Nickname: "bot", Tags: []string{"a", "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("decoded struct mismatch (-want +got):\n%s", diff)
	}

	var clone plainConfig
	require.NoError(t, deepcopy.Copy(&clone, &got))
	if diff := cmp.Diff(got, clone); diff != "" {
		t.Fatalf("deep copy diverged from source (-got +clone):\n%s", diff)
	}
}

func TestDecodeReflectFallbackMissingRequiredField(t *testing.T) {
	root, _ := parseOK(t, "nickname = \"bot\"\n")
	ctx := NewContext(root)

	_, err := Decode[plainConfig](ctx, root.Item())
	require.NoError(t, err, "decodeReflect itself does not fail on a missing required field")
	require.Error(t, ctx.Err())

	errs := ctx.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, ErrMissingField, errs[0].Kind)
	require.Equal(t, "max_retries", errs[0].Key)
}

func TestOptionalMissingFieldIsNotAnError(t *testing.T) {
	root, _ := parseOK(t, "[other]\nx = 1\n")
	ctx := NewContext(root)
	h := root.Helper(ctx)

	_, ok := Optional[endpoint](h, "server")
	require.False(t, ok)
	require.NoError(t, ctx.Err())
}
