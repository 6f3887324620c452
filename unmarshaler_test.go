package jdoc

import (
	"testing"

	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type leaf struct {
	path  string
	value int64
}

func leaves(t *testing.T, obj *Object, prefix string) []leaf {
	t.Helper()
	var out []leaf
	for k, v := range obj.All() {
		if child, ok := v.AsObject(); ok {
			out = append(out, leaves(t, child, prefix+k+".")...)
			continue
		}
		n, ok := v.AsInt()
		require.True(t, ok, "expected int at %s%s, got %s", prefix, k, v.Kind())
		out = append(out, leaf{path: prefix + k, value: n})
	}
	return out
}

func TestDecode(t *testing.T) {
	t.Run("round trip preserves leaves in order", func(t *testing.T) {
		buf := make([]byte, 256)
		n, err := pinsDocument().Serialize(buf)
		require.NoError(t, err)

		doc, err := Decode(buf[:n])
		require.NoError(t, err)
		require.Equal(t, []leaf{
			{"pin1.value", 1500},
			{"pin1.pin", 32},
			{"pin2.value", 2000},
			{"pin2.pin", 33},
		}, leaves(t, &doc.Object, ""))
		require.True(t, doc.Equal(&pinsDocument().Object))
	})

	t.Run("empty object", func(t *testing.T) {
		doc, err := Decode([]byte(`{}`))
		require.NoError(t, err)
		require.Equal(t, 0, doc.Len())
	})

	t.Run("all value kinds", func(t *testing.T) {
		doc, err := Decode([]byte(`{"n":null,"b":true,"i":12,"f":1.25,"e":1e3,"s":"x","a":[1,{"k":"v"}],"o":{}}`))
		require.NoError(t, err)
		require.Equal(t, []string{"n", "b", "i", "f", "e", "s", "a", "o"}, doc.Keys())

		kinds := make([]Kind, 0, doc.Len())
		for _, v := range doc.All() {
			kinds = append(kinds, v.Kind())
		}
		assert.Equal(t, []Kind{KindNull, KindBool, KindInt, KindFloat, KindFloat, KindString, KindArray, KindObject}, kinds)

		v, _ := doc.Get("a")
		arr, ok := v.AsArray()
		require.True(t, ok)
		require.Len(t, arr, 2)
		inner, ok := arr[1].AsObject()
		require.True(t, ok)
		require.Equal(t, []string{"k"}, inner.Keys())
	})

	t.Run("integers beyond int64 fall back to float", func(t *testing.T) {
		doc, err := Decode([]byte(`{"big":123456789012345678901234567890}`))
		require.NoError(t, err)
		v, _ := doc.Get("big")
		require.Equal(t, KindFloat, v.Kind())
	})

	t.Run("non object input rejected", func(t *testing.T) {
		for _, src := range []string{`[]`, `1`, `"s"`} {
			_, err := Decode([]byte(src))
			require.Error(t, err, "input %s", src)
		}
	})

	t.Run("malformed input rejected", func(t *testing.T) {
		for _, src := range []string{``, `{`, `{"a":}`, `{"a":1,}`, `{"a":1} trailing`} {
			_, err := Decode([]byte(src))
			require.Error(t, err, "input %q", src)
		}
	})

	t.Run("duplicate keys rejected", func(t *testing.T) {
		_, err := Decode([]byte(`{"a":1,"a":2}`))
		require.Error(t, err)
	})
}

func TestValue_UnmarshalJSONFrom(t *testing.T) {
	var v Value
	require.NoError(t, json.Unmarshal([]byte(`[1,"two",null]`), &v))
	require.True(t, v.Equal(ArrayOf(Int(1), String("two"), Null())))
}

func TestObject_UnmarshalJSONFrom(t *testing.T) {
	t.Run("replaces existing entries", func(t *testing.T) {
		obj := NewObject()
		obj.SetInt("old", 1)
		require.NoError(t, json.Unmarshal([]byte(`{"new":2}`), obj))
		require.Equal(t, []string{"new"}, obj.Keys())
	})

	t.Run("decodes inside go structs", func(t *testing.T) {
		var payload struct {
			Reading Value   `json:"reading"`
			Meta    *Object `json:"meta"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"reading":1500,"meta":{"pin":32}}`), &payload))
		n, ok := payload.Reading.AsInt()
		require.True(t, ok)
		require.Equal(t, int64(1500), n)
		require.Equal(t, []string{"pin"}, payload.Meta.Keys())
	})
}
