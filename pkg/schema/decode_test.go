/*
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at

     https://www.apache.org/licenses/LICENSE-2.0

 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

package schema

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalarArena(t *testing.T) (*Arena, SchemaID) {
	t.Helper()
	a := NewArena()
	id, err := a.Add("Scalars", "test", []FieldSpec{
		{Name: "flag", Offset: 0, Length: 1, Kind: KindBool, Mask: 0x01},
		{Name: "mode", Offset: 1, Length: 2, Kind: KindUint, Base: BaseHex, Decode: Uint16LE,
			Enum: map[uint64]string{0x0000: "Off", 0x0100: "80Hz", 0x0001: "120Hz"}},
		{Name: "gain", Offset: 3, Length: 2, Kind: KindFloat, Decode: FixedU16},
		{Name: "volume", Offset: 5, Length: 2, Kind: KindFloat, Decode: FixedI16},
		{Name: "color", Offset: 7, Length: 3, Kind: KindUint, Base: BaseHex, Decode: Color24},
		{Name: "blob", Offset: 10, Length: 2, Kind: KindBytes},
	})
	require.NoError(t, err)
	return a, id
}

func TestDecodeScalars(t *testing.T) {
	a, id := scalarArena(t)
	data := []byte{
		0x03,       // flag, only bit 0 significant
		0x00, 0x01, // mode 0x0100
		0x00, 0x01, // gain 1.0
		0x00, 0xFF, // volume -1.0
		0x12, 0x34, 0x56, // color
		0xAA, 0xBB, // blob
	}

	root, err := a.Decode(id, data)
	require.NoError(t, err)
	assert.Equal(t, "test", root.Name)
	assert.Equal(t, "Scalars", root.Label)
	require.Len(t, root.Children, 6)

	flag := root.Children[0]
	assert.Equal(t, "test.flag", flag.Name)
	assert.True(t, flag.Value.Bool)

	mode := root.Children[1]
	assert.Equal(t, uint64(0x0100), mode.Value.Uint)
	assert.Equal(t, "80Hz", mode.Value.Label)

	assert.Equal(t, 1.0, root.Children[2].Value.Float)
	assert.Equal(t, -1.0, root.Children[3].Value.Float)
	assert.Equal(t, uint64(0x123456), root.Children[4].Value.Uint)
	assert.Equal(t, []byte{0xAA, 0xBB}, root.Children[5].Value.Bytes)
}

func TestDecodeBoolMask(t *testing.T) {
	a, id := scalarArena(t)
	data := make([]byte, 12)

	for _, tc := range []struct {
		raw      byte
		expected bool
	}{
		{0x00, false},
		{0x01, true},
		{0xFE, false}, // every bit except bit 0
		{0xFF, true},
	} {
		data[0] = tc.raw
		root, err := a.Decode(id, data)
		require.NoError(t, err)
		assert.Equal(t, tc.expected, root.Children[0].Value.Bool, "raw %#02x", tc.raw)
	}
}

func TestDecodeEnumFallback(t *testing.T) {
	a, id := scalarArena(t)
	data := make([]byte, 12)
	data[1] = 0x00
	data[2] = 0x02 // 0x0200, not in the table

	root, err := a.Decode(id, data)
	require.NoError(t, err)
	mode := root.Children[1]
	assert.Equal(t, uint64(0x0200), mode.Value.Uint)
	assert.Empty(t, mode.Value.Label)
	assert.Equal(t, "0x200", mode.Display())
}

func TestDecodeTruncated(t *testing.T) {
	a, id := scalarArena(t)
	_, err := a.Decode(id, make([]byte, 11))
	require.Error(t, err)
	var truncated ErrTruncated
	require.True(t, errors.As(err, &truncated))
	assert.Equal(t, 12, truncated.Need)
	assert.Equal(t, 11, truncated.Got)
}

func TestDecodeLongerBufferIgnored(t *testing.T) {
	a, id := scalarArena(t)
	data := make([]byte, 64)
	data[0] = 0x01

	root, err := a.Decode(id, data)
	require.NoError(t, err)
	assert.Len(t, root.Raw, 12)
	assert.True(t, root.Children[0].Value.Bool)
}

func TestDecodeNested(t *testing.T) {
	a := NewArena()
	child, err := a.Add("Inner", "outer.inner", []FieldSpec{
		{Name: "left", Offset: 0, Length: 1, Kind: KindUint},
		{Name: "right", Offset: 1, Length: 1, Kind: KindUint},
	})
	require.NoError(t, err)
	parent, err := a.Add("Outer", "outer", []FieldSpec{
		{Name: "head", Offset: 0, Length: 1, Kind: KindUint},
		{Name: "inner", Offset: 1, Length: 2, Kind: KindNode, Nested: child},
	})
	require.NoError(t, err)

	root, err := a.Decode(parent, []byte{0x07, 0x0A, 0x0B})
	require.NoError(t, err)
	require.Len(t, root.Children, 2)

	inner := root.Children[1]
	assert.Equal(t, "outer.inner", inner.Name)
	require.Len(t, inner.Children, 2)
	// nested offsets are relative to the nested range, not the outer buffer
	assert.Equal(t, "outer.inner.left", inner.Children[0].Name)
	assert.Equal(t, uint64(0x0A), inner.Children[0].Value.Uint)
	assert.Equal(t, uint64(0x0B), inner.Children[1].Value.Uint)
}

func TestDecodeDeterministic(t *testing.T) {
	a, id := scalarArena(t)
	data := []byte{0x01, 0x00, 0x01, 0x80, 0x00, 0x00, 0xFF, 0x01, 0x02, 0x03, 0x04, 0x05}

	first, err := a.Decode(id, data)
	require.NoError(t, err)
	second, err := a.Decode(id, data)
	require.NoError(t, err)
	assert.Equal(t, first.Dump(), second.Dump())
}

func TestDecodeConcurrent(t *testing.T) {
	a, id := scalarArena(t)
	data := make([]byte, 12)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				root, err := a.Decode(id, data)
				assert.NoError(t, err)
				assert.Len(t, root.Children, 6)
			}
		}()
	}
	wg.Wait()
}

func TestDisplay(t *testing.T) {
	for _, tc := range []struct {
		name     string
		node     Node
		expected string
	}{
		{"bytes", Node{Value: Value{Kind: KindBytes, Bytes: []byte{0xDE, 0xAD}}}, "dead"},
		{"bool", Node{Value: Value{Kind: KindBool, Bool: true}}, "true"},
		{"float", Node{Value: Value{Kind: KindFloat, Float: -12.5}}, "-12.5"},
		{"uint-dec", Node{Value: Value{Kind: KindUint, Uint: 42}}, "42"},
		{"uint-hex", Node{Base: BaseHex, Value: Value{Kind: KindUint, Uint: 0x1234}}, "0x1234"},
		{"uint-enum", Node{Value: Value{Kind: KindUint, Uint: 0x0100, Label: "80Hz"}}, "80Hz (0x0100)"},
		{"node", Node{Value: Value{Kind: KindNode}}, ""},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.node.Display())
		})
	}
}

func TestDumpContainsAllFields(t *testing.T) {
	a, id := scalarArena(t)
	root, err := a.Decode(id, make([]byte, 12))
	require.NoError(t, err)

	dump := root.Dump()
	for _, name := range []string{"test.flag", "test.mode", "test.gain", "test.volume", "test.color", "test.blob"} {
		assert.Contains(t, dump, name)
	}
}

func TestMarshalJSON(t *testing.T) {
	a, id := scalarArena(t)
	root, err := a.Decode(id, make([]byte, 12))
	require.NoError(t, err)

	out, err := json.Marshal(root)
	require.NoError(t, err)

	decoded := make(map[string]interface{})
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "test", decoded["name"])
	fields, ok := decoded["fields"].([]interface{})
	require.True(t, ok)
	assert.Len(t, fields, 6)
}
