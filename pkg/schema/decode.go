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
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Value is the decoded scalar of one field, tagged by Kind. Exactly one of
// the payload members is meaningful for a given kind.
type Value struct {
	Kind  Kind
	Bytes []byte
	Uint  uint64
	Bool  bool
	Float float64
	// Label is set when an enum table maps the raw value, empty otherwise.
	Label string
}

// Node is one entry of the decoded output tree. The root node carries the
// schema title as its label, field nodes carry fully qualified names.
type Node struct {
	Name     string
	Label    string
	Raw      []byte
	Value    Value
	Base     Base
	Children []*Node
}

// Decode evaluates the schema against data and returns the decoded tree.
// It is a pure function of its inputs, the same buffer always produces the
// same tree, and concurrent calls against one arena do not race.
func (a *Arena) Decode(id SchemaID, data []byte) (*Node, error) {
	s, err := a.Schema(id)
	if err != nil {
		return nil, err
	}
	if len(data) < s.minLen {
		return nil, ErrTruncated{Schema: s.Title, Need: s.minLen, Got: len(data)}
	}

	root := &Node{
		Name:  s.Prefix,
		Label: s.Title,
		Raw:   data[:s.minLen],
		Value: Value{Kind: KindNode},
	}

	for i := range s.Fields {
		f := &s.Fields[i]
		raw := data[f.Offset : f.Offset+f.Length]
		node := &Node{
			Name:  s.Prefix + "." + f.Name,
			Label: f.Label,
			Raw:   raw,
			Base:  f.Base,
		}

		switch f.Kind {
		case KindBytes:
			node.Value = Value{Kind: KindBytes, Bytes: raw}
		case KindNode:
			child, err := a.Decode(f.Nested, raw)
			if err != nil {
				return nil, err
			}
			node.Value = Value{Kind: KindNode}
			node.Children = child.Children
		case KindUint, KindBool, KindFloat:
			v := f.scalar(raw)
			if f.Mask != 0 && v.Kind == KindUint {
				v.Uint &= f.Mask
			}
			switch f.Kind {
			case KindBool:
				node.Value = Value{Kind: KindBool, Bool: v.Uint != 0}
			case KindUint:
				if label, ok := f.Enum[v.Uint]; ok {
					v.Label = label
				}
				node.Value = v
			case KindFloat:
				node.Value = v
			}
		}

		root.Children = append(root.Children, node)
	}

	return root, nil
}

func (f *FieldSpec) scalar(raw []byte) Value {
	if f.Decode != nil {
		return f.Decode(raw)
	}
	return leUint(raw)
}

// leUint reads the whole range as a little-endian unsigned integer.
// Range length is capped to 8 bytes at schema construction time.
func leUint(raw []byte) Value {
	var u uint64
	for i := len(raw) - 1; i >= 0; i-- {
		u = u<<8 | uint64(raw[i])
	}
	return Value{Kind: KindUint, Uint: u}
}

// FixedU16 decodes a little-endian u16 divided by 256, the unsigned
// fixed-point decibel encoding of the gain field.
func FixedU16(raw []byte) Value {
	u := binary.LittleEndian.Uint16(raw[0:2])
	return Value{Kind: KindFloat, Float: float64(u) / 256}
}

// FixedI16 decodes a little-endian i16 divided by 256, the signed
// fixed-point decibel encoding. Negative values are attenuation.
func FixedI16(raw []byte) Value {
	i := int16(binary.LittleEndian.Uint16(raw[0:2]))
	return Value{Kind: KindFloat, Float: float64(i) / 256}
}

// Color24 packs the first three bytes of the range into a 24-bit value.
// Ranges longer than three bytes carry repeated copies, only the first
// three are meaningful.
func Color24(raw []byte) Value {
	u := uint64(raw[0])<<16 | uint64(raw[1])<<8 | uint64(raw[2])
	return Value{Kind: KindUint, Uint: u}
}

// Uint16LE decodes a little-endian u16.
func Uint16LE(raw []byte) Value {
	return Value{Kind: KindUint, Uint: uint64(binary.LittleEndian.Uint16(raw[0:2]))}
}

// Uint8 decodes a single byte.
func Uint8(raw []byte) Value {
	return Value{Kind: KindUint, Uint: uint64(raw[0])}
}

// Display renders the decoded value for human inspection honoring the
// field's radix hint. Enum labels win over the numeric form.
func (n *Node) Display() string {
	v := n.Value
	switch v.Kind {
	case KindBytes:
		return hex.EncodeToString(v.Bytes)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case KindUint:
		if v.Label != "" {
			return fmt.Sprintf("%s (%#04x)", v.Label, v.Uint)
		}
		if n.Base == BaseHex {
			return fmt.Sprintf("%#x", v.Uint)
		}
		return strconv.FormatUint(v.Uint, 10)
	case KindNode:
		return ""
	}
	return ""
}

// Dump renders the whole tree as indented text, one field per line.
func (n *Node) Dump() string {
	var b strings.Builder
	n.dump(&b, 0)
	return b.String()
}

func (n *Node) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
	b.WriteString(n.Name)
	if value := n.Display(); value != "" {
		b.WriteString(": ")
		b.WriteString(value)
	}
	if len(n.Raw) > 0 && n.Value.Kind != KindBytes {
		b.WriteString(fmt.Sprintf(" [%s]", hex.EncodeToString(n.Raw)))
	}
	if n.Label != "" {
		b.WriteString(" -- ")
		b.WriteString(n.Label)
	}
	b.WriteString("\n")
	for _, child := range n.Children {
		child.dump(b, depth+1)
	}
}

type nodeJSON struct {
	Name   string  `json:"name"`
	Label  string  `json:"label,omitempty"`
	Raw    string  `json:"raw,omitempty"`
	Value  string  `json:"value,omitempty"`
	Fields []*Node `json:"fields,omitempty"`
}

// MarshalJSON renders the node with a hex raw form and the display value,
// raw bytes would otherwise end up base64 encoded.
func (n *Node) MarshalJSON() ([]byte, error) {
	return json.Marshal(nodeJSON{
		Name:   n.Name,
		Label:  n.Label,
		Raw:    hex.EncodeToString(n.Raw),
		Value:  n.Display(),
		Fields: n.Children,
	})
}
