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

// Kind is the value type of a field. The decoding engine dispatches on it
// with a single exhaustive switch, there are no other per-field behavior hooks.
type Kind int

const (
	// KindBytes keeps the raw slice as the decoded value. Used for byte
	// ranges whose purpose is unknown and which are retained for completeness.
	KindBytes Kind = iota
	KindUint
	KindBool
	KindFloat
	// KindNode re-interprets the byte range with a nested schema,
	// the decoded value is the resulting sub-tree.
	KindNode
)

// Base is a display radix hint. It does not affect the decoded value.
type Base int

const (
	BaseDec Base = iota
	BaseHex
)

// DecodeFunc turns the raw bytes of one field into a scalar Value.
// Implementations must be pure, the engine may call them concurrently.
type DecodeFunc func(raw []byte) Value

// SchemaID references a schema inside an Arena. Nested schemas are linked
// by ID instead of pointers so that a parent and its children never form
// an ownership cycle.
type SchemaID int

// FieldSpec describes one named region of a buffer. Offsets are relative
// to the owning schema's own slice, not the outermost buffer. All fields
// are fixed at construction time.
type FieldSpec struct {
	// Name is a short identifier, unique within the arena once qualified
	// with the schema prefix.
	Name string
	// Label is a human readable description. This protocol is reverse
	// engineered, several labels carry uncertainty notes.
	Label  string
	Offset int
	Length int
	Kind   Kind
	// Mask is applied to the scalar before interpretation. Zero means the
	// whole byte range is significant.
	Mask uint64
	Base Base
	// Enum maps raw values to labels. Unmapped values are not an error,
	// the raw numeric value is displayed instead, the table is known-incomplete.
	Enum map[uint64]string
	// Decode, when set, replaces the default little-endian integer read.
	Decode DecodeFunc
	// Nested is consulted only when Kind is KindNode.
	Nested SchemaID
}

// Schema is an ordered collection of field specifications. Field order is
// the order fields are emitted into the output tree. Overlapping ranges are
// permitted, the wire layout intentionally repeats some bytes.
type Schema struct {
	Title  string
	Prefix string
	Fields []FieldSpec

	// minLen is the smallest buffer the schema can be decoded against.
	minLen int
}

// MinLength returns the smallest buffer length the schema accepts.
func (s *Schema) MinLength() int {
	return s.minLen
}

// Arena holds schemas referenced by stable IDs. It is built once at process
// start and is read-only afterwards, decodes against it may run concurrently.
type Arena struct {
	schemas []Schema
	// qualified name registry, construction fails fast on duplicates
	names map[string]struct{}
}

func NewArena() *Arena {
	return &Arena{
		names: make(map[string]struct{}),
	}
}

// Schema returns the schema registered under id.
func (a *Arena) Schema(id SchemaID) (*Schema, error) {
	if int(id) < 0 || int(id) >= len(a.schemas) {
		return nil, ErrUnknownSchema{ID: int(id)}
	}
	return &a.schemas[id], nil
}

// Add validates the field declarations and registers a new schema.
// Nested schemas must be added before their parents.
func (a *Arena) Add(title, prefix string, fields []FieldSpec) (SchemaID, error) {
	s := Schema{
		Title:  title,
		Prefix: prefix,
		Fields: fields,
	}
	// names of this declaration list, the arena registry is only updated
	// after the whole list validated
	seen := make(map[string]struct{})
	for i := range fields {
		f := &fields[i]
		if f.Name == "" {
			return 0, ErrEmptyName{Schema: title, Offset: f.Offset}
		}
		if f.Offset < 0 || f.Length <= 0 {
			return 0, ErrBadRange{Schema: title, Field: f.Name, Offset: f.Offset, Length: f.Length}
		}
		qualified := prefix + "." + f.Name
		if _, ok := a.names[qualified]; ok {
			return 0, ErrDuplicateField{Qualified: qualified}
		}
		if _, ok := seen[qualified]; ok {
			return 0, ErrDuplicateField{Qualified: qualified}
		}
		seen[qualified] = struct{}{}
		switch f.Kind {
		case KindNode:
			nested, err := a.Schema(f.Nested)
			if err != nil {
				return 0, err
			}
			// the child namespace must hang off the parent field
			if nested.Prefix != qualified {
				return 0, ErrNestedPrefix{Qualified: qualified, NestedPrefix: nested.Prefix}
			}
			if nested.minLen > f.Length {
				return 0, ErrBadRange{Schema: title, Field: f.Name, Offset: f.Offset, Length: f.Length}
			}
		case KindFloat:
			if f.Decode == nil {
				return 0, ErrMissingDecode{Qualified: qualified}
			}
		case KindUint, KindBool:
			if f.Decode == nil && f.Length > 8 {
				return 0, ErrBadRange{Schema: title, Field: f.Name, Offset: f.Offset, Length: f.Length}
			}
		case KindBytes:
		default:
			return 0, ErrBadRange{Schema: title, Field: f.Name, Offset: f.Offset, Length: f.Length}
		}
		if end := f.Offset + f.Length; end > s.minLen {
			s.minLen = end
		}
	}
	// register names only after the whole declaration list validated
	for i := range fields {
		a.names[prefix+"."+fields[i].Name] = struct{}{}
	}
	a.schemas = append(a.schemas, s)
	return SchemaID(len(a.schemas) - 1), nil
}

// MustAdd is Add for static schema tables, a broken table is a programming
// error and the process must not come up with it.
func (a *Arena) MustAdd(title, prefix string, fields []FieldSpec) SchemaID {
	id, err := a.Add(title, prefix, fields)
	if err != nil {
		panic(err)
	}
	return id
}
