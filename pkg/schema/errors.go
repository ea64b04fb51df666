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
	"fmt"
)

// ErrDuplicateField returned when two fields register the same qualified name
type ErrDuplicateField struct {
	Qualified string
}

func (e ErrDuplicateField) Error() string {
	return fmt.Sprintf("Duplicate field name: %s", e.Qualified)
}

// ErrEmptyName returned when a field is declared without a name
type ErrEmptyName struct {
	Schema string
	Offset int
}

func (e ErrEmptyName) Error() string {
	return fmt.Sprintf("Unnamed field at offset %d of schema %s", e.Offset, e.Schema)
}

// ErrBadRange returned when a field declares an unusable byte range
type ErrBadRange struct {
	Schema string
	Field  string
	Offset int
	Length int
}

func (e ErrBadRange) Error() string {
	return fmt.Sprintf("Invalid byte range for field %s of schema %s: offset: %d length: %d",
		e.Field, e.Schema, e.Offset, e.Length)
}

// ErrMissingDecode returned when a float field is declared without a decode function
type ErrMissingDecode struct {
	Qualified string
}

func (e ErrMissingDecode) Error() string {
	return fmt.Sprintf("Field %s needs a decode function", e.Qualified)
}

// ErrNestedPrefix returned when a nested schema is not namespaced under its parent field
type ErrNestedPrefix struct {
	Qualified    string
	NestedPrefix string
}

func (e ErrNestedPrefix) Error() string {
	return fmt.Sprintf("Nested schema prefix %s does not match parent field %s", e.NestedPrefix, e.Qualified)
}

// ErrUnknownSchema returned when a SchemaID does not reference an arena entry
type ErrUnknownSchema struct {
	ID int
}

func (e ErrUnknownSchema) Error() string {
	return fmt.Sprintf("Unknown schema ID: %d", e.ID)
}

// ErrTruncated returned when the buffer is shorter than the schema requires.
// The engine reports it instead of reading past the buffer end, the caller may
// be processing a stream of buffers of mixed validity and must keep going.
type ErrTruncated struct {
	Schema string
	Need   int
	Got    int
}

func (e ErrTruncated) Error() string {
	return fmt.Sprintf("Buffer too short for schema %s: need %d bytes, got %d", e.Schema, e.Need, e.Got)
}
