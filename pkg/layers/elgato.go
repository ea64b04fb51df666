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

package layers

import (
	"github.com/google/gopacket/layers"

	"github.com/wavemon/go-wavexlr/pkg/schema"
)

const (
	// HeaderLength is the size of the control request header on the
	// host to device set-config path
	HeaderLength = 7
	// ConfigLength is the size of the device configuration block
	ConfigLength = 34
	// SetConfigLength is header plus configuration block
	SetConfigLength = HeaderLength + ConfigLength
)

const (
	HeaderPrefix  = "usb.elgato.header"
	ConfigPrefix  = "usb.elgato.config"
	RequestPrefix = "usb.elgato"
)

// LowcutLabels maps the on-the-wire filter selector codes observed during
// reverse engineering. The table is known-incomplete, unmapped codes decode
// to their raw numeric value.
var LowcutLabels = map[uint64]string{
	0x0000: "Off",
	0x0100: "80Hz",
	0x0001: "120Hz",
}

// wValueLabels maps the set-config persistence mode carried in wValue.
var wValueLabels = map[uint64]string{
	0x0000: "temporary",
	0x0002: "persistent",
}

var (
	arena *schema.Arena

	// HeaderSchema describes the 7 byte control request header
	HeaderSchema schema.SchemaID
	// ConfigSchema describes the 34 byte device configuration block
	ConfigSchema schema.SchemaID
	// RequestSchema embeds header and configuration into one 41 byte tree,
	// the shape of a complete host to device configuration write
	RequestSchema schema.SchemaID
)

// Schemas returns the arena holding the Wave XLR schemas. It is built once
// at startup and never rebuilt, decode calls against it may run concurrently.
func Schemas() *schema.Arena {
	return arena
}

func init() {
	arena = schema.NewArena()

	HeaderSchema = arena.MustAdd("Control Request Header", HeaderPrefix, []schema.FieldSpec{
		{Name: "bRequest", Label: "Request code", Offset: 0, Length: 1, Kind: schema.KindUint, Base: schema.BaseHex},
		{Name: "wValue", Label: "Persistence mode", Offset: 1, Length: 2, Kind: schema.KindUint, Base: schema.BaseHex,
			Decode: schema.Uint16LE, Enum: wValueLabels},
		{Name: "wIndex", Offset: 3, Length: 2, Kind: schema.KindUint, Base: schema.BaseHex, Decode: schema.Uint16LE},
		{Name: "wLength", Label: "Data stage length", Offset: 5, Length: 2, Kind: schema.KindUint, Decode: schema.Uint16LE},
	})

	ConfigSchema = arena.MustAdd("Wave XLR Configuration", ConfigPrefix, []schema.FieldSpec{
		{Name: "gain", Label: "Input gain in dB, range 0dB to 75dB", Offset: 0, Length: 2,
			Kind: schema.KindFloat, Decode: schema.FixedU16},
		{Name: "unknown-2", Label: "Unknown, Wave Link writes 0x00 0xec here", Offset: 2, Length: 2,
			Kind: schema.KindBytes},
		{Name: "mute", Offset: 4, Length: 1, Kind: schema.KindBool, Mask: 0x01},
		{Name: "clipguard", Offset: 5, Length: 1, Kind: schema.KindBool, Mask: 0x01},
		{Name: "phantom", Label: "48V phantom power", Offset: 6, Length: 1, Kind: schema.KindBool, Mask: 0x01},
		{Name: "lowcut", Label: "Lowcut filter selector", Offset: 7, Length: 2, Kind: schema.KindUint,
			Base: schema.BaseHex, Decode: schema.Uint16LE, Enum: LowcutLabels},
		{Name: "volume", Label: "Monitor volume in dB, range 0dB to -128dB", Offset: 9, Length: 2,
			Kind: schema.KindFloat, Decode: schema.FixedI16},
		{Name: "unknown-11", Offset: 11, Length: 1, Kind: schema.KindBytes},
		{Name: "mix_stray_bits", Label: "Set to 0x01 when mix is 41 or 47, purpose unknown", Offset: 12, Length: 1,
			Kind: schema.KindUint, Decode: schema.Uint8},
		{Name: "mix", Label: "Monitor mix between microphone and PC audio in percent", Offset: 13, Length: 1,
			Kind: schema.KindUint, Decode: schema.Uint8},
		{Name: "unknown-14", Label: "Unknown, always 0x01 in captures", Offset: 14, Length: 1, Kind: schema.KindBytes},
		{Name: "color_mute", Label: "Mute color", Offset: 15, Length: 3, Kind: schema.KindUint,
			Base: schema.BaseHex, Decode: schema.Color24},
		// The firmware repeats the general color three times within this
		// range, only the first three bytes are read.
		{Name: "color_gen", Label: "General color, repeated thrice on the wire", Offset: 18, Length: 9,
			Kind: schema.KindUint, Base: schema.BaseHex, Decode: schema.Color24},
		{Name: "unknown-27", Offset: 27, Length: 1, Kind: schema.KindBytes},
		{Name: "gain_lock", Label: "Wave gain lock", Offset: 28, Length: 1, Kind: schema.KindBool, Mask: 0x01},
		{Name: "color_gain_reduction", Label: "Gain reduction color", Offset: 29, Length: 3, Kind: schema.KindUint,
			Base: schema.BaseHex, Decode: schema.Color24},
		{Name: "clipguard_indicator", Offset: 32, Length: 1, Kind: schema.KindBool, Mask: 0x01},
		{Name: "lim", Label: "Low impedance mode", Offset: 33, Length: 1, Kind: schema.KindBool, Mask: 0x01},
	})

	RequestSchema = arena.MustAdd("Set Configuration Request", RequestPrefix, []schema.FieldSpec{
		{Name: "header", Offset: 0, Length: HeaderLength, Kind: schema.KindNode, Nested: HeaderSchema},
		{Name: "config", Offset: HeaderLength, Length: ConfigLength, Kind: schema.KindNode, Nested: ConfigSchema},
	})
}

// Dispatch selects the schemas that apply to one captured control transfer
// and decodes the data stage accordingly. The two metadata fields come
// pre-parsed from the capture framework.
//
// A submitted host to device transfer is a configuration write, the header
// covers bytes [0,7) and the configuration block bytes [7,41). A completed
// device to host transfer is a state read, the configuration block covers
// bytes [0,34) and no header is present. Every other combination is not
// this protocol's traffic and passes through undecoded.
func Dispatch(event layers.USBEventType, directionIn bool, data []byte) ([]*schema.Node, error) {
	switch {
	case event == layers.USBEventTypeSubmit && !directionIn:
		header, err := arena.Decode(HeaderSchema, slice(data, 0, HeaderLength))
		if err != nil {
			return nil, err
		}
		config, err := arena.Decode(ConfigSchema, slice(data, HeaderLength, SetConfigLength))
		if err != nil {
			return nil, err
		}
		return []*schema.Node{header, config}, nil
	case event == layers.USBEventTypeComplete && directionIn:
		config, err := arena.Decode(ConfigSchema, slice(data, 0, ConfigLength))
		if err != nil {
			return nil, err
		}
		return []*schema.Node{config}, nil
	default:
		return nil, nil
	}
}

// slice cuts [from,to) without reading past the end, short input is left
// short so that the engine reports truncation itself.
func slice(data []byte, from, to int) []byte {
	if from > len(data) {
		from = len(data)
	}
	if to > len(data) {
		to = len(data)
	}
	return data[from:to]
}
