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

package device

import (
	"encoding/binary"
	"fmt"

	"sigs.k8s.io/yaml"

	"github.com/wavemon/go-wavexlr/pkg/log"
)

// LowcutFilter is the lowcut filter selector code as it appears on the wire.
type LowcutFilter uint16

const (
	LowcutOff   LowcutFilter = 0x0000
	Lowcut80Hz  LowcutFilter = 0x0100
	Lowcut120Hz LowcutFilter = 0x0001
)

func (f LowcutFilter) String() string {
	switch f {
	case LowcutOff:
		return "Off"
	case Lowcut80Hz:
		return "80Hz"
	case Lowcut120Hz:
		return "120Hz"
	default:
		return fmt.Sprintf("%#04x", uint16(f))
	}
}

// Color is a 24-bit RGB color as carried in the configuration block.
type Color uint32

func (c Color) String() string {
	return fmt.Sprintf("#%06x", uint32(c))
}

// Config is the typed snapshot of one 34 byte configuration block. It is the
// flat view of the decoded field tree used for state tracking and the API,
// bytes at unknown offsets are not represented here.
type Config struct {
	// Gain is the input gain in dB, range 0dB to 75dB
	Gain float64 `json:"gain"`

	Mute bool `json:"mute"`

	Clipguard bool `json:"clipguard"`

	// Phantom is the 48V phantom power switch
	Phantom bool `json:"phantom"`

	Lowcut LowcutFilter `json:"lowcut"`

	// Volume is the monitor volume in dB, range 0dB to -128dB
	Volume float64 `json:"volume"`

	// Mix is the monitor mix between microphone and PC audio in percent
	Mix uint8 `json:"mix"`

	ColorMute Color `json:"colorMute"`

	// ColorGen appears three times within the configuration block,
	// only the first copy is read
	ColorGen Color `json:"colorGen"`

	GainLock bool `json:"gainLock"`

	ColorGainReduction Color `json:"colorGainReduction"`

	ClipguardIndicator bool `json:"clipguardIndicator"`

	// LIM is the low impedance mode switch
	LIM bool `json:"lim"`
}

// FromBytes parses a configuration block. The buffer must hold the full
// 34 bytes.
func FromBytes(buf []byte) (*Config, error) {
	if len(buf) < 34 {
		return nil, ErrShortConfig{Got: len(buf)}
	}
	return &Config{
		Gain:               float64(binary.LittleEndian.Uint16(buf[0:2])) / 256,
		Mute:               buf[4]&0x01 != 0,
		Clipguard:          buf[5]&0x01 != 0,
		Phantom:            buf[6]&0x01 != 0,
		Lowcut:             LowcutFilter(binary.LittleEndian.Uint16(buf[7:9])),
		Volume:             float64(int16(binary.LittleEndian.Uint16(buf[9:11]))) / 256,
		Mix:                buf[13],
		ColorMute:          color24(buf[15:18]),
		ColorGen:           color24(buf[18:21]),
		GainLock:           buf[28]&0x01 != 0,
		ColorGainReduction: color24(buf[29:32]),
		ClipguardIndicator: buf[32]&0x01 != 0,
		LIM:                buf[33]&0x01 != 0,
	}, nil
}

func color24(b []byte) Color {
	return Color(uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2]))
}

func (c *Config) String() string {
	result, err := yaml.Marshal(c)
	if err != nil {
		log.Info("Error occured while marshaling device configuration, %s", err)
		return ""
	}
	return fmt.Sprintf("---\n%s", string(result))
}
