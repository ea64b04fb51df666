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
	"errors"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/wavemon/go-wavexlr/pkg/log"
	"github.com/wavemon/go-wavexlr/pkg/schema"
)

const (
	// TransferLayerNum identifies the layer
	TransferLayerNum = 2001
	// SetConfigLayerNum identifies the layer
	SetConfigLayerNum = 2002
	// StateLayerNum identifies the layer
	StateLayerNum = 2003
)

const (
	// TransferHeaderLength is the size of the transfer record header that
	// capture tooling prepends to each forwarded data stage:
	// event type, transfer type, flags, one reserved byte.
	TransferHeaderLength = 4
	// TransferFlagIn marks a device to host transfer
	TransferFlagIn = 0x01
)

// TransferLayer is one captured control transfer record: the event type and
// direction metadata extracted by the capture side plus the raw data stage
// as payload. It decides which decoded view applies, unrelated traffic
// falls through to the generic payload layer untouched.
type TransferLayer struct {
	layers.BaseLayer
	Event       layers.USBEventType
	Transfer    layers.USBTransportType
	DirectionIn bool
}

var TransferLayerType = gopacket.RegisterLayerType(TransferLayerNum,
	gopacket.LayerTypeMetadata{Name: "TransferLayerType", Decoder: gopacket.DecodeFunc(decodeTransferLayer)})

func (t *TransferLayer) LayerType() gopacket.LayerType {
	return TransferLayerType
}

// SerializeHeader serializes only the record header to a buffer
func (t *TransferLayer) SerializeHeader(buf []byte) {
	buf[0] = byte(t.Event)
	buf[1] = byte(t.Transfer)
	buf[2] = 0
	if t.DirectionIn {
		buf[2] |= TransferFlagIn
	}
	buf[3] = 0
}

// SerializeTo serializes the layer into bytes and writes the bytes to the SerializeBuffer
func (t *TransferLayer) SerializeTo(b gopacket.SerializeBuffer, opts gopacket.SerializeOptions) error {
	headerBytes, err := b.PrependBytes(TransferHeaderLength)
	if err != nil {
		return err
	}
	t.SerializeHeader(headerBytes)
	return nil
}

// DecodeFromBytes attempts to decode the byte slice as a transfer record
func (t *TransferLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	if len(data) < TransferHeaderLength {
		df.SetTruncated()
		return errors.New("Transfer record too short")
	}

	t.Event = layers.USBEventType(data[0])
	switch t.Event {
	case layers.USBEventTypeSubmit, layers.USBEventTypeComplete, layers.USBEventTypeError:
	default:
		return ErrBadRecord{What: "unknown event type"}
	}
	t.Transfer = layers.USBTransportType(data[1])
	t.DirectionIn = data[2]&TransferFlagIn != 0

	t.BaseLayer = layers.BaseLayer{
		Contents: data[0:TransferHeaderLength],
		Payload:  data[TransferHeaderLength:],
	}
	return nil
}

// NextLayerType applies the dispatch rules to the record metadata. Only the
// two known control transfer shapes are claimed, anything else stays raw.
func (t *TransferLayer) NextLayerType() gopacket.LayerType {
	if t.Transfer != layers.USBTransportTypeControl {
		return gopacket.LayerTypePayload
	}
	switch {
	case t.Event == layers.USBEventTypeSubmit && !t.DirectionIn:
		return SetConfigLayerType
	case t.Event == layers.USBEventTypeComplete && t.DirectionIn:
		return StateLayerType
	default:
		return gopacket.LayerTypePayload
	}
}

func decodeTransferLayer(data []byte, p gopacket.PacketBuilder) error {
	t := &TransferLayer{}
	err := t.DecodeFromBytes(data, p)
	if err != nil {
		log.Error("Error while decoding transfer layer: %s", err)
		return err
	}
	p.AddLayer(t)
	return p.NextDecoder(t.NextLayerType())
}

// SetConfigLayer is a decoded host to device configuration write:
// the control request header tree and the configuration tree.
type SetConfigLayer struct {
	layers.BaseLayer
	Header *schema.Node
	Config *schema.Node
}

var SetConfigLayerType = gopacket.RegisterLayerType(SetConfigLayerNum,
	gopacket.LayerTypeMetadata{Name: "SetConfigLayerType", Decoder: gopacket.DecodeFunc(DecodeSetConfigLayer)})

func (l *SetConfigLayer) LayerType() gopacket.LayerType {
	return SetConfigLayerType
}

// ConfigBytes returns the raw 34 byte configuration block
func (l *SetConfigLayer) ConfigBytes() []byte {
	return l.Config.Raw
}

func (l *SetConfigLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	nodes, err := Dispatch(layers.USBEventTypeSubmit, false, data)
	if err != nil {
		var truncated schema.ErrTruncated
		if errors.As(err, &truncated) {
			df.SetTruncated()
		}
		return err
	}
	l.Header = nodes[0]
	l.Config = nodes[1]
	l.BaseLayer = layers.BaseLayer{
		Contents: data[0:SetConfigLength],
		Payload:  data[SetConfigLength:],
	}
	return nil
}

func DecodeSetConfigLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &SetConfigLayer{}
	err := l.DecodeFromBytes(data, p)
	if err != nil {
		log.Error("Error while decoding set-config layer: %s", err)
		return err
	}
	p.AddLayer(l)
	return nil
}

// StateLayer is a decoded device to host state read, the configuration tree
// with no header in front of it.
type StateLayer struct {
	layers.BaseLayer
	Config *schema.Node
}

var StateLayerType = gopacket.RegisterLayerType(StateLayerNum,
	gopacket.LayerTypeMetadata{Name: "StateLayerType", Decoder: gopacket.DecodeFunc(DecodeStateLayer)})

func (l *StateLayer) LayerType() gopacket.LayerType {
	return StateLayerType
}

// ConfigBytes returns the raw 34 byte configuration block
func (l *StateLayer) ConfigBytes() []byte {
	return l.Config.Raw
}

func (l *StateLayer) DecodeFromBytes(data []byte, df gopacket.DecodeFeedback) error {
	nodes, err := Dispatch(layers.USBEventTypeComplete, true, data)
	if err != nil {
		var truncated schema.ErrTruncated
		if errors.As(err, &truncated) {
			df.SetTruncated()
		}
		return err
	}
	l.Config = nodes[0]
	l.BaseLayer = layers.BaseLayer{
		Contents: data[0:ConfigLength],
		Payload:  data[ConfigLength:],
	}
	return nil
}

func DecodeStateLayer(data []byte, p gopacket.PacketBuilder) error {
	l := &StateLayer{}
	err := l.DecodeFromBytes(data, p)
	if err != nil {
		log.Error("Error while decoding state layer: %s", err)
		return err
	}
	p.AddLayer(l)
	return nil
}
