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
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frame(event byte, transfer byte, in bool, payload []byte) []byte {
	var flags byte
	if in {
		flags |= TransferFlagIn
	}
	return append([]byte{event, transfer, flags, 0x00}, payload...)
}

func TestPacketSetConfig(t *testing.T) {
	data := frame('S', byte(layers.USBTransportTypeControl), false,
		append(setConfigHeader(), configBlock()...))

	packet := gopacket.NewPacket(data, TransferLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer(), "packet must decode cleanly")

	transferLayer := packet.Layer(TransferLayerType)
	require.NotNil(t, transferLayer)
	transfer := transferLayer.(*TransferLayer)
	assert.Equal(t, layers.USBEventTypeSubmit, transfer.Event)
	assert.Equal(t, layers.USBTransportTypeControl, transfer.Transfer)
	assert.False(t, transfer.DirectionIn)

	setConfigLayer := packet.Layer(SetConfigLayerType)
	require.NotNil(t, setConfigLayer)
	setConfig := setConfigLayer.(*SetConfigLayer)
	require.NotNil(t, setConfig.Header)
	require.NotNil(t, setConfig.Config)
	assert.Len(t, setConfig.ConfigBytes(), ConfigLength)
	assert.Equal(t, 36.5, fieldByName(t, setConfig.Config, "usb.elgato.config.gain").Value.Float)
}

func TestPacketStateRead(t *testing.T) {
	data := frame('C', byte(layers.USBTransportTypeControl), true, configBlock())

	packet := gopacket.NewPacket(data, TransferLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer(), "packet must decode cleanly")

	stateLayer := packet.Layer(StateLayerType)
	require.NotNil(t, stateLayer)
	state := stateLayer.(*StateLayer)
	assert.Len(t, state.ConfigBytes(), ConfigLength)
	assert.True(t, fieldByName(t, state.Config, "usb.elgato.config.mute").Value.Bool)

	assert.Nil(t, packet.Layer(SetConfigLayerType))
}

func TestPacketBulkPassThrough(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	data := frame('S', byte(layers.USBTransportTypeBulk), false, payload)

	packet := gopacket.NewPacket(data, TransferLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())

	assert.Nil(t, packet.Layer(SetConfigLayerType))
	assert.Nil(t, packet.Layer(StateLayerType))
	require.NotNil(t, packet.Layer(gopacket.LayerTypePayload))
	assert.Equal(t, payload, packet.Layer(gopacket.LayerTypePayload).LayerContents())
}

func TestPacketControlUnrelatedDirection(t *testing.T) {
	// a submitted device to host transfer is a read request, it carries no
	// data stage worth decoding
	data := frame('S', byte(layers.USBTransportTypeControl), true, nil)

	packet := gopacket.NewPacket(data, TransferLayerType, gopacket.Default)
	require.Nil(t, packet.ErrorLayer())
	assert.Nil(t, packet.Layer(SetConfigLayerType))
	assert.Nil(t, packet.Layer(StateLayerType))
}

func TestPacketShortHeader(t *testing.T) {
	packet := gopacket.NewPacket([]byte{'S', 0x02}, TransferLayerType, gopacket.Default)
	require.NotNil(t, packet.ErrorLayer())
	assert.True(t, packet.Metadata().Truncated)
}

func TestPacketUnknownEvent(t *testing.T) {
	data := frame('X', byte(layers.USBTransportTypeControl), false, configBlock())
	packet := gopacket.NewPacket(data, TransferLayerType, gopacket.Default)
	assert.NotNil(t, packet.ErrorLayer())
}

func TestPacketTruncatedConfig(t *testing.T) {
	data := frame('C', byte(layers.USBTransportTypeControl), true, configBlock()[:20])
	packet := gopacket.NewPacket(data, TransferLayerType, gopacket.Default)
	require.NotNil(t, packet.ErrorLayer())
	assert.True(t, packet.Metadata().Truncated)
}

func TestSerializeHeaderRoundTrip(t *testing.T) {
	original := &TransferLayer{
		Event:       layers.USBEventTypeComplete,
		Transfer:    layers.USBTransportTypeControl,
		DirectionIn: true,
	}

	buf := gopacket.NewSerializeBuffer()
	require.NoError(t, gopacket.SerializeLayers(buf, gopacket.SerializeOptions{},
		original, gopacket.Payload(configBlock())))

	decoded := &TransferLayer{}
	require.NoError(t, decoded.DecodeFromBytes(buf.Bytes(), gopacket.NilDecodeFeedback))
	assert.Equal(t, original.Event, decoded.Event)
	assert.Equal(t, original.Transfer, decoded.Transfer)
	assert.Equal(t, original.DirectionIn, decoded.DirectionIn)
	assert.Equal(t, configBlock(), decoded.LayerPayload())
}
