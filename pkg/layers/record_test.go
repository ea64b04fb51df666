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
	"encoding/hex"
	"errors"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecord(t *testing.T) {
	payload := append(setConfigHeader(), configBlock()...)
	line := []byte(`{"event":"S","transfer":"control","in":false,"data":"` +
		hex.EncodeToString(payload) + `"}`)

	transfer, data, err := ParseRecord(line)
	require.NoError(t, err)
	assert.Equal(t, layers.USBEventTypeSubmit, transfer.Event)
	assert.Equal(t, layers.USBTransportTypeControl, transfer.Transfer)
	assert.False(t, transfer.DirectionIn)
	assert.Equal(t, payload, data)
}

func TestParseRecordLongEventNames(t *testing.T) {
	transfer, _, err := ParseRecord([]byte(`{"event":"COMPLETE","transfer":"interrupt","in":true,"data":""}`))
	require.NoError(t, err)
	assert.Equal(t, layers.USBEventTypeComplete, transfer.Event)
	assert.Equal(t, layers.USBTransportTypeInterrupt, transfer.Transfer)
	assert.True(t, transfer.DirectionIn)
}

func TestParseRecordErrors(t *testing.T) {
	for _, tc := range []struct {
		name string
		line string
	}{
		{"not-json", `not json at all`},
		{"unknown-event", `{"event":"Q","transfer":"control","in":false,"data":""}`},
		{"unknown-transfer", `{"event":"S","transfer":"warp","in":false,"data":""}`},
		{"bad-hex", `{"event":"S","transfer":"control","in":false,"data":"zz"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ParseRecord([]byte(tc.line))
			require.Error(t, err)
			var bad ErrBadRecord
			assert.True(t, errors.As(err, &bad))
		})
	}
}

func TestRecordFrame(t *testing.T) {
	record := &Record{
		Event:    "C",
		Transfer: "control",
		In:       true,
		Data:     hex.EncodeToString(configBlock()),
	}

	out, err := record.Frame()
	require.NoError(t, err)
	require.Len(t, out, TransferHeaderLength+ConfigLength)
	assert.Equal(t, byte('C'), out[0])
	assert.Equal(t, byte(layers.USBTransportTypeControl), out[1])
	assert.Equal(t, byte(TransferFlagIn), out[2])
	assert.Equal(t, configBlock(), out[TransferHeaderLength:])

	// the frame must decode back through the layer stack
	decoded := &TransferLayer{}
	require.NoError(t, decoded.DecodeFromBytes(out, gopacket.NilDecodeFeedback))
	assert.Equal(t, layers.USBEventTypeComplete, decoded.Event)
	assert.True(t, decoded.DirectionIn)
}
