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
	"encoding/json"

	"github.com/google/gopacket/layers"
)

// Record is one captured control transfer as emitted by capture tooling,
// one JSON object per line:
//
//	{"event":"S","transfer":"control","in":false,"data":"0502000033002200..."}
//
// The event and direction fields carry the already-parsed URB metadata,
// data is the hex encoded data stage.
type Record struct {
	Event    string `json:"event"`
	Transfer string `json:"transfer"`
	In       bool   `json:"in"`
	Data     string `json:"data"`
}

var eventTypes = map[string]layers.USBEventType{
	"S":        layers.USBEventTypeSubmit,
	"SUBMIT":   layers.USBEventTypeSubmit,
	"C":        layers.USBEventTypeComplete,
	"COMPLETE": layers.USBEventTypeComplete,
	"E":        layers.USBEventTypeError,
	"ERROR":    layers.USBEventTypeError,
}

var transferTypes = map[string]layers.USBTransportType{
	"control":     layers.USBTransportTypeControl,
	"bulk":        layers.USBTransportTypeBulk,
	"interrupt":   layers.USBTransportTypeInterrupt,
	"isochronous": layers.USBTransportTypeIsochronous,
}

// ParseRecord parses one NDJSON line into transfer metadata and the raw
// data stage bytes.
func ParseRecord(line []byte) (*TransferLayer, []byte, error) {
	record := &Record{}
	if err := json.Unmarshal(line, record); err != nil {
		return nil, nil, ErrBadRecord{What: err.Error()}
	}
	return record.Parse()
}

// Parse converts the record into a TransferLayer plus payload.
func (r *Record) Parse() (*TransferLayer, []byte, error) {
	event, ok := eventTypes[r.Event]
	if !ok {
		return nil, nil, ErrBadRecord{What: "unknown event type: " + r.Event}
	}
	transfer, ok := transferTypes[r.Transfer]
	if !ok {
		return nil, nil, ErrBadRecord{What: "unknown transfer type: " + r.Transfer}
	}
	payload, err := hex.DecodeString(r.Data)
	if err != nil {
		return nil, nil, ErrBadRecord{What: "invalid data hex: " + err.Error()}
	}
	t := &TransferLayer{
		Event:       event,
		Transfer:    transfer,
		DirectionIn: r.In,
	}
	return t, payload, nil
}

// Frame serializes the record into the wire form consumed by the monitor
// server, the record header followed by the data stage.
func (r *Record) Frame() ([]byte, error) {
	t, payload, err := r.Parse()
	if err != nil {
		return nil, err
	}
	frame := make([]byte, TransferHeaderLength+len(payload))
	t.SerializeHeader(frame[0:TransferHeaderLength])
	copy(frame[TransferHeaderLength:], payload)
	return frame, nil
}
