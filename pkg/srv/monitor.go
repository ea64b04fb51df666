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

package srv

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/gopacket"

	"github.com/wavemon/go-wavexlr/pkg/config"
	"github.com/wavemon/go-wavexlr/pkg/layers"
	"github.com/wavemon/go-wavexlr/pkg/log"
)

// MonitorServer listens for captured control transfer frames on a UDP socket,
// decodes them and tracks the last seen device configuration.
type MonitorServer struct {
	Server
	State *State
}

func NewMonitorServer(ctx context.Context, cfg *config.Config) (*MonitorServer, error) {
	log.Debug("Initializing monitor server with address: %s port: %d",
		cfg.MonitorConfig.Address, cfg.MonitorConfig.Port)

	uaddr, err := net.ResolveUDPAddr("udp",
		fmt.Sprintf("%s:%d", cfg.MonitorConfig.Address, cfg.MonitorConfig.Port))
	if err != nil {
		return nil, err
	}

	state, err := NewState(ctx, cfg)
	if err != nil {
		return nil, err
	}

	s := &MonitorServer{
		Server: Server{
			Context: ctx,
			Config:  cfg,
			UDPAddr: uaddr,
			ChIn:    make(chan InPacket),
		},
		State: state,
	}

	return s, nil
}

func (s *MonitorServer) Run() error {

	conn, err := net.ListenUDP("udp", s.UDPAddr)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer s.State.Close()

	errChan := make(chan error, 1)
	buffer := make([]byte, 65536)

	// Read frames from wire and put them to input queue
	go func() {
		for {
			length, addr, readErr := conn.ReadFrom(buffer)
			if readErr != nil {
				errChan <- readErr
				return
			}
			udpAddr, readErr := net.ResolveUDPAddr("udp", addr.String())
			if readErr != nil {
				errChan <- readErr
				return
			}
			log.Debug("Received frame from %s", udpAddr)

			captureInfo := gopacket.CaptureInfo{
				Length:        length,
				CaptureLength: length,
				Timestamp:     time.Now(),
				AncillaryData: []interface{}{udpAddr},
			}

			data := make([]byte, length)
			copy(data, buffer[:length])
			s.ChIn <- InPacket{Data: data, CaptureInfo: captureInfo}
		}
	}()

	// Read frames from input queue and track the device configuration
	// per capture source
	go func() {
		source := gopacket.NewPacketSource(s, layers.TransferLayerType)
		for packet := range source.Packets() {
			log.Debug("Transfer frame received")
			log.Debug(packet.Dump())

			var configBytes []byte
			if layer := packet.Layer(layers.StateLayerType); layer != nil {
				configBytes = layer.(*layers.StateLayer).ConfigBytes()
			} else if layer := packet.Layer(layers.SetConfigLayerType); layer != nil {
				configBytes = layer.(*layers.SetConfigLayer).ConfigBytes()
			}
			if configBytes == nil {
				continue
			}

			udpaddr, err := GetAddrPort(packet)
			if err != nil {
				log.Error("Error while getting udpaddr for a frame from input queue")
				continue
			}
			if err := s.State.SetConfig(udpaddr.String(), configBytes); err != nil {
				log.Error("Error while storing device configuration: %s", err)
			}
		}
	}()

	go func() {
		if apiErr := s.StartApiServer(); apiErr != nil {
			errChan <- apiErr
		}
	}()

	select {
	case <-s.Context.Done():
		return s.Context.Err()
	case err = <-errChan:
		return err
	}
}
