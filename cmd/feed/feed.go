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

package feed

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/spf13/cobra"

	"github.com/wavemon/go-wavexlr/pkg/config"
	"github.com/wavemon/go-wavexlr/pkg/layers"
	"github.com/wavemon/go-wavexlr/pkg/log"
)

const (
	FileOptionName    = "file"
	AddressOptionName = "address"
	PortOptionName    = "port"
)

// NewCommand creates a cobra command that sends captured transfer records
// to a running monitor server as framed UDP datagrams
func NewCommand() *cobra.Command {
	var filePath, address string
	var port int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Feed captured records to a monitor server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.MonitorConfig.Address = address
			}
			if port != 0 {
				cfg.MonitorConfig.Port = port
			}

			in := cmd.InOrStdin()
			if filePath != "" {
				f, err := os.Open(filePath)
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			uaddr, err := net.ResolveUDPAddr("udp",
				fmt.Sprintf("%s:%d", cfg.MonitorConfig.Address, cfg.MonitorConfig.Port))
			if err != nil {
				return err
			}
			conn, err := net.DialUDP("udp", nil, uaddr)
			if err != nil {
				return err
			}
			defer conn.Close()

			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 65536), 65536)
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				record := &layers.Record{}
				if err := json.Unmarshal(line, record); err != nil {
					log.Error("Error while parsing record: %s", err)
					continue
				}
				frame, err := record.Frame()
				if err != nil {
					log.Error("Error while framing record: %s", err)
					continue
				}
				if _, err := conn.Write(frame); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&filePath, FileOptionName, "", "File to read records from, stdin if not set")
	cmd.Flags().StringVar(&address, AddressOptionName, "", fmt.Sprintf("Monitor server address. E.g. %s", config.DefaultMonitorAddress))
	cmd.Flags().IntVar(&port, PortOptionName, 0, fmt.Sprintf("Monitor server port. E.g. %d", config.DefaultMonitorPort))

	return cmd
}
