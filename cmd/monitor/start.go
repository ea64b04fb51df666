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

package monitor

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wavemon/go-wavexlr/pkg/command"
	"github.com/wavemon/go-wavexlr/pkg/config"
)

const (
	AddressOptionName = "address"
	PortOptionName    = "port"
)

func NewStartCommand() *cobra.Command {
	var address string
	var port int
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start monitor server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if address != "" {
				cfg.MonitorConfig.Address = address
			}
			if port != 0 {
				cfg.MonitorConfig.Port = port
			}
			return command.StartMonitorServer(cfg)
		},
	}
	cmd.Flags().StringVar(&address, AddressOptionName, "", fmt.Sprintf("Address to bind. E.g. %s", config.DefaultMonitorAddress))
	cmd.Flags().IntVar(&port, PortOptionName, 0, fmt.Sprintf("Port number to bind. E.g. %d", config.DefaultMonitorPort))

	return cmd
}
