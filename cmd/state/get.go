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

package state

import (
	"github.com/spf13/cobra"

	"github.com/wavemon/go-wavexlr/pkg/command"
	"github.com/wavemon/go-wavexlr/pkg/config"
)

func NewGetCommand() *cobra.Command {
	cfg := config.NewDefaultConfig()
	cfg.Load()
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Get the typed device configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			apiClient := command.NewApiClient(cfg)
			deviceConfig, err := apiClient.StateGet()
			if err != nil {
				return err
			}
			cmd.Print(deviceConfig.String())
			return nil
		},
	}
	return cmd
}
