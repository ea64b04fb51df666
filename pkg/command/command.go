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

package command

import (
	"context"

	"github.com/wavemon/go-wavexlr/pkg/config"
	"github.com/wavemon/go-wavexlr/pkg/srv"
)

// StartMonitorServer ...
func StartMonitorServer(cfg *config.Config) error {
	ctx := context.Background()

	s, err := srv.NewMonitorServer(ctx, cfg)
	if err != nil {
		return err
	}
	return s.Run()
}
