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
	"errors"
	"fmt"

	"github.com/imroc/req"

	"github.com/wavemon/go-wavexlr/pkg/config"
	"github.com/wavemon/go-wavexlr/pkg/device"
	"github.com/wavemon/go-wavexlr/pkg/srv"
)

type ApiClient struct {
	*config.Config
	ApiPrefix string
}

func NewApiClient(cfg *config.Config) *ApiClient {
	return &ApiClient{
		Config:    cfg,
		ApiPrefix: fmt.Sprintf("http://%s:%d/api", cfg.ApiConfig.Address, cfg.ApiConfig.Port),
	}
}

// StateGet requests the typed view of the last captured device configuration
func (c *ApiClient) StateGet() (*device.Config, error) {
	r, err := req.Get(fmt.Sprintf("%s/state", c.ApiPrefix))
	if err != nil {
		return nil, err
	}

	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}

	cfg := &device.Config{}
	err = r.ToJSON(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// StateTree requests the decoded field tree of the last captured configuration
func (c *ApiClient) StateTree() (string, error) {
	r, err := req.Get(fmt.Sprintf("%s/state/tree", c.ApiPrefix))
	if err != nil {
		return "", err
	}

	if r.Response().StatusCode != 200 {
		return "", errors.New(r.Response().Status)
	}
	return r.ToString()
}

// StateRaw requests the raw bytes of the last captured configuration
func (c *ApiClient) StateRaw() (*srv.RawState, error) {
	r, err := req.Get(fmt.Sprintf("%s/state/raw", c.ApiPrefix))
	if err != nil {
		return nil, err
	}

	if r.Response().StatusCode != 200 {
		return nil, errors.New(r.Response().Status)
	}

	state := &srv.RawState{}
	err = r.ToJSON(state)
	if err != nil {
		return nil, err
	}
	return state, nil
}
