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
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wavemon/go-wavexlr/pkg/config"
)

func testState(t *testing.T) *State {
	t.Helper()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "state.db")}
	state, err := NewState(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(state.Close)
	return state
}

func TestStateEmpty(t *testing.T) {
	state := testState(t)

	_, _, _, err := state.GetRaw()
	require.Error(t, err)
	var notFound ErrStateNotFound
	assert.True(t, errors.As(err, &notFound))

	_, err = state.GetConfig()
	require.Error(t, err)
	assert.True(t, errors.As(err, &notFound))
}

func TestStateSetGet(t *testing.T) {
	state := testState(t)

	raw := make([]byte, 34)
	raw[0] = 0x00 // gain 18dB
	raw[1] = 0x12
	raw[4] = 0x01 // mute on

	require.NoError(t, state.SetConfig("127.0.0.1:40000", raw))

	got, timestamp, source, err := state.GetRaw()
	require.NoError(t, err)
	assert.Equal(t, raw, got)
	assert.NotZero(t, timestamp)
	assert.Equal(t, "127.0.0.1:40000", source)

	cfg, err := state.GetConfig()
	require.NoError(t, err)
	assert.Equal(t, 18.0, cfg.Gain)
	assert.True(t, cfg.Mute)
}

func TestStateLastSourceWins(t *testing.T) {
	state := testState(t)

	first := make([]byte, 34)
	require.NoError(t, state.SetConfig("127.0.0.1:40000", first))

	second := make([]byte, 34)
	second[6] = 0x01 // phantom on
	require.NoError(t, state.SetConfig("127.0.0.1:40001", second))

	_, _, source, err := state.GetRaw()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:40001", source)

	cfg, err := state.GetConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Phantom)

	// the earlier source comes back once it reports again
	require.NoError(t, state.SetConfig("127.0.0.1:40000", first))
	cfg, err = state.GetConfig()
	require.NoError(t, err)
	assert.False(t, cfg.Phantom)
}

func TestStateOverwriteSameSource(t *testing.T) {
	state := testState(t)

	first := make([]byte, 34)
	require.NoError(t, state.SetConfig("127.0.0.1:40000", first))

	second := make([]byte, 34)
	second[6] = 0x01 // phantom on
	require.NoError(t, state.SetConfig("127.0.0.1:40000", second))

	cfg, err := state.GetConfig()
	require.NoError(t, err)
	assert.True(t, cfg.Phantom)
}

func TestStateShortConfig(t *testing.T) {
	state := testState(t)

	// a short block is retained raw but produces no snapshot
	require.NoError(t, state.SetConfig("127.0.0.1:40000", make([]byte, 10)))

	raw, _, _, err := state.GetRaw()
	require.NoError(t, err)
	assert.Len(t, raw, 10)

	_, err = state.GetConfig()
	require.Error(t, err)

	// a later good block from the same source replaces the stale snapshot
	require.NoError(t, state.SetConfig("127.0.0.1:40000", make([]byte, 34)))
	_, err = state.GetConfig()
	assert.NoError(t, err)
}
