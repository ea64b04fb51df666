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
	"encoding/binary"

	"go.etcd.io/bbolt"
	"sigs.k8s.io/yaml"

	"github.com/wavemon/go-wavexlr/pkg/config"
	"github.com/wavemon/go-wavexlr/pkg/device"
	"github.com/wavemon/go-wavexlr/pkg/log"
)

const (
	BucketPrefix = "state_"
	MetaBucket   = "meta"

	ConfigKey     = "config"
	TimestampKey  = "timestamp"
	SnapshotKey   = "snapshot"
	LastSourceKey = "last_source"
)

type State struct {
	context.Context
	DB *bbolt.DB
}

func NewState(ctx context.Context, cfg *config.Config) (*State, error) {
	db, err := bbolt.Open(cfg.DBPath, 0600, nil)
	if err != nil {
		return nil, err
	}
	s := &State{
		Context: ctx,
		DB:      db,
	}
	if err := s.createBucket(MetaBucket); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Close ...
func (s *State) Close() {
	s.DB.Close()
}

func (s *State) createBucket(name string) error {
	return s.DB.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
}

func BucketName(source string) string {
	return BucketPrefix + source
}

func uint64ToByte(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

// SetConfig stores the raw configuration block seen from one capture source
// together with a timestamp and, when the block parses, a yaml snapshot of
// the typed view. The source also becomes the most recent one.
func (s *State) SetConfig(source string, raw []byte) error {
	log.Debug("Setting device configuration: source: %s %d bytes", source, len(raw))

	var snapshot []byte
	if cfg, err := device.FromBytes(raw); err == nil {
		snapshot, err = yaml.Marshal(cfg)
		if err != nil {
			return err
		}
	} else {
		log.Warning("Configuration block from %s does not parse: %s", source, err)
	}

	return s.DB.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketName(source)))
		if err != nil {
			return err
		}
		if err := b.Put([]byte(ConfigKey), raw); err != nil {
			return err
		}
		if err := b.Put([]byte(TimestampKey), uint64ToByte(Now())); err != nil {
			return err
		}
		if snapshot != nil {
			if err := b.Put([]byte(SnapshotKey), snapshot); err != nil {
				return err
			}
		} else if err := b.Delete([]byte(SnapshotKey)); err != nil {
			return err
		}
		meta := tx.Bucket([]byte(MetaBucket))
		if meta == nil {
			return ErrStateNotFound{}
		}
		return meta.Put([]byte(LastSourceKey), []byte(source))
	})
}

// GetRaw returns the configuration block most recently captured from any
// source, its timestamp and the source it came from
func (s *State) GetRaw() ([]byte, uint64, string, error) {
	var raw []byte
	var timestamp uint64
	var source string
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(MetaBucket))
		if meta == nil {
			return ErrStateNotFound{}
		}
		sourceBytes := meta.Get([]byte(LastSourceKey))
		if sourceBytes == nil {
			return ErrStateNotFound{}
		}
		source = string(sourceBytes)
		b := tx.Bucket([]byte(BucketName(source)))
		if b == nil {
			return ErrStateNotFound{}
		}
		configBytes := b.Get([]byte(ConfigKey))
		if configBytes == nil {
			return ErrStateNotFound{}
		}
		raw = make([]byte, len(configBytes))
		copy(raw, configBytes)
		tsBytes := b.Get([]byte(TimestampKey))
		if tsBytes != nil && len(tsBytes) == 8 {
			timestamp = binary.BigEndian.Uint64(tsBytes)
		}
		return nil
	}); err != nil {
		return nil, 0, "", err
	}
	return raw, timestamp, source, nil
}

// GetConfig returns the typed view of the most recent configuration block.
// The stored snapshot is preferred, a block that never parsed is re-parsed
// so the caller sees the original error.
func (s *State) GetConfig() (*device.Config, error) {
	var snapshot []byte
	var raw []byte
	if err := s.DB.View(func(tx *bbolt.Tx) error {
		meta := tx.Bucket([]byte(MetaBucket))
		if meta == nil {
			return ErrStateNotFound{}
		}
		sourceBytes := meta.Get([]byte(LastSourceKey))
		if sourceBytes == nil {
			return ErrStateNotFound{}
		}
		b := tx.Bucket([]byte(BucketName(string(sourceBytes))))
		if b == nil {
			return ErrStateNotFound{}
		}
		if snapshotBytes := b.Get([]byte(SnapshotKey)); snapshotBytes != nil {
			snapshot = make([]byte, len(snapshotBytes))
			copy(snapshot, snapshotBytes)
			return nil
		}
		configBytes := b.Get([]byte(ConfigKey))
		if configBytes == nil {
			return ErrStateNotFound{}
		}
		raw = make([]byte, len(configBytes))
		copy(raw, configBytes)
		return nil
	}); err != nil {
		return nil, err
	}
	if snapshot != nil {
		cfg := &device.Config{}
		if err := yaml.Unmarshal(snapshot, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return device.FromBytes(raw)
}
