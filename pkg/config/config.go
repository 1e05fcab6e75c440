// Copyright 2025 MeshFlow Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"time"

	"github.com/BurntSushi/toml"
	"github.com/pingcap/errors"

	cerrors "github.com/meshflow/meshflow/pkg/errors"
	"github.com/meshflow/meshflow/pkg/logutil"
)

// TomlDuration is a time.Duration that (un)marshals as a toml string.
type TomlDuration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *TomlDuration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Trace(err)
	}
	*d = TomlDuration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d TomlDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// MeshConfig describes the block layout of the periodic 1D mesh.
type MeshConfig struct {
	Blocks        int     `toml:"blocks" json:"blocks"`
	CellsPerBlock int     `toml:"cells-per-block" json:"cells-per-block"`
	Ghost         int     `toml:"ghost" json:"ghost"`
	Velocity      float64 `toml:"velocity" json:"velocity"`
}

// IntegratorConfig selects the time-integration scheme.
type IntegratorConfig struct {
	Scheme string  `toml:"scheme" json:"scheme"`
	Cfl    float64 `toml:"cfl" json:"cfl"`
}

// DriverConfig tunes the evolution driver's outer polling loop.
type DriverConfig struct {
	Steps       int `toml:"steps" json:"steps"`
	Concurrency int `toml:"concurrency" json:"concurrency"`
	// StallBudget is the number of consecutive stuck scans of one task
	// list tolerated before the driver aborts the run.
	StallBudget int `toml:"stall-budget" json:"stall-budget"`
	// StallTimeout bounds the wall-clock time a task list may go
	// without retiring any task. Zero disables the timeout.
	StallTimeout TomlDuration `toml:"stall-timeout" json:"stall-timeout"`
	// PollInterval is the pause between fruitless passes over the
	// active lists. Zero means busy polling.
	PollInterval TomlDuration `toml:"poll-interval" json:"poll-interval"`
}

// Config is the top-level configuration.
type Config struct {
	Mesh       MeshConfig       `toml:"mesh" json:"mesh"`
	Integrator IntegratorConfig `toml:"integrator" json:"integrator"`
	Driver     DriverConfig     `toml:"driver" json:"driver"`
	Log        logutil.Config   `toml:"log" json:"log"`
}

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() *Config {
	return &Config{
		Mesh: MeshConfig{
			Blocks:        4,
			CellsPerBlock: 64,
			Ghost:         1,
			Velocity:      1.0,
		},
		Integrator: IntegratorConfig{
			Scheme: "rk2",
			Cfl:    0.8,
		},
		Driver: DriverConfig{
			Steps:        10,
			Concurrency:  2,
			StallBudget:  1000,
			StallTimeout: TomlDuration(30 * time.Second),
			PollInterval: TomlDuration(50 * time.Microsecond),
		},
	}
}

// FromFile loads a configuration from a toml file on top of the
// defaults.
func FromFile(path string) (*Config, error) {
	cfg := GetDefaultConfig()
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return nil, cerrors.ErrInvalidConfig.GenWithStackByArgs(
			"unknown config key " + keys[0].String())
	}
	return cfg, nil
}

// ValidateAndAdjust fills in unspecified fields and rejects unusable
// values.
func (c *Config) ValidateAndAdjust() error {
	c.Log.Adjust()
	if c.Driver.Concurrency <= 0 {
		c.Driver.Concurrency = 1
	}
	if c.Driver.StallBudget <= 0 {
		c.Driver.StallBudget = 1000
	}
	if c.Mesh.Blocks <= 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("mesh.blocks must be positive")
	}
	if c.Mesh.CellsPerBlock <= 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("mesh.cells-per-block must be positive")
	}
	if c.Mesh.Ghost <= 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("mesh.ghost must be positive")
	}
	if c.Mesh.Ghost > c.Mesh.CellsPerBlock {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("mesh.ghost wider than a block")
	}
	if c.Integrator.Cfl <= 0 || c.Integrator.Cfl > 1 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("integrator.cfl must be in (0, 1]")
	}
	if c.Driver.Steps <= 0 {
		return cerrors.ErrInvalidConfig.GenWithStackByArgs("driver.steps must be positive")
	}
	return nil
}
