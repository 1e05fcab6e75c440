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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	cerrors "github.com/meshflow/meshflow/pkg/errors"
)

func TestDefaultConfigIsValid(t *testing.T) {
	t.Parallel()

	cfg := GetDefaultConfig()
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, "info", cfg.Log.Level)
}

func TestFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meshflow.toml")
	content := `
[mesh]
blocks = 8
cells-per-block = 32
velocity = -0.5

[integrator]
scheme = "vl2"

[driver]
steps = 3
poll-interval = "1ms"
stall-timeout = "2s"

[log]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := FromFile(path)
	require.NoError(t, err)
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, 8, cfg.Mesh.Blocks)
	require.Equal(t, 32, cfg.Mesh.CellsPerBlock)
	// Unset keys keep their defaults.
	require.Equal(t, 1, cfg.Mesh.Ghost)
	require.Equal(t, 0.8, cfg.Integrator.Cfl)
	require.Equal(t, "vl2", cfg.Integrator.Scheme)
	require.Equal(t, TomlDuration(time.Millisecond), cfg.Driver.PollInterval)
	require.Equal(t, TomlDuration(2*time.Second), cfg.Driver.StallTimeout)
	require.Equal(t, "debug", cfg.Log.Level)
}

func TestFromFileRejectsUnknownKey(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "meshflow.toml")
	require.NoError(t, os.WriteFile(path, []byte("[mesh]\nblcoks = 8\n"), 0o644))
	_, err := FromFile(path)
	require.Error(t, err)
	require.True(t, cerrors.ErrInvalidConfig.Equal(err))
}

func TestValidateAndAdjust(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero blocks", func(c *Config) { c.Mesh.Blocks = 0 }},
		{"zero cells", func(c *Config) { c.Mesh.CellsPerBlock = 0 }},
		{"zero ghost", func(c *Config) { c.Mesh.Ghost = 0 }},
		{"wide ghost", func(c *Config) { c.Mesh.Ghost = 100; c.Mesh.CellsPerBlock = 4 }},
		{"bad cfl", func(c *Config) { c.Integrator.Cfl = 1.5 }},
		{"zero steps", func(c *Config) { c.Driver.Steps = 0 }},
	}
	for _, tc := range cases {
		cfg := GetDefaultConfig()
		tc.mutate(cfg)
		err := cfg.ValidateAndAdjust()
		require.Error(t, err, tc.name)
		require.True(t, cerrors.ErrInvalidConfig.Equal(err), tc.name)
	}

	// Non-positive tuning knobs are adjusted, not rejected.
	cfg := GetDefaultConfig()
	cfg.Driver.Concurrency = 0
	cfg.Driver.StallBudget = -1
	require.NoError(t, cfg.ValidateAndAdjust())
	require.Equal(t, 1, cfg.Driver.Concurrency)
	require.Equal(t, 1000, cfg.Driver.StallBudget)
}
