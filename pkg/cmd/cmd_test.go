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

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func TestRootHasRunCommand(t *testing.T) {
	root := NewCmd()
	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	require.Contains(t, names, "run")
}

func TestRunFlagsOverrideConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meshflow.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[mesh]
blocks = 16

[driver]
steps = 7
`), 0o644))

	o := newOptions()
	command := &cobra.Command{Use: "run"}
	o.addFlags(command)
	require.NoError(t, command.ParseFlags([]string{
		"--config", path,
		"--blocks", "2",
	}))
	o.configFilePath = path
	require.NoError(t, o.complete(command))

	// The explicit flag wins, the file value survives where no flag
	// was given, and defaults fill the rest.
	require.Equal(t, 2, o.cfg.Mesh.Blocks)
	require.Equal(t, 7, o.cfg.Driver.Steps)
	require.Equal(t, "rk2", o.cfg.Integrator.Scheme)
}

func TestRunRejectsBadConfigFile(t *testing.T) {
	o := newOptions()
	command := &cobra.Command{Use: "run"}
	o.addFlags(command)
	o.configFilePath = filepath.Join(t.TempDir(), "missing.toml")
	require.Error(t, o.complete(command))
}
