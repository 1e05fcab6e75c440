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

	"github.com/spf13/cobra"
)

// NewCmd creates the root command.
func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "meshflow",
		Short:         "meshflow is a task-driven block-structured mesh simulation engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newCmdRun())
	return cmd
}

// Run runs the root command and exits on error.
func Run() {
	cmd := NewCmd()
	if err := cmd.Execute(); err != nil {
		cmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
