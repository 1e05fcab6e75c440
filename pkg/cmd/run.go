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
	"context"
	"os/signal"
	"syscall"

	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/meshflow/meshflow/pkg/config"
	"github.com/meshflow/meshflow/pkg/driver"
	"github.com/meshflow/meshflow/pkg/logutil"
	"github.com/meshflow/meshflow/pkg/task"
)

// options defines flags for the `run` command.
type options struct {
	configFilePath string

	cfg *config.Config
}

func newOptions() *options {
	return &options{
		cfg: config.GetDefaultConfig(),
	}
}

// addFlags binds the run flags. Flags override values loaded from the
// config file.
func (o *options) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.configFilePath, "config", "", "Path of the configuration file")
	cmd.Flags().IntVar(&o.cfg.Mesh.Blocks, "blocks", o.cfg.Mesh.Blocks, "Number of mesh blocks")
	cmd.Flags().IntVar(&o.cfg.Mesh.CellsPerBlock, "cells", o.cfg.Mesh.CellsPerBlock, "Interior cells per block")
	cmd.Flags().Float64Var(&o.cfg.Mesh.Velocity, "velocity", o.cfg.Mesh.Velocity, "Advection velocity")
	cmd.Flags().StringVar(&o.cfg.Integrator.Scheme, "scheme", o.cfg.Integrator.Scheme, "Time integration scheme (rk1|rk2|vl2)")
	cmd.Flags().IntVar(&o.cfg.Driver.Steps, "steps", o.cfg.Driver.Steps, "Number of timesteps to advance")
	cmd.Flags().IntVar(&o.cfg.Driver.Concurrency, "concurrency", o.cfg.Driver.Concurrency, "Goroutines polling block task lists")
	cmd.Flags().StringVar(&o.cfg.Log.Level, "log-level", o.cfg.Log.Level, "Log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&o.cfg.Log.File, "log-file", o.cfg.Log.File, "Log file path")
}

func (o *options) complete(cmd *cobra.Command) error {
	if o.configFilePath != "" {
		fileCfg, err := config.FromFile(o.configFilePath)
		if err != nil {
			return errors.Trace(err)
		}
		flagCfg := o.cfg
		o.cfg = fileCfg
		// Explicit flags win over the config file.
		cmd.Flags().Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "blocks":
				o.cfg.Mesh.Blocks = flagCfg.Mesh.Blocks
			case "cells":
				o.cfg.Mesh.CellsPerBlock = flagCfg.Mesh.CellsPerBlock
			case "velocity":
				o.cfg.Mesh.Velocity = flagCfg.Mesh.Velocity
			case "scheme":
				o.cfg.Integrator.Scheme = flagCfg.Integrator.Scheme
			case "steps":
				o.cfg.Driver.Steps = flagCfg.Driver.Steps
			case "concurrency":
				o.cfg.Driver.Concurrency = flagCfg.Driver.Concurrency
			case "log-level":
				o.cfg.Log.Level = flagCfg.Log.Level
			case "log-file":
				o.cfg.Log.File = flagCfg.Log.File
			}
		})
	}
	return o.cfg.ValidateAndAdjust()
}

func (o *options) run() error {
	if err := logutil.InitLogger(&o.cfg.Log); err != nil {
		return errors.Trace(err)
	}

	registry := prometheus.NewRegistry()
	task.InitMetrics(registry)
	driver.InitMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	d, err := driver.New(o.cfg)
	if err != nil {
		return errors.Trace(err)
	}
	if err := d.Run(ctx); err != nil {
		return errors.Trace(err)
	}
	log.Info("run finished",
		zap.Int64("steps", d.StepsDone()),
		zap.Float64("time", d.Time()))
	return nil
}

// newCmdRun creates the `run` command.
func newCmdRun() *cobra.Command {
	o := newOptions()
	command := &cobra.Command{
		Use:   "run",
		Short: "Run the advection simulation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.complete(cmd); err != nil {
				return err
			}
			return o.run()
		},
	}
	o.addFlags(command)
	return command
}
