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

package driver

import (
	"context"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pingcap/log"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/meshflow/meshflow/pkg/config"
	cerrors "github.com/meshflow/meshflow/pkg/errors"
	"github.com/meshflow/meshflow/pkg/integrator"
	"github.com/meshflow/meshflow/pkg/mesh"
	"github.com/meshflow/meshflow/pkg/task"
)

// AdvectedVar is the primary evolved variable.
const AdvectedVar = "advected"

// stageRegister labels the scratch container every stage writes into.
const stageRegister = "u1"

// Option customizes a Driver.
type Option func(*Driver)

// WithClock replaces the wall clock, for tests.
func WithClock(c clock.Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// Driver advances the mesh through timesteps. Per timestep and per
// integrator stage it builds one task list per block encoding the
// stage's work graph, then polls all lists round-robin until every
// block has drained, so blocks waiting on neighbor traffic never hold
// up blocks that can make progress.
type Driver struct {
	cfg   *config.Config
	mesh  *mesh.Mesh
	integ *integrator.Integrator
	clock clock.Clock

	tm        float64
	dt        float64
	stepsDone atomic.Int64
}

// New builds a driver, its mesh and its integrator from the config and
// applies the initial condition.
func New(cfg *config.Config, opts ...Option) (*Driver, error) {
	integ, err := integrator.New(cfg.Integrator.Scheme)
	if err != nil {
		return nil, err
	}
	d := &Driver{
		cfg:   cfg,
		mesh:  mesh.New(cfg.Mesh.Blocks, cfg.Mesh.CellsPerBlock, cfg.Mesh.Ghost),
		integ: integ,
		clock: clock.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	for _, b := range d.mesh.Blocks() {
		base := b.AddContainer(mesh.BaseContainer)
		base.AddVariable(AdvectedVar)
		base.AddVariable(AdvectedVar + "_sq")
		b.AddContainer(stageRegister)
	}
	if err := d.initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

// initialize applies a smooth periodic initial profile, ghosts
// included, and primes the stage register.
func (d *Driver) initialize() error {
	var errs error
	for _, b := range d.mesh.Blocks() {
		err := func() error {
			base, err := b.Container(mesh.BaseContainer)
			if err != nil {
				return err
			}
			u, err := base.Get(AdvectedVar)
			if err != nil {
				return err
			}
			for i := range u {
				u[i] = math.Sin(2 * math.Pi * b.CellCenter(i))
			}
			if _, err := integrator.FillDerived(base); err != nil {
				return err
			}
			u1, err := b.Container(stageRegister)
			if err != nil {
				return err
			}
			return u1.CopyFrom(base)
		}()
		errs = multierr.Append(errs, err)
	}
	return errs
}

// Mesh returns the driver's mesh.
func (d *Driver) Mesh() *mesh.Mesh { return d.mesh }

// Time returns the current simulation time.
func (d *Driver) Time() float64 { return d.tm }

// StepsDone returns the number of completed timesteps.
func (d *Driver) StepsDone() int64 { return d.stepsDone.Load() }

// MakeTaskList builds the work graph of one stage on one block. The
// graph shape follows the flux-correction advection cycle:
//
//	start_recv        calc_flux
//	    |            /    |    \
//	    |     send_flux  recv_flux
//	    |                  |
//	    |               update ------ send_bound
//	  recv_bound           |
//	        \         set_bound
//	                       |
//	                  clear_bound -- fill_derived [-- promote]
//
// where recv_flux, recv_bound are polled communication tasks and
// promote only exists on the final stage.
func (d *Driver) MakeTaskList(b *mesh.Block, stage int) (*task.TaskList, error) {
	base, err := b.Container(mesh.BaseContainer)
	if err != nil {
		return nil, err
	}
	out, err := b.Container(stageRegister)
	if err != nil {
		return nil, err
	}
	in := base
	if stage > 1 {
		in = out
	}
	w := d.integ.Stages[stage-1]
	vel := d.cfg.Mesh.Velocity
	e := d.mesh.Exchanger()

	tl := task.NewTaskList()
	start := tl.AddTask(task.TaskID{}, task.Bind(e.StartReceiving, out))
	flx := tl.AddTask(task.TaskID{}, task.Bind2(integrator.CalculateFluxes, in, vel))
	tl.AddTask(flx, task.Bind(e.SendFluxCorrection, in))
	recvFlx := tl.AddTask(flx, task.Bind(e.ReceiveFluxCorrection, in))
	update := tl.AddTask(recvFlx, func() (task.TaskStatus, error) {
		return integrator.UpdateContainer(in, base, out, w, d.dt)
	})
	tl.AddTask(update, task.Bind(e.SendBoundaryBuffers, out))
	recv := tl.AddTask(start, task.Bind(e.ReceiveBoundaryBuffers, out))
	setb := tl.AddTask(update.Or(recv), task.Bind(e.SetBoundaries, out))
	clear := tl.AddTask(setb, task.Bind(e.ClearBoundary, out))
	fill := tl.AddTask(clear, task.Bind(integrator.FillDerived, out))
	if stage == d.integ.NumStages() {
		tl.AddTask(fill, func() (task.TaskStatus, error) {
			if err := base.CopyFrom(out); err != nil {
				return task.TaskIncomplete, err
			}
			return task.TaskComplete, nil
		})
	}
	return tl, nil
}

// Run advances the configured number of timesteps or stops on context
// cancellation.
func (d *Driver) Run(ctx context.Context) error {
	dt, err := d.estimateDt()
	if err != nil {
		return err
	}
	d.dt = dt
	log.Info("driver starting",
		zap.Int("blocks", d.mesh.NumBlocks()),
		zap.String("scheme", d.integ.Scheme),
		zap.Float64("dt", d.dt))

	for step := 1; step <= d.cfg.Driver.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		start := time.Now()
		var finalLists []*task.TaskList
		for stage := 1; stage <= d.integ.NumStages(); stage++ {
			lists := make([]*task.TaskList, 0, d.mesh.NumBlocks())
			for _, b := range d.mesh.Blocks() {
				tl, err := d.MakeTaskList(b, stage)
				if err != nil {
					return err
				}
				lists = append(lists, tl)
			}
			if err := d.runLists(ctx, lists); err != nil {
				stepStalls.Inc()
				log.Error("stage stalled",
					zap.Int("step", step),
					zap.Int("stage", stage),
					zap.Error(err))
				return cerrors.ErrDriverAborted.Wrap(err).GenWithStackByArgs(step, stage)
			}
			finalLists = lists
		}
		d.tm += d.dt
		d.stepsDone.Inc()
		stepsTotal.Inc()
		stepDuration.Observe(time.Since(start).Seconds())

		// Mesh-wide dt reduction, gated on the drained block lists.
		newDt, err := d.reduceDt(ctx, finalLists)
		if err != nil {
			return cerrors.ErrDriverAborted.Wrap(err).GenWithStackByArgs(step, d.integ.NumStages())
		}
		d.dt = newDt
		currentDt.Set(d.dt)
	}
	log.Info("driver finished",
		zap.Int64("steps", d.stepsDone.Load()),
		zap.Float64("time", d.tm))
	return nil
}

func (d *Driver) estimateDt() (float64, error) {
	dt := math.Inf(1)
	for _, b := range d.mesh.Blocks() {
		rc, err := b.Container(mesh.BaseContainer)
		if err != nil {
			return 0, err
		}
		if bdt := integrator.EstimateTimestep(rc, d.cfg.Integrator.Cfl, d.cfg.Mesh.Velocity); bdt < dt {
			dt = bdt
		}
	}
	return dt, nil
}

// reduceDt runs the mesh-wide timestep reduction as a task list whose
// readiness is gated on every block list of the finished stage.
func (d *Driver) reduceDt(ctx context.Context, finalLists []*task.TaskList) (float64, error) {
	reduce := task.NewTaskList()
	for _, l := range finalLists {
		reduce.AddListDependency(l)
	}
	dt := math.Inf(1)
	reduce.AddTask(task.TaskID{}, func() (task.TaskStatus, error) {
		v, err := d.estimateDt()
		if err != nil {
			return task.TaskIncomplete, err
		}
		dt = v
		return task.TaskComplete, nil
	})
	interval := time.Duration(d.cfg.Driver.PollInterval)
	for {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if !reduce.IsReady() {
			if interval > 0 {
				d.clock.Sleep(interval)
			}
			continue
		}
		status, err := reduce.DoAvailable()
		if err != nil {
			return 0, err
		}
		if status == task.ListComplete {
			return dt, nil
		}
	}
}
