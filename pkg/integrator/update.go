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

package integrator

import (
	"math"

	"github.com/pingcap/errors"

	"github.com/meshflow/meshflow/pkg/mesh"
	"github.com/meshflow/meshflow/pkg/task"
)

// Stage update functions operating on containers. Each is task-shaped
// so the driver can capture it into a work graph.

// CalculateFluxes fills the face flux of every variable with the first
// order upwind advective flux at velocity vel. The edge faces use the
// ghost cells, so the container's ghosts must be current.
func CalculateFluxes(rc *mesh.Container, vel float64) (task.TaskStatus, error) {
	b := rc.Block()
	g, n := b.Ghost(), b.NumCells()
	for _, name := range rc.Names() {
		u, err := rc.Get(name)
		if err != nil {
			return task.TaskIncomplete, errors.Trace(err)
		}
		f, err := rc.Flux(name)
		if err != nil {
			return task.TaskIncomplete, errors.Trace(err)
		}
		for i := 0; i <= n; i++ {
			if vel >= 0 {
				f[i] = vel * u[g+i-1]
			} else {
				f[i] = vel * u[g+i]
			}
		}
	}
	return task.TaskComplete, nil
}

// UpdateContainer applies one stage update in flux-divergence form:
//
//	out = Gam0*in + Gam1*u0 - BetaDt*dt/dx * (F_{i+1/2} - F_{i-1/2})
//
// over the interior cells, reading fluxes from in. Aliasing out with in
// is allowed.
func UpdateContainer(in, u0, out *mesh.Container, w StageWeights, dt float64) (task.TaskStatus, error) {
	b := in.Block()
	g, n := b.Ghost(), b.NumCells()
	coeff := w.BetaDt * dt / b.Dx()
	for _, name := range in.Names() {
		ui, err := in.Get(name)
		if err != nil {
			return task.TaskIncomplete, errors.Trace(err)
		}
		u0v, err := u0.Get(name)
		if err != nil {
			return task.TaskIncomplete, errors.Trace(err)
		}
		uo, err := out.Get(name)
		if err != nil {
			return task.TaskIncomplete, errors.Trace(err)
		}
		f, err := in.Flux(name)
		if err != nil {
			return task.TaskIncomplete, errors.Trace(err)
		}
		for i := 0; i < n; i++ {
			uo[g+i] = w.Gam0*ui[g+i] + w.Gam1*u0v[g+i] - coeff*(f[i+1]-f[i])
		}
	}
	return task.TaskComplete, nil
}

// EstimateTimestep returns the CFL-limited timestep of one block.
func EstimateTimestep(rc *mesh.Container, cfl, vel float64) float64 {
	if vel == 0 {
		return math.Inf(1)
	}
	return cfl * rc.Block().Dx() / math.Abs(vel)
}

// FillDerived recomputes every derived variable of the container from
// its primary. A derived variable is named "<primary>_sq" and holds the
// square of its primary, cell by cell.
func FillDerived(rc *mesh.Container) (task.TaskStatus, error) {
	for _, name := range rc.Names() {
		primary, ok := derivedPrimary(name)
		if !ok {
			continue
		}
		u, err := rc.Get(primary)
		if err != nil {
			return task.TaskIncomplete, errors.Trace(err)
		}
		d, err := rc.Get(name)
		if err != nil {
			return task.TaskIncomplete, errors.Trace(err)
		}
		for i := range u {
			d[i] = u[i] * u[i]
		}
	}
	return task.TaskComplete, nil
}

const derivedSuffix = "_sq"

func derivedPrimary(name string) (string, bool) {
	if len(name) <= len(derivedSuffix) || name[len(name)-len(derivedSuffix):] != derivedSuffix {
		return "", false
	}
	return name[:len(name)-len(derivedSuffix)], true
}
