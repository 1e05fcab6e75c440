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
	cerrors "github.com/meshflow/meshflow/pkg/errors"
)

// StageWeights are the coefficients of one stage of a low-storage
// multistage scheme. The stage update is
//
//	out = Gam0*in + Gam1*u0 + BetaDt*dt*F(in)
//
// where u0 is the step-start state and in the previous stage's output.
// Gam0+Gam1 == 1 keeps the update conservative in flux form.
type StageWeights struct {
	Gam0   float64
	Gam1   float64
	BetaDt float64
}

// Integrator holds the stage table of one multistage time-integration
// scheme. The same work-graph shape is rebuilt for every stage.
type Integrator struct {
	Scheme string
	Stages []StageWeights
}

// New returns the integrator for the named scheme: "rk1" (forward
// Euler), "rk2" (second order SSP Runge-Kutta) or "vl2" (van Leer
// predictor-corrector).
func New(scheme string) (*Integrator, error) {
	switch scheme {
	case "rk1":
		return &Integrator{Scheme: scheme, Stages: []StageWeights{
			{Gam0: 1.0, Gam1: 0.0, BetaDt: 1.0},
		}}, nil
	case "rk2":
		return &Integrator{Scheme: scheme, Stages: []StageWeights{
			{Gam0: 1.0, Gam1: 0.0, BetaDt: 1.0},
			{Gam0: 0.5, Gam1: 0.5, BetaDt: 0.5},
		}}, nil
	case "vl2":
		return &Integrator{Scheme: scheme, Stages: []StageWeights{
			{Gam0: 1.0, Gam1: 0.0, BetaDt: 0.5},
			{Gam0: 0.0, Gam1: 1.0, BetaDt: 1.0},
		}}, nil
	}
	return nil, cerrors.ErrUnknownScheme.GenWithStackByArgs(scheme)
}

// NumStages returns the number of stages per timestep.
func (i *Integrator) NumStages() int { return len(i.Stages) }
