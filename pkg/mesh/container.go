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

package mesh

import (
	cerrors "github.com/meshflow/meshflow/pkg/errors"
)

// Container holds the named variables of one block register (the base
// state or one stage register) plus per-variable face fluxes and the
// communication state of the current exchange epoch.
type Container struct {
	block *Block
	names []string
	vars  map[string][]float64
	flux  map[string][]float64

	comm commState
}

func newContainer(b *Block) *Container {
	return &Container{
		block: b,
		vars:  make(map[string][]float64),
		flux:  make(map[string][]float64),
	}
}

// Block returns the owning block.
func (c *Container) Block() *Block { return c.block }

// Names returns the variable names in registration order.
func (c *Container) Names() []string { return c.names }

// AddVariable registers a variable, allocating cell data over the full
// padded extent and flux storage over the interior faces. Registering
// an existing name is a no-op.
func (c *Container) AddVariable(name string) {
	if _, ok := c.vars[name]; ok {
		return
	}
	c.names = append(c.names, name)
	c.vars[name] = make([]float64, c.block.ncells+2*c.block.nghost)
	c.flux[name] = make([]float64, c.block.ncells+1)
}

// Get returns the cell data of a variable, ghost zones included.
func (c *Container) Get(name string) ([]float64, error) {
	v, ok := c.vars[name]
	if !ok {
		return nil, cerrors.ErrUnknownVariable.GenWithStackByArgs(name)
	}
	return v, nil
}

// Flux returns the face flux storage of a variable. Index i is the face
// between interior cells i-1 and i; indices 0 and NumCells are the
// block-edge faces shared with the neighbors.
func (c *Container) Flux(name string) ([]float64, error) {
	f, ok := c.flux[name]
	if !ok {
		return nil, cerrors.ErrUnknownVariable.GenWithStackByArgs(name)
	}
	return f, nil
}

// CopyFrom copies all variable data of src into c. Both containers must
// belong to the same block.
func (c *Container) CopyFrom(src *Container) error {
	for _, name := range c.names {
		from, err := src.Get(name)
		if err != nil {
			return err
		}
		copy(c.vars[name], from)
	}
	return nil
}

// commState tracks one exchange epoch of a container. The sent flags
// enforce at-most-one writer per buffer per epoch.
type commState struct {
	epoch    int
	sent     bool
	fluxSent bool

	recvLeft  map[string][]float64
	recvRight map[string][]float64
	fluxLeft  map[string]float64
	fluxRight map[string]float64
}
