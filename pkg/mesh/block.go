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

// BlockID identifies one mesh block.
type BlockID int

// BaseContainer is the label of the container holding the primary state.
const BaseContainer = "base"

// Block is one unit of the block-structured mesh: a 1D run of interior
// cells padded by ghost zones on both sides, with left and right
// neighbors on a periodic ring. Each block owns one container per
// registered label; all containers share the block's shape.
//
// A block's state is owned by a single goroutine for the duration of a
// timestep. Only the exchanger's channels cross blocks.
type Block struct {
	id     BlockID
	ncells int
	nghost int
	dx     float64
	x0     float64

	left  *Block
	right *Block

	containers map[string]*Container
}

// ID returns the block's identifier.
func (b *Block) ID() BlockID { return b.id }

// NumCells returns the number of interior cells.
func (b *Block) NumCells() int { return b.ncells }

// Ghost returns the ghost zone width.
func (b *Block) Ghost() int { return b.nghost }

// Dx returns the uniform cell width.
func (b *Block) Dx() float64 { return b.dx }

// Left returns the left neighbor.
func (b *Block) Left() *Block { return b.left }

// Right returns the right neighbor.
func (b *Block) Right() *Block { return b.right }

// CellCenter returns the coordinate of cell i, where i indexes the full
// padded extent [0, NumCells+2*Ghost). Ghost coordinates extend past the
// block edge.
func (b *Block) CellCenter(i int) float64 {
	return b.x0 + (float64(i-b.nghost)+0.5)*b.dx
}

// Container returns the container registered under the given label.
func (b *Block) Container(label string) (*Container, error) {
	c, ok := b.containers[label]
	if !ok {
		return nil, cerrors.ErrUnknownContainer.GenWithStackByArgs(label, int(b.id))
	}
	return c, nil
}

// AddContainer registers a new container under the given label, cloning
// the base container's variable set. Registering an existing label
// returns the existing container.
func (b *Block) AddContainer(label string) *Container {
	if c, ok := b.containers[label]; ok {
		return c
	}
	c := newContainer(b)
	if base, ok := b.containers[BaseContainer]; ok {
		for _, name := range base.names {
			c.AddVariable(name)
		}
	}
	b.containers[label] = c
	return c
}

// Mesh is a periodic ring of blocks plus the exchanger carrying their
// boundary traffic.
type Mesh struct {
	blocks    []*Block
	exchanger *Exchanger
}

// New builds a mesh of numBlocks blocks of cellsPerBlock interior cells
// each, covering the unit interval periodically.
func New(numBlocks, cellsPerBlock, nghost int) *Mesh {
	dx := 1.0 / float64(numBlocks*cellsPerBlock)
	blocks := make([]*Block, numBlocks)
	for i := range blocks {
		blocks[i] = &Block{
			id:         BlockID(i),
			ncells:     cellsPerBlock,
			nghost:     nghost,
			dx:         dx,
			x0:         float64(i*cellsPerBlock) * dx,
			containers: make(map[string]*Container),
		}
		blocks[i].containers[BaseContainer] = newContainer(blocks[i])
	}
	for i, b := range blocks {
		b.left = blocks[(i+numBlocks-1)%numBlocks]
		b.right = blocks[(i+1)%numBlocks]
	}
	m := &Mesh{blocks: blocks}
	m.exchanger = newExchanger(blocks)
	return m
}

// Blocks returns the mesh blocks in ring order.
func (m *Mesh) Blocks() []*Block { return m.blocks }

// NumBlocks returns the number of blocks.
func (m *Mesh) NumBlocks() int { return len(m.blocks) }

// Exchanger returns the boundary exchanger shared by all blocks.
func (m *Mesh) Exchanger() *Exchanger { return m.exchanger }
