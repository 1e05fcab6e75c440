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
	"github.com/pingcap/errors"

	cerrors "github.com/meshflow/meshflow/pkg/errors"
	"github.com/meshflow/meshflow/pkg/task"
)

const (
	sideLeft = iota
	sideRight
)

type boundaryPayload struct {
	data map[string][]float64
}

type fluxPayload struct {
	data map[string]float64
}

// Exchanger carries ghost-cell and flux-correction traffic between
// neighboring blocks over buffered channels, standing in for the
// point-to-point transport. Every entry point is task-shaped: it never
// blocks, and a receive that cannot finish yet reports TaskIncomplete
// so the owning task list re-polls it on a later scan.
//
// Channels have capacity one: the sent-flag per container per epoch
// plus the cleared inbox guarantee at most one writer per buffer per
// exchange epoch, so a full channel on send is a protocol violation.
type Exchanger struct {
	// inbox[id][side] receives payloads arriving at block id from that
	// side's neighbor.
	inbox     map[BlockID][2]chan boundaryPayload
	fluxInbox map[BlockID][2]chan fluxPayload
}

func newExchanger(blocks []*Block) *Exchanger {
	e := &Exchanger{
		inbox:     make(map[BlockID][2]chan boundaryPayload, len(blocks)),
		fluxInbox: make(map[BlockID][2]chan fluxPayload, len(blocks)),
	}
	for _, b := range blocks {
		e.inbox[b.id] = [2]chan boundaryPayload{
			make(chan boundaryPayload, 1),
			make(chan boundaryPayload, 1),
		}
		e.fluxInbox[b.id] = [2]chan fluxPayload{
			make(chan fluxPayload, 1),
			make(chan fluxPayload, 1),
		}
	}
	return e
}

// StartReceiving opens a new exchange epoch for the container.
func (e *Exchanger) StartReceiving(rc *Container) (task.TaskStatus, error) {
	rc.comm.epoch++
	rc.comm.sent = false
	rc.comm.fluxSent = false
	rc.comm.recvLeft = nil
	rc.comm.recvRight = nil
	rc.comm.fluxLeft = nil
	rc.comm.fluxRight = nil
	return task.TaskComplete, nil
}

// SendBoundaryBuffers pushes the edge interior cells of every variable
// to both neighbors. It never blocks; a full peer inbox means two sends
// in one epoch and is reported as a buffer overrun.
func (e *Exchanger) SendBoundaryBuffers(rc *Container) (task.TaskStatus, error) {
	b := rc.block
	if rc.comm.sent {
		return task.TaskIncomplete, cerrors.ErrBufferOverrun.GenWithStackByArgs(int(b.id), "both")
	}
	g, n := b.nghost, b.ncells
	toLeft := boundaryPayload{data: make(map[string][]float64, len(rc.names))}
	toRight := boundaryPayload{data: make(map[string][]float64, len(rc.names))}
	for _, name := range rc.names {
		u := rc.vars[name]
		l := make([]float64, g)
		r := make([]float64, g)
		copy(l, u[g:2*g])
		copy(r, u[n:n+g])
		toLeft.data[name] = l
		toRight.data[name] = r
	}
	// My payload fills the right ghosts of my left neighbor and the
	// left ghosts of my right neighbor.
	select {
	case e.inbox[b.left.id][sideRight] <- toLeft:
	default:
		return task.TaskIncomplete, cerrors.ErrBufferOverrun.GenWithStackByArgs(int(b.id), "left")
	}
	select {
	case e.inbox[b.right.id][sideLeft] <- toRight:
	default:
		return task.TaskIncomplete, cerrors.ErrBufferOverrun.GenWithStackByArgs(int(b.id), "right")
	}
	rc.comm.sent = true
	return task.TaskComplete, nil
}

// ReceiveBoundaryBuffers polls the container's inboxes. It reports
// TaskIncomplete until the payloads from both neighbors have arrived.
func (e *Exchanger) ReceiveBoundaryBuffers(rc *Container) (task.TaskStatus, error) {
	inbox := e.inbox[rc.block.id]
	if rc.comm.recvLeft == nil {
		select {
		case p := <-inbox[sideLeft]:
			rc.comm.recvLeft = p.data
		default:
		}
	}
	if rc.comm.recvRight == nil {
		select {
		case p := <-inbox[sideRight]:
			rc.comm.recvRight = p.data
		default:
		}
	}
	if rc.comm.recvLeft == nil || rc.comm.recvRight == nil {
		return task.TaskIncomplete, nil
	}
	return task.TaskComplete, nil
}

// SetBoundaries writes the received payloads into the ghost zones.
func (e *Exchanger) SetBoundaries(rc *Container) (task.TaskStatus, error) {
	if rc.comm.recvLeft == nil || rc.comm.recvRight == nil {
		return task.TaskIncomplete, errors.Errorf(
			"set boundaries before receive on block %d", int(rc.block.id))
	}
	b := rc.block
	g, n := b.nghost, b.ncells
	for _, name := range rc.names {
		u := rc.vars[name]
		if l, ok := rc.comm.recvLeft[name]; ok {
			copy(u[:g], l)
		}
		if r, ok := rc.comm.recvRight[name]; ok {
			copy(u[n+g:], r)
		}
	}
	return task.TaskComplete, nil
}

// ClearBoundary drops the received payloads, ending the epoch.
func (e *Exchanger) ClearBoundary(rc *Container) (task.TaskStatus, error) {
	rc.comm.recvLeft = nil
	rc.comm.recvRight = nil
	rc.comm.fluxLeft = nil
	rc.comm.fluxRight = nil
	return task.TaskComplete, nil
}

// SendFluxCorrection pushes the block-edge face fluxes to both
// neighbors so the shared faces can agree on a single flux.
func (e *Exchanger) SendFluxCorrection(rc *Container) (task.TaskStatus, error) {
	b := rc.block
	if rc.comm.fluxSent {
		return task.TaskIncomplete, cerrors.ErrBufferOverrun.GenWithStackByArgs(int(b.id), "both")
	}
	toLeft := fluxPayload{data: make(map[string]float64, len(rc.names))}
	toRight := fluxPayload{data: make(map[string]float64, len(rc.names))}
	for _, name := range rc.names {
		f := rc.flux[name]
		toLeft.data[name] = f[0]
		toRight.data[name] = f[b.ncells]
	}
	select {
	case e.fluxInbox[b.left.id][sideRight] <- toLeft:
	default:
		return task.TaskIncomplete, cerrors.ErrBufferOverrun.GenWithStackByArgs(int(b.id), "left")
	}
	select {
	case e.fluxInbox[b.right.id][sideLeft] <- toRight:
	default:
		return task.TaskIncomplete, cerrors.ErrBufferOverrun.GenWithStackByArgs(int(b.id), "right")
	}
	rc.comm.fluxSent = true
	return task.TaskComplete, nil
}

// ReceiveFluxCorrection polls for the neighbors' edge fluxes and, once
// both have arrived, replaces each shared-face flux with the average of
// the two independently computed values. Both sides of a face end up
// with the identical flux, which keeps the global update conservative.
func (e *Exchanger) ReceiveFluxCorrection(rc *Container) (task.TaskStatus, error) {
	inbox := e.fluxInbox[rc.block.id]
	if rc.comm.fluxLeft == nil {
		select {
		case p := <-inbox[sideLeft]:
			rc.comm.fluxLeft = p.data
		default:
		}
	}
	if rc.comm.fluxRight == nil {
		select {
		case p := <-inbox[sideRight]:
			rc.comm.fluxRight = p.data
		default:
		}
	}
	if rc.comm.fluxLeft == nil || rc.comm.fluxRight == nil {
		return task.TaskIncomplete, nil
	}
	n := rc.block.ncells
	for _, name := range rc.names {
		f := rc.flux[name]
		if v, ok := rc.comm.fluxLeft[name]; ok {
			f[0] = 0.5 * (f[0] + v)
		}
		if v, ok := rc.comm.fluxRight[name]; ok {
			f[n] = 0.5 * (f[n] + v)
		}
	}
	// The flux epoch ends here: each side sends exactly once per epoch
	// and both payloads are consumed, so the container is ready for the
	// next epoch without a StartReceiving.
	rc.comm.fluxSent = false
	rc.comm.fluxLeft = nil
	rc.comm.fluxRight = nil
	return task.TaskComplete, nil
}
