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
	"testing"

	"github.com/stretchr/testify/require"

	cerrors "github.com/meshflow/meshflow/pkg/errors"
	"github.com/meshflow/meshflow/pkg/task"
)

// twoBlockMesh builds a two-block ring where each block is both left
// and right neighbor of the other, with one variable filled with
// block-distinct values.
func twoBlockMesh(t *testing.T) (*Mesh, *Container, *Container) {
	m := New(2, 4, 2)
	var rcs []*Container
	for _, b := range m.Blocks() {
		rc, err := b.Container(BaseContainer)
		require.NoError(t, err)
		rc.AddVariable("advected")
		u, err := rc.Get("advected")
		require.NoError(t, err)
		for i := range u {
			u[i] = float64(int(b.ID())*100 + i)
		}
		rcs = append(rcs, rc)
	}
	return m, rcs[0], rcs[1]
}

func TestBoundaryExchangeRoundTrip(t *testing.T) {
	t.Parallel()

	m, rc0, rc1 := twoBlockMesh(t)
	e := m.Exchanger()

	for _, rc := range []*Container{rc0, rc1} {
		status, err := e.StartReceiving(rc)
		require.NoError(t, err)
		require.Equal(t, task.TaskComplete, status)
	}

	// Nothing sent yet: receive must report incomplete, not block.
	status, err := e.ReceiveBoundaryBuffers(rc0)
	require.NoError(t, err)
	require.Equal(t, task.TaskIncomplete, status)

	status, err = e.SendBoundaryBuffers(rc0)
	require.NoError(t, err)
	require.Equal(t, task.TaskComplete, status)

	// Only one neighbor direction arrived so far? With two blocks the
	// single peer feeds both sides, so rc1 now has both payloads.
	status, err = e.ReceiveBoundaryBuffers(rc1)
	require.NoError(t, err)
	require.Equal(t, task.TaskComplete, status)

	// rc0 still waits on rc1's send.
	status, err = e.ReceiveBoundaryBuffers(rc0)
	require.NoError(t, err)
	require.Equal(t, task.TaskIncomplete, status)

	status, err = e.SendBoundaryBuffers(rc1)
	require.NoError(t, err)
	require.Equal(t, task.TaskComplete, status)
	status, err = e.ReceiveBoundaryBuffers(rc0)
	require.NoError(t, err)
	require.Equal(t, task.TaskComplete, status)

	for _, rc := range []*Container{rc0, rc1} {
		status, err = e.SetBoundaries(rc)
		require.NoError(t, err)
		require.Equal(t, task.TaskComplete, status)
		status, err = e.ClearBoundary(rc)
		require.NoError(t, err)
		require.Equal(t, task.TaskComplete, status)
	}

	// Block 0's left ghosts hold block 1's rightmost interior cells,
	// its right ghosts block 1's leftmost interior cells (two-block
	// periodic ring). Interior of block 1: indices 2..5 hold 102..105.
	u0, err := rc0.Get("advected")
	require.NoError(t, err)
	require.Equal(t, []float64{104, 105}, u0[:2])
	require.Equal(t, []float64{102, 103}, u0[6:])

	u1, err := rc1.Get("advected")
	require.NoError(t, err)
	require.Equal(t, []float64{4, 5}, u1[:2])
	require.Equal(t, []float64{2, 3}, u1[6:])
}

func TestDoubleSendIsBufferOverrun(t *testing.T) {
	t.Parallel()

	m, rc0, _ := twoBlockMesh(t)
	e := m.Exchanger()

	_, err := e.StartReceiving(rc0)
	require.NoError(t, err)
	_, err = e.SendBoundaryBuffers(rc0)
	require.NoError(t, err)
	_, err = e.SendBoundaryBuffers(rc0)
	require.Error(t, err)
	require.True(t, cerrors.ErrBufferOverrun.Equal(err))
}

func TestSetBeforeReceiveFails(t *testing.T) {
	t.Parallel()

	m, rc0, _ := twoBlockMesh(t)
	e := m.Exchanger()
	_, err := e.StartReceiving(rc0)
	require.NoError(t, err)
	_, err = e.SetBoundaries(rc0)
	require.Error(t, err)
}

func TestFluxCorrectionAgreesOnSharedFaces(t *testing.T) {
	t.Parallel()

	m, rc0, rc1 := twoBlockMesh(t)
	e := m.Exchanger()

	f0, err := rc0.Flux("advected")
	require.NoError(t, err)
	f1, err := rc1.Flux("advected")
	require.NoError(t, err)
	f0[0], f0[4] = 1.0, 3.0
	f1[0], f1[4] = 5.0, 7.0

	for _, rc := range []*Container{rc0, rc1} {
		_, err = e.StartReceiving(rc)
		require.NoError(t, err)
	}

	status, err := e.ReceiveFluxCorrection(rc0)
	require.NoError(t, err)
	require.Equal(t, task.TaskIncomplete, status)

	for _, rc := range []*Container{rc0, rc1} {
		status, err = e.SendFluxCorrection(rc)
		require.NoError(t, err)
		require.Equal(t, task.TaskComplete, status)
	}
	for _, rc := range []*Container{rc0, rc1} {
		status, err = e.ReceiveFluxCorrection(rc)
		require.NoError(t, err)
		require.Equal(t, task.TaskComplete, status)
	}

	// Face shared by block 0's left edge and block 1's right edge:
	// average of 1.0 and 7.0. The other shared face averages 3.0, 5.0.
	require.InDelta(t, 4.0, f0[0], 1e-15)
	require.InDelta(t, 4.0, f1[4], 1e-15)
	require.InDelta(t, 4.0, f0[4], 1e-15)
	require.InDelta(t, 4.0, f1[0], 1e-15)
}
