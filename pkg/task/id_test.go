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

package task

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTaskIDZeroSentinel(t *testing.T) {
	t.Parallel()

	zero := NewTaskID(0)
	require.True(t, zero.Empty())

	// The sentinel is satisfied by any completed-set, including an
	// empty one.
	var completed TaskID
	require.True(t, zero.IsSubsetOf(completed))
	completed.SetFinished(NewTaskID(7))
	require.True(t, zero.IsSubsetOf(completed))
}

func TestTaskIDEqual(t *testing.T) {
	t.Parallel()

	require.True(t, NewTaskID(5).Equal(NewTaskID(5)))
	require.False(t, NewTaskID(5).Equal(NewTaskID(6)))
	require.True(t, NewTaskID(0).Equal(TaskID{}))

	// Equality across block sequences of different lengths: the
	// shorter one is zero-padded.
	a := NewTaskID(3)
	b := NewTaskID(3).Or(NewTaskID(40)) // second block
	require.False(t, a.Equal(b))
	require.False(t, b.Equal(a))

	var c TaskID
	c.SetFinished(NewTaskID(3))
	require.True(t, a.Equal(c))
}

func TestTaskIDOrIsCompoundDependency(t *testing.T) {
	t.Parallel()

	a := NewTaskID(1)
	b := NewTaskID(2)
	ab := a.Or(b)

	// The union is satisfied only when every constituent is in the
	// completed-set.
	var completed TaskID
	require.False(t, ab.IsSubsetOf(completed))
	completed.SetFinished(a)
	require.False(t, ab.IsSubsetOf(completed))
	require.True(t, a.IsSubsetOf(completed))
	completed.SetFinished(b)
	require.True(t, ab.IsSubsetOf(completed))

	// Or does not mutate its operands.
	require.True(t, a.Equal(NewTaskID(1)))
	require.True(t, b.Equal(NewTaskID(2)))
}

func TestTaskIDGrowsAcrossBlocks(t *testing.T) {
	t.Parallel()

	// Indices straddling the 16-bit block boundary.
	for _, id := range []int{1, 15, 16, 17, 31, 32, 33, 100} {
		single := NewTaskID(id)
		require.False(t, single.Empty())
		require.True(t, single.IsSubsetOf(single))
	}

	low := NewTaskID(2)
	high := NewTaskID(70)
	both := low.Or(high)

	var completed TaskID
	completed.SetFinished(high)
	require.True(t, high.IsSubsetOf(completed))
	require.False(t, both.IsSubsetOf(completed))

	// Growing the shorter operand must not lose bits.
	completed.SetFinished(low)
	require.True(t, both.IsSubsetOf(completed))
	require.True(t, both.Equal(completed))
}

func TestTaskIDSetAndClear(t *testing.T) {
	t.Parallel()

	var id TaskID
	id.Set(9)
	require.True(t, id.Equal(NewTaskID(9)))
	id.Set(2)
	require.True(t, id.Equal(NewTaskID(2)))
	id.Clear()
	require.True(t, id.Empty())
}

func TestTaskIDString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "<none>", NewTaskID(0).String())
	s := NewTaskID(1).String()
	require.Len(t, s, bitBlock)
	require.Equal(t, uint8('1'), s[0])

	// Two blocks render dot-separated.
	wide := NewTaskID(17).String()
	require.Len(t, wide, 2*bitBlock+1)
}
