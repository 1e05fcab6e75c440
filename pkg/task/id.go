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
	"strings"
)

// bitBlock is the width of one block of the growable bit sequence
// backing a TaskID.
const bitBlock = 16

// TaskID names a task inside one TaskList, or a compound dependency built
// by Or-ing several identities together. The zero value carries no bits
// and acts as the "no dependency" sentinel: it is satisfied by any
// completed-set.
type TaskID struct {
	bitblocks []uint16
}

// NewTaskID builds the identity for the given 1-based task index.
// Index 0 yields the unconditional sentinel.
func NewTaskID(id int) TaskID {
	var t TaskID
	t.Set(id)
	return t
}

// Set resets the identity to the single bit for the given 1-based index.
func (t *TaskID) Set(id int) {
	t.bitblocks = nil
	if id <= 0 {
		return
	}
	pos := id - 1
	t.bitblocks = make([]uint16, pos/bitBlock+1)
	t.bitblocks[pos/bitBlock] = 1 << uint(pos%bitBlock)
}

// Clear removes all bits.
func (t *TaskID) Clear() {
	t.bitblocks = nil
}

// Empty reports whether no bits are set.
func (t TaskID) Empty() bool {
	for _, b := range t.bitblocks {
		if b != 0 {
			return false
		}
	}
	return true
}

// IsSubsetOf reports whether every bit set in t is also set in rhs.
// Used as the dependency-satisfaction check: dep.IsSubsetOf(completed).
// An empty t is trivially satisfied.
func (t TaskID) IsSubsetOf(rhs TaskID) bool {
	for i, b := range t.bitblocks {
		var r uint16
		if i < len(rhs.bitblocks) {
			r = rhs.bitblocks[i]
		}
		if b&^r != 0 {
			return false
		}
	}
	return true
}

// SetFinished ORs the bits of rhs into t, growing t as needed. A
// completed-set accumulates finished identities through this.
func (t *TaskID) SetFinished(rhs TaskID) {
	if len(rhs.bitblocks) > len(t.bitblocks) {
		grown := make([]uint16, len(rhs.bitblocks))
		copy(grown, t.bitblocks)
		t.bitblocks = grown
	}
	for i, b := range rhs.bitblocks {
		t.bitblocks[i] |= b
	}
}

// Or returns a new identity holding the union of both operands' bits.
// The union acts as a compound dependency: it is satisfied only when
// every constituent identity has finished.
func (t TaskID) Or(rhs TaskID) TaskID {
	n := len(t.bitblocks)
	if len(rhs.bitblocks) > n {
		n = len(rhs.bitblocks)
	}
	out := TaskID{bitblocks: make([]uint16, n)}
	copy(out.bitblocks, t.bitblocks)
	for i, b := range rhs.bitblocks {
		out.bitblocks[i] |= b
	}
	return out
}

// Equal reports bitwise equality. A shorter block sequence is treated as
// zero-padded.
func (t TaskID) Equal(rhs TaskID) bool {
	long, short := t.bitblocks, rhs.bitblocks
	if len(short) > len(long) {
		long, short = short, long
	}
	for i, b := range long {
		var s uint16
		if i < len(short) {
			s = short[i]
		}
		if b != s {
			return false
		}
	}
	return true
}

// String renders the bit blocks lowest-index first, for diagnostics.
func (t TaskID) String() string {
	if len(t.bitblocks) == 0 {
		return "<none>"
	}
	var sb strings.Builder
	for i, b := range t.bitblocks {
		if i > 0 {
			sb.WriteByte('.')
		}
		for bit := 0; bit < bitBlock; bit++ {
			if b&(1<<uint(bit)) != 0 {
				sb.WriteByte('1')
			} else {
				sb.WriteByte('0')
			}
		}
	}
	return sb.String()
}
