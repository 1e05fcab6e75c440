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

// TaskStatus is what a task body reports on each invocation.
type TaskStatus int

const (
	// TaskIncomplete means the task attempted real work but could not
	// finish yet, typically an outstanding non-blocking receive. The
	// task stays pending and is re-invoked on a later scan.
	TaskIncomplete TaskStatus = iota
	// TaskComplete means the task is fully done and must be retired.
	TaskComplete
)

// String implements fmt.Stringer.
func (s TaskStatus) String() string {
	switch s {
	case TaskIncomplete:
		return "incomplete"
	case TaskComplete:
		return "complete"
	}
	return "unknown"
}

// TaskFunc is the single shape every task body collapses to. Captured
// arguments (a mesh block, a container pair, a stage index, an
// integrator handle) live in the closure; the engine only invokes it
// and reads back a status. A non-nil error propagates synchronously
// out of DoAvailable and is never retried by the engine.
type TaskFunc func() (TaskStatus, error)

// Bind adapts a one-argument task function into a TaskFunc.
func Bind[T any](fn func(T) (TaskStatus, error), arg T) TaskFunc {
	return func() (TaskStatus, error) {
		return fn(arg)
	}
}

// Bind2 adapts a two-argument task function into a TaskFunc.
func Bind2[T, U any](fn func(T, U) (TaskStatus, error), arg1 T, arg2 U) TaskFunc {
	return func() (TaskStatus, error) {
		return fn(arg1, arg2)
	}
}

// Bind3 adapts a three-argument task function into a TaskFunc.
func Bind3[T, U, V any](fn func(T, U, V) (TaskStatus, error), arg1 T, arg2 U, arg3 V) TaskFunc {
	return func() (TaskStatus, error) {
		return fn(arg1, arg2, arg3)
	}
}

// Task is one unit of work owned by a TaskList: an identity, the
// dependency that must be in the completed-set before it may run, and
// the body to invoke. It is mutated only by its owning list.
type Task struct {
	id  TaskID
	dep TaskID
	fn  TaskFunc

	complete    bool
	invocations int
}

// ID returns the task's own identity.
func (t *Task) ID() TaskID { return t.id }

// Dependency returns the identity set gating the task.
func (t *Task) Dependency() TaskID { return t.dep }

// IsComplete reports whether the task has reported terminal completion.
func (t *Task) IsComplete() bool { return t.complete }

// Invocations returns how many times the body has been invoked.
func (t *Task) Invocations() int { return t.invocations }

func (t *Task) invoke() (TaskStatus, error) {
	t.invocations++
	return t.fn()
}
