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
	"fmt"
	"strings"
	"time"

	"github.com/pingcap/errors"
)

// ListStatus is the result of one DoAvailable scan.
type ListStatus int

const (
	// ListRunning means tasks remain pending and at least one was
	// invoked this scan.
	ListRunning ListStatus = iota
	// ListStuck means a full scan invoked zero tasks though tasks
	// remain pending: every dependency is unsatisfied. This indicates
	// a malformed work graph (a missing task or a cycle). The engine
	// only surfaces it; aborting is the caller's decision.
	ListStuck
	// ListComplete means the pending collection is empty.
	ListComplete
	// ListNothingToDo means no task was ever added to the list.
	ListNothingToDo
)

// String implements fmt.Stringer.
func (s ListStatus) String() string {
	switch s {
	case ListRunning:
		return "running"
	case ListStuck:
		return "stuck"
	case ListComplete:
		return "complete"
	case ListNothingToDo:
		return "nothing_to_do"
	}
	return "unknown"
}

// TaskList owns the pending tasks of one work unit (one mesh block, one
// stage) and the scan-execute-retire scheduling loop. It is not safe
// for concurrent use; each list must be driven by a single goroutine.
type TaskList struct {
	tasks      []*Task
	tasksAdded int
	completed  TaskID
	listDeps   []*TaskList
}

// NewTaskList creates an empty list.
func NewTaskList() *TaskList {
	return &TaskList{}
}

// AddTask appends a task with the given dependency and body, minting a
// fresh identity (monotonically increasing per list). The returned
// identity can be combined with Or to gate later tasks.
func (l *TaskList) AddTask(dep TaskID, fn TaskFunc) TaskID {
	id := NewTaskID(l.tasksAdded + 1)
	l.tasks = append(l.tasks, &Task{id: id, dep: dep, fn: fn})
	l.tasksAdded++
	return id
}

// AddListDependency registers another list whose completion gates this
// one through IsReady. Used for cross-block or cross-stage barriers.
func (l *TaskList) AddListDependency(dep *TaskList) {
	l.listDeps = append(l.listDeps, dep)
}

// IsReady reports whether every registered barrier list has drained.
func (l *TaskList) IsReady() bool {
	for _, dep := range l.listDeps {
		if !dep.IsComplete() {
			return false
		}
	}
	return true
}

// IsComplete reports whether no tasks are pending.
func (l *TaskList) IsComplete() bool { return len(l.tasks) == 0 }

// Size returns the number of pending tasks.
func (l *TaskList) Size() int { return len(l.tasks) }

// Completed returns a copy of the completed-set.
func (l *TaskList) Completed() TaskID {
	var out TaskID
	out.SetFinished(l.completed)
	return out
}

// Reset clears pending tasks, the completed-set, registered barrier
// lists and the identity counter so the list can be reused.
func (l *TaskList) Reset() {
	l.tasks = nil
	l.tasksAdded = 0
	l.completed.Clear()
	l.listDeps = nil
}

// MarkTaskComplete ORs an identity into the completed-set.
func (l *TaskList) MarkTaskComplete(id TaskID) {
	l.completed.SetFinished(id)
}

// DoAvailable performs exactly one scan over the pending tasks in
// insertion order, invoking each whose dependency is satisfied by the
// completed-set at the moment the scan reaches it. A task completing
// early in the scan can therefore unblock tasks later in the same scan.
// Completed tasks are retired after the scan.
//
// A task body error aborts the scan and propagates; tasks already
// marked complete this scan are still retired so the list state stays
// consistent for diagnostics.
func (l *TaskList) DoAvailable() (ListStatus, error) {
	if l.tasksAdded == 0 {
		return ListNothingToDo, nil
	}
	if len(l.tasks) == 0 {
		return ListComplete, nil
	}
	start := time.Now()
	defer func() {
		scanDuration.Observe(time.Since(start).Seconds())
	}()

	invoked := 0
	for _, t := range l.tasks {
		if !t.dep.IsSubsetOf(l.completed) {
			continue
		}
		invoked++
		status, err := t.invoke()
		if err != nil {
			l.clearComplete()
			return ListRunning, errors.Trace(err)
		}
		taskExecutions.WithLabelValues(status.String()).Inc()
		if status == TaskComplete {
			t.complete = true
			l.MarkTaskComplete(t.id)
		}
	}
	l.clearComplete()

	if len(l.tasks) == 0 {
		return ListComplete, nil
	}
	if invoked == 0 {
		stuckScans.Inc()
		return ListStuck, nil
	}
	return ListRunning, nil
}

func (l *TaskList) clearComplete() {
	kept := l.tasks[:0]
	for _, t := range l.tasks {
		if t.complete {
			tasksRetired.Inc()
			continue
		}
		kept = append(kept, t)
	}
	// Drop trailing slots so retired tasks are released.
	for i := len(kept); i < len(l.tasks); i++ {
		l.tasks[i] = nil
	}
	l.tasks = kept
}

// PendingTask is a diagnostic snapshot of one task that has not
// completed, exposed for stall reporting.
type PendingTask struct {
	ID          TaskID
	Dependency  TaskID
	Invocations int
}

// Outstanding returns a snapshot of all pending tasks.
func (l *TaskList) Outstanding() []PendingTask {
	out := make([]PendingTask, 0, len(l.tasks))
	for _, t := range l.tasks {
		out = append(out, PendingTask{
			ID:          t.id,
			Dependency:  t.dep,
			Invocations: t.invocations,
		})
	}
	return out
}

// Describe renders the pending tasks against the completed-set, for
// stall diagnostics.
func (l *TaskList) Describe() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "completed=%s", l.completed.String())
	for _, t := range l.tasks {
		fmt.Fprintf(&sb, " [id=%s dep=%s invoked=%d]",
			t.id.String(), t.dep.String(), t.invocations)
	}
	return sb.String()
}
