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

package driver

import (
	"context"
	"fmt"
	"time"

	"github.com/edwingeng/deque"
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	cerrors "github.com/meshflow/meshflow/pkg/errors"
	"github.com/meshflow/meshflow/pkg/task"
)

// activeList is one task list in flight, with its stall bookkeeping.
type activeList struct {
	list         *task.TaskList
	stuckScans   int
	lastProgress time.Time
}

// runLists drives the given task lists to completion. Lists are sharded
// across the configured number of goroutines; each shard polls its
// lists round-robin so a block stuck on an outstanding receive never
// blocks its shard. Every list is owned by exactly one goroutine.
func (d *Driver) runLists(ctx context.Context, lists []*task.TaskList) error {
	conc := d.cfg.Driver.Concurrency
	if conc > len(lists) {
		conc = len(lists)
	}
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < conc; i++ {
		shard := make([]*task.TaskList, 0, len(lists)/conc+1)
		for j := i; j < len(lists); j += conc {
			shard = append(shard, lists[j])
		}
		g.Go(func() error {
			return d.pollShard(ctx, shard)
		})
	}
	return g.Wait()
}

func (d *Driver) pollShard(ctx context.Context, lists []*task.TaskList) error {
	interval := time.Duration(d.cfg.Driver.PollInterval)
	timeout := time.Duration(d.cfg.Driver.StallTimeout)

	q := deque.NewDeque()
	now := d.clock.Now()
	for _, l := range lists {
		q.PushBack(&activeList{list: l, lastProgress: now})
		activeLists.Inc()
	}
	for !q.Empty() {
		if err := ctx.Err(); err != nil {
			return err
		}
		it := q.PopFront().(*activeList)
		if !it.list.IsReady() {
			q.PushBack(it)
			if interval > 0 {
				d.clock.Sleep(interval)
			}
			continue
		}
		before := it.list.Size()
		status, err := it.list.DoAvailable()
		if err != nil {
			return errors.Trace(err)
		}
		switch status {
		case task.ListComplete, task.ListNothingToDo:
			activeLists.Dec()
			continue
		case task.ListStuck:
			it.stuckScans++
		default:
			it.stuckScans = 0
		}
		if it.list.Size() < before {
			it.lastProgress = d.clock.Now()
		}
		if it.stuckScans > d.cfg.Driver.StallBudget ||
			(timeout > 0 && d.clock.Since(it.lastProgress) > timeout) {
			return d.stallError(it)
		}
		q.PushBack(it)
		if interval > 0 && it.list.Size() == before {
			d.clock.Sleep(interval)
		}
	}
	return nil
}

// stallError reports a stalled list with enough detail to diagnose the
// malformed work graph: every pending task's identity, its unmet
// dependency bits and how often it ran.
func (d *Driver) stallError(it *activeList) error {
	completed := it.list.Completed()
	fields := []zap.Field{
		zap.Int("pending", it.list.Size()),
		zap.Int("stuckScans", it.stuckScans),
		zap.Stringer("completed", completed),
	}
	for _, p := range it.list.Outstanding() {
		fields = append(fields,
			zap.String("task", fmt.Sprintf("id=%s dep=%s invoked=%d",
				p.ID, p.Dependency, p.Invocations)))
	}
	log.Warn("task list stalled", fields...)
	return cerrors.ErrTaskListStuck.GenWithStackByArgs(it.list.Size(), it.list.Describe())
}
