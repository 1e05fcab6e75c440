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
	"github.com/prometheus/client_golang/prometheus"
)

var (
	taskExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "meshflow",
			Subsystem: "task",
			Name:      "executions_total",
			Help:      "Total number of task invocations by reported status.",
		}, []string{"status"})
	tasksRetired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meshflow",
			Subsystem: "task",
			Name:      "retired_total",
			Help:      "Total number of tasks retired after completion.",
		})
	stuckScans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meshflow",
			Subsystem: "task",
			Name:      "stuck_scans_total",
			Help:      "Total number of full scans that invoked zero tasks.",
		})
	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "meshflow",
			Subsystem: "task",
			Name:      "scan_duration_seconds",
			Help:      "Duration of one DoAvailable scan.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
		})
)

// InitMetrics registers all metrics in this file.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(taskExecutions)
	registry.MustRegister(tasksRetired)
	registry.MustRegister(stuckScans)
	registry.MustRegister(scanDuration)
}
