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
	"github.com/prometheus/client_golang/prometheus"
)

var (
	stepsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meshflow",
			Subsystem: "driver",
			Name:      "steps_total",
			Help:      "Total number of completed timesteps.",
		})
	stepStalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "meshflow",
			Subsystem: "driver",
			Name:      "stalls_total",
			Help:      "Total number of stages aborted by a stalled task list.",
		})
	stepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "meshflow",
			Subsystem: "driver",
			Name:      "step_duration_seconds",
			Help:      "Wall-clock duration of one timestep.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 12),
		})
	currentDt = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "meshflow",
			Subsystem: "driver",
			Name:      "current_dt",
			Help:      "Current timestep size.",
		})
	activeLists = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "meshflow",
			Subsystem: "driver",
			Name:      "active_task_lists",
			Help:      "Task lists currently being polled.",
		})
)

// InitMetrics registers all metrics in this file.
func InitMetrics(registry *prometheus.Registry) {
	registry.MustRegister(stepsTotal)
	registry.MustRegister(stepStalls)
	registry.MustRegister(stepDuration)
	registry.MustRegister(currentDt)
	registry.MustRegister(activeLists)
}
