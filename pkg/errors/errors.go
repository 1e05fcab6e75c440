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

package errors

import (
	"github.com/pingcap/errors"
)

// engine errors
var (
	ErrTaskListStuck = errors.Normalize(
		"task list stalled, %d tasks pending, outstanding: %s",
		errors.RFCCodeText("MF:ErrTaskListStuck"),
	)
	ErrDriverAborted = errors.Normalize(
		"driver aborted at step %d stage %d",
		errors.RFCCodeText("MF:ErrDriverAborted"),
	)
)

// mesh and container errors
var (
	ErrUnknownVariable = errors.Normalize(
		"unknown variable %s",
		errors.RFCCodeText("MF:ErrUnknownVariable"),
	)
	ErrBufferOverrun = errors.Normalize(
		"boundary buffer overrun on block %d, %s edge",
		errors.RFCCodeText("MF:ErrBufferOverrun"),
	)
	ErrUnknownContainer = errors.Normalize(
		"unknown container %s on block %d",
		errors.RFCCodeText("MF:ErrUnknownContainer"),
	)
)

// integrator errors
var (
	ErrUnknownScheme = errors.Normalize(
		"unknown integration scheme %s",
		errors.RFCCodeText("MF:ErrUnknownScheme"),
	)
)

// config errors
var (
	ErrInvalidConfig = errors.Normalize(
		"invalid config, %s",
		errors.RFCCodeText("MF:ErrInvalidConfig"),
	)
)
