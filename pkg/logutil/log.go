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

package logutil

import (
	"github.com/pingcap/errors"
	"github.com/pingcap/log"
	"go.uber.org/zap/zapcore"
)

// Config defines the logging configuration.
type Config struct {
	// Level is the minimum enabled logging level, one of
	// "debug", "info", "warn", "error".
	Level string `toml:"level" json:"level"`
	// File is the log file path. Empty means stderr.
	File string `toml:"file" json:"file"`
}

// Adjust fills in unspecified fields with default values.
func (c *Config) Adjust() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// InitLogger initializes the global logger.
func InitLogger(cfg *Config) error {
	pcfg := &log.Config{
		Level: cfg.Level,
		File: log.FileLogConfig{
			Filename: cfg.File,
		},
	}
	logger, props, err := log.InitLogger(pcfg)
	if err != nil {
		return errors.Trace(err)
	}
	log.ReplaceGlobals(logger, props)
	return nil
}

// SetLogLevel changes the log level of the global logger on the fly.
func SetLogLevel(level string) error {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return errors.Trace(err)
	}
	log.SetLevel(lvl)
	return nil
}
