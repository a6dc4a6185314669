//
// Copyright 2019 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS-IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
package main

import (
	"bytes"
	"errors"
	"io"
	"os"

	"github.com/spf13/pflag"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"
)

// fileConfig is a YAML configuration file.  Unset keys leave the
// corresponding flag's value alone.
type fileConfig struct {
	TsStart  *float64 `yaml:"ts_start"`
	TsEnd    *float64 `yaml:"ts_end"`
	PeriodUs *int64   `yaml:"period_us"`
	Fill     *string  `yaml:"fill"`
	Absolute *bool    `yaml:"absolute"`
}

// loadConfig reads the YAML configuration file at path.  Unknown keys are
// rejected.  An empty file is valid.
func loadConfig(path string) (*fileConfig, error) {
	in, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, status.Errorf(codes.NotFound, "config file %s not found", path)
		}
		return nil, status.Errorf(codes.Internal, "failed to read config file %s: %s", path, err)
	}
	fc := &fileConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(in))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, status.Errorf(codes.InvalidArgument, "malformed config file %s: %s", path, err)
	}
	return fc, nil
}

// apply copies the file's settings into o, except for settings whose flags
// were given explicitly on the command line.
func (fc *fileConfig) apply(flags *pflag.FlagSet, o *options) {
	if fc.TsStart != nil && !flags.Changed("ts-start") {
		o.tsStart = *fc.TsStart
	}
	if fc.TsEnd != nil && !flags.Changed("ts-end") {
		o.tsEnd = *fc.TsEnd
	}
	if fc.PeriodUs != nil && !flags.Changed("period-us") {
		o.periodUs = *fc.PeriodUs
	}
	if fc.Fill != nil && !flags.Changed("fill") {
		o.fill = *fc.Fill
	}
	if fc.Absolute != nil && !flags.Changed("absolute") {
		o.absolute = *fc.Absolute
	}
}
