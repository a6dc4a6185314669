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
package sched

import (
	"time"

	"github.com/qais-yousef/sched-analyzer/analysis/series"
)

// DefaultTopN is the default number of threads reported by RunResidency.
const DefaultTopN = 10

type filter struct {
	config series.Config
	// The maximum number of threads to report, busiest first.
	topN int
}

// Filter specifies a filter to a sched collection query.
type Filter func(*filter)

// TimeRange filters to the specified trace-relative time range, in seconds,
// inclusive.
func TimeRange(start, end float64) Filter {
	return func(f *filter) {
		f.config.Window = series.Window{Start: start, End: end}
	}
}

// StartTime sets the inclusive start of the filtered-in time range, in
// trace-relative seconds.
func StartTime(start float64) Filter {
	return func(f *filter) {
		f.config.Window.Start = start
	}
}

// EndTime sets the inclusive end of the filtered-in time range, in
// trace-relative seconds.
func EndTime(end float64) Filter {
	return func(f *filter) {
		f.config.Window.End = end
	}
}

// Period sets the resampling grid period.
func Period(period time.Duration) Filter {
	return func(f *filter) {
		f.config.Period = period
	}
}

// Fill sets how resampled grid points are populated.
func Fill(fill series.FillMethod) Filter {
	return func(f *filter) {
		f.config.Fill = fill
	}
}

// Absolute sets whether residencies are reported in milliseconds rather than
// as percentages.
func Absolute(absolute bool) Filter {
	return func(f *filter) {
		if absolute {
			f.config.Mode = series.Absolute
		} else {
			f.config.Mode = series.Percent
		}
	}
}

// WithConfig replaces the query's entire configuration.
func WithConfig(config series.Config) Filter {
	return func(f *filter) {
		f.config = config
	}
}

// TopN limits per-thread results to the n busiest threads.
func TopN(n int) Filter {
	return func(f *filter) {
		f.topN = n
	}
}

func buildFilter(filtFuncs []Filter) (*filter, error) {
	f := &filter{
		config: series.DefaultConfig(),
		topN:   DefaultTopN,
	}
	for _, ff := range filtFuncs {
		ff(f)
	}
	if err := f.config.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
