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
package models

import (
	"github.com/qais-yousef/sched-analyzer/analysis/sched"
)

// AnalysisRequest is a request for any of the trace analyses.  Fields an
// analysis does not use are ignored.
type AnalysisRequest struct {
	TraceName string `json:"traceName"`
	// The trace-relative window to report, in seconds.  A missing or negative
	// EndSeconds extends the window to the end of the trace.
	StartSeconds float64  `json:"startSeconds"`
	EndSeconds   *float64 `json:"endSeconds,omitempty"`
	// The resampling period, in microseconds.  Zero selects the default.
	PeriodUs int64 `json:"periodUs"`
	// One of "ffill", "bfill", or "none".  Empty selects "ffill".
	Fill string `json:"fill"`
	// Report residencies in milliseconds rather than percentages.
	Absolute bool `json:"absolute"`
	// A thread name regular expression, for per-thread analyses.
	Pattern string `json:"pattern"`
	// A process name, for run residency.
	Process string `json:"process"`
	// A counter signal name, such as util_avg, for counter tracks.
	Signal string `json:"signal"`
	// The maximum number of threads to report.  Zero selects the default.
	TopN int `json:"topN"`
}

// FrequencyResponse is a response for a frequency request.
type FrequencyResponse struct {
	TraceName string                        `json:"traceName"`
	Series    []sched.CPUSeries             `json:"series"`
	Residency []sched.CPUResidency[float64] `json:"residency"`
}

// FrequencyResidencyResponse is a response for a frequency residency request.
type FrequencyResidencyResponse struct {
	TraceName string                        `json:"traceName"`
	Absolute  bool                          `json:"absolute"`
	Residency []sched.CPUResidency[float64] `json:"residency"`
}

// TaskFrequencyResponse is a response for a task frequency request.
type TaskFrequencyResponse struct {
	TraceName string             `json:"traceName"`
	Tasks     []sched.TaskSignal `json:"tasks"`
}

// IdleResidencyResponse is a response for an idle residency request.
type IdleResidencyResponse struct {
	TraceName string               `json:"traceName"`
	Idle      *sched.IdleResidency `json:"idle"`
}

// ThreadStatesResponse is a response for a thread states request.
type ThreadStatesResponse struct {
	TraceName string                     `json:"traceName"`
	Threads   []sched.ThreadStateSummary `json:"threads"`
}

// RunResidencyResponse is a response for a run residency request.
type RunResidencyResponse struct {
	TraceName string               `json:"traceName"`
	Threads   []sched.RunResidency `json:"threads"`
}

// CounterTracksResponse is a response for a counter tracks request.
type CounterTracksResponse struct {
	TraceName string               `json:"traceName"`
	Signal    string               `json:"signal"`
	Tracks    []sched.CounterTrack `json:"tracks"`
}
