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
	"github.com/qais-yousef/sched-analyzer/analysis/series"
)

// Unknown thread, PID, or CPU.
const Unknown = -1

// CPUID is a CPU index.
type CPUID int64

// UnknownCPU represents an unknown or unrecorded CPU.
const UnknownCPU CPUID = Unknown

// PID is a thread ID.
type PID int64

// UnknownPID represents an unknown or unrecorded thread.
const UnknownPID PID = Unknown

// Thread state labels, as recorded in the trace's thread_state table.
const (
	RunningState         = series.RunningState
	RunnableState        = "R"
	RunnablePreemptState = "R+"
	SleepingState        = "S"
	UninterruptibleState = "D"
)

// CPUSeries is a resampled signal belonging to a CPU, such as a frequency
// domain's representative.
type CPUSeries struct {
	CPU    CPUID                  `json:"cpu"`
	Series series.Series[float64] `json:"series"`
}

// CPUResidency is the distribution of a CPU's time across a signal's values.
type CPUResidency[V comparable] struct {
	CPU       CPUID             `json:"cpu"`
	Residency []series.Share[V] `json:"residency"`
}

// IdleResidency describes the time each CPU spent in each idle state.  Idle
// state -1 denotes time spent outside of any idle state.
type IdleResidency struct {
	// False if the trace holds no idle state data.
	Available bool                  `json:"available"`
	CPUs      []CPUResidency[int64] `json:"cpus"`
}

// TaskSignal is a CPU signal masked to the times a single thread was running
// on that CPU.
type TaskSignal struct {
	PID       PID                     `json:"pid"`
	Command   string                  `json:"command"`
	CPU       CPUID                   `json:"cpu"`
	Series    series.Series[float64]  `json:"series"`
	Residency []series.Share[float64] `json:"residency"`
}

// StateTime is the total time a thread spent in a state, in microseconds.
type StateTime struct {
	State  string  `json:"state"`
	TimeUs float64 `json:"timeUs"`
}

// CPUTime is the total time a thread spent running on a CPU, in
// microseconds.
type CPUTime struct {
	CPU    CPUID   `json:"cpu"`
	TimeUs float64 `json:"timeUs"`
}

// ThreadStateSummary summarizes a thread's scheduling states.  Durations are
// in microseconds.
type ThreadStateSummary struct {
	PID     PID    `json:"pid"`
	Command string `json:"command"`
	// Time spent in each state other than sleeping.
	States []StateTime `json:"states"`
	// Time spent running on each CPU.
	RunningByCPU []CPUTime `json:"runningByCpu"`
	// Distributions of individual runnable, running, and uninterruptible
	// sleep durations.  Nil if the thread never entered the state.
	Runnable        *series.Stats `json:"runnable"`
	Running         *series.Stats `json:"running"`
	Uninterruptible *series.Stats `json:"uninterruptible"`
}

// RunResidency describes how a thread's running time was distributed across
// CPUs.
type RunResidency struct {
	PID     PID    `json:"pid"`
	Command string `json:"command"`
	// Total running time, in microseconds.
	TotalUs float64 `json:"totalUs"`
	// Percentage of the running time spent on each CPU.
	CPUs []series.Share[CPUID] `json:"cpus"`
}

// CounterTrack is a per-entity signal emitted by the sched-analyzer tracer,
// such as a task's util_avg.
type CounterTrack struct {
	Name      string                 `json:"name"`
	Series    series.Series[float64] `json:"series"`
	Histogram []series.Bin[float64]  `json:"histogram"`
}
