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
package series

import (
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// RunningState is the thread state label of a thread switched in on a CPU.
const RunningState = "Running"

// TaskState is a single scheduling state observation of a task.
type TaskState struct {
	// The state label, such as "Running", "R", or "S".
	State string `json:"state"`
	// How long the task remained in the state.  Non-positive if unknown.
	Duration trace.Timestamp `json:"duration"`
}

// Running returns true if the state describes a task observed running for a
// positive duration.
func (ts TaskState) Running() bool {
	return ts.State == RunningState && ts.Duration > 0
}

// RunningMask resamples the provided task state series onto the provided grid
// and reduces it to a running indicator: true where the task was running,
// undefined elsewhere.  Grid points after the task's last real observation
// are undefined.
func RunningMask(states Series[TaskState], g Grid, fill FillMethod) Series[bool] {
	resampled := Resample(states, g, fill)
	if resampled.Empty() {
		return Series[bool]{ID: states.ID}
	}
	last := states.Points[0].Time
	for _, p := range states.Points {
		if p.Time > last {
			last = p.Time
		}
	}
	ret := Series[bool]{ID: states.ID, Points: make([]Point[bool], len(resampled.Points))}
	for i, p := range resampled.Points {
		ret.Points[i] = Point[bool]{Time: p.Time, Elapsed: p.Elapsed}
		if p.Time > last || !p.Valid || !p.Value.Running() {
			continue
		}
		ret.Points[i].Value, ret.Points[i].Valid = true, true
	}
	return ret
}

// Overlay masks the provided signal, which must already be resampled onto
// the provided grid, to only the grid points at which the task described by
// states was running.  The result has one point per signal point; points at
// which either the signal or the mask is undefined are undefined.  A task
// with no observations yields an all-undefined result.
func Overlay(signal Series[float64], states Series[TaskState], g Grid, fill FillMethod) Series[float64] {
	if signal.Empty() {
		return Series[float64]{ID: signal.ID}
	}
	mask := RunningMask(states, g, fill)
	ret := Series[float64]{ID: signal.ID, Points: make([]Point[float64], len(signal.Points))}
	// Both series lie on the same grid, so their times compare exactly.
	j := 0
	for i, p := range signal.Points {
		ret.Points[i] = Point[float64]{Time: p.Time, Elapsed: p.Elapsed}
		for j < len(mask.Points) && mask.Points[j].Time < p.Time {
			j++
		}
		if j == len(mask.Points) || mask.Points[j].Time != p.Time {
			continue
		}
		if p.Valid && mask.Points[j].Valid {
			ret.Points[i].Value, ret.Points[i].Valid = p.Value, true
		}
	}
	return ret
}
