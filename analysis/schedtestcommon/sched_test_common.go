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
// Package schedtestcommon provides pre-populated tracebuilder.Builders for
// testing.
package schedtestcommon

import (
	"testing"

	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
	"github.com/qais-yousef/sched-analyzer/tracedata/tracebuilder"
)

// The bounds of the test trace: 1ms, starting at 1s.
const (
	TraceStart trace.Timestamp = 1000000000
	TraceEnd   trace.Timestamp = TraceStart + 1000000
)

// us returns the absolute timestamp offset microseconds into the test trace.
func us(offset int64) trace.Timestamp {
	return TraceStart + trace.Timestamp(offset*1000)
}

// UnpopulatedBuilder returns a new Builder with the test trace's bounds but
// no data.
func UnpopulatedBuilder() *tracebuilder.Builder {
	return tracebuilder.NewBuilder(TraceStart, TraceEnd)
}

// PopulatedBuilder returns a Builder populated with a small trace:
//   - CPUs 0 and 1 share a frequency domain, running at 1.0GHz then 2.0GHz
//     from 500us; CPUs 2 and 3 share another, at 0.5GHz then 1.5GHz from
//     300us.
//   - CPUs 0 and 1 record idle states.
//   - Thread 42 'rampup' runs on CPU 0 at 200us for 200us, and on CPU 2 at
//     600us for 100us and 750us for 150us.
//   - Thread 43 'kworker/0:1' runs on CPU 1 from 0 to 300us.
//   - Thread 44 'rampup-worker' has a sched slice on CPU 3 from 0 to 100us.
//   - The sched-analyzer tracer emits util_avg for 'rampup-42' and 'CPU0'.
func PopulatedBuilder() *tracebuilder.Builder {
	return UnpopulatedBuilder().
		// Frequency, in kHz.
		WithFrequency(0, us(0), 1000000).
		WithFrequency(0, us(500), 2000000).
		WithFrequency(1, us(0), 1000000).
		WithFrequency(1, us(500), 2000000).
		WithFrequency(2, us(0), 500000).
		WithFrequency(2, us(300), 1500000).
		WithFrequency(3, us(0), 500000).
		WithFrequency(3, us(300), 1500000).
		// Idle states.
		WithIdle(0, us(0), 4294967295).
		WithIdle(0, us(200), 0).
		WithIdle(0, us(600), 4294967295).
		WithIdle(0, us(800), 1).
		WithIdle(1, us(0), 0).
		WithIdle(1, us(500), 4294967295).
		// Thread states.
		WithThreadState(us(100), tracebuilder.NoCPU, "R", 100000, 42, "rampup").
		WithThreadState(us(200), 0, "Running", 200000, 42, "rampup").
		WithThreadState(us(400), tracebuilder.NoCPU, "S", 200000, 42, "rampup").
		WithThreadState(us(600), 2, "Running", 100000, 42, "rampup").
		WithThreadState(us(700), tracebuilder.NoCPU, "R+", 50000, 42, "rampup").
		WithThreadState(us(750), 2, "Running", 150000, 42, "rampup").
		WithThreadState(us(0), 1, "Running", 300000, 43, "kworker/0:1").
		WithThreadState(us(300), tracebuilder.NoCPU, "D", 100000, 43, "kworker/0:1").
		WithThreadState(us(400), tracebuilder.NoCPU, "S", 600000, 43, "kworker/0:1").
		// Sched slices.
		WithSlice("rampup", us(200), 200000, 0, "/system/bin/rampup", "rampup", 42).
		WithSlice("rampup", us(600), 100000, 2, "/system/bin/rampup", "rampup", 42).
		WithSlice("rampup", us(750), 150000, 2, "/system/bin/rampup", "rampup", 42).
		WithSlice("rampup", us(0), 100000, 3, "/system/bin/rampup", "rampup-worker", 44).
		// Counter tracks.
		WithCounter("util_avg", us(0), 100, "rampup-42 util_avg").
		WithCounter("util_avg", us(100), 200, "rampup-42 util_avg").
		WithCounter("util_avg", us(200), 200, "rampup-42 util_avg").
		WithCounter("util_avg", us(300), 300, "rampup-42 util_avg").
		WithCounter("util_avg", us(0), 512, "CPU0 util_avg").
		WithCounter("util_avg", us(500), 1024, "CPU0 util_avg")
}

// TestTrace returns a Querier serving the PopulatedBuilder trace.
func TestTrace(t *testing.T) *tracebuilder.Querier {
	t.Helper()
	return PopulatedBuilder().TestQuerier(t)
}
