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
// Package perfetto holds the queries used to read scheduler data out of a
// Perfetto trace processor database, and the names of the columns they return.
package perfetto

import (
	"fmt"
	"strings"
)

// Names of the columns returned by the queries below.
const (
	ColTimestamp   = "ts"
	ColCPU         = "cpu"
	ColFrequency   = "freq"
	ColIdle        = "idle"
	ColState       = "state"
	ColDuration    = "dur"
	ColTID         = "tid"
	ColName        = "name"
	ColProcessName = "process_name"
	ColThreadName  = "thread_name"
	ColValue       = "value"
	ColCounterName = "counter_name"
	ColStartTS     = "start_ts"
	ColEndTS       = "end_ts"
)

const (
	// FrequencyQuery returns every CPU frequency sample, in kHz.
	FrequencyQuery = "select ts, cpu, value as freq from counter as c left join cpu_counter_track as t on c.track_id = t.id where t.name = 'cpufreq'"
	// IdleQuery returns every CPU idle state sample.
	IdleQuery = "select ts, cpu, value as idle from counter as c left join cpu_counter_track as t on c.track_id = t.id where t.name = 'cpuidle'"
	// ThreadStateQuery returns every thread state transition, with the
	// thread's tid and name.
	ThreadStateQuery = "select ts, cpu, state, dur, tid, name from thread_state left join thread using(utid)"
	// BoundsQuery returns the trace's absolute start and end.
	BoundsQuery = "select start_ts, end_ts from trace_bounds"
)

// AnalyzerProcess is the name of the process whose counter tracks carry the
// scheduler signals emitted by the sched-analyzer tracer.
const AnalyzerProcess = "sched-analyzer"

func quote(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

// SchedSliceQuery returns every sched slice of the threads of processes
// whose name ends with the provided name.
func SchedSliceQuery(process string) string {
	return fmt.Sprintf("select s.ts as ts, s.dur as dur, s.cpu as cpu, p.name as process_name, t.name as thread_name, t.tid as tid from sched_slice as s left join thread as t using(utid) left join process as p using(upid) where p.name like '%%%s'", quote(process))
}

// CounterTrackQuery returns the samples of every sched-analyzer counter track
// whose name ends with the provided signal, such as "util_avg".
func CounterTrackQuery(signal string) string {
	return fmt.Sprintf("select c.ts as ts, c.value as value, t.name as counter_name from counter as c left join process_counter_track as t on c.track_id = t.id left join process as p using (upid) where p.name like '%%%s' and counter_name like '%% %s'", AnalyzerProcess, quote(signal))
}
