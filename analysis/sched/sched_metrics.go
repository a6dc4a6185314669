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
	"context"
	"regexp"
	"sort"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// thread identifies a thread under one of its names.
type thread struct {
	pid     PID
	command string
}

// matchingThreads returns every thread and name pair whose name matches the
// provided regular expression, ordered by name and then PID.  c.mu must be
// held and thread states loaded.
func (c *Collection) matchingThreads(pattern string) ([]thread, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid thread name pattern %q: %v", pattern, err)
	}
	seen := map[thread]struct{}{}
	var ret []thread
	for pid, rows := range c.states {
		for _, row := range rows {
			command, err := c.names.stringByID(row.command)
			if err != nil {
				return nil, status.Errorf(codes.Internal, "failed to find name of thread %d: %v", pid, err)
			}
			th := thread{pid: pid, command: command}
			if _, ok := seen[th]; ok || !re.MatchString(command) {
				continue
			}
			seen[th] = struct{}{}
			ret = append(ret, th)
		}
	}
	sort.Slice(ret, func(a, b int) bool {
		if ret[a].command != ret[b].command {
			return ret[a].command < ret[b].command
		}
		return ret[a].pid < ret[b].pid
	})
	return ret, nil
}

// runningCPUs returns the CPUs on which the provided rows record the thread
// running, in increasing order.
func runningCPUs(rows []threadState) []CPUID {
	seen := map[CPUID]struct{}{}
	var ret []CPUID
	for _, row := range rows {
		if row.state != RunningState || row.cpu == UnknownCPU {
			continue
		}
		if _, ok := seen[row.cpu]; ok {
			continue
		}
		seen[row.cpu] = struct{}{}
		ret = append(ret, row.cpu)
	}
	sort.Slice(ret, func(a, b int) bool {
		return ret[a] < ret[b]
	})
	return ret
}

func microseconds(d trace.Timestamp) float64 {
	return float64(d) / 1e3
}

// ThreadStates summarizes the scheduling states of every thread whose name
// matches the provided regular expression, over the filtered time range.
// Rows with unknown durations contribute to no totals.
func (c *Collection) ThreadStates(ctx context.Context, pattern string, filters ...Filter) ([]ThreadStateSummary, error) {
	f, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	if err := c.loadThreadStates(ctx); err != nil {
		return nil, err
	}
	threads, err := c.matchingThreads(pattern)
	if err != nil {
		return nil, err
	}
	ret := []ThreadStateSummary{}
	for _, th := range threads {
		stateTimes := map[string]float64{}
		cpuTimes := map[CPUID]float64{}
		durations := map[string][]float64{}
		for _, row := range c.states[th.pid] {
			if !f.config.Window.Contains(c.relative(row.ts)) || row.dur <= 0 {
				continue
			}
			us := microseconds(row.dur)
			if row.state != SleepingState {
				stateTimes[row.state] += us
			}
			switch row.state {
			case RunningState:
				if row.cpu != UnknownCPU {
					cpuTimes[row.cpu] += us
				}
				durations[RunningState] = append(durations[RunningState], us)
			case RunnableState, RunnablePreemptState:
				durations[RunnableState] = append(durations[RunnableState], us)
			case UninterruptibleState:
				durations[UninterruptibleState] = append(durations[UninterruptibleState], us)
			}
		}
		summary := ThreadStateSummary{
			PID:             th.pid,
			Command:         th.command,
			States:          []StateTime{},
			RunningByCPU:    []CPUTime{},
			Runnable:        series.Describe(durations[RunnableState]),
			Running:         series.Describe(durations[RunningState]),
			Uninterruptible: series.Describe(durations[UninterruptibleState]),
		}
		for state, us := range stateTimes {
			summary.States = append(summary.States, StateTime{State: state, TimeUs: us})
		}
		sort.Slice(summary.States, func(a, b int) bool {
			return summary.States[a].State < summary.States[b].State
		})
		for cpu, us := range cpuTimes {
			summary.RunningByCPU = append(summary.RunningByCPU, CPUTime{CPU: cpu, TimeUs: us})
		}
		sort.Slice(summary.RunningByCPU, func(a, b int) bool {
			return summary.RunningByCPU[a].CPU < summary.RunningByCPU[b].CPU
		})
		ret = append(ret, summary)
	}
	return ret, nil
}
