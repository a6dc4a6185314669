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
	"math"
	"sort"

	log "github.com/golang/glog"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/tracedata/perfetto"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// timestamp returns the absolute timestamp of the provided trace-relative
// time, clamped to the trace's bounds.
func (c *Collection) timestamp(seconds float64) trace.Timestamp {
	if seconds <= 0 {
		return c.bounds.Start
	}
	if math.IsInf(seconds, 1) || seconds >= c.Duration() {
		return c.bounds.End
	}
	return c.bounds.Start + trace.Timestamp(math.Round(seconds*1e9))
}

// loadSlices reads the sched slices of the processes whose name ends with
// the provided name.  c.mu must be held.
func (c *Collection) loadSlices(ctx context.Context, process string) (*sliceSet, error) {
	tbl, err := c.querier.Query(ctx, perfetto.SchedSliceQuery(process))
	if err != nil {
		return nil, upstreamError(err, "sched slices")
	}
	ss := newSliceSet()
	if tbl.Len() == 0 {
		return ss, nil
	}
	cols, err := tbl.ColumnIndices(perfetto.ColTimestamp, perfetto.ColDuration, perfetto.ColCPU,
		perfetto.ColThreadName, perfetto.ColTID)
	if err != nil {
		return nil, malformedError(err, "sched slices")
	}
	dropped := 0
	for row := 0; row < tbl.Len(); row++ {
		ts, tsOK := tbl.Int(row, cols[0])
		dur, durOK := tbl.Int(row, cols[1])
		cpu, cpuOK := tbl.Int(row, cols[2])
		tid, tidOK := tbl.Int(row, cols[4])
		if !tsOK || !durOK || !cpuOK || !tidOK || dur < 0 {
			dropped++
			continue
		}
		name, ok := tbl.String(row, cols[3])
		if !ok {
			name = unknownString
		}
		ss.add(&slice{
			startTimestamp: trace.Timestamp(ts),
			endTimestamp:   trace.Timestamp(ts + dur),
			cpu:            CPUID(cpu),
			pid:            PID(tid),
			command:        c.names.stringIDByString(name),
		})
	}
	if dropped > 0 {
		log.Warningf("Dropped %d incomplete sched slice rows", dropped)
	}
	return ss, nil
}

// RunResidency returns, for the busiest threads of the processes whose name
// ends with the provided name, the percentage of each thread's running time
// spent on each CPU within the filtered time range.  Threads are ordered
// busiest first.
func (c *Collection) RunResidency(ctx context.Context, process string, filters ...Filter) ([]RunResidency, error) {
	f, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	ss, err := c.loadSlices(ctx, process)
	if err != nil {
		return nil, err
	}
	start, end := c.timestamp(f.config.Window.Start), c.timestamp(f.config.Window.End)
	type usage struct {
		command stringID
		total   trace.Timestamp
		byCPU   map[CPUID]trace.Timestamp
	}
	usages := map[PID]*usage{}
	for _, s := range ss.overlapping(start, end) {
		d := s.overlap(start, end)
		if d == 0 {
			continue
		}
		u, ok := usages[s.pid]
		if !ok {
			u = &usage{command: s.command, byCPU: map[CPUID]trace.Timestamp{}}
			usages[s.pid] = u
		}
		u.total += d
		u.byCPU[s.cpu] += d
	}
	pids := make([]PID, 0, len(usages))
	for pid := range usages {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(a, b int) bool {
		ua, ub := usages[pids[a]], usages[pids[b]]
		if ua.total != ub.total {
			return ua.total > ub.total
		}
		return pids[a] < pids[b]
	})
	if f.topN > 0 && len(pids) > f.topN {
		pids = pids[:f.topN]
	}
	ret := []RunResidency{}
	for _, pid := range pids {
		u := usages[pid]
		command, err := c.names.stringByID(u.command)
		if err != nil {
			return nil, err
		}
		residency := series.DurationResidency[CPUID]{}
		for cpu, d := range u.byCPU {
			residency[cpu] = float64(d) * 100 / float64(u.total)
		}
		ret = append(ret, RunResidency{
			PID:     pid,
			Command: command,
			TotalUs: microseconds(u.total),
			CPUs:    series.Sorted(residency),
		})
	}
	return ret, nil
}
