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
	"sort"

	log "github.com/golang/glog"
	"github.com/qais-yousef/sched-analyzer/tracedata/perfetto"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// Frequencies are recorded in kHz and reported in GHz.
const frequencyScale = 1e6

// threadState is a single row of the thread_state table.
type threadState struct {
	ts  trace.Timestamp
	cpu CPUID
	// The state label, such as "Running" or "S".
	state string
	// Non-positive if unknown.
	dur     trace.Timestamp
	command stringID
}

// loadFrequency reads the trace's CPU frequency samples, if not already read.
// c.mu must be held.
func (c *Collection) loadFrequency(ctx context.Context) error {
	if c.frequency != nil {
		return nil
	}
	tbl, err := c.querier.Query(ctx, perfetto.FrequencyQuery)
	if err != nil {
		return upstreamError(err, "cpu frequency")
	}
	var samples []trace.Sample[float64]
	if tbl.Len() > 0 {
		cols, err := tbl.ColumnIndices(perfetto.ColTimestamp, perfetto.ColCPU, perfetto.ColFrequency)
		if err != nil {
			return malformedError(err, "cpu frequency")
		}
		dropped := 0
		for row := 0; row < tbl.Len(); row++ {
			ts, tsOK := tbl.Int(row, cols[0])
			cpu, cpuOK := tbl.Int(row, cols[1])
			freq, freqOK := tbl.Float(row, cols[2])
			if !tsOK || !cpuOK || !freqOK {
				dropped++
				continue
			}
			samples = append(samples, trace.Sample[float64]{
				Timestamp: trace.Timestamp(ts),
				ID:        cpu,
				Value:     freq / frequencyScale,
			})
		}
		if dropped > 0 {
			log.Warningf("Dropped %d incomplete cpu frequency rows", dropped)
		}
	}
	c.frequency = trace.SplitByID(samples)
	log.V(1).Infof("Loaded %d cpu frequency samples across %d CPUs", len(samples), len(c.frequency))
	return nil
}

// loadIdle reads the trace's CPU idle state samples, if not already read.
// c.mu must be held.
func (c *Collection) loadIdle(ctx context.Context) error {
	if c.idle != nil {
		return nil
	}
	tbl, err := c.querier.Query(ctx, perfetto.IdleQuery)
	if err != nil {
		return upstreamError(err, "cpu idle")
	}
	var samples []trace.Sample[int64]
	if tbl.Len() > 0 {
		cols, err := tbl.ColumnIndices(perfetto.ColTimestamp, perfetto.ColCPU, perfetto.ColIdle)
		if err != nil {
			return malformedError(err, "cpu idle")
		}
		dropped := 0
		for row := 0; row < tbl.Len(); row++ {
			ts, tsOK := tbl.Int(row, cols[0])
			cpu, cpuOK := tbl.Int(row, cols[1])
			idle, idleOK := tbl.Int(row, cols[2])
			if !tsOK || !cpuOK || !idleOK {
				dropped++
				continue
			}
			if idle == c.options.idleExitValue {
				idle = -1
			}
			samples = append(samples, trace.Sample[int64]{
				Timestamp: trace.Timestamp(ts),
				ID:        cpu,
				Value:     idle,
			})
		}
		if dropped > 0 {
			log.Warningf("Dropped %d incomplete cpu idle rows", dropped)
		}
	}
	c.idle = trace.SplitByID(samples)
	log.V(1).Infof("Loaded %d cpu idle samples across %d CPUs", len(samples), len(c.idle))
	return nil
}

// loadThreadStates reads the trace's thread state rows, if not already read.
// c.mu must be held.
func (c *Collection) loadThreadStates(ctx context.Context) error {
	if c.states != nil {
		return nil
	}
	tbl, err := c.querier.Query(ctx, perfetto.ThreadStateQuery)
	if err != nil {
		return upstreamError(err, "thread states")
	}
	states := map[PID][]threadState{}
	if tbl.Len() > 0 {
		cols, err := tbl.ColumnIndices(perfetto.ColTimestamp, perfetto.ColCPU, perfetto.ColState,
			perfetto.ColDuration, perfetto.ColTID, perfetto.ColName)
		if err != nil {
			return malformedError(err, "thread states")
		}
		dropped := 0
		for row := 0; row < tbl.Len(); row++ {
			ts, tsOK := tbl.Int(row, cols[0])
			state, stateOK := tbl.String(row, cols[2])
			tid, tidOK := tbl.Int(row, cols[4])
			if !tsOK || !stateOK || !tidOK {
				dropped++
				continue
			}
			st := threadState{
				ts:    trace.Timestamp(ts),
				cpu:   UnknownCPU,
				state: state,
				dur:   Unknown,
			}
			if cpu, ok := tbl.Int(row, cols[1]); ok {
				st.cpu = CPUID(cpu)
			}
			if dur, ok := tbl.Int(row, cols[3]); ok {
				st.dur = trace.Timestamp(dur)
			}
			name, ok := tbl.String(row, cols[5])
			if !ok {
				name = unknownString
			}
			st.command = c.names.stringIDByString(name)
			states[PID(tid)] = append(states[PID(tid)], st)
		}
		if dropped > 0 {
			log.Warningf("Dropped %d incomplete thread state rows", dropped)
		}
	}
	for _, rows := range states {
		sort.SliceStable(rows, func(a, b int) bool {
			return rows[a].ts < rows[b].ts
		})
	}
	c.states = states
	log.V(1).Infof("Loaded thread states of %d threads", len(states))
	return nil
}
