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

	log "github.com/golang/glog"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// Clusters returns one representative CPU per frequency domain: CPUs whose
// recorded frequency sequences are identical share a domain.  The result is
// computed once per Collection.
func (c *Collection) Clusters(ctx context.Context) ([]CPUID, error) {
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	clusters, err := c.clustersLocked(ctx)
	if err != nil {
		return nil, err
	}
	return append([]CPUID{}, clusters...), nil
}

func (c *Collection) clustersLocked(ctx context.Context) ([]CPUID, error) {
	if c.clusters != nil {
		return c.clusters, nil
	}
	if err := c.loadFrequency(ctx); err != nil {
		return nil, err
	}
	sequences := make(map[int64][]float64, len(c.frequency))
	for cpu, samples := range c.frequency {
		values := make([]float64, len(samples))
		for i, sample := range samples {
			values[i] = sample.Value
		}
		sequences[cpu] = values
	}
	reps := series.Clusters(sequences)
	c.clusters = make([]CPUID, len(reps))
	for i, rep := range reps {
		c.clusters[i] = CPUID(rep)
	}
	log.V(1).Infof("Found %d frequency domains among %d CPUs", len(c.clusters), len(c.frequency))
	return c.clusters, nil
}

// resampledFrequency returns the provided CPU's frequency series resampled
// onto the grid described by config.  The returned series may be shared and
// must not be modified.  c.mu must be held and frequency loaded.
func (c *Collection) resampledFrequency(cpu int64, config series.Config) series.Series[float64] {
	key := resampleKey{cpu: cpu, period: config.Period, fill: config.Fill}
	if c.resampled != nil {
		if cached, ok := c.resampled.Get(key); ok {
			return cached.(series.Series[float64])
		}
	}
	resampled := series.Resample(
		series.Normalize(c.frequency[cpu], c.bounds),
		series.NewGrid(c.bounds, config.Period),
		config.Fill)
	if c.resampled != nil {
		c.resampled.Add(key, resampled)
	}
	return resampled
}

// grid returns the resampling grid config describes over this trace, or an
// error if it is too large to build.
func (c *Collection) grid(config series.Config) (series.Grid, error) {
	g := series.NewGrid(c.bounds, config.Period)
	if err := g.Validate(); err != nil {
		return series.Grid{}, err
	}
	return g, nil
}

// Frequency returns the resampled frequency, in GHz, of each frequency
// domain's representative CPU, clipped to the filtered time range.  Domains
// with no samples in range are omitted.
func (c *Collection) Frequency(ctx context.Context, filters ...Filter) ([]CPUSeries, error) {
	f, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}
	if _, err := c.grid(f.config); err != nil {
		return nil, err
	}
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	clusters, err := c.clustersLocked(ctx)
	if err != nil {
		return nil, err
	}
	ret := []CPUSeries{}
	for _, cpu := range clusters {
		s := series.Clip(c.resampledFrequency(int64(cpu), f.config), f.config.Window)
		if s.Undefined() {
			continue
		}
		ret = append(ret, CPUSeries{CPU: cpu, Series: s})
	}
	return ret, nil
}

// FrequencyResidency returns, for each frequency domain's representative CPU,
// the time spent at each frequency within the filtered time range.
func (c *Collection) FrequencyResidency(ctx context.Context, filters ...Filter) ([]CPUResidency[float64], error) {
	f, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}
	if _, err := c.grid(f.config); err != nil {
		return nil, err
	}
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	clusters, err := c.clustersLocked(ctx)
	if err != nil {
		return nil, err
	}
	ret := []CPUResidency[float64]{}
	for _, cpu := range clusters {
		s := series.Clip(c.resampledFrequency(int64(cpu), f.config), f.config.Window)
		residency := series.Residency(s, f.config.Mode, f.config.Period)
		if len(residency) == 0 {
			continue
		}
		ret = append(ret, CPUResidency[float64]{CPU: cpu, Residency: series.Sorted(residency)})
	}
	return ret, nil
}

// TaskFrequency returns, for each thread whose name matches the provided
// regular expression and each CPU it ran on, that CPU's frequency masked to
// the times the thread was running there, along with the thread's residency
// at each frequency.  Thread and CPU pairs with no running time in the
// filtered range are omitted.
func (c *Collection) TaskFrequency(ctx context.Context, pattern string, filters ...Filter) ([]TaskSignal, error) {
	f, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}
	grid, err := c.grid(f.config)
	if err != nil {
		return nil, err
	}
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	if err := c.loadFrequency(ctx); err != nil {
		return nil, err
	}
	if err := c.loadThreadStates(ctx); err != nil {
		return nil, err
	}
	threads, err := c.matchingThreads(pattern)
	if err != nil {
		return nil, err
	}
	ret := []TaskSignal{}
	for _, th := range threads {
		rows := c.states[th.pid]
		for _, cpu := range runningCPUs(rows) {
			if _, ok := c.frequency[int64(cpu)]; !ok {
				log.V(1).Infof("No frequency data for CPU %d, skipping thread %d there", cpu, th.pid)
				continue
			}
			signal := c.resampledFrequency(int64(cpu), f.config)
			masked := series.Clip(
				series.Overlay(signal, c.taskStates(th.pid, rows, cpu), grid, f.config.Fill),
				f.config.Window)
			if masked.Undefined() {
				continue
			}
			ret = append(ret, TaskSignal{
				PID:       th.pid,
				Command:   th.command,
				CPU:       cpu,
				Series:    masked,
				Residency: series.Sorted(series.Residency(masked, f.config.Mode, f.config.Period)),
			})
		}
	}
	return ret, nil
}

// taskStates returns the provided thread's states on the provided CPU, and
// those recorded without a CPU, as a normalized series.
func (c *Collection) taskStates(pid PID, rows []threadState, cpu CPUID) series.Series[series.TaskState] {
	var samples []trace.Sample[series.TaskState]
	for _, row := range rows {
		if row.cpu != cpu && row.cpu != UnknownCPU {
			continue
		}
		samples = append(samples, trace.Sample[series.TaskState]{
			Timestamp: row.ts,
			ID:        int64(pid),
			Value:     series.TaskState{State: row.state, Duration: row.dur},
		})
	}
	return series.Normalize(samples, c.bounds)
}
