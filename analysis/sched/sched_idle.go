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

	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// HasIdle returns true if the trace records CPU idle states.
func (c *Collection) HasIdle(ctx context.Context) (bool, error) {
	if err := c.lock(); err != nil {
		return false, err
	}
	defer c.mu.Unlock()
	if err := c.loadIdle(ctx); err != nil {
		return false, err
	}
	return len(c.idle) > 0, nil
}

// IdleResidency returns, for each CPU, the percentage of the filtered time
// range spent in each idle state.  Idle residencies are computed over the
// raw, event-driven samples and are always percentages.  If the trace holds
// no idle data, the result is marked unavailable.
func (c *Collection) IdleResidency(ctx context.Context, filters ...Filter) (*IdleResidency, error) {
	f, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	if err := c.loadIdle(ctx); err != nil {
		return nil, err
	}
	ret := &IdleResidency{
		Available: len(c.idle) > 0,
		CPUs:      []CPUResidency[int64]{},
	}
	for _, cpu := range trace.IDs(c.idle) {
		s := series.Clip(series.Normalize(c.idle[cpu], c.bounds), f.config.Window)
		residency := series.Residency(s, series.Percent, f.config.Period)
		if len(residency) == 0 {
			continue
		}
		ret.CPUs = append(ret.CPUs, CPUResidency[int64]{CPU: CPUID(cpu), Residency: series.Sorted(residency)})
	}
	return ret, nil
}
