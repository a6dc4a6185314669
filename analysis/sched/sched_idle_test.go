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
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/qais-yousef/sched-analyzer/analysis/schedtestcommon"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
)

func TestIdleResidency(t *testing.T) {
	tests := []struct {
		description string
		c           *Collection
		filters     []Filter
		wantHasIdle bool
		want        *IdleResidency
	}{{
		"whole trace",
		testCollection(t, schedtestcommon.TestTrace(t)),
		nil,
		true,
		&IdleResidency{
			Available: true,
			CPUs: []CPUResidency[int64]{
				{CPU: 0, Residency: []series.Share[int64]{{Value: -1, Amount: 50}, {Value: 0, Amount: 50}, {Value: 1, Amount: 0}}},
				{CPU: 1, Residency: []series.Share[int64]{{Value: -1, Amount: 0}, {Value: 0, Amount: 100}}},
			},
		},
	}, {
		"windowed",
		testCollection(t, schedtestcommon.TestTrace(t)),
		[]Filter{TimeRange(.0002, .0008)},
		true,
		&IdleResidency{
			Available: true,
			CPUs: []CPUResidency[int64]{
				{CPU: 0, Residency: []series.Share[int64]{{Value: -1, Amount: 100.0 / 3}, {Value: 0, Amount: 200.0 / 3}, {Value: 1, Amount: 0}}},
				{CPU: 1, Residency: []series.Share[int64]{{Value: -1, Amount: 0}}},
			},
		},
	}, {
		"custom idle exit value",
		testCollection(t, schedtestcommon.UnpopulatedBuilder().
			WithIdle(0, schedtestcommon.TraceStart, 7).
			WithIdle(0, schedtestcommon.TraceStart+500000, 0).
			WithIdle(0, schedtestcommon.TraceStart+1000000, 7).
			TestQuerier(t), IdleExitValue(7)),
		nil,
		true,
		&IdleResidency{
			Available: true,
			CPUs: []CPUResidency[int64]{
				{CPU: 0, Residency: []series.Share[int64]{{Value: -1, Amount: 50}, {Value: 0, Amount: 50}}},
			},
		},
	}, {
		"no idle data",
		testCollection(t, schedtestcommon.UnpopulatedBuilder().
			WithFrequency(0, schedtestcommon.TraceStart, 1000000).
			TestQuerier(t)),
		nil,
		false,
		&IdleResidency{
			Available: false,
			CPUs:      []CPUResidency[int64]{},
		},
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			hasIdle, err := test.c.HasIdle(context.Background())
			if err != nil {
				t.Fatalf("HasIdle() = %v", err)
			}
			if hasIdle != test.wantHasIdle {
				t.Errorf("HasIdle() = %t, want %t", hasIdle, test.wantHasIdle)
			}
			got, err := test.c.IdleResidency(context.Background(), test.filters...)
			if err != nil {
				t.Fatalf("IdleResidency() = %v", err)
			}
			if diff := cmp.Diff(test.want, got, approx); diff != "" {
				t.Errorf("IdleResidency() = %v\nDiff -want +got:\n%s", got, diff)
			}
		})
	}
}
