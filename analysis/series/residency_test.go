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
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

func TestResidency(t *testing.T) {
	tests := []struct {
		description string
		series      Series[string]
		mode        Mode
		want        DurationResidency[string]
	}{{
		"empty",
		Series[string]{},
		Percent,
		DurationResidency[string]{},
	}, {
		"wholly undefined",
		gridSeries(0, map[int]string{}),
		Percent,
		DurationResidency[string]{},
	}, {
		"last row has no duration",
		Normalize(samplesAt(0, []trace.Timestamp{0, 100000000, 300000000}, []string{"A", "A", "B"}), testBounds),
		Percent,
		DurationResidency[string]{"A": 100, "B": 0},
	}, {
		"single sample is defined",
		Normalize(samplesAt(0, []trace.Timestamp{0}, []string{"A"}), testBounds),
		Percent,
		DurationResidency[string]{"A": 0},
	}, {
		"undefined points contribute nothing",
		gridSeries(0, map[int]string{2: "A", 3: "A", 4: "B", 5: "B", 8: "A", 9: "B"}),
		Percent,
		DurationResidency[string]{"A": 60, "B": 40},
	}, {
		"absolute mode counts grid periods",
		gridSeries(0, map[int]string{0: "A", 1: "A", 2: "A", 3: "B", 4: "B", 5: "B", 6: "B", 7: "B", 8: "B", 9: "B"}),
		Absolute,
		DurationResidency[string]{"A": .3, "B": .6},
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			got := Residency(test.series, test.mode, testGrid.Period)
			if diff := cmp.Diff(test.want, got, approx); diff != "" {
				t.Errorf("Residency() = %v\nDiff -want +got:\n%s", got, diff)
			}
		})
	}
}

func TestResidencyCoverage(t *testing.T) {
	series := Resample(
		Normalize(samplesAt(0, []trace.Timestamp{0, 130000, 370000, 410000, 880000}, []string{"C0", "C1", "WFI", "C1", "C0"}), testBounds),
		testGrid, FillForward)
	got := Residency(series, Percent, testGrid.Period)
	if total := got.Total(); math.Abs(total-100) > .1 {
		t.Errorf("Residency() = %v, totalling %f, want 100", got, total)
	}
}

func TestSorted(t *testing.T) {
	got := Sorted(DurationResidency[float64]{2.0: 10, 0.5: 60, 1.2: 30})
	want := []Share[float64]{{0.5, 60}, {1.2, 30}, {2.0, 10}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Sorted() = %v\nDiff -want +got:\n%s", got, diff)
	}
}

func TestClusters(t *testing.T) {
	tests := []struct {
		description string
		sequences   map[int64][]float64
		want        []int64
	}{{
		"empty",
		map[int64][]float64{},
		[]int64{},
	}, {
		"identical CPUs fold into the first",
		map[int64][]float64{0: {1, 1, 2}, 1: {1, 1, 2}},
		[]int64{0},
	}, {
		"new cluster on every change",
		map[int64][]float64{0: {1, 2}, 1: {1, 2}, 2: {3}, 3: {3}, 4: {1, 2}},
		[]int64{0, 2, 4},
	}, {
		"unequal lengths are distinct",
		map[int64][]float64{0: {1, 1}, 1: {1, 1, 1}},
		[]int64{0, 1},
	}, {
		"lowest present CPU leads",
		map[int64][]float64{7: {2}, 4: {1}, 5: {1}},
		[]int64{4, 7},
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			got := Clusters(test.sequences)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Clusters() = %v\nDiff -want +got:\n%s", got, diff)
			}
		})
	}
}

func TestHistogram(t *testing.T) {
	series := gridSeries(0, map[int]float64{0: 3, 1: 3, 2: 3, 3: 2, 4: 2, 5: 1, 6: 5, 7: 5})
	got := Histogram(series)
	want := []Bin[float64]{{1, 1}, {2, 2}, {5, 2}, {3, 3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Histogram() = %v\nDiff -want +got:\n%s", got, diff)
	}
	if got := Histogram(Series[float64]{}); len(got) != 0 {
		t.Errorf("Histogram() of empty series = %v, want empty", got)
	}
}

func TestDescribe(t *testing.T) {
	got := Describe([]float64{4, 1, 3, 2})
	want := &Stats{
		Count: 4,
		Mean:  2.5,
		Std:   1.2909944487358056,
		Min:   1,
		P75:   3.25,
		P90:   3.7,
		P95:   3.85,
		P99:   3.97,
		Max:   4,
	}
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Describe() = %v\nDiff -want +got:\n%s", got, diff)
	}
	if got := Describe(nil); got != nil {
		t.Errorf("Describe(nil) = %v, want nil", got)
	}
}
