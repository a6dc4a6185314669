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
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

// testGrid spans 1ms in 100us steps: ten points at 0, 0.0001, ..., 0.0009s.
var (
	testBounds = trace.Bounds{Start: 1000000000, End: 1001000000}
	testGrid   = NewGrid(testBounds, 100*time.Microsecond)
)

// gridSeries returns a series on testGrid whose points at the provided
// indices are defined with the provided values.
func gridSeries[V comparable](id int64, values map[int]V) Series[V] {
	ret := Series[V]{ID: id, Points: make([]Point[V], testGrid.Len())}
	for i := range ret.Points {
		t := testGrid.Time(i)
		ret.Points[i] = Point[V]{Time: t, Elapsed: t}
		if v, ok := values[i]; ok {
			ret.Points[i].Value, ret.Points[i].Valid = v, true
		}
	}
	return ret
}

func samplesAt[V comparable](id int64, offsets []trace.Timestamp, values []V) []trace.Sample[V] {
	var ret []trace.Sample[V]
	for i, off := range offsets {
		ret = append(ret, trace.Sample[V]{Timestamp: testBounds.Start + off, ID: id, Value: values[i]})
	}
	return ret
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		description string
		samples     []trace.Sample[string]
		want        Series[string]
	}{{
		"empty",
		nil,
		Series[string]{},
	}, {
		"rebased to seconds",
		samplesAt(3, []trace.Timestamp{0, 100000000, 300000000}, []string{"A", "A", "B"}),
		Series[string]{ID: 3, Points: []Point[string]{
			{Time: 0, Elapsed: 0, Value: "A", Valid: true},
			{Time: .1, Elapsed: .1, Value: "A", Valid: true},
			{Time: .3, Elapsed: .3, Value: "B", Valid: true},
		}},
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			got := Normalize(test.samples, testBounds)
			if diff := cmp.Diff(test.want, got, approx); diff != "" {
				t.Errorf("Normalize() = %v\nDiff -want +got:\n%s", got, diff)
			}
		})
	}
}

func TestGrid(t *testing.T) {
	tests := []struct {
		description string
		grid        Grid
		wantLen     int
	}{{
		"exact multiple",
		testGrid,
		10,
	}, {
		"partial final step",
		Grid{Span: 1000001, Period: 100 * time.Microsecond},
		11,
	}, {
		"empty trace",
		Grid{Span: 0, Period: 100 * time.Microsecond},
		0,
	}, {
		"no period",
		Grid{Span: 1000000, Period: 0},
		0,
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			if got := test.grid.Len(); got != test.wantLen {
				t.Errorf("Len() = %d, want %d", got, test.wantLen)
			}
		})
	}
}

func TestGridValidate(t *testing.T) {
	minute := trace.Bounds{Start: 1000000000, End: 61000000000}
	tests := []struct {
		description string
		grid        Grid
		wantErr     bool
	}{{
		"default period",
		NewGrid(minute, DefaultPeriod),
		false,
	}, {
		"largest allowed grid",
		Grid{Span: MaxGridPoints, Period: time.Nanosecond},
		false,
	}, {
		"one point too many",
		Grid{Span: MaxGridPoints + 1, Period: time.Nanosecond},
		true,
	}, {
		"nanosecond period over a minute",
		NewGrid(minute, time.Nanosecond),
		true,
	}, {
		"microsecond period over a minute",
		NewGrid(minute, time.Microsecond),
		true,
	}, {
		"no period",
		Grid{Span: 1000000},
		true,
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			err := test.grid.Validate()
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Errorf("Validate() = %v, wantErr %t", err, test.wantErr)
			}
		})
	}
}

func TestResample(t *testing.T) {
	series := Normalize(samplesAt(0, []trace.Timestamp{250000, 500000}, []string{"A", "B"}), testBounds)
	tests := []struct {
		description string
		series      Series[string]
		fill        FillMethod
		want        Series[string]
	}{{
		"empty",
		Series[string]{ID: 1},
		FillForward,
		Series[string]{ID: 1},
	}, {
		"forward fill leaves leading points undefined",
		series,
		FillForward,
		gridSeries(0, map[int]string{3: "A", 4: "A", 5: "B", 6: "B", 7: "B", 8: "B", 9: "B"}),
	}, {
		"backward fill leaves trailing points undefined",
		series,
		FillBackward,
		gridSeries(0, map[int]string{0: "A", 1: "A", 2: "A", 3: "B", 4: "B", 5: "B"}),
	}, {
		"no fill keeps only coincident points",
		series,
		FillNone,
		gridSeries(0, map[int]string{5: "B"}),
	}, {
		"duplicate timestamps collapse to last",
		Normalize(samplesAt(0, []trace.Timestamp{250000, 250000, 500000}, []string{"A", "C", "B"}), testBounds),
		FillForward,
		gridSeries(0, map[int]string{3: "C", 4: "C", 5: "B", 6: "B", 7: "B", 8: "B", 9: "B"}),
	}, {
		"unsorted input",
		Normalize(samplesAt(0, []trace.Timestamp{500000, 250000}, []string{"B", "A"}), testBounds),
		FillForward,
		gridSeries(0, map[int]string{3: "A", 4: "A", 5: "B", 6: "B", 7: "B", 8: "B", 9: "B"}),
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			orig := test.series.Clone()
			got := Resample(test.series, testGrid, test.fill)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Errorf("Resample() = %v\nDiff -want +got:\n%s", got, diff)
			}
			if diff := cmp.Diff(orig, test.series); diff != "" {
				t.Errorf("Resample() modified its input; Diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestResampleIdempotent(t *testing.T) {
	series := Normalize(samplesAt(0, []trace.Timestamp{0, 130000, 130000, 720000}, []float64{1.2, 1.8, 2.0, 0.9}), testBounds)
	for _, fill := range []FillMethod{FillForward, FillBackward, FillNone} {
		t.Run(fill.String(), func(t *testing.T) {
			once := Resample(series, testGrid, fill)
			twice := Resample(once, testGrid, fill)
			if diff := cmp.Diff(once, twice); diff != "" {
				t.Errorf("Resample(Resample(S)) != Resample(S); Diff -want +got:\n%s", diff)
			}
		})
	}
}

func TestClip(t *testing.T) {
	series := gridSeries(0, map[int]int64{0: 1, 1: 1, 2: 2, 3: 2, 4: 3})
	got := Clip(series, Window{Start: .0001, End: .0003})
	want := Series[int64]{ID: 0, Points: series.Points[1:4]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Clip() = %v\nDiff -want +got:\n%s", got, diff)
	}
	if got := Clip(Series[int64]{}, FullWindow()); !got.Empty() {
		t.Errorf("Clip() of empty series = %v, want empty", got)
	}
}

func TestMap(t *testing.T) {
	series := gridSeries(2, map[int]float64{1: 1800000, 2: 2000000})
	got := Map(series, func(v float64) float64 { return v / 1e6 })
	want := gridSeries(2, map[int]float64{1: 1.8, 2: 2})
	if diff := cmp.Diff(want, got, approx); diff != "" {
		t.Errorf("Map() = %v\nDiff -want +got:\n%s", got, diff)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		description string
		config      Config
		wantErr     bool
	}{{
		"default",
		DefaultConfig(),
		false,
	}, {
		"inverted window",
		Config{Window: Window{Start: 2, End: 1}, Period: DefaultPeriod},
		true,
	}, {
		"zero period",
		Config{Window: FullWindow()},
		true,
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			err := test.config.Validate()
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Errorf("Validate() = %v, wantErr %t", err, test.wantErr)
			}
		})
	}
}

func TestParseFillMethod(t *testing.T) {
	for _, fill := range []FillMethod{FillForward, FillBackward, FillNone} {
		got, err := ParseFillMethod(fill.String())
		if err != nil || got != fill {
			t.Errorf("ParseFillMethod(%q) = %s, %v, want %s", fill.String(), got, err, fill)
		}
	}
	if _, err := ParseFillMethod("nearest"); err == nil {
		t.Errorf("ParseFillMethod(nearest) succeeded, wanted error")
	}
}
