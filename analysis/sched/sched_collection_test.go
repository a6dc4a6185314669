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

	"github.com/google/go-cmp/cmp/cmpopts"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/analysis/schedtestcommon"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/tracedata/perfetto"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
	"github.com/qais-yousef/sched-analyzer/tracedata/tracebuilder"
)

var approx = cmpopts.EquateApprox(0, 1e-9)

var testBounds = trace.Bounds{Start: schedtestcommon.TraceStart, End: schedtestcommon.TraceEnd}

// gridSeries returns a series on the test trace's default grid whose points
// at the provided indices are defined with the provided values.
func gridSeries(id int64, values map[int]float64) series.Series[float64] {
	g := series.NewGrid(testBounds, series.DefaultPeriod)
	ret := series.Series[float64]{ID: id, Points: make([]series.Point[float64], g.Len())}
	for i := range ret.Points {
		t := g.Time(i)
		ret.Points[i] = series.Point[float64]{Time: t, Elapsed: t}
		if v, ok := values[i]; ok {
			ret.Points[i].Value, ret.Points[i].Valid = v, true
		}
	}
	return ret
}

func testCollection(t *testing.T, q trace.Querier, options ...Option) *Collection {
	t.Helper()
	c, err := NewCollection(context.Background(), q, options...)
	if err != nil {
		t.Fatalf("NewCollection() = %v", err)
	}
	return c
}

func TestNewCollection(t *testing.T) {
	tests := []struct {
		description string
		builder     *tracebuilder.Builder
		options     []Option
		wantCode    codes.Code
	}{{
		"populated trace",
		schedtestcommon.PopulatedBuilder(),
		nil,
		codes.OK,
	}, {
		"bounds unavailable",
		schedtestcommon.UnpopulatedBuilder().WithBoundsFailure(tracebuilder.ErrUnavailable),
		nil,
		codes.Unavailable,
	}, {
		"inverted bounds",
		tracebuilder.NewBuilder(2000, 1000),
		nil,
		codes.InvalidArgument,
	}, {
		"bad option",
		schedtestcommon.PopulatedBuilder(),
		[]Option{CacheSize(-1)},
		codes.InvalidArgument,
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			c, err := NewCollection(context.Background(), test.builder.TestQuerier(t), test.options...)
			if got := status.Code(err); got != test.wantCode {
				t.Fatalf("NewCollection() = %v, want code %s", err, test.wantCode)
			}
			if err != nil {
				return
			}
			if got := c.Bounds(); got != testBounds {
				t.Errorf("Bounds() = %v, want %v", got, testBounds)
			}
			if got, want := c.Duration(), .001; got != want {
				t.Errorf("Duration() = %f, want %f", got, want)
			}
		})
	}
}

func TestClose(t *testing.T) {
	c := testCollection(t, schedtestcommon.TestTrace(t))
	ctx := context.Background()
	if _, err := c.Clusters(ctx); err != nil {
		t.Fatalf("Clusters() = %v", err)
	}
	c.Close()
	if _, err := c.Clusters(ctx); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("Clusters() after Close() = %v, want FailedPrecondition", err)
	}
	if _, err := c.IdleResidency(ctx); status.Code(err) != codes.FailedPrecondition {
		t.Errorf("IdleResidency() after Close() = %v, want FailedPrecondition", err)
	}
}

func TestUpstreamFailures(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		description string
		builder     *tracebuilder.Builder
		run         func(c *Collection) error
		wantCode    codes.Code
	}{{
		"frequency unavailable",
		schedtestcommon.PopulatedBuilder().WithFailure(perfetto.FrequencyQuery, tracebuilder.ErrUnavailable),
		func(c *Collection) error {
			_, err := c.Frequency(ctx)
			return err
		},
		codes.Unavailable,
	}, {
		"thread states unavailable",
		schedtestcommon.UnpopulatedBuilder().WithFailure(perfetto.ThreadStateQuery, tracebuilder.ErrUnavailable),
		func(c *Collection) error {
			_, err := c.ThreadStates(ctx, ".*")
			return err
		},
		codes.Unavailable,
	}, {
		"malformed frequency table",
		schedtestcommon.UnpopulatedBuilder().
			WithTable(perfetto.FrequencyQuery, "ts", "cpu", "value").
			WithRow(perfetto.FrequencyQuery, 1000000000, 0, 1.0),
		func(c *Collection) error {
			_, err := c.Clusters(ctx)
			return err
		},
		codes.InvalidArgument,
	}, {
		"invalid window",
		schedtestcommon.PopulatedBuilder(),
		func(c *Collection) error {
			_, err := c.FrequencyResidency(ctx, TimeRange(.5, .1))
			return err
		},
		codes.InvalidArgument,
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			c := testCollection(t, test.builder.TestQuerier(t))
			if got := status.Code(test.run(c)); got != test.wantCode {
				t.Errorf("got code %s, want %s", got, test.wantCode)
			}
		})
	}
}

func TestTablesAreReadOnce(t *testing.T) {
	q := schedtestcommon.TestTrace(t)
	c := testCollection(t, q)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Frequency(ctx); err != nil {
			t.Fatalf("Frequency() = %v", err)
		}
		if _, err := c.TaskFrequency(ctx, "rampup"); err != nil {
			t.Fatalf("TaskFrequency() = %v", err)
		}
	}
	if got := q.Calls(perfetto.FrequencyQuery); got != 1 {
		t.Errorf("frequency queried %d times, want 1", got)
	}
	if got := q.Calls(perfetto.ThreadStateQuery); got != 1 {
		t.Errorf("thread states queried %d times, want 1", got)
	}
	// CPUs 0 and 2 represent their domains; thread 42 also ran on both.
	if got := c.resampled.Len(); got != 2 {
		t.Errorf("%d resampled series memoized, want 2", got)
	}
}

func TestMemoizationDisabled(t *testing.T) {
	c := testCollection(t, schedtestcommon.TestTrace(t), CacheSize(0))
	if c.resampled != nil {
		t.Fatalf("CacheSize(0) collection memoizes resampled series")
	}
	if _, err := c.Frequency(context.Background()); err != nil {
		t.Errorf("Frequency() = %v", err)
	}
}
