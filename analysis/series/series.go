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
// Package series provides the in-memory transforms that turn irregular,
// event-driven trace samples into aligned, comparable metrics: rebasing onto
// trace-relative time, resampling onto a uniform grid, window filtering,
// running-state overlays, and time-in-state residencies.
//
// All transforms are pure.  A Series passed to any of them is never modified;
// each returns a freshly allocated result, so one upstream series may safely
// feed several downstream analyses.
package series

import (
	"fmt"

	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// Point is a single observation in a Series.
type Point[V comparable] struct {
	// Seconds since the start of the trace.  This is the series index.
	Time float64 `json:"time"`
	// The relative timestamp of the observation, in seconds.  It is equal to
	// Time when the point is created and is used to derive per-point
	// durations by differencing.
	Elapsed float64 `json:"elapsed"`
	Value   V       `json:"value"`
	// False if the point's value is undefined, for instance on grid points
	// preceding the first known sample.
	Valid bool `json:"valid"`
}

func (p Point[V]) String() string {
	if !p.Valid {
		return fmt.Sprintf("%.6f: <undefined>", p.Time)
	}
	return fmt.Sprintf("%.6f: %v", p.Time, p.Value)
}

// Series is a time-ordered sequence of Points belonging to a single entity,
// such as a CPU or a thread.
type Series[V comparable] struct {
	// The entity the series describes.
	ID     int64      `json:"id"`
	Points []Point[V] `json:"points"`
}

// Len returns the number of points in the series.
func (s Series[V]) Len() int {
	return len(s.Points)
}

// Empty returns true if the series has no points.
func (s Series[V]) Empty() bool {
	return len(s.Points) == 0
}

// Undefined returns true if no point in the series has a defined value.  An
// empty series is undefined.
func (s Series[V]) Undefined() bool {
	for _, p := range s.Points {
		if p.Valid {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the series.
func (s Series[V]) Clone() Series[V] {
	ret := Series[V]{ID: s.ID}
	if s.Points != nil {
		ret.Points = append(make([]Point[V], 0, len(s.Points)), s.Points...)
	}
	return ret
}

// Values returns the defined values of the series, in order.
func (s Series[V]) Values() []V {
	var ret []V
	for _, p := range s.Points {
		if p.Valid {
			ret = append(ret, p.Value)
		}
	}
	return ret
}

// Map returns a copy of the provided series with every defined value
// transformed by f.
func Map[V, W comparable](s Series[V], f func(V) W) Series[W] {
	ret := Series[W]{ID: s.ID, Points: make([]Point[W], len(s.Points))}
	for i, p := range s.Points {
		ret.Points[i] = Point[W]{Time: p.Time, Elapsed: p.Elapsed, Valid: p.Valid}
		if p.Valid {
			ret.Points[i].Value = f(p.Value)
		}
	}
	return ret
}

// Normalize rebases the provided raw samples onto trace-relative seconds.
// The resulting series takes its ID from the first sample; callers should
// partition multi-entity sample sets with trace.SplitByID first.
func Normalize[V comparable](samples []trace.Sample[V], bounds trace.Bounds) Series[V] {
	if len(samples) == 0 {
		return Series[V]{}
	}
	ret := Series[V]{
		ID:     samples[0].ID,
		Points: make([]Point[V], len(samples)),
	}
	for i, sample := range samples {
		t := (sample.Timestamp - bounds.Start).Seconds()
		ret.Points[i] = Point[V]{
			Time:    t,
			Elapsed: t,
			Value:   sample.Value,
			Valid:   true,
		}
	}
	return ret
}
