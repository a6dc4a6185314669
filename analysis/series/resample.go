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
	"sort"
)

// dedupe returns a time-sorted copy of the provided points in which points
// sharing a timestamp have been collapsed to the last of them.
func dedupe[V comparable](points []Point[V]) []Point[V] {
	sorted := append(make([]Point[V], 0, len(points)), points...)
	sort.SliceStable(sorted, func(a, b int) bool {
		return sorted[a].Time < sorted[b].Time
	})
	ret := sorted[:0]
	for _, p := range sorted {
		if len(ret) > 0 && ret[len(ret)-1].Time == p.Time {
			ret[len(ret)-1] = p
			continue
		}
		ret = append(ret, p)
	}
	return ret
}

// Resample reindexes the provided series onto the provided grid.  Grid points
// are populated according to fill; those that cannot be populated, such as
// forward-filled points preceding the first observation, are undefined.  A
// point's Elapsed is reset to its grid time.
//
// Resampling a series already on the grid, with the same fill, returns an
// equal series.
func Resample[V comparable](s Series[V], g Grid, fill FillMethod) Series[V] {
	n := g.Len()
	if s.Empty() || n == 0 {
		return Series[V]{ID: s.ID}
	}
	obs := dedupe(s.Points)
	ret := Series[V]{ID: s.ID, Points: make([]Point[V], n)}
	// Index of the first observation not yet passed.
	j := 0
	for i := 0; i < n; i++ {
		t := g.Time(i)
		p := Point[V]{Time: t, Elapsed: t}
		switch fill {
		case FillForward:
			for j < len(obs) && obs[j].Time <= t {
				j++
			}
			if j > 0 {
				p.Value, p.Valid = obs[j-1].Value, obs[j-1].Valid
			}
		case FillBackward:
			for j < len(obs) && obs[j].Time < t {
				j++
			}
			if j < len(obs) {
				p.Value, p.Valid = obs[j].Value, obs[j].Valid
			}
		default:
			for j < len(obs) && obs[j].Time < t {
				j++
			}
			if j < len(obs) && obs[j].Time == t {
				p.Value, p.Valid = obs[j].Value, obs[j].Valid
			}
		}
		ret.Points[i] = p
	}
	return ret
}

// Clip returns a copy of the provided series containing only the points whose
// time lies within the provided window.
func Clip[V comparable](s Series[V], w Window) Series[V] {
	ret := Series[V]{ID: s.ID}
	for _, p := range s.Points {
		if w.Contains(p.Time) {
			ret.Points = append(ret.Points, p)
		}
	}
	return ret
}
