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
	"cmp"
	"sort"
	"time"
)

// DurationResidency maps each distinct value of a series to the time the
// series spent at that value, as a percentage or in milliseconds.
type DurationResidency[V comparable] map[V]float64

// Share is a single value's entry in a DurationResidency.
type Share[V comparable] struct {
	Value  V       `json:"value"`
	Amount float64 `json:"amount"`
}

// Total returns the sum of all values' residencies.
func (r DurationResidency[V]) Total() float64 {
	var total float64
	for _, amount := range r {
		total += amount
	}
	return total
}

// Sorted returns the residency's entries in ascending value order.
func Sorted[V cmp.Ordered](r DurationResidency[V]) []Share[V] {
	ret := make([]Share[V], 0, len(r))
	for v, amount := range r {
		ret = append(ret, Share[V]{Value: v, Amount: amount})
	}
	sort.Slice(ret, func(a, b int) bool {
		return ret[a].Value < ret[b].Value
	})
	return ret
}

// Residency computes how the provided series' time is distributed across its
// values.  Each defined point lasts until the next point; the final point has
// no known duration and contributes none.  Every value observed on a defined
// point appears in the result, even if it accrued no duration.
//
// In Percent mode, each value's share of the total accrued duration is
// reported; a zero total is replaced by 1 so that degenerate series yield
// zeroes.  In Absolute mode, each value's duration is reported in
// milliseconds as the count of its contributing points times period, which is
// exact for series on a uniform grid of that period.
//
// An empty or wholly undefined series yields an empty residency.
func Residency[V comparable](s Series[V], mode Mode, period time.Duration) DurationResidency[V] {
	ret := DurationResidency[V]{}
	sums := map[V]float64{}
	counts := map[V]int{}
	var total float64
	for i, p := range s.Points {
		if !p.Valid {
			continue
		}
		if _, ok := sums[p.Value]; !ok {
			sums[p.Value] = 0
		}
		if i+1 == len(s.Points) {
			continue
		}
		d := s.Points[i+1].Elapsed - p.Elapsed
		sums[p.Value] += d
		counts[p.Value]++
		total += d
	}
	if len(sums) == 0 {
		return ret
	}
	switch mode {
	case Absolute:
		ms := float64(period) / float64(time.Millisecond)
		for v := range sums {
			ret[v] = float64(counts[v]) * ms
		}
	default:
		if total == 0 {
			total = 1
		}
		for v, sum := range sums {
			ret[v] = sum * 100 / total
		}
	}
	return ret
}
