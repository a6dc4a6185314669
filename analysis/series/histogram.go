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
)

// Bin is a single histogram bin: a distinct value and its number of
// occurrences.
type Bin[V comparable] struct {
	Value V   `json:"value"`
	Count int `json:"count"`
}

// Histogram counts the occurrences of each defined value of the provided
// series.  Bins are ordered by ascending count, with ties broken by ascending
// value.
func Histogram[V cmp.Ordered](s Series[V]) []Bin[V] {
	counts := map[V]int{}
	for _, p := range s.Points {
		if p.Valid {
			counts[p.Value]++
		}
	}
	ret := make([]Bin[V], 0, len(counts))
	for v, c := range counts {
		ret = append(ret, Bin[V]{Value: v, Count: c})
	}
	sort.Slice(ret, func(a, b int) bool {
		if ret[a].Count != ret[b].Count {
			return ret[a].Count < ret[b].Count
		}
		return ret[a].Value < ret[b].Value
	})
	return ret
}
