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
	"sort"
)

// Stats summarizes a distribution of samples.
type Stats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	// Sample standard deviation; zero for fewer than two samples.
	Std float64 `json:"std"`
	Min float64 `json:"min"`
	P75 float64 `json:"p75"`
	P90 float64 `json:"p90"`
	P95 float64 `json:"p95"`
	P99 float64 `json:"p99"`
	Max float64 `json:"max"`
}

// Describe returns summary statistics of the provided values.  Percentiles
// interpolate linearly between closest ranks.  It returns nil for no values.
func Describe(values []float64) *Stats {
	if len(values) == 0 {
		return nil
	}
	sorted := append(make([]float64, 0, len(values)), values...)
	sort.Float64s(sorted)
	var sum float64
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))
	var std float64
	if len(sorted) > 1 {
		var sq float64
		for _, v := range sorted {
			sq += (v - mean) * (v - mean)
		}
		std = math.Sqrt(sq / float64(len(sorted)-1))
	}
	return &Stats{
		Count: len(sorted),
		Mean:  mean,
		Std:   std,
		Min:   sorted[0],
		P75:   percentile(sorted, .75),
		P90:   percentile(sorted, .90),
		P95:   percentile(sorted, .95),
		P99:   percentile(sorted, .99),
		Max:   sorted[len(sorted)-1],
	}
}

// percentile returns the qth quantile of sorted, which must be non-empty.
func percentile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}
