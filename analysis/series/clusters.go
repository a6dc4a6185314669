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

// Clusters groups entities, typically CPUs, whose value sequences are
// identical, and returns one representative ID per group.  IDs are scanned in
// ascending order with the lowest as the first representative; each ID whose
// sequence differs from the current representative's starts a new group and
// becomes its representative.  Sequences are compared element-wise for exact
// equality, and sequences of differing lengths always differ.
func Clusters[V comparable](sequences map[int64][]V) []int64 {
	ids := make([]int64, 0, len(sequences))
	for id := range sequences {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(a, b int) bool {
		return ids[a] < ids[b]
	})
	ret := []int64{}
	for _, id := range ids {
		if len(ret) > 0 && equal(sequences[ret[len(ret)-1]], sequences[id]) {
			continue
		}
		ret = append(ret, id)
	}
	return ret
}

func equal[V comparable](a, b []V) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
