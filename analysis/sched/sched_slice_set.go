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
	"fmt"
	"sort"

	"github.com/Workiva/go-datastructures/augmentedtree"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// A slice is a duration of time over which a single thread ran on a single
// CPU.
type slice struct {
	id             uint64 // A unique identifier for augmentedtree.Tree.
	startTimestamp trace.Timestamp
	endTimestamp   trace.Timestamp
	cpu            CPUID
	pid            PID
	command        stringID
}

func (s *slice) String() string {
	return fmt.Sprintf("[%d, %d] PID %d on CPU %d", s.startTimestamp, s.endTimestamp, s.pid, s.cpu)
}

// The ID for augmentedtree.Intervals used in queries.  Slice IDs start at 1.
const queryID uint64 = 0

// LowAtDimension returns the start timestamp of s.  Required to support
// augmentedtree.Interval.
func (s *slice) LowAtDimension(d uint64) int64 {
	return int64(s.startTimestamp)
}

// HighAtDimension returns the end timestamp of s.  Required to support
// augmentedtree.Interval.
func (s *slice) HighAtDimension(d uint64) int64 {
	return int64(s.endTimestamp)
}

// OverlapsAtDimension returns true if an interval overlaps this interval at
// the specified dimension.  Required to support augmentedtree.Interval.
func (s *slice) OverlapsAtDimension(j augmentedtree.Interval, d uint64) bool {
	return s.HighAtDimension(d) >= j.LowAtDimension(d) &&
		j.HighAtDimension(d) >= s.LowAtDimension(d)
}

// ID returns the unique identifier for this interval.  Required to support
// augmentedtree.Interval.
func (s *slice) ID() uint64 {
	return s.id
}

// overlap returns how much of s lies within [start, end].
func (s *slice) overlap(start, end trace.Timestamp) trace.Timestamp {
	lo, hi := s.startTimestamp, s.endTimestamp
	if start > lo {
		lo = start
	}
	if end < hi {
		hi = end
	}
	if hi < lo {
		return 0
	}
	return hi - lo
}

// sliceSet indexes sched slices by time.
type sliceSet struct {
	tree  augmentedtree.Tree
	count uint64
}

func newSliceSet() *sliceSet {
	return &sliceSet{tree: augmentedtree.New(1)}
}

func (ss *sliceSet) add(s *slice) {
	ss.count++
	s.id = ss.count
	ss.tree.Add(s)
}

// overlapping returns the slices overlapping [start, end], in increasing
// start order.
func (ss *sliceSet) overlapping(start, end trace.Timestamp) []*slice {
	query := &slice{
		startTimestamp: start,
		endTimestamp:   end,
		id:             queryID,
	}
	var ret []*slice
	for _, interval := range ss.tree.Query(query) {
		ret = append(ret, interval.(*slice))
	}
	sort.Slice(ret, func(a, b int) bool {
		if ret[a].startTimestamp != ret[b].startTimestamp {
			return ret[a].startTimestamp < ret[b].startTimestamp
		}
		return ret[a].id < ret[b].id
	})
	return ret
}
