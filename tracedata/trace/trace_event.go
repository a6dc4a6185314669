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
// Package trace provides the raw, untransformed view of a trace: event-driven
// samples read from a trace store, the trace bounds, and the tabular query
// results those samples are materialized from.
package trace

import (
	"fmt"
	"sort"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Timestamp describes a trace timestamp, in nanoseconds since the trace
// clock's epoch.
type Timestamp int64

// UnknownTimestamp represents an unspecified timestamp.
const UnknownTimestamp Timestamp = -1

// Seconds returns the timestamp as a floating-point number of seconds.
func (ts Timestamp) Seconds() float64 {
	return float64(ts) / float64(time.Second)
}

// Bounds describes the absolute start and end timestamps of a trace.
type Bounds struct {
	Start Timestamp `json:"start"`
	End   Timestamp `json:"end"`
}

// Validate returns an error if the bounds are unset or inverted.
func (b Bounds) Validate() error {
	if b.Start == UnknownTimestamp || b.End == UnknownTimestamp {
		return status.Errorf(codes.InvalidArgument, "trace bounds are unknown")
	}
	if b.End < b.Start {
		return status.Errorf(codes.InvalidArgument, "trace end %d precedes trace start %d", b.End, b.Start)
	}
	return nil
}

// Duration returns the span of the trace.
func (b Bounds) Duration() Timestamp {
	return b.End - b.Start
}

// Sample is a single raw observation of a per-entity signal, such as a CPU
// frequency change or a thread state transition.  Samples are event-driven:
// they carry a value from their timestamp until the next sample for the same
// entity.
type Sample[V comparable] struct {
	Timestamp Timestamp `json:"timestamp"`
	// The entity the sample belongs to; a CPU, thread, or counter track.
	ID    int64 `json:"id"`
	Value V     `json:"value"`
}

func (s Sample[V]) String() string {
	return fmt.Sprintf("%-18d (ID %d) %v", s.Timestamp, s.ID, s.Value)
}

// SplitByID partitions the provided samples by entity, preserving each
// entity's relative sample order.  Each entity's samples are then stably
// sorted by timestamp.
func SplitByID[V comparable](samples []Sample[V]) map[int64][]Sample[V] {
	ret := map[int64][]Sample[V]{}
	for _, sample := range samples {
		ret[sample.ID] = append(ret[sample.ID], sample)
	}
	for _, s := range ret {
		sort.SliceStable(s, func(a, b int) bool {
			return s[a].Timestamp < s[b].Timestamp
		})
	}
	return ret
}

// IDs returns the sorted entity IDs of a SplitByID result.
func IDs[V comparable](byID map[int64][]Sample[V]) []int64 {
	ret := make([]int64, 0, len(byID))
	for id := range byID {
		ret = append(ret, id)
	}
	sort.Slice(ret, func(a, b int) bool {
		return ret[a] < ret[b]
	})
	return ret
}
