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
	"regexp"
	"sort"

	log "github.com/golang/glog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/tracedata/perfetto"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// CounterTracks returns the sched-analyzer counter tracks carrying the
// provided signal, such as "util_avg" or "load_avg", whose names match the
// provided regular expression.  Each track is clipped to the filtered time
// range and accompanied by a histogram of its values.  Tracks with no samples
// in range are omitted.
func (c *Collection) CounterTracks(ctx context.Context, signal, pattern string, filters ...Filter) ([]CounterTrack, error) {
	f, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid track name pattern %q: %v", pattern, err)
	}
	if err := c.lock(); err != nil {
		return nil, err
	}
	defer c.mu.Unlock()
	tbl, err := c.querier.Query(ctx, perfetto.CounterTrackQuery(signal))
	if err != nil {
		return nil, upstreamError(err, signal+" counter tracks")
	}
	ret := []CounterTrack{}
	if tbl.Len() == 0 {
		return ret, nil
	}
	cols, err := tbl.ColumnIndices(perfetto.ColTimestamp, perfetto.ColValue, perfetto.ColCounterName)
	if err != nil {
		return nil, malformedError(err, signal+" counter tracks")
	}
	samplesByName := map[string][]trace.Sample[float64]{}
	dropped := 0
	for row := 0; row < tbl.Len(); row++ {
		ts, tsOK := tbl.Int(row, cols[0])
		value, valueOK := tbl.Float(row, cols[1])
		name, nameOK := tbl.String(row, cols[2])
		if !tsOK || !valueOK || !nameOK {
			dropped++
			continue
		}
		if !re.MatchString(name) {
			continue
		}
		samplesByName[name] = append(samplesByName[name], trace.Sample[float64]{
			Timestamp: trace.Timestamp(ts),
			Value:     value,
		})
	}
	if dropped > 0 {
		log.Warningf("Dropped %d incomplete %s counter rows", dropped, signal)
	}
	names := make([]string, 0, len(samplesByName))
	for name := range samplesByName {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		samples := samplesByName[name]
		for j := range samples {
			samples[j].ID = int64(i)
		}
		sort.SliceStable(samples, func(a, b int) bool {
			return samples[a].Timestamp < samples[b].Timestamp
		})
		s := series.Clip(series.Normalize(samples, c.bounds), f.config.Window)
		if s.Empty() {
			continue
		}
		ret = append(ret, CounterTrack{
			Name:      name,
			Series:    s,
			Histogram: series.Histogram(s),
		})
	}
	return ret, nil
}
