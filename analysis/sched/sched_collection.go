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
	"sync"
	"time"

	log "github.com/golang/glog"
	"github.com/golang/groupcache/lru"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// Collection serves scheduler analyses over a single trace.  Raw tables are
// read from the trace store on first use and retained, along with frequency
// domains and recently resampled series, until Close.  A Collection is safe
// for concurrent use; its analyses are serialized.
type Collection struct {
	querier trace.Querier
	bounds  trace.Bounds
	options *collectionOptions
	names   *stringBank

	mu sync.Mutex
	// Raw CPU frequency samples, in GHz, by CPU.  Nil until loaded.
	frequency map[int64][]trace.Sample[float64]
	// Frequency domain representatives.  Nil until computed.
	clusters []CPUID
	// Raw idle state samples by CPU.  Nil until loaded.
	idle map[int64][]trace.Sample[int64]
	// Thread state rows by thread, in increasing timestamp order.  Nil until
	// loaded.
	states map[PID][]threadState
	// Resampled frequency series, keyed by resampleKey.  Nil if memoization is
	// disabled.
	resampled *lru.Cache
	closed    bool
}

// resampleKey identifies a resampled frequency series.
type resampleKey struct {
	cpu    int64
	period time.Duration
	fill   series.FillMethod
}

// NewCollection returns a Collection serving analyses over the trace behind
// the provided Querier.  It fails if the trace's bounds cannot be read.
func NewCollection(ctx context.Context, querier trace.Querier, options ...Option) (*Collection, error) {
	c := &Collection{
		querier: querier,
		options: defaultCollectionOptions(),
		names:   newStringBank(),
	}
	for _, option := range options {
		if err := option(c.options); err != nil {
			return nil, err
		}
	}
	bounds, err := querier.Bounds(ctx)
	if err != nil {
		return nil, upstreamError(err, "trace bounds")
	}
	if err := bounds.Validate(); err != nil {
		return nil, err
	}
	c.bounds = bounds
	if c.options.cacheSize > 0 {
		c.resampled = lru.New(c.options.cacheSize)
	}
	log.V(1).Infof("Loaded trace spanning [%d, %d]", bounds.Start, bounds.End)
	return c, nil
}

// Bounds returns the absolute start and end of the collection's trace.
func (c *Collection) Bounds() trace.Bounds {
	return c.bounds
}

// Duration returns the length of the collection's trace, in seconds.
func (c *Collection) Duration() float64 {
	return c.bounds.Duration().Seconds()
}

// Close discards everything the Collection has cached.  Subsequent analyses
// fail.
func (c *Collection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frequency, c.clusters, c.idle, c.states = nil, nil, nil, nil
	if c.resampled != nil {
		c.resampled.Clear()
	}
	c.closed = true
}

// lock acquires the collection's lock, failing if the collection is closed.
// On success, the caller must unlock c.mu.
func (c *Collection) lock() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return status.Errorf(codes.FailedPrecondition, "collection is closed")
	}
	return nil
}

// relative returns the trace-relative time of the provided timestamp, in
// seconds.
func (c *Collection) relative(ts trace.Timestamp) float64 {
	return (ts - c.bounds.Start).Seconds()
}

// upstreamError wraps an error returned by the trace store.  Errors bearing
// a status code keep it; all others are reported as Unavailable.
func upstreamError(err error, what string) error {
	if s, ok := status.FromError(err); ok && s.Code() != codes.Unknown {
		return status.Errorf(s.Code(), "failed to query %s: %s", what, s.Message())
	}
	return status.Errorf(codes.Unavailable, "failed to query %s: %v", what, err)
}

// malformedError reports a query result lacking expected columns.
func malformedError(err error, what string) error {
	return status.Errorf(codes.InvalidArgument, "malformed %s table: %v", what, err)
}
