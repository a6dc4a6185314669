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
// Package tracebuilder provides utilities for programmatically assembling
// in-memory traces that answer the queries issued by the sched analyses.
package tracebuilder

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/tracedata/perfetto"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// NoCPU may be passed as a CPU to record a NULL cpu cell.
const NoCPU = -1

// Builder allows successive programmatic assembly of in-memory traces.
// Construct traces by creating a Builder (NewBuilder), then adding tables
// (WithTable) and rows (WithRow, or the typed helpers such as WithFrequency)
// to it.  Then, in test, call TestQuerier() on the builder, passing it the
// test object, to get a trace.Querier serving the assembled trace.
type Builder struct {
	bounds    trace.Bounds
	boundsErr error
	tables    map[string]*trace.Table
	failures  map[string]error
	errs      []error
}

// NewBuilder constructs and returns a new, empty Builder for a trace with the
// provided bounds.
func NewBuilder(start, end trace.Timestamp) *Builder {
	return &Builder{
		bounds:   trace.Bounds{Start: start, End: end},
		tables:   map[string]*trace.Table{},
		failures: map[string]error{},
	}
}

// WithTable registers the result of the provided query as a table with the
// provided columns, returning the receiver to facilitate chaining.
func (b *Builder) WithTable(query string, columns ...string) *Builder {
	if _, ok := b.tables[query]; ok {
		b.errs = append(b.errs, fmt.Errorf("duplicate table for query %q", query))
		return b
	}
	b.tables[query] = trace.NewTable(columns...)
	return b
}

// WithRow appends a row to the result of the provided query, which must have
// been registered with WithTable.
func (b *Builder) WithRow(query string, values ...interface{}) *Builder {
	tbl, ok := b.tables[query]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("no table registered for query %q", query))
		return b
	}
	if err := tbl.Append(values...); err != nil {
		b.errs = append(b.errs, err)
	}
	return b
}

// WithFailure causes the provided query to fail with the provided error.
func (b *Builder) WithFailure(query string, err error) *Builder {
	b.failures[query] = err
	return b
}

// WithBoundsFailure causes trace bounds lookups to fail with the provided
// error.
func (b *Builder) WithBoundsFailure(err error) *Builder {
	b.boundsErr = err
	return b
}

func (b *Builder) row(query string, columns []string, values ...interface{}) *Builder {
	if _, ok := b.tables[query]; !ok {
		b.WithTable(query, columns...)
	}
	return b.WithRow(query, values...)
}

func cpuCell(cpu int64) interface{} {
	if cpu == NoCPU {
		return nil
	}
	return cpu
}

// WithFrequency adds a CPU frequency sample, in kHz.
func (b *Builder) WithFrequency(cpu int64, ts trace.Timestamp, khz float64) *Builder {
	return b.row(perfetto.FrequencyQuery,
		[]string{perfetto.ColTimestamp, perfetto.ColCPU, perfetto.ColFrequency},
		int64(ts), cpu, khz)
}

// WithIdle adds a CPU idle state sample.
func (b *Builder) WithIdle(cpu int64, ts trace.Timestamp, state float64) *Builder {
	return b.row(perfetto.IdleQuery,
		[]string{perfetto.ColTimestamp, perfetto.ColCPU, perfetto.ColIdle},
		int64(ts), cpu, state)
}

// WithThreadState adds a thread state row.  cpu may be NoCPU.
func (b *Builder) WithThreadState(ts trace.Timestamp, cpu int64, state string, dur trace.Timestamp, tid int64, name string) *Builder {
	return b.row(perfetto.ThreadStateQuery,
		[]string{perfetto.ColTimestamp, perfetto.ColCPU, perfetto.ColState, perfetto.ColDuration, perfetto.ColTID, perfetto.ColName},
		int64(ts), cpuCell(cpu), state, int64(dur), tid, name)
}

// WithSlice adds a sched slice to the result of the sched slice query for
// the provided process name.
func (b *Builder) WithSlice(process string, ts, dur trace.Timestamp, cpu int64, processName, threadName string, tid int64) *Builder {
	return b.row(perfetto.SchedSliceQuery(process),
		[]string{perfetto.ColTimestamp, perfetto.ColDuration, perfetto.ColCPU, perfetto.ColProcessName, perfetto.ColThreadName, perfetto.ColTID},
		int64(ts), int64(dur), cpu, processName, threadName, tid)
}

// WithCounter adds a sample to the result of the counter track query for the
// provided signal.
func (b *Builder) WithCounter(signal string, ts trace.Timestamp, value float64, counterName string) *Builder {
	return b.row(perfetto.CounterTrackQuery(signal),
		[]string{perfetto.ColTimestamp, perfetto.ColValue, perfetto.ColCounterName},
		int64(ts), value, counterName)
}

// Querier returns a trace.Querier serving the assembled trace, and any errors
// encountered during assembly.
func (b *Builder) Querier() (*Querier, []error) {
	q := &Querier{
		bounds:    b.bounds,
		boundsErr: b.boundsErr,
		tables:    map[string]*trace.Table{},
		failures:  map[string]error{},
		calls:     map[string]int{},
	}
	for query, tbl := range b.tables {
		q.tables[query] = tbl
	}
	for query, err := range b.failures {
		q.failures[query] = err
	}
	return q, b.errs
}

// TestQuerier returns the Builder's Querier.  If the Builder has errors, the
// test is failed with an appropriate message.
func (b *Builder) TestQuerier(t *testing.T) *Querier {
	t.Helper()
	q, errs := b.Querier()
	if len(errs) > 0 {
		t.Error("Errors building trace:")
		for _, err := range errs {
			t.Errorf("  %s", err)
		}
		t.Fatalf("Bailing...")
	}
	return q
}

// Querier serves an in-memory trace.  Queries with no registered table
// return an empty table.
type Querier struct {
	bounds    trace.Bounds
	boundsErr error
	tables    map[string]*trace.Table
	failures  map[string]error

	mu    sync.Mutex
	calls map[string]int
}

// Query returns the table registered for the provided query.
func (q *Querier) Query(ctx context.Context, query string) (*trace.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.FromContextError(err).Err()
	}
	q.mu.Lock()
	q.calls[query]++
	q.mu.Unlock()
	if err, ok := q.failures[query]; ok {
		return nil, err
	}
	if tbl, ok := q.tables[query]; ok {
		return tbl, nil
	}
	return trace.NewTable(), nil
}

// Bounds returns the trace's bounds.
func (q *Querier) Bounds(ctx context.Context) (trace.Bounds, error) {
	if q.boundsErr != nil {
		return trace.Bounds{}, q.boundsErr
	}
	if err := ctx.Err(); err != nil {
		return trace.Bounds{}, status.FromContextError(err).Err()
	}
	return q.bounds, nil
}

// Calls returns the number of times the provided query has been issued.
func (q *Querier) Calls(query string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.calls[query]
}

var _ trace.Querier = &Querier{}

// ErrUnavailable is a ready-made failure for WithFailure.
var ErrUnavailable = status.Error(codes.Unavailable, "trace processor unavailable")
