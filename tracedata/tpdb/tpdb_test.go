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
package tpdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/testhelpers"
	"github.com/qais-yousef/sched-analyzer/tracedata/perfetto"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

func openSample(t *testing.T) *DB {
	t.Helper()
	path := testhelpers.WriteSampleTraceDB(t, t.TempDir(), "sample.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open(%s) = %v", path, err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenMissing(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.db")); status.Code(err) != codes.NotFound {
		t.Errorf("Open() of missing file = %v, want NotFound", err)
	}
}

func TestBounds(t *testing.T) {
	db := openSample(t)
	got, err := db.Bounds(context.Background())
	if err != nil {
		t.Fatalf("Bounds() = %v", err)
	}
	if want := (trace.Bounds{Start: 1000000000, End: 1001000000}); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestQueries(t *testing.T) {
	db := openSample(t)
	tests := []struct {
		description string
		query       string
		wantColumns []string
		wantRows    int
	}{{
		"frequency",
		perfetto.FrequencyQuery,
		[]string{"ts", "cpu", "freq"},
		4,
	}, {
		"idle",
		perfetto.IdleQuery,
		[]string{"ts", "cpu", "idle"},
		2,
	}, {
		"thread states",
		perfetto.ThreadStateQuery,
		[]string{"ts", "cpu", "state", "dur", "tid", "name"},
		2,
	}, {
		"sched slices",
		perfetto.SchedSliceQuery("rampup"),
		[]string{"ts", "dur", "cpu", "process_name", "thread_name", "tid"},
		1,
	}, {
		"counter tracks",
		perfetto.CounterTrackQuery("util_avg"),
		[]string{"ts", "value", "counter_name"},
		3,
	}, {
		"absent counter tracks",
		perfetto.CounterTrackQuery("load_avg"),
		[]string{"ts", "value", "counter_name"},
		0,
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			tbl, err := db.Query(context.Background(), test.query)
			if err != nil {
				t.Fatalf("Query() = %v", err)
			}
			if diff := cmp.Diff(test.wantColumns, tbl.Columns()); diff != "" {
				t.Errorf("Query() columns Diff -want +got:\n%s", diff)
			}
			if tbl.Len() != test.wantRows {
				t.Errorf("Query() returned %d rows, want %d", tbl.Len(), test.wantRows)
			}
		})
	}
}

func TestBadQuery(t *testing.T) {
	db := openSample(t)
	if _, err := db.Query(context.Background(), "select nothing from nowhere"); status.Code(err) != codes.InvalidArgument {
		t.Errorf("Query() = %v, want InvalidArgument", err)
	}
}

func TestCollectionOverDatabase(t *testing.T) {
	db := openSample(t)
	ctx := context.Background()
	c, err := sched.NewCollection(ctx, db)
	if err != nil {
		t.Fatalf("NewCollection() = %v", err)
	}
	defer c.Close()
	clusters, err := c.Clusters(ctx)
	if err != nil {
		t.Fatalf("Clusters() = %v", err)
	}
	if diff := cmp.Diff([]sched.CPUID{0}, clusters); diff != "" {
		t.Errorf("Clusters() Diff -want +got:\n%s", diff)
	}
	states, err := c.ThreadStates(ctx, "rampup")
	if err != nil {
		t.Fatalf("ThreadStates() = %v", err)
	}
	if len(states) != 1 || len(states[0].RunningByCPU) != 1 || states[0].RunningByCPU[0].TimeUs != 200 {
		t.Errorf("ThreadStates() = %v, want rampup running 200us on CPU 0", states)
	}
	idle, err := c.IdleResidency(ctx)
	if err != nil {
		t.Fatalf("IdleResidency() = %v", err)
	}
	if !idle.Available || len(idle.CPUs) != 1 {
		t.Errorf("IdleResidency() = %v, want CPU 0's idle residency", idle)
	}
}
