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
// Package testhelpers contains helpers for tests
package testhelpers

import (
	"database/sql"
	"path/filepath"
	"testing"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// PerfettoSchema creates the subset of the trace processor schema read by
// the sched analyses.
var PerfettoSchema = []string{
	"create table trace_bounds(start_ts integer, end_ts integer)",
	"create table cpu_counter_track(id integer primary key, name text, cpu integer)",
	"create table process_counter_track(id integer primary key, name text, upid integer)",
	"create table counter(id integer primary key, ts integer, track_id integer, value real)",
	"create table process(upid integer primary key, pid integer, name text)",
	"create table thread(utid integer primary key, tid integer, name text, upid integer)",
	"create table thread_state(id integer primary key, ts integer, dur integer, cpu integer, utid integer, state text)",
	"create table sched_slice(id integer primary key, ts integer, dur integer, cpu integer, utid integer)",
}

// SampleTrace populates a PerfettoSchema database with a 1ms trace starting
// at 1s.  CPUs 0 and 1 share a frequency domain running at 1GHz, then 2GHz
// from 500us.  CPU 0 leaves idle at 0 and enters idle state 0 at 200us.
// Thread 42 'rampup' runs on CPU 0 from 200us to 400us and then sleeps.
// The sched-analyzer process emits 'rampup-42 util_avg' samples.
var SampleTrace = []string{
	"insert into trace_bounds values (1000000000, 1001000000)",
	"insert into cpu_counter_track values (1, 'cpufreq', 0), (2, 'cpufreq', 1), (3, 'cpuidle', 0)",
	`insert into counter(ts, track_id, value) values
		(1000000000, 1, 1000000), (1000500000, 1, 2000000),
		(1000000000, 2, 1000000), (1000500000, 2, 2000000),
		(1000000000, 3, 4294967295), (1000200000, 3, 0),
		(1000000000, 10, 100), (1000100000, 10, 200), (1000200000, 10, 200)`,
	"insert into process values (1, 100, '/system/bin/rampup'), (2, 200, 'sched-analyzer')",
	"insert into thread values (1, 42, 'rampup', 1)",
	`insert into thread_state(ts, dur, cpu, utid, state) values
		(1000200000, 200000, 0, 1, 'Running'),
		(1000400000, 600000, null, 1, 'S')`,
	"insert into sched_slice(ts, dur, cpu, utid) values (1000200000, 200000, 0, 1)",
	"insert into process_counter_track values (10, 'rampup-42 util_avg', 2)",
}

// WriteTraceDB creates a trace processor database at the provided path and
// runs the provided statements against it, failing the test on error.
func WriteTraceDB(t *testing.T, path string, statements ...string) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("Failed to create trace database %s: %s", path, err)
	}
	defer db.Close()
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("Failed to run %q: %s", stmt, err)
		}
	}
}

// WriteSampleTraceDB writes the SampleTrace database into the provided
// directory under the provided name, and returns its path.
func WriteSampleTraceDB(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	WriteTraceDB(t, path, append(append([]string{}, PerfettoSchema...), SampleTrace...)...)
	return path
}
