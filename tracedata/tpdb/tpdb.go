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
// Package tpdb reads traces from Perfetto trace processor databases: SQLite
// files exported by trace_processor's --export flag.
package tpdb

import (
	"context"
	"database/sql"
	"os"

	log "github.com/golang/glog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/tracedata/perfetto"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"
)

// DB is a read-only trace processor database.  It implements trace.Querier.
type DB struct {
	path string
	db   *sql.DB
}

// Open opens the trace processor database at the provided path.
func Open(path string) (*DB, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, status.Errorf(codes.NotFound, "trace database %s not found", path)
		}
		return nil, status.Errorf(codes.Internal, "failed to stat trace database %s: %v", path, err)
	}
	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)")
	if err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to open trace database %s: %v", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, status.Errorf(codes.Unavailable, "failed to open trace database %s: %v", path, err)
	}
	log.V(1).Infof("Opened trace database %s", path)
	return &DB{path: path, db: db}, nil
}

// Path returns the path of the database file.
func (d *DB) Path() string {
	return d.path
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Query runs the provided query and materializes its full result.
func (d *DB) Query(ctx context.Context, query string) (*trace.Table, error) {
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, status.FromContextError(ctxErr).Err()
		}
		return nil, status.Errorf(codes.InvalidArgument, "query failed: %v", err)
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to read result columns: %v", err)
	}
	tbl := trace.NewTable(columns...)
	values := make([]interface{}, len(columns))
	ptrs := make([]interface{}, len(columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, status.Errorf(codes.Internal, "failed to read result row: %v", err)
		}
		if err := tbl.Append(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, status.Errorf(codes.Unavailable, "failed to read results: %v", err)
	}
	log.V(2).Infof("Query returned %d rows: %s", tbl.Len(), query)
	return tbl, nil
}

// Bounds returns the trace's bounds, as recorded in its trace_bounds table.
func (d *DB) Bounds(ctx context.Context) (trace.Bounds, error) {
	tbl, err := d.Query(ctx, perfetto.BoundsQuery)
	if err != nil {
		return trace.Bounds{}, err
	}
	if tbl.Len() != 1 {
		return trace.Bounds{}, status.Errorf(codes.InvalidArgument, "trace_bounds has %d rows, want 1", tbl.Len())
	}
	cols, err := tbl.ColumnIndices(perfetto.ColStartTS, perfetto.ColEndTS)
	if err != nil {
		return trace.Bounds{}, status.Errorf(codes.InvalidArgument, "malformed trace_bounds: %v", err)
	}
	start, startOK := tbl.Int(0, cols[0])
	end, endOK := tbl.Int(0, cols[1])
	if !startOK || !endOK {
		return trace.Bounds{}, status.Errorf(codes.InvalidArgument, "trace_bounds lacks start or end")
	}
	return trace.Bounds{Start: trace.Timestamp(start), End: trace.Timestamp(end)}, nil
}

var _ trace.Querier = &DB{}
