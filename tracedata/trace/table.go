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
package trace

import (
	"context"
	"math"
	"strconv"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Querier is implemented by trace stores able to answer textual queries over
// a trace's tables.
type Querier interface {
	// Query runs the provided query and returns its full result.
	Query(ctx context.Context, query string) (*Table, error)
	// Bounds returns the trace's absolute start and end timestamps.
	Bounds(ctx context.Context) (Bounds, error)
}

// Table is a materialized query result.  Cells hold int64, float64, string,
// or nil (for NULL) values.
type Table struct {
	columns     []string
	columnIndex map[string]int
	rows        [][]interface{}
}

// NewTable returns an empty Table with the provided columns.
func NewTable(columns ...string) *Table {
	t := &Table{
		columns:     append([]string{}, columns...),
		columnIndex: make(map[string]int, len(columns)),
	}
	for i, col := range columns {
		t.columnIndex[col] = i
	}
	return t
}

// Columns returns the table's column names.
func (t *Table) Columns() []string {
	return t.columns
}

// Len returns the number of rows in the table.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// Append adds a row to the table.  The row must have one value per column.
func (t *Table) Append(values ...interface{}) error {
	if len(values) != len(t.columns) {
		return status.Errorf(codes.InvalidArgument, "row has %d values, table has %d columns", len(values), len(t.columns))
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = normalizeCell(v)
	}
	t.rows = append(t.rows, row)
	return nil
}

func normalizeCell(v interface{}) interface{} {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case []byte:
		return string(x)
	case Timestamp:
		return int64(x)
	}
	return v
}

// Column returns the index of the named column, or a NotFound error if the
// table lacks it.
func (t *Table) Column(name string) (int, error) {
	idx, ok := t.columnIndex[name]
	if !ok {
		return 0, status.Errorf(codes.NotFound, "column %q not found in table with columns %v", name, t.columns)
	}
	return idx, nil
}

// ColumnIndices returns the indices of the named columns, or an error if any is
// missing.
func (t *Table) ColumnIndices(names ...string) ([]int, error) {
	ret := make([]int, len(names))
	for i, name := range names {
		idx, err := t.Column(name)
		if err != nil {
			return nil, err
		}
		ret[i] = idx
	}
	return ret, nil
}

// Null returns true if the specified cell is NULL.
func (t *Table) Null(row, col int) bool {
	return t.rows[row][col] == nil
}

// Int returns the specified cell as an integer.  It returns false if the cell
// is NULL or not representable as an integer.
func (t *Table) Int(row, col int) (int64, bool) {
	switch v := t.rows[row][col].(type) {
	case int64:
		return v, true
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
			return 0, false
		}
		return int64(v), true
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		return i, err == nil
	}
	return 0, false
}

// Float returns the specified cell as a float.  It returns false if the cell
// is NULL, NaN, or not numeric.
func (t *Table) Float(row, col int) (float64, bool) {
	switch v := t.rows[row][col].(type) {
	case int64:
		return float64(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

// String returns the specified cell as a string.  It returns false if the cell
// is NULL.
func (t *Table) String(row, col int) (string, bool) {
	switch v := t.rows[row][col].(type) {
	case nil:
		return "", false
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	}
	return "", false
}
