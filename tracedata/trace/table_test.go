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
	"math"
	"testing"
)

func TestTableAccessors(t *testing.T) {
	tbl := NewTable("ts", "cpu", "freq", "name")
	if err := tbl.Append(int64(1000), nil, 1.8e6, []byte("thread")); err != nil {
		t.Fatalf("Append() = %v", err)
	}
	if err := tbl.Append(2000, 1, math.NaN(), "other"); err != nil {
		t.Fatalf("Append() = %v", err)
	}
	if err := tbl.Append(1, 2); err == nil {
		t.Errorf("Append() with short row succeeded, wanted error")
	}
	if tbl.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", tbl.Len())
	}
	cols, err := tbl.ColumnIndices("ts", "cpu", "freq", "name")
	if err != nil {
		t.Fatalf("ColumnIndices() = %v", err)
	}
	if _, err := tbl.Column("dur"); err == nil {
		t.Errorf("Column(dur) succeeded, wanted error")
	}
	ts, cpu, freq, name := cols[0], cols[1], cols[2], cols[3]
	if got, ok := tbl.Int(0, ts); !ok || got != 1000 {
		t.Errorf("Int(0, ts) = %d, %t, want 1000, true", got, ok)
	}
	if _, ok := tbl.Int(0, cpu); ok {
		t.Errorf("Int(0, cpu) of NULL succeeded")
	}
	if !tbl.Null(0, cpu) {
		t.Errorf("Null(0, cpu) = false, want true")
	}
	if got, ok := tbl.Int(1, cpu); !ok || got != 1 {
		t.Errorf("Int(1, cpu) = %d, %t, want 1, true", got, ok)
	}
	if got, ok := tbl.Float(0, freq); !ok || got != 1.8e6 {
		t.Errorf("Float(0, freq) = %f, %t, want 1.8e6, true", got, ok)
	}
	if _, ok := tbl.Float(1, freq); ok {
		t.Errorf("Float(1, freq) of NaN succeeded")
	}
	if got, ok := tbl.String(0, name); !ok || got != "thread" {
		t.Errorf("String(0, name) = %q, %t, want \"thread\", true", got, ok)
	}
	if got, ok := tbl.Float(1, ts); !ok || got != 2000 {
		t.Errorf("Float(1, ts) = %f, %t, want 2000, true", got, ok)
	}
}

func TestNilTableLen(t *testing.T) {
	var tbl *Table
	if tbl.Len() != 0 {
		t.Errorf("Len() of nil table = %d, want 0", tbl.Len())
	}
}
