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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBoundsValidate(t *testing.T) {
	tests := []struct {
		description string
		bounds      Bounds
		wantErr     bool
	}{{
		"valid bounds",
		Bounds{Start: 1000, End: 2000},
		false,
	}, {
		"zero-length trace",
		Bounds{Start: 1000, End: 1000},
		false,
	}, {
		"unknown start",
		Bounds{Start: UnknownTimestamp, End: 2000},
		true,
	}, {
		"inverted",
		Bounds{Start: 2000, End: 1000},
		true,
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			err := test.bounds.Validate()
			if gotErr := err != nil; gotErr != test.wantErr {
				t.Fatalf("Validate() = %v, wantErr %t", err, test.wantErr)
			}
		})
	}
}

func TestSplitByID(t *testing.T) {
	samples := []Sample[float64]{
		{Timestamp: 300, ID: 1, Value: 3},
		{Timestamp: 100, ID: 0, Value: 1},
		{Timestamp: 100, ID: 1, Value: 1},
		{Timestamp: 200, ID: 0, Value: 2},
		{Timestamp: 200, ID: 0, Value: 4},
	}
	got := SplitByID(samples)
	want := map[int64][]Sample[float64]{
		0: {
			{Timestamp: 100, ID: 0, Value: 1},
			{Timestamp: 200, ID: 0, Value: 2},
			{Timestamp: 200, ID: 0, Value: 4},
		},
		1: {
			{Timestamp: 100, ID: 1, Value: 1},
			{Timestamp: 300, ID: 1, Value: 3},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("SplitByID() = %v\nDiff -want +got:\n%s", got, diff)
	}
	if diff := cmp.Diff([]int64{0, 1}, IDs(got)); diff != "" {
		t.Errorf("IDs() Diff -want +got:\n%s", diff)
	}
}

func TestSeconds(t *testing.T) {
	if got, want := Timestamp(1500000000).Seconds(), 1.5; got != want {
		t.Errorf("Seconds() = %f, want %f", got, want)
	}
}
