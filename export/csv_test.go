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
package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
)

func TestWriters(t *testing.T) {
	tests := []struct {
		description string
		write       func(w *csv.Writer) error
		want        string
	}{{
		"series with undefined points",
		func(w *csv.Writer) error {
			return WriteSeries(w, "cpu", "freq", series.Series[float64]{ID: 2, Points: []series.Point[float64]{
				{Time: 0},
				{Time: .0001, Value: 1.5, Valid: true},
			}})
		},
		"time,cpu,freq\n0,2,\n0.0001,2,1.5\n",
	}, {
		"frequency residency",
		func(w *csv.Writer) error {
			return WriteFrequencyResidency(w, "percent", []sched.CPUResidency[float64]{
				{CPU: 0, Residency: []series.Share[float64]{{Value: 1, Amount: 25}, {Value: 2, Amount: 75}}},
			})
		},
		"cpu,freq,percent\n0,1,25\n0,2,75\n",
	}, {
		"idle residency",
		func(w *csv.Writer) error {
			return WriteIdleResidency(w, &sched.IdleResidency{Available: true, CPUs: []sched.CPUResidency[int64]{
				{CPU: 1, Residency: []series.Share[int64]{{Value: -1, Amount: 40}, {Value: 0, Amount: 60}}},
			}})
		},
		"cpu,idle,percent\n1,-1,40\n1,0,60\n",
	}, {
		"thread states",
		func(w *csv.Writer) error {
			return WriteThreadStates(w, []sched.ThreadStateSummary{{
				PID:          42,
				Command:      "rampup",
				States:       []sched.StateTime{{State: "R", TimeUs: 100}},
				RunningByCPU: []sched.CPUTime{{CPU: 3, TimeUs: 250}},
			}})
		},
		"tid,name,state,cpu,time_us\n42,rampup,R,,100\n42,rampup,Running,3,250\n",
	}, {
		"run residency",
		func(w *csv.Writer) error {
			return WriteRunResidency(w, []sched.RunResidency{{
				PID:     42,
				Command: "rampup",
				CPUs:    []series.Share[sched.CPUID]{{Value: 0, Amount: 50}, {Value: 2, Amount: 50}},
			}})
		},
		"tid,name,cpu,percent\n42,rampup,0,50\n42,rampup,2,50\n",
	}, {
		"counter tracks skip undefined points",
		func(w *csv.Writer) error {
			return WriteCounterTracks(w, []sched.CounterTrack{{
				Name: "CPU0 util_avg",
				Series: series.Series[float64]{Points: []series.Point[float64]{
					{Time: 0, Value: 512, Valid: true},
					{Time: .0005},
				}},
			}})
		},
		"time,track,value\n0,CPU0 util_avg,512\n",
	}}
	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			var buf bytes.Buffer
			w := csv.NewWriter(&buf)
			if err := test.write(w); err != nil {
				t.Fatalf("write failed: %v", err)
			}
			w.Flush()
			if diff := cmp.Diff(test.want, buf.String()); diff != "" {
				t.Errorf("got CSV\n%s\nDiff -want +got:\n%s", buf.String(), diff)
			}
		})
	}
}

func TestSaveCSV(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "trace")
	err := SaveCSV(prefix, "freq", func(w *csv.Writer) error {
		return w.Write([]string{"a", "b"})
	})
	if err != nil {
		t.Fatalf("SaveCSV() = %v", err)
	}
	got, err := os.ReadFile(prefix + "_freq.csv")
	if err != nil {
		t.Fatalf("failed to read CSV: %v", err)
	}
	if diff := cmp.Diff("a,b\n", string(got)); diff != "" {
		t.Errorf("SaveCSV() wrote Diff -want +got:\n%s", diff)
	}
}
