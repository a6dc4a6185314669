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
// Package export writes finalized analysis results as CSV files.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	log "github.com/golang/glog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatValue[V comparable](v V) string {
	switch x := any(v).(type) {
	case float64:
		return formatFloat(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case sched.CPUID:
		return strconv.FormatInt(int64(x), 10)
	case string:
		return x
	}
	return fmt.Sprint(v)
}

// FileName returns the name of the CSV file holding the named result.
func FileName(prefix, name string) string {
	return prefix + "_" + name + ".csv"
}

// SaveCSV creates the CSV file for the named result and fills it with write.
func SaveCSV(prefix, name string, write func(w *csv.Writer) error) error {
	path := FileName(prefix, name)
	f, err := os.Create(path)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to create %s: %v", path, err)
	}
	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		f.Close()
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return status.Errorf(codes.Internal, "failed to write %s: %v", path, err)
	}
	if err := f.Close(); err != nil {
		return status.Errorf(codes.Internal, "failed to write %s: %v", path, err)
	}
	log.Infof("Wrote %s", path)
	return nil
}

// WriteSeries writes one row per point of each provided series: its time in
// seconds, its ID, and its value, which is empty where undefined.
func WriteSeries[V comparable](w *csv.Writer, idName, valueName string, ss ...series.Series[V]) error {
	if err := w.Write([]string{"time", idName, valueName}); err != nil {
		return err
	}
	for _, s := range ss {
		id := strconv.FormatInt(s.ID, 10)
		for _, p := range s.Points {
			value := ""
			if p.Valid {
				value = formatValue(p.Value)
			}
			if err := w.Write([]string{formatFloat(p.Time), id, value}); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteResidency writes one row per value of a residency, labeled with the
// provided key, such as a CPU.
func WriteResidency[V comparable](w *csv.Writer, key string, shares []series.Share[V]) error {
	for _, share := range shares {
		if err := w.Write([]string{key, formatValue(share.Value), formatFloat(share.Amount)}); err != nil {
			return err
		}
	}
	return nil
}

// WriteFrequencyResidency writes per-CPU frequency residencies.
func WriteFrequencyResidency(w *csv.Writer, amountName string, rs []sched.CPUResidency[float64]) error {
	if err := w.Write([]string{"cpu", "freq", amountName}); err != nil {
		return err
	}
	for _, r := range rs {
		if err := WriteResidency(w, formatValue(r.CPU), r.Residency); err != nil {
			return err
		}
	}
	return nil
}

// WriteIdleResidency writes per-CPU idle state residencies.
func WriteIdleResidency(w *csv.Writer, idle *sched.IdleResidency) error {
	if err := w.Write([]string{"cpu", "idle", "percent"}); err != nil {
		return err
	}
	for _, r := range idle.CPUs {
		if err := WriteResidency(w, formatValue(r.CPU), r.Residency); err != nil {
			return err
		}
	}
	return nil
}

// WriteTaskFrequency writes per-thread frequency residencies.
func WriteTaskFrequency(w *csv.Writer, amountName string, signals []sched.TaskSignal) error {
	if err := w.Write([]string{"tid", "name", "cpu", "freq", amountName}); err != nil {
		return err
	}
	for _, s := range signals {
		for _, share := range s.Residency {
			row := []string{formatValue(int64(s.PID)), s.Command, formatValue(s.CPU), formatFloat(share.Value), formatFloat(share.Amount)}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteThreadStates writes per-thread state totals, in microseconds.
func WriteThreadStates(w *csv.Writer, summaries []sched.ThreadStateSummary) error {
	if err := w.Write([]string{"tid", "name", "state", "cpu", "time_us"}); err != nil {
		return err
	}
	for _, s := range summaries {
		pid := formatValue(int64(s.PID))
		for _, st := range s.States {
			if err := w.Write([]string{pid, s.Command, st.State, "", formatFloat(st.TimeUs)}); err != nil {
				return err
			}
		}
		for _, ct := range s.RunningByCPU {
			if err := w.Write([]string{pid, s.Command, sched.RunningState, formatValue(ct.CPU), formatFloat(ct.TimeUs)}); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteRunResidency writes per-thread CPU run residencies.
func WriteRunResidency(w *csv.Writer, rs []sched.RunResidency) error {
	if err := w.Write([]string{"tid", "name", "cpu", "percent"}); err != nil {
		return err
	}
	for _, r := range rs {
		for _, share := range r.CPUs {
			if err := w.Write([]string{formatValue(int64(r.PID)), r.Command, formatValue(share.Value), formatFloat(share.Amount)}); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteCounterTracks writes the samples of each counter track.
func WriteCounterTracks(w *csv.Writer, tracks []sched.CounterTrack) error {
	if err := w.Write([]string{"time", "track", "value"}); err != nil {
		return err
	}
	for _, track := range tracks {
		for _, p := range track.Series.Points {
			if !p.Valid {
				continue
			}
			if err := w.Write([]string{formatFloat(p.Time), track.Name, formatFloat(p.Value)}); err != nil {
				return err
			}
		}
	}
	return nil
}
