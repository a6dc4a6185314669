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
package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/export"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9]+`)

// reporter prints analysis results as text tables, optionally saving each
// as a CSV file too.
type reporter struct {
	c         *sched.Collection
	out       io.Writer
	csvPrefix string
	filters   []sched.Filter
	absolute  bool
}

func (r *reporter) section(title string) {
	fmt.Fprintf(r.out, "\n--:: %s ::--\n", title)
}

func (r *reporter) table(header []string, rows [][]string) error {
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (r *reporter) save(name string, write func(w *csv.Writer) error) error {
	if len(r.csvPrefix) == 0 {
		return nil
	}
	return export.SaveCSV(r.csvPrefix, name, write)
}

// reportName returns a file-name-safe report name qualified by the provided
// pattern.
func reportName(name, pattern string) string {
	if q := strings.Trim(unsafeChars.ReplaceAllString(pattern, "_"), "_"); len(q) > 0 {
		return name + "_" + q
	}
	return name
}

func f2(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

func fg(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func amountHeader(absolute bool) string {
	if absolute {
		return "ms"
	}
	return "%"
}

func (r *reporter) frequency(ctx context.Context) error {
	freqs, err := r.c.Frequency(ctx, r.filters...)
	if err != nil {
		return err
	}
	r.section("Frequency (GHz)")
	var rows [][]string
	var ss []series.Series[float64]
	for _, cs := range freqs {
		ss = append(ss, cs.Series)
		stats := series.Describe(cs.Series.Values())
		if stats == nil {
			continue
		}
		rows = append(rows, []string{
			strconv.FormatInt(int64(cs.CPU), 10),
			strconv.Itoa(stats.Count),
			f2(stats.Min), f2(stats.Mean), f2(stats.Max),
		})
	}
	if err := r.table([]string{"CPU", "Samples", "Min", "Mean", "Max"}, rows); err != nil {
		return err
	}
	return r.save("freq", func(w *csv.Writer) error {
		return export.WriteSeries(w, "cpu", "freq", ss...)
	})
}

func (r *reporter) frequencyResidency(ctx context.Context, absolute bool) error {
	filters := append(append([]sched.Filter{}, r.filters...), sched.Absolute(absolute))
	rs, err := r.c.FrequencyResidency(ctx, filters...)
	if err != nil {
		return err
	}
	name := "freq_residency"
	if absolute {
		name = "freq_residency_abs"
		r.section("Frequency Residency (ms)")
	} else {
		r.section("Frequency Residency (%)")
	}
	var rows [][]string
	for _, cr := range rs {
		for _, share := range cr.Residency {
			rows = append(rows, []string{strconv.FormatInt(int64(cr.CPU), 10), fg(share.Value), f2(share.Amount)})
		}
	}
	if err := r.table([]string{"CPU", "GHz", amountHeader(absolute)}, rows); err != nil {
		return err
	}
	return r.save(name, func(w *csv.Writer) error {
		return export.WriteFrequencyResidency(w, amountHeader(absolute), rs)
	})
}

func (r *reporter) taskFrequency(ctx context.Context, pattern string) error {
	signals, err := r.c.TaskFrequency(ctx, pattern, r.filters...)
	if err != nil {
		return err
	}
	r.section(fmt.Sprintf("Task Frequency Residency: %s", pattern))
	var rows [][]string
	for _, ts := range signals {
		for _, share := range ts.Residency {
			rows = append(rows, []string{
				strconv.FormatInt(int64(ts.PID), 10), ts.Command,
				strconv.FormatInt(int64(ts.CPU), 10), fg(share.Value), f2(share.Amount),
			})
		}
	}
	if err := r.table([]string{"TID", "Command", "CPU", "GHz", amountHeader(r.absolute)}, rows); err != nil {
		return err
	}
	return r.save(reportName("freq_task", pattern), func(w *csv.Writer) error {
		return export.WriteTaskFrequency(w, amountHeader(r.absolute), signals)
	})
}

func (r *reporter) idleResidency(ctx context.Context) error {
	idle, err := r.c.IdleResidency(ctx, r.filters...)
	if err != nil {
		return err
	}
	r.section("Idle Residency (%)")
	if !idle.Available {
		fmt.Fprintln(r.out, "No idle state data in trace")
		return nil
	}
	var rows [][]string
	for _, cr := range idle.CPUs {
		for _, share := range cr.Residency {
			rows = append(rows, []string{strconv.FormatInt(int64(cr.CPU), 10), strconv.FormatInt(share.Value, 10), f2(share.Amount)})
		}
	}
	if err := r.table([]string{"CPU", "State", "%"}, rows); err != nil {
		return err
	}
	return r.save("idle_residency", func(w *csv.Writer) error {
		return export.WriteIdleResidency(w, idle)
	})
}

func statsRow(name string, s *series.Stats) []string {
	if s == nil {
		return []string{name, "0", "-", "-", "-", "-", "-", "-", "-", "-"}
	}
	return []string{name, strconv.Itoa(s.Count), f2(s.Mean), f2(s.Std), f2(s.Min), f2(s.P75), f2(s.P90), f2(s.P95), f2(s.P99), f2(s.Max)}
}

func (r *reporter) threadStates(ctx context.Context, pattern string) error {
	summaries, err := r.c.ThreadStates(ctx, pattern, r.filters...)
	if err != nil {
		return err
	}
	for _, sum := range summaries {
		r.section(fmt.Sprintf("%s-%d", sum.Command, sum.PID))
		var rows [][]string
		for _, st := range sum.States {
			rows = append(rows, []string{st.State, f2(st.TimeUs)})
		}
		if err := r.table([]string{"State", "Time(us)"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(r.out)
		rows = nil
		for _, ct := range sum.RunningByCPU {
			rows = append(rows, []string{strconv.FormatInt(int64(ct.CPU), 10), f2(ct.TimeUs)})
		}
		if err := r.table([]string{"CPU", "Running(us)"}, rows); err != nil {
			return err
		}
		fmt.Fprintln(r.out)
		rows = [][]string{
			statsRow("Runnable", sum.Runnable),
			statsRow("Running", sum.Running),
			statsRow("Uninterruptible", sum.Uninterruptible),
		}
		if err := r.table([]string{"Time(us)", "count", "mean", "std", "min", "75%", "90%", "95%", "99%", "max"}, rows); err != nil {
			return err
		}
	}
	return r.save(reportName("sched_states", pattern), func(w *csv.Writer) error {
		return export.WriteThreadStates(w, summaries)
	})
}

func (r *reporter) runResidency(ctx context.Context, process string) error {
	rs, err := r.c.RunResidency(ctx, process, r.filters...)
	if err != nil {
		return err
	}
	r.section(fmt.Sprintf("CPU Run Residency: %s", process))
	var rows [][]string
	for _, rr := range rs {
		for _, share := range rr.CPUs {
			rows = append(rows, []string{
				strconv.FormatInt(int64(rr.PID), 10), rr.Command, f2(rr.TotalUs),
				strconv.FormatInt(int64(share.Value), 10), f2(share.Amount),
			})
		}
	}
	if err := r.table([]string{"TID", "Command", "Total(us)", "CPU", "%"}, rows); err != nil {
		return err
	}
	return r.save("cpu_run_residency", func(w *csv.Writer) error {
		return export.WriteRunResidency(w, rs)
	})
}

func (r *reporter) counterTracks(ctx context.Context, name, signal, pattern string) error {
	tracks, err := r.c.CounterTracks(ctx, signal, pattern, r.filters...)
	if err != nil {
		return err
	}
	r.section(signal)
	var rows [][]string
	for _, track := range tracks {
		stats := series.Describe(track.Series.Values())
		if stats == nil {
			continue
		}
		mode := "-"
		if len(track.Histogram) > 0 {
			mode = fg(track.Histogram[len(track.Histogram)-1].Value)
		}
		rows = append(rows, []string{track.Name, strconv.Itoa(stats.Count), f2(stats.Min), f2(stats.Mean), f2(stats.Max), mode})
	}
	if err := r.table([]string{"Track", "Samples", "Min", "Mean", "Max", "Mode"}, rows); err != nil {
		return err
	}
	return r.save(name+"_"+signal, func(w *csv.Writer) error {
		return export.WriteCounterTracks(w, tracks)
	})
}
