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
// sched-analyzer-pp post-processes sched-analyzer traces exported as trace
// processor databases, reporting CPU frequency, idle, and per-thread
// scheduling analyses.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/golang/glog"
	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/tracedata/tpdb"
)

// options holds the parsed command line.
type options struct {
	freq             bool
	freqResidency    bool
	freqResidencyAbs bool
	freqTask         []string
	idleResidency    bool
	schedStates      []string
	cpuRunResidency  string
	pelt             string
	saTrack          string
	tracks           string
	tsStart          float64
	tsEnd            float64
	periodUs         int64
	fill             string
	absolute         bool
	topN             int
	csv              string
	config           string
}

func newRootCmd(out io.Writer) *cobra.Command {
	o := &options{}
	rootCmd := &cobra.Command{
		Use:   "sched-analyzer-pp [flags] TRACE.db",
		Short: "Post-process sched-analyzer traces",
		Long: `sched-analyzer-pp analyzes a sched-analyzer trace exported as a trace processor
database (trace_processor_shell --export) and prints the requested reports.

Examples:
  sched-analyzer-pp --freq --freq-residency trace.db
  sched-analyzer-pp --freq-task rampup --ts-start 1.5 --ts-end 3 trace.db
  sched-analyzer-pp --pelt util_avg --tracks '^CPU' --csv out trace.db`,
		Args:          cobra.ExactArgs(1),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			if len(o.config) > 0 {
				fc, err := loadConfig(o.config)
				if err != nil {
					return err
				}
				fc.apply(cmd.Flags(), o)
			}
			return run(cmd.Context(), args[0], o, out)
		},
	}

	f := rootCmd.Flags()
	f.BoolVar(&o.freq, "freq", false, "report the frequency of each frequency domain")
	f.BoolVar(&o.freqResidency, "freq-residency", false, "report the frequency residency of each frequency domain")
	f.BoolVar(&o.freqResidencyAbs, "freq-residency-abs", false, "report the frequency residency of each frequency domain in ms")
	f.StringArrayVar(&o.freqTask, "freq-task", nil, "report the frequency seen by threads matching this regexp while running; repeatable")
	f.BoolVar(&o.idleResidency, "idle-residency", false, "report the idle state residency of each CPU")
	f.StringArrayVar(&o.schedStates, "sched-states", nil, "summarize the scheduling states of threads matching this regexp; repeatable")
	f.StringVar(&o.cpuRunResidency, "cpu-run-residency", "", "report how the busiest threads of this process spread their running time across CPUs")
	f.StringVar(&o.pelt, "pelt", "", "report the sched-analyzer PELT signal with this name, such as util_avg")
	f.StringVar(&o.saTrack, "sa-track", "", "report the sched-analyzer track signal with this name")
	f.StringVar(&o.tracks, "tracks", "", "only report --pelt and --sa-track tracks whose names match this regexp")
	f.Float64Var(&o.tsStart, "ts-start", 0, "start of the reported window, in seconds from the trace start")
	f.Float64Var(&o.tsEnd, "ts-end", -1, "end of the reported window, in seconds from the trace start; negative for the end of the trace")
	f.Int64Var(&o.periodUs, "period-us", series.DefaultPeriod.Microseconds(), "resampling period, in microseconds")
	f.StringVar(&o.fill, "fill", series.FillForward.String(), "how resampled points are filled: ffill, bfill, or none")
	f.BoolVar(&o.absolute, "absolute", false, "report task frequency residencies in ms rather than percentages")
	f.IntVar(&o.topN, "top-n", sched.DefaultTopN, "the number of threads reported by --cpu-run-residency")
	f.StringVar(&o.csv, "csv", "", "also save each report to PREFIX_<report>.csv")
	f.StringVar(&o.config, "config", "", "a YAML file providing defaults for ts_start, ts_end, period_us, fill, and absolute")
	rootCmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	return rootCmd
}

// filters converts the window and resampling options into analysis filters.
func (o *options) filters() ([]sched.Filter, error) {
	fill, err := series.ParseFillMethod(o.fill)
	if err != nil {
		return nil, err
	}
	if o.periodUs <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "--period-us must be positive, got %d", o.periodUs)
	}
	if o.topN <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "--top-n must be positive, got %d", o.topN)
	}
	ret := []sched.Filter{
		sched.StartTime(o.tsStart),
		sched.Period(time.Duration(o.periodUs) * time.Microsecond),
		sched.Fill(fill),
		sched.Absolute(o.absolute),
		sched.TopN(o.topN),
	}
	if o.tsEnd >= 0 {
		ret = append(ret, sched.EndTime(o.tsEnd))
	}
	return ret, nil
}

// run opens the trace at tracePath and writes the requested reports to out.
func run(ctx context.Context, tracePath string, o *options, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	filters, err := o.filters()
	if err != nil {
		return err
	}
	db, err := tpdb.Open(tracePath)
	if err != nil {
		return err
	}
	defer db.Close()
	c, err := sched.NewCollection(ctx, db)
	if err != nil {
		return err
	}
	defer c.Close()
	log.Infof("Loaded %s: %.6fs", tracePath, c.Duration())

	r := &reporter{c: c, out: out, csvPrefix: o.csv, filters: filters, absolute: o.absolute}
	if o.freq {
		if err := r.frequency(ctx); err != nil {
			return err
		}
	}
	if o.freqResidency {
		if err := r.frequencyResidency(ctx, false); err != nil {
			return err
		}
	}
	if o.freqResidencyAbs {
		if err := r.frequencyResidency(ctx, true); err != nil {
			return err
		}
	}
	for _, pattern := range o.freqTask {
		if err := r.taskFrequency(ctx, pattern); err != nil {
			return err
		}
	}
	if o.idleResidency {
		if err := r.idleResidency(ctx); err != nil {
			return err
		}
	}
	for _, pattern := range o.schedStates {
		if err := r.threadStates(ctx, pattern); err != nil {
			return err
		}
	}
	if len(o.cpuRunResidency) > 0 {
		if err := r.runResidency(ctx, o.cpuRunResidency); err != nil {
			return err
		}
	}
	if len(o.pelt) > 0 {
		if err := r.counterTracks(ctx, "pelt", o.pelt, o.tracks); err != nil {
			return err
		}
	}
	if len(o.saTrack) > 0 {
		if err := r.counterTracks(ctx, "sa_track", o.saTrack, o.tracks); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	// glog reads its flags from the standard flag set, which cobra parses.
	if err := flag.CommandLine.Parse(nil); err != nil {
		log.Exit(err)
	}
	defer log.Flush()
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		log.Flush()
		os.Exit(1)
	}
}
