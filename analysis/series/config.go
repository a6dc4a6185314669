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
package series

import (
	"fmt"
	"math"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"github.com/qais-yousef/sched-analyzer/tracedata/trace"
)

// DefaultPeriod is the default resampling grid period.
const DefaultPeriod = 100 * time.Microsecond

// MaxGridPoints is the largest grid a series may be resampled onto.  At the
// default period it covers about 14 minutes of trace.
const MaxGridPoints = 1 << 23

// FillMethod specifies how grid points lacking an observation of their own
// are populated during resampling.
type FillMethod int

const (
	// FillForward propagates the most recent observation at or before each
	// grid point.
	FillForward FillMethod = iota
	// FillBackward takes the first observation at or after each grid point.
	FillBackward
	// FillNone leaves grid points without an exactly coincident observation
	// undefined.
	FillNone
)

func (f FillMethod) String() string {
	switch f {
	case FillForward:
		return "ffill"
	case FillBackward:
		return "bfill"
	case FillNone:
		return "none"
	}
	return fmt.Sprintf("FillMethod(%d)", int(f))
}

// ParseFillMethod parses the String() representation of a FillMethod.
func ParseFillMethod(s string) (FillMethod, error) {
	switch strings.ToLower(s) {
	case "ffill", "pad", "forward", "":
		return FillForward, nil
	case "bfill", "backfill", "backward":
		return FillBackward, nil
	case "none":
		return FillNone, nil
	}
	return FillForward, status.Errorf(codes.InvalidArgument, "unknown fill method %q", s)
}

// Mode selects the units of a residency.
type Mode int

const (
	// Percent expresses each value's residency as a percentage of the total
	// observed duration.
	Percent Mode = iota
	// Absolute expresses each value's residency in milliseconds.
	Absolute
)

func (m Mode) String() string {
	if m == Absolute {
		return "absolute"
	}
	return "percent"
}

// Window is an inclusive range of trace-relative seconds.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// FullWindow returns a Window covering any trace.
func FullWindow() Window {
	return Window{Start: 0, End: math.Inf(1)}
}

// Contains returns true if the provided time lies within the window.
func (w Window) Contains(t float64) bool {
	return t >= w.Start && t <= w.End
}

// Validate returns an error if the window is inverted or NaN.
func (w Window) Validate() error {
	if math.IsNaN(w.Start) || math.IsNaN(w.End) {
		return status.Errorf(codes.InvalidArgument, "time window bounds must be numbers")
	}
	if w.End < w.Start {
		return status.Errorf(codes.InvalidArgument, "time window end %f precedes start %f", w.End, w.Start)
	}
	return nil
}

func (w Window) String() string {
	return fmt.Sprintf("[%g, %g]", w.Start, w.End)
}

// Config carries the settings shared by every analysis of a single query.
// It is a value: each query builds its own and passes it down.
type Config struct {
	// The inclusive time window results are clipped to.
	Window Window
	// The resampling grid period.
	Period time.Duration
	// How resampled grid points are populated.
	Fill FillMethod
	// The units of residencies.
	Mode Mode
}

// DefaultConfig returns a Config covering the whole trace on the default grid.
func DefaultConfig() Config {
	return Config{
		Window: FullWindow(),
		Period: DefaultPeriod,
		Fill:   FillForward,
		Mode:   Percent,
	}
}

// Validate returns an error if the Config is unusable.
func (c Config) Validate() error {
	if c.Period <= 0 {
		return status.Errorf(codes.InvalidArgument, "grid period must be positive, got %s", c.Period)
	}
	return c.Window.Validate()
}

// Grid is a uniform sampling grid over the trace-relative range
// [0, bounds.End-bounds.Start).
type Grid struct {
	Span   trace.Timestamp
	Period time.Duration
}

// NewGrid returns the Grid with the provided period over the provided bounds.
func NewGrid(bounds trace.Bounds, period time.Duration) Grid {
	return Grid{Span: bounds.Duration(), Period: period}
}

// Len returns the number of points on the grid.
func (g Grid) Len() int {
	if g.Period <= 0 || g.Span <= 0 {
		return 0
	}
	p := trace.Timestamp(g.Period)
	return int((g.Span + p - 1) / p)
}

// Validate returns an error if the grid has more than MaxGridPoints points.
func (g Grid) Validate() error {
	if g.Period <= 0 {
		return status.Errorf(codes.InvalidArgument, "grid period must be positive, got %s", g.Period)
	}
	if n := g.Len(); n > MaxGridPoints {
		return status.Errorf(codes.InvalidArgument,
			"a %s period over %s of trace yields %d grid points, more than the %d allowed; use a longer period or a shorter trace",
			g.Period, time.Duration(g.Span), n, MaxGridPoints)
	}
	return nil
}

// Time returns the trace-relative time, in seconds, of the ith grid point.
func (g Grid) Time(i int) float64 {
	return (trace.Timestamp(i) * trace.Timestamp(g.Period)).Seconds()
}
