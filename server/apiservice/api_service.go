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
// Package apiservice contains wrappers around the analysis library
package apiservice

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/analysis/series"
	"github.com/qais-yousef/sched-analyzer/server/models"
	"github.com/qais-yousef/sched-analyzer/server/storageservice"
)

// APIService contains wrappers around the analysis library
type APIService struct {
	StorageService storageservice.StorageService
}

func (as *APIService) fetchCollection(ctx context.Context, traceName string) (*storageservice.CachedCollection, error) {
	if len(traceName) == 0 {
		return nil, missingFieldError("trace_name")
	}
	return as.StorageService.GetCollection(ctx, traceName)
}

// filters converts the request's window and resampling parameters into
// analysis filters.
func filters(req *models.AnalysisRequest) ([]sched.Filter, error) {
	fill, err := series.ParseFillMethod(req.Fill)
	if err != nil {
		return nil, err
	}
	if req.PeriodUs < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "period must be positive, got %dus", req.PeriodUs)
	}
	if req.TopN < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "topN must not be negative, got %d", req.TopN)
	}
	ret := []sched.Filter{
		sched.StartTime(req.StartSeconds),
		sched.Fill(fill),
		sched.Absolute(req.Absolute),
	}
	if req.EndSeconds != nil && *req.EndSeconds >= 0 {
		ret = append(ret, sched.EndTime(*req.EndSeconds))
	}
	if req.PeriodUs > 0 {
		ret = append(ret, sched.Period(time.Duration(req.PeriodUs)*time.Microsecond))
	}
	if req.TopN > 0 {
		ret = append(ret, sched.TopN(req.TopN))
	}
	return ret, nil
}

// GetTraceParameters returns the bounds and capabilities of the specified
// trace.
func (as *APIService) GetTraceParameters(ctx context.Context, traceName string) (*models.TraceParametersResponse, error) {
	c, err := as.fetchCollection(ctx, traceName)
	if err != nil {
		return nil, err
	}
	bounds := c.Collection.Bounds()
	res := &models.TraceParametersResponse{
		TraceName:        traceName,
		StartTimestampNs: int64(bounds.Start),
		EndTimestampNs:   int64(bounds.End),
		DurationSeconds:  c.Collection.Duration(),
		Clusters:         []int64{},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		clusters, err := c.Collection.Clusters(gctx)
		if err != nil {
			return err
		}
		for _, cpu := range clusters {
			res.Clusters = append(res.Clusters, int64(cpu))
		}
		return nil
	})
	g.Go(func() error {
		hasIdle, err := c.Collection.HasIdle(gctx)
		if err != nil {
			return err
		}
		res.HasIdle = hasIdle
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// GetFrequency returns the resampled frequency of each frequency domain in
// the specified trace, along with its residency.
func (as *APIService) GetFrequency(ctx context.Context, req *models.AnalysisRequest) (*models.FrequencyResponse, error) {
	c, err := as.fetchCollection(ctx, req.TraceName)
	if err != nil {
		return nil, err
	}
	filts, err := filters(req)
	if err != nil {
		return nil, err
	}
	res := &models.FrequencyResponse{
		TraceName: req.TraceName,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		freqs, err := c.Collection.Frequency(gctx, filts...)
		if err != nil {
			return err
		}
		res.Series = freqs
		return nil
	})
	g.Go(func() error {
		residency, err := c.Collection.FrequencyResidency(gctx, filts...)
		if err != nil {
			return err
		}
		res.Residency = residency
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// GetFrequencyResidency returns the frequency residency of each frequency
// domain in the specified trace.
func (as *APIService) GetFrequencyResidency(ctx context.Context, req *models.AnalysisRequest) (*models.FrequencyResidencyResponse, error) {
	c, err := as.fetchCollection(ctx, req.TraceName)
	if err != nil {
		return nil, err
	}
	filts, err := filters(req)
	if err != nil {
		return nil, err
	}
	residency, err := c.Collection.FrequencyResidency(ctx, filts...)
	if err != nil {
		return nil, err
	}
	return &models.FrequencyResidencyResponse{
		TraceName: req.TraceName,
		Absolute:  req.Absolute,
		Residency: residency,
	}, nil
}

// GetTaskFrequency returns the frequency seen by each thread matching the
// request's pattern while it ran.
func (as *APIService) GetTaskFrequency(ctx context.Context, req *models.AnalysisRequest) (*models.TaskFrequencyResponse, error) {
	if len(req.Pattern) == 0 {
		return nil, missingFieldError("pattern")
	}
	c, err := as.fetchCollection(ctx, req.TraceName)
	if err != nil {
		return nil, err
	}
	filts, err := filters(req)
	if err != nil {
		return nil, err
	}
	tasks, err := c.Collection.TaskFrequency(ctx, req.Pattern, filts...)
	if err != nil {
		return nil, err
	}
	return &models.TaskFrequencyResponse{
		TraceName: req.TraceName,
		Tasks:     tasks,
	}, nil
}

// GetIdleResidency returns the idle state residency of each CPU.
func (as *APIService) GetIdleResidency(ctx context.Context, req *models.AnalysisRequest) (*models.IdleResidencyResponse, error) {
	c, err := as.fetchCollection(ctx, req.TraceName)
	if err != nil {
		return nil, err
	}
	filts, err := filters(req)
	if err != nil {
		return nil, err
	}
	idle, err := c.Collection.IdleResidency(ctx, filts...)
	if err != nil {
		return nil, err
	}
	return &models.IdleResidencyResponse{
		TraceName: req.TraceName,
		Idle:      idle,
	}, nil
}

// GetThreadStates summarizes the scheduling states of each thread matching
// the request's pattern.
func (as *APIService) GetThreadStates(ctx context.Context, req *models.AnalysisRequest) (*models.ThreadStatesResponse, error) {
	if len(req.Pattern) == 0 {
		return nil, missingFieldError("pattern")
	}
	c, err := as.fetchCollection(ctx, req.TraceName)
	if err != nil {
		return nil, err
	}
	filts, err := filters(req)
	if err != nil {
		return nil, err
	}
	threads, err := c.Collection.ThreadStates(ctx, req.Pattern, filts...)
	if err != nil {
		return nil, err
	}
	return &models.ThreadStatesResponse{
		TraceName: req.TraceName,
		Threads:   threads,
	}, nil
}

// GetRunResidency returns how the busiest threads of the request's process
// divided their running time across CPUs.
func (as *APIService) GetRunResidency(ctx context.Context, req *models.AnalysisRequest) (*models.RunResidencyResponse, error) {
	if len(req.Process) == 0 {
		return nil, missingFieldError("process")
	}
	c, err := as.fetchCollection(ctx, req.TraceName)
	if err != nil {
		return nil, err
	}
	filts, err := filters(req)
	if err != nil {
		return nil, err
	}
	threads, err := c.Collection.RunResidency(ctx, req.Process, filts...)
	if err != nil {
		return nil, err
	}
	return &models.RunResidencyResponse{
		TraceName: req.TraceName,
		Threads:   threads,
	}, nil
}

// GetCounterTracks returns the sched-analyzer counter tracks carrying the
// request's signal whose names match its pattern.
func (as *APIService) GetCounterTracks(ctx context.Context, req *models.AnalysisRequest) (*models.CounterTracksResponse, error) {
	if len(req.Signal) == 0 {
		return nil, missingFieldError("signal")
	}
	c, err := as.fetchCollection(ctx, req.TraceName)
	if err != nil {
		return nil, err
	}
	filts, err := filters(req)
	if err != nil {
		return nil, err
	}
	tracks, err := c.Collection.CounterTracks(ctx, req.Signal, req.Pattern, filts...)
	if err != nil {
		return nil, err
	}
	return &models.CounterTracksResponse{
		TraceName: req.TraceName,
		Signal:    req.Signal,
		Tracks:    tracks,
	}, nil
}

func missingFieldError(fieldName string) error {
	return status.Errorf(codes.InvalidArgument, "missing required field %q", fieldName)
}
