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
package sched

import (
	log "github.com/golang/glog"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	// DefaultCacheSize is the default number of resampled series a
	// Collection retains.
	DefaultCacheSize = 64
	// DefaultIdleExitValue is the idle state value the kernel's cpu_idle
	// tracepoint reports on exit from idle: (u32)-1.
	DefaultIdleExitValue = 4294967295
)

type collectionOptions struct {
	// The maximum number of resampled series to memoize.  If 0, resampled
	// series are not memoized.
	cacheSize int
	// The raw idle state value denoting exit from idle.  It is reported as -1.
	idleExitValue int64
}

func defaultCollectionOptions() *collectionOptions {
	return &collectionOptions{
		cacheSize:     DefaultCacheSize,
		idleExitValue: DefaultIdleExitValue,
	}
}

// Option specifies an option that may be specified for a Collection at its
// creation.
type Option func(o *collectionOptions) error

// CacheSize specifies how many resampled series the Collection may memoize.
// If unspecified, DefaultCacheSize.
func CacheSize(n int) Option {
	return func(o *collectionOptions) error {
		if n < 0 {
			return status.Errorf(codes.InvalidArgument, "invalid cache size %d", n)
		}
		o.cacheSize = n
		return nil
	}
}

// IdleExitValue specifies the raw idle state value that denotes a CPU leaving
// idle.  If unspecified, DefaultIdleExitValue.
func IdleExitValue(v int64) Option {
	return func(o *collectionOptions) error {
		log.V(1).Infof("Using idle exit value %d", v)
		o.idleExitValue = v
		return nil
	}
}
