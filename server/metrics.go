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
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "sched_analyzer",
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by handler and response code.",
		},
		[]string{"handler", "code"},
	)
	requestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "sched_analyzer",
			Name:      "http_request_duration_seconds",
			Help:      "Time taken to serve HTTP requests, by handler.",
			Buckets:   []float64{.005, .025, .1, .5, 1, 5, 30},
		},
		[]string{"handler"},
	)
)

func init() {
	prometheus.DefaultRegisterer.MustRegister(
		requestsTotal,
		requestDuration,
	)
}

// instrument wraps the provided handler so that its requests are counted and
// timed under the provided path.
func instrument(path string, handler http.HandlerFunc) http.Handler {
	labels := prometheus.Labels{"handler": path}
	return promhttp.InstrumentHandlerDuration(requestDuration.MustCurryWith(labels),
		promhttp.InstrumentHandlerCounter(requestsTotal.MustCurryWith(labels), handler))
}
