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
// Package models contains structs representing the JSON requests/responses.
package models

// CreateTraceRequest is a request to upload a trace database.
type CreateTraceRequest struct {
	// The user uploading this trace.
	Creator string `json:"creator" yaml:"creator"`
	// Tags are string values displayed along with traces.
	Tags []string `json:"tags" yaml:"tags"`
	// A free-form trace description.
	Description string `json:"description" yaml:"description"`
	// The time of this trace's creation.  If left empty, it will be
	// autopopulated at upload time.
	CreationTime int64 `json:"creationTime" yaml:"creationTime"`
	// The name of the uploaded file, for display.
	FileName string `json:"fileName" yaml:"fileName"`
}

// Metadata describes a stored trace.
type Metadata struct {
	TraceName    string   `json:"traceName" yaml:"traceName"`
	Creator      string   `json:"creator" yaml:"creator"`
	Tags         []string `json:"tags" yaml:"tags"`
	Description  string   `json:"description" yaml:"description"`
	CreationTime int64    `json:"creationTime" yaml:"creationTime"`
	FileName     string   `json:"fileName" yaml:"fileName"`
}

// TraceParametersResponse is a response for a trace parameters request.
type TraceParametersResponse struct {
	TraceName        string  `json:"traceName"`
	StartTimestampNs int64   `json:"startTimestampNs"`
	EndTimestampNs   int64   `json:"endTimestampNs"`
	DurationSeconds  float64 `json:"durationSeconds"`
	// The representative CPU of each frequency domain.
	Clusters []int64 `json:"clusters"`
	// Whether the trace holds idle state data.
	HasIdle bool `json:"hasIdle"`
}
