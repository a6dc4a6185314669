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
// Package main contains a web server exposing the sched analyses over a
// JSON API.
package main

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/golang/glog"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/server/apiservice"
	"github.com/qais-yousef/sched-analyzer/server/models"
	"github.com/qais-yousef/sched-analyzer/server/storageservice"
)

var (
	port                = flag.Int("port", 7402, "The HTTP port.")
	storagePath         = flag.String("storage_path", "", "The folder where trace databases are/will be stored.")
	cacheSize           = flag.Int("cache_size", 25, "The maximum number of traces to keep open at once.")
	resampleCacheSize   = flag.Int("resample_cache_size", sched.DefaultCacheSize, "The maximum number of resampled series memoized per trace; 0 disables memoization.")
	idleExitValue       = flag.Int64("idle_exit_value", sched.DefaultIdleExitValue, "The raw cpuidle value recorded on exit from idle.")
	maxUploadMemorySize = flag.Int64("max_upload_memory", 100*1024*1024, "The number of bytes of an upload held in memory before spilling to disk.")
)

const err500 = "Internal Server Error"

// Tag for serialized requests in form values.
const requestTag = "request"
const fileTag = "file"

var storageService storageservice.StorageService

var defaultHTTPUser = "local_user"

var httpUser = func(w http.ResponseWriter, req *http.Request) (string, error) {
	return defaultHTTPUser, nil
}

var handle = func(r *mux.Router, path string, handler http.HandlerFunc) {
	r.Handle(path, instrument(path, handler))
}

// httpStatus maps an error's status code to the HTTP status reported to the
// client.
func httpStatus(err error) int {
	switch status.Code(err) {
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.NotFound:
		return http.StatusNotFound
	case codes.FailedPrecondition:
		return http.StatusConflict
	case codes.Canceled, codes.DeadlineExceeded:
		return http.StatusRequestTimeout
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func sendError(w http.ResponseWriter, what string, err error) {
	code := httpStatus(err)
	if code == http.StatusInternalServerError {
		log.Errorf("Failed to %s: %s", what, err)
	}
	http.Error(w, fmt.Sprintf("Failed to %s: %s", what, status.Convert(err).Message()), code)
}

type storageServiceHTTPHandler struct{ storageservice.StorageService }

func (s *storageServiceHTTPHandler) handleUpload(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	user, err := httpUser(w, req)
	if err != nil {
		http.Error(w, "Failed to get HTTP user: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := req.ParseMultipartForm(*maxUploadMemorySize); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse upload: %s", err), http.StatusBadRequest)
		return
	}
	jsonreq := &models.CreateTraceRequest{}
	if reqJSON := req.Form.Get(requestTag); len(reqJSON) > 0 {
		if err := json.Unmarshal([]byte(reqJSON), jsonreq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	jsonreq.Creator = user

	files := req.MultipartForm.File[fileTag]
	if len(files) == 0 {
		http.Error(w, fmt.Sprintf("Failed to upload trace: missing %q part", fileTag), http.StatusBadRequest)
		return
	}
	if len(jsonreq.FileName) == 0 {
		jsonreq.FileName = files[0].Filename
	}
	file, err := files[0].Open()
	if err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			log.Errorf("failed to close multipart temp file: %s", err)
		}
	}()

	traceName, err := s.UploadFile(ctx, jsonreq, file)
	if err != nil {
		sendError(w, "upload trace", err)
		return
	}
	sendStringHTTPResponse(req, traceName, w)
}

func (s *storageServiceHTTPHandler) handleListTraces(w http.ResponseWriter, req *http.Request) {
	mds, err := s.ListTraces(req.Context())
	if err != nil {
		sendError(w, "list traces", err)
		return
	}
	sendStructHTTPResponse(req, mds, w)
}

func (s *storageServiceHTTPHandler) handleDeleteTrace(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	if err := req.ParseForm(); err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
		return
	}
	if err := s.DeleteTrace(ctx, req.Form.Get(requestTag)); err != nil {
		sendError(w, "delete trace", err)
		return
	}
}

func (s *storageServiceHTTPHandler) handleGetMetadata(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	if err := req.ParseForm(); err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
		return
	}
	md, err := s.GetMetadata(ctx, req.Form.Get(requestTag))
	if err != nil {
		sendError(w, "get trace metadata", err)
		return
	}
	sendStructHTTPResponse(req, md, w)
}

func registerStorageService(r *mux.Router, s storageservice.StorageService) {
	sh := &storageServiceHTTPHandler{s}
	handle(r, "/upload", sh.handleUpload)
	handle(r, "/list_traces", sh.handleListTraces)
	handle(r, "/delete_trace", sh.handleDeleteTrace)
	handle(r, "/get_trace_metadata", sh.handleGetMetadata)
}

type apiServiceHTTPHandler struct{ *apiservice.APIService }

func (a *apiServiceHTTPHandler) handleGetTraceParameters(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	if err := req.ParseForm(); err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
		return
	}
	res, err := a.GetTraceParameters(ctx, req.Form.Get(requestTag))
	if err != nil {
		sendError(w, "get trace parameters", err)
		return
	}
	sendStructHTTPResponse(req, res, w)
}

// analysisHandler returns a handler that decodes an AnalysisRequest from the
// request body and responds with the result of the provided analysis.
func analysisHandler[R any](what string, analysis func(context.Context, *models.AnalysisRequest) (R, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		jsonreq := &models.AnalysisRequest{}
		if err := readRequestBodyIntoStruct(req, jsonreq); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		res, err := analysis(req.Context(), jsonreq)
		if err != nil {
			sendError(w, what, err)
			return
		}
		sendStructHTTPResponse(req, res, w)
	}
}

func registerAPIService(r *mux.Router, a *apiservice.APIService) {
	ah := &apiServiceHTTPHandler{a}
	handle(r, "/get_trace_parameters", ah.handleGetTraceParameters)
	handle(r, "/get_frequency", analysisHandler("get frequency", a.GetFrequency))
	handle(r, "/get_frequency_residency", analysisHandler("get frequency residency", a.GetFrequencyResidency))
	handle(r, "/get_task_frequency", analysisHandler("get task frequency", a.GetTaskFrequency))
	handle(r, "/get_idle_residency", analysisHandler("get idle residency", a.GetIdleResidency))
	handle(r, "/get_thread_states", analysisHandler("get thread states", a.GetThreadStates))
	handle(r, "/get_run_residency", analysisHandler("get run residency", a.GetRunResidency))
	handle(r, "/get_counter_tracks", analysisHandler("get counter tracks", a.GetCounterTracks))
}

var startServer = func(r *mux.Router) {
	http.Handle("/", r)
	log.Infof("Serving on port %d", *port)
	if err := http.ListenAndServe(fmt.Sprintf(":%d", *port), nil); err != nil {
		log.Fatal(err)
	}
}

var setStorageService = func(ctx context.Context) error {
	ss, err := storageservice.CreateFSStorage(*storagePath, *cacheSize,
		sched.CacheSize(*resampleCacheSize),
		sched.IdleExitValue(*idleExitValue))
	if err != nil {
		return err
	}
	storageService = ss
	return nil
}

func runServer(ctx context.Context) {
	var r = mux.NewRouter()
	if err := setStorageService(ctx); err != nil {
		log.Exit(err)
	}

	apiService := &apiservice.APIService{StorageService: storageService}

	registerStorageService(r, storageService)
	registerAPIService(r, apiService)
	r.Handle("/metrics", promhttp.Handler())
	startServer(r)
}

func main() {
	flag.Parse()
	runServer(context.Background())
}

// gzipEnabledWriter returns a gzip writer that wraps the http.ResponseWriter if the client supports
// reading gzip; if it does not, the http.ResponseWriter is returned unchanged.
// The function also returns a closing function. For gzip, this will be a real function that must be
// called before sending the request, for http.ResponseWriter, it will be a no-op.
func gzipEnabledWriter(req *http.Request, w http.ResponseWriter) (io.Writer, func() error) {
	if strings.Contains(req.Header.Get("Accept-Encoding"), "gzip") {
		w.Header().Set("Content-Encoding", "gzip")
		// If content-length was set before compression, it'll be wrong.
		w.Header().Del("Content-Length")
		gzw := gzip.NewWriter(w)
		return gzw, gzw.Close
	}
	return w, func() error { return nil }
}

func sendStringHTTPResponse(req *http.Request, res string, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	writer, closer := gzipEnabledWriter(req, w)
	defer func() { _ = closer() }()
	if _, err := writer.Write([]byte(res)); err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
	}
}

func sendStructHTTPResponse(req *http.Request, res interface{}, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	writer, closer := gzipEnabledWriter(req, w)
	defer func() { _ = closer() }()
	if err := json.NewEncoder(writer).Encode(res); err != nil {
		http.Error(w, err500, http.StatusInternalServerError)
	}
}

func checkRequestContentType(req *http.Request, contentType string) error {
	gotContentType := req.Header.Get("Content-Type")
	if gotContentType != contentType {
		return fmt.Errorf("unexpected content type. want: %s, got: %s", contentType, gotContentType)
	}
	return nil
}

func readRequestBodyIntoStruct(req *http.Request, s interface{}) error {
	if err := checkRequestContentType(req, "application/json"); err != nil {
		return err
	}
	body, err := io.ReadAll(req.Body)
	if err != nil {
		return fmt.Errorf("error reading body: %s", err)
	}
	if err := req.Body.Close(); err != nil {
		return fmt.Errorf("error closing response body: %s", err)
	}
	if err := json.Unmarshal(body, s); err != nil {
		return fmt.Errorf("failed to unmarshal request JSON: %s", err)
	}
	return nil
}
