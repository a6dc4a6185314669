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
package storageservice

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	log "github.com/golang/glog"
	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v3"

	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/server/models"
	"github.com/qais-yousef/sched-analyzer/tracedata/tpdb"
)

const (
	traceSuffix    = ".db"
	metadataSuffix = ".yaml"
)

var (
	timeNow     = time.Now // stubbed for testing
	unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
)

// FsStorage is a storage service that saves trace databases, and YAML
// metadata alongside them, on local disk.
// Implements StorageService
type FsStorage struct {
	*storageBase
	StoragePath string
	// Options applied to every session opened over a stored trace.
	options []sched.Option
}

// CreateFSStorage creates a new file system storage service that stores its files at storagePath
// and has an LRU cache of at most cacheSize open sessions.
func CreateFSStorage(storagePath string, cacheSize int, options ...sched.Option) (*FsStorage, error) {
	if len(storagePath) == 0 {
		return nil, missingFieldError("storage_path")
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to create storage directory %s: %s", storagePath, err)
	}
	sb, err := newStorageBase(cacheSize)
	if err != nil {
		return nil, err
	}
	return &FsStorage{
		storageBase: sb,
		StoragePath: storagePath,
		options:     options,
	}, nil
}

func (fs *FsStorage) tracePath(traceName string) string {
	return path.Join(fs.StoragePath, traceName+traceSuffix)
}

func (fs *FsStorage) metadataPath(traceName string) string {
	return path.Join(fs.StoragePath, traceName+metadataSuffix)
}

// generateUniqueName returns a new unique name suitable for traces.
func generateUniqueName(creator string, timeStamp int64) string {
	uid := uuid.New()
	// The format of generated unique names is
	// <UUID>_<timestamp>_<creator>.
	return fmt.Sprintf("%s_%x_%s", uid, timeStamp, unsafeChars.ReplaceAllString(creator, "_"))
}

func makeMetadata(req *models.CreateTraceRequest) models.Metadata {
	creationTime := req.CreationTime
	if creationTime == 0 {
		creationTime = timeNow().UnixNano()
	}
	return models.Metadata{
		TraceName:    generateUniqueName(req.Creator, creationTime),
		Creator:      req.Creator,
		Tags:         req.Tags,
		Description:  req.Description,
		CreationTime: creationTime,
		FileName:     req.FileName,
	}
}

// UploadFile stores the provided trace database and its metadata.  Files
// that aren't trace databases are rejected.
func (fs *FsStorage) UploadFile(ctx context.Context, req *models.CreateTraceRequest, file io.Reader) (string, error) {
	metadata := makeMetadata(req)
	tracePath := fs.tracePath(metadata.TraceName)
	if err := writeFile(tracePath, file); err != nil {
		return "", err
	}
	if err := checkTrace(ctx, tracePath); err != nil {
		if rmErr := os.Remove(tracePath); rmErr != nil {
			log.Warningf("Failed to remove rejected upload %s: %s", tracePath, rmErr)
		}
		return "", err
	}
	out, err := yaml.Marshal(&metadata)
	if err != nil {
		return "", status.Errorf(codes.Internal, "failed to encode metadata: %s", err)
	}
	if err := os.WriteFile(fs.metadataPath(metadata.TraceName), out, 0644); err != nil {
		return "", status.Errorf(codes.Internal, "failed to write metadata: %s", err)
	}
	log.Infof("Stored trace %s (%s)", metadata.TraceName, metadata.FileName)
	return metadata.TraceName, nil
}

func writeFile(filePath string, r io.Reader) error {
	f, err := os.Create(filePath)
	if err != nil {
		return status.Errorf(codes.Internal, "failed to create %s: %s", filePath, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return status.Errorf(codes.Internal, "failed to write %s: %s", filePath, err)
	}
	if err := f.Close(); err != nil {
		return status.Errorf(codes.Internal, "failed to write %s: %s", filePath, err)
	}
	return nil
}

// checkTrace verifies that the file at the provided path is a trace database
// with valid bounds.
func checkTrace(ctx context.Context, tracePath string) error {
	db, err := tpdb.Open(tracePath)
	if err != nil {
		return err
	}
	defer db.Close()
	bounds, err := db.Bounds(ctx)
	if err != nil {
		return status.Errorf(codes.InvalidArgument, "not a trace database: %s", err)
	}
	return bounds.Validate()
}

// DeleteTrace deletes the trace with the given name, closing any open session
// over it.
func (fs *FsStorage) DeleteTrace(_ context.Context, traceName string) error {
	if len(traceName) == 0 {
		return missingFieldError("trace_name")
	}
	fs.dropCollectionFromCache(traceName)
	if err := os.Remove(fs.tracePath(traceName)); err != nil {
		if os.IsNotExist(err) {
			return status.Errorf(codes.NotFound, "trace %s not found", traceName)
		}
		return status.Errorf(codes.Internal, "failed to delete trace %s: %s", traceName, err)
	}
	if err := os.Remove(fs.metadataPath(traceName)); err != nil && !os.IsNotExist(err) {
		return status.Errorf(codes.Internal, "failed to delete metadata for trace %s: %s", traceName, err)
	}
	return nil
}

// GetMetadata gets the metadata for the trace with the given name.
func (fs *FsStorage) GetMetadata(_ context.Context, traceName string) (models.Metadata, error) {
	if len(traceName) == 0 {
		return models.Metadata{}, missingFieldError("trace_name")
	}
	in, err := os.ReadFile(fs.metadataPath(traceName))
	if err != nil {
		if os.IsNotExist(err) {
			return models.Metadata{}, status.Errorf(codes.NotFound, "trace %s not found", traceName)
		}
		return models.Metadata{}, status.Errorf(codes.Internal, "failed to read metadata for trace %s: %s", traceName, err)
	}
	var metadata models.Metadata
	if err := yaml.Unmarshal(in, &metadata); err != nil {
		return models.Metadata{}, status.Errorf(codes.Internal, "malformed metadata for trace %s: %s", traceName, err)
	}
	return metadata, nil
}

// ListTraces gets the metadata for all traces, oldest first.
func (fs *FsStorage) ListTraces(ctx context.Context) ([]models.Metadata, error) {
	entries, err := os.ReadDir(fs.StoragePath)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list traces: %s", err)
	}
	// Force initialize as an empty, not nil, slice so that it serializes to
	// an empty JSON array.
	var ret = []models.Metadata{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), metadataSuffix) {
			continue
		}
		metadata, err := fs.GetMetadata(ctx, strings.TrimSuffix(entry.Name(), metadataSuffix))
		if err != nil {
			return nil, err
		}
		ret = append(ret, metadata)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].CreationTime != ret[j].CreationTime {
			return ret[i].CreationTime < ret[j].CreationTime
		}
		return ret[i].TraceName < ret[j].TraceName
	})
	return ret, nil
}

// GetCollection returns an analysis session over the stored trace with the
// given name.
func (fs *FsStorage) GetCollection(ctx context.Context, traceName string) (cc *CachedCollection, err error) {
	if len(traceName) == 0 {
		return nil, missingFieldError("trace_name")
	}
	cachedCollection, ok, err := fs.getCollectionFromCache(traceName, true /*= addCollection*/)
	if err != nil {
		return nil, err
	}
	if ok {
		if err := cachedCollection.wait(ctx); err != nil {
			return nil, err
		}
		return cachedCollection, nil
	}
	defer func() {
		cachedCollection.err = err
		cachedCollection.release()
		if err != nil {
			// Don't cache failures; a later request may succeed.
			fs.dropCollectionIfCached(traceName, cachedCollection)
		}
	}()
	metadata, err := fs.GetMetadata(ctx, traceName)
	if err != nil {
		return nil, err
	}
	collection, closer, err := openCollection(ctx, fs.tracePath(traceName), fs.options...)
	if err != nil {
		return nil, err
	}
	cachedCollection.Collection = collection
	cachedCollection.Metadata = metadata
	cachedCollection.closer = closer
	return cachedCollection, nil
}

// openCollection opens the trace database at the provided path and loads an
// analysis session over it.
var openCollection = func(ctx context.Context, tracePath string, options ...sched.Option) (*sched.Collection, io.Closer, error) {
	db, err := tpdb.Open(tracePath)
	if err != nil {
		return nil, nil, err
	}
	coll, err := sched.NewCollection(ctx, db, options...)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return coll, db, nil
}

func missingFieldError(fieldName string) error {
	return status.Errorf(codes.InvalidArgument, "missing required field %q", fieldName)
}
