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
// Package storageservice contains services for storing trace databases and
// the analysis sessions opened over them.
package storageservice

import (
	"context"
	"io"
	"sync"

	log "github.com/golang/glog"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/prometheus/client_golang/prometheus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/qais-yousef/sched-analyzer/analysis/sched"
	"github.com/qais-yousef/sched-analyzer/server/models"
)

// SessionsInCache counts the analysis sessions currently held open.
var SessionsInCache = prometheus.NewGauge(prometheus.GaugeOpts{
	Namespace: "sched_analyzer",
	Name:      "sessions_in_cache",
	Help:      "Trace analysis sessions held open in the session cache.",
})

func init() {
	prometheus.DefaultRegisterer.MustRegister(SessionsInCache)
}

// CachedCollection is an analysis session and its metadata that is stored in
// the LRU cache.
type CachedCollection struct {
	Collection *sched.Collection
	Metadata   models.Metadata
	// closer releases the session's underlying trace.
	closer io.Closer
	// ready blocks until the collection is ready to be read.
	ready chan struct{}
	// Any error encountered while creating the collection.
	err error
}

func newCachedCollection() *CachedCollection {
	return &CachedCollection{
		ready: make(chan struct{}),
	}
}

// wait blocks until release() has been called on the receiver.  At that point,
// the receiver should no longer be modified.  Returns the CachedCollection's
// error, if returning because release was called, or the context's error, if
// the context was cancelled.
func (cc *CachedCollection) wait(ctx context.Context) error {
	select {
	case <-cc.ready:
		return cc.err
	case <-ctx.Done():
		return status.FromContextError(ctx.Err()).Err()
	}
}

// release unblocks any outstanding or future wait calls on the receiver.  It
// should only be called when the receiver is fully populated and will no
// longer be modified.
func (cc *CachedCollection) release() {
	close(cc.ready)
}

// close waits for the receiver to be populated, then closes its session and
// trace.
func (cc *CachedCollection) close() {
	<-cc.ready
	if cc.Collection != nil {
		cc.Collection.Close()
	}
	if cc.closer != nil {
		if err := cc.closer.Close(); err != nil {
			log.Warningf("Failed to close trace %s: %s", cc.Metadata.TraceName, err)
		}
	}
}

type storageBase struct {
	lruCache *simplelru.LRU
	mu       sync.Mutex
}

func newStorageBase(cacheSize int) (*storageBase, error) {
	if cacheSize <= 0 {
		return nil, status.Errorf(codes.InvalidArgument, "session cache size must be positive, got %d", cacheSize)
	}
	lru, err := simplelru.NewLRU(cacheSize, onEvict)
	if err != nil {
		return nil, err
	}
	return &storageBase{
		lruCache: lru,
	}, nil
}

// onEvict closes sessions dropped from the cache.  Sessions still being
// populated are closed once ready.
func onEvict(key, value interface{}) {
	SessionsInCache.Dec()
	cc, ok := value.(*CachedCollection)
	if !ok {
		return
	}
	log.Infof("Closing trace session %v", key)
	go cc.close()
}

// addToCache must only be called when sb.mu is held.
var addToCache = func(sb *storageBase, traceName string, collection *CachedCollection) {
	sb.lruCache.Add(traceName, collection)
	SessionsInCache.Inc()
}

func (sb *storageBase) dropCollectionFromCache(traceName string) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	sb.lruCache.Remove(traceName)
}

// dropCollectionIfCached removes the named entry only if it still holds the
// provided collection.  An entry evicted and re-added by another request is
// left alone.
func (sb *storageBase) dropCollectionIfCached(traceName string, collection *CachedCollection) {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	if cachedValue, ok := sb.lruCache.Peek(traceName); ok && cachedValue == collection {
		sb.lruCache.Remove(traceName)
	}
}

// cacheLen returns the number of sessions in the cache.
func (sb *storageBase) cacheLen() int {
	sb.mu.Lock()
	defer sb.mu.Unlock()
	return sb.lruCache.Len()
}

// getCollectionFromCache returns the named collection, if it is stored in the
// cache.  It also returns a bool signifying whether the collection was in the
// cache at the start of the call.
// If addCollection is true, a new, empty, CachedCollection will be placed in
// the cache under the provided name.  Note that if this occurs, the returned
// bool will still be false, though the returned CachedCollection will be in
// the cache.  release() should be called on the returned CachedCollection when
// it will no longer be modified.
func (sb *storageBase) getCollectionFromCache(traceName string, addCollection bool) (*CachedCollection, bool, error) {
	sb.mu.Lock()
	cachedValue, ok := sb.lruCache.Get(traceName)
	if !ok && addCollection {
		defer sb.mu.Unlock()
		cachedCollection := newCachedCollection()
		addToCache(sb, traceName, cachedCollection)
		return cachedCollection, false, nil
	}
	sb.mu.Unlock()
	var cachedCollection *CachedCollection
	if ok {
		cachedCollection, ok = cachedValue.(*CachedCollection)
		if !ok {
			return nil, false, status.Error(codes.Internal, "unknown type stored in session cache")
		}
	}
	return cachedCollection, ok, nil
}

// StorageService is an interface containing the APIs that storage services expose
type StorageService interface {
	// UploadFile stores the provided trace database, returning its unique
	// trace name.
	UploadFile(ctx context.Context, req *models.CreateTraceRequest, file io.Reader) (string, error)
	DeleteTrace(ctx context.Context, traceName string) error
	ListTraces(ctx context.Context) ([]models.Metadata, error)
	GetMetadata(ctx context.Context, traceName string) (models.Metadata, error)
	// GetCollection returns an analysis session over the specified trace, or
	// any error encountered procuring it.  If the session exists in the cache,
	// the cached version will be returned, otherwise, it will be created and
	// added to the cache before being returned.
	// Implementations should use CachedCollection's synchronization properties:
	//  * When adding a new session to the cache, implementors should call
	//    release() on the CachedCollection after populating it and before
	//    returning.  If any error is encountered while populating the
	//    CachedCollection, its err field should be set accordingly.
	//  * When finding a CachedCollection already in the cache, implementors
	//    should call wait() on that CachedCollection before returning it.
	GetCollection(ctx context.Context, traceName string) (*CachedCollection, error)
}
