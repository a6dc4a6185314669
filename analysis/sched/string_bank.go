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
// Package sched serves scheduler analyses over a single loaded trace: CPU
// frequency and idle residencies, frequency domains, per-thread state
// summaries, CPU run residencies, and sched-analyzer counter tracks.
package sched

import (
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// stringID identifies a unique string in a stringBank.
type stringID int

// A string describing unknown thread and process names.
const unknownString = "<unknown>"

// stringBank interns often-repeated strings, such as the thread names on
// every thread_state row, giving each unique string an ID.  It is safe for
// concurrent lookup and insertion.
type stringBank struct {
	strings []string
	ids     map[string]stringID
	mutex   sync.RWMutex
}

func newStringBank() *stringBank {
	return &stringBank{
		ids: make(map[string]stringID),
	}
}

// stringByID returns the string with the provided ID, or an error if there
// is none.
func (sb *stringBank) stringByID(id stringID) (string, error) {
	sb.mutex.RLock()
	defer sb.mutex.RUnlock()
	if id < 0 || int(id) >= len(sb.strings) {
		return "", status.Errorf(codes.NotFound, "string %d not found", id)
	}
	return sb.strings[id], nil
}

// stringIDByString returns the ID of the provided string, interning it if
// necessary.
func (sb *stringBank) stringIDByString(str string) stringID {
	sb.mutex.RLock()
	id, ok := sb.ids[str]
	sb.mutex.RUnlock()
	if ok {
		return id
	}
	sb.mutex.Lock()
	defer sb.mutex.Unlock()
	// Another writer may have interned it while we waited.
	if id, ok := sb.ids[str]; ok {
		return id
	}
	id = stringID(len(sb.strings))
	sb.strings = append(sb.strings, str)
	sb.ids[str] = id
	return id
}

// len returns the number of interned strings.
func (sb *stringBank) len() int {
	sb.mutex.RLock()
	defer sb.mutex.RUnlock()
	return len(sb.strings)
}
