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
	"sync"
	"testing"
)

func TestStringBank(t *testing.T) {
	names := []string{"kworker/0:1", "rampup", "rampup", "surfaceflinger", "ελληνικά"}
	sb := newStringBank()
	ids := map[string]stringID{}
	for _, name := range names {
		id := sb.stringIDByString(name)
		if prev, ok := ids[name]; ok && prev != id {
			t.Errorf("stringIDByString(%q) = %d, previously %d", name, id, prev)
		}
		ids[name] = id
	}
	if sb.len() != 4 {
		t.Errorf("len() = %d, want 4", sb.len())
	}
	for name, id := range ids {
		got, err := sb.stringByID(id)
		if err != nil || got != name {
			t.Errorf("stringByID(%d) = %q, %v, want %q", id, got, err, name)
		}
	}
	if got, err := sb.stringByID(stringID(len(ids))); err == nil {
		t.Errorf("stringByID(%d) = %q, but should have been absent", len(ids), got)
	}
}

func TestStringBankConcurrentInsertion(t *testing.T) {
	sb := newStringBank()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, name := range []string{"a", "b", "c"} {
				sb.stringIDByString(name)
			}
		}()
	}
	wg.Wait()
	if sb.len() != 3 {
		t.Errorf("len() = %d after concurrent insertion, want 3", sb.len())
	}
}
