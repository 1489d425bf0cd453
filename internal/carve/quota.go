// Copyright 2024 The xbox360-dumpcarve Authors. All rights reserved.
// Use of this source code is governed by an Apache v2 license
// that can be found in the LICENSE file.

package carve

import (
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
)

// claimSet is the atomic offset -> claim-bit map of §5: it guarantees
// at-most-one extraction task ever processes a given offset, even though
// the scan pass has already deduplicated matches by offset itself. A
// sync.Mutex-guarded map is simpler to reason about than a lock-free one
// at the scale this engine runs at (thousands, not millions, of
// candidates per dump) and costs nothing extractions don't already pay
// for in file I/O.
type claimSet struct {
	mu      sync.Mutex
	claimed map[int64]bool
}

func newClaimSet() *claimSet {
	return &claimSet{claimed: map[int64]bool{}}
}

// tryClaim returns true if offset was not already claimed, claiming it as
// a side effect.
func (c *claimSet) tryClaim(offset int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.claimed[offset] {
		return false
	}
	c.claimed[offset] = true
	return true
}

// quotaTracker enforces the per-file-type quota (default 10000, §4.7) with
// atomic counters, plus an optional global cap shared across all types
// (the CLI's --max-files).
type quotaTracker struct {
	perType   sync.Map // string -> *int64
	limit     int64
	global    int64
	globalCap int64 // 0 means unlimited
}

func newQuotaTracker(perTypeLimit int, globalCap int) *quotaTracker {
	if perTypeLimit <= 0 {
		perTypeLimit = defaultPerTypeQuota
	}
	return &quotaTracker{limit: int64(perTypeLimit), globalCap: int64(globalCap)}
}

// reserve claims one slot for fileType, returning false (without side
// effects) if either the per-type or the global quota is already
// exhausted.
func (q *quotaTracker) reserve(fileType string) bool {
	if q.globalCap > 0 && atomic.AddInt64(&q.global, 1) > q.globalCap {
		atomic.AddInt64(&q.global, -1)
		return false
	}
	counterAny, _ := q.perType.LoadOrStore(fileType, new(int64))
	counter := counterAny.(*int64)
	if atomic.AddInt64(counter, 1) > q.limit {
		atomic.AddInt64(counter, -1)
		if q.globalCap > 0 {
			atomic.AddInt64(&q.global, -1)
		}
		return false
	}
	return true
}

// release gives back a reserved slot after a WriteFailure (§7: the
// per-type counter is decremented so quotas stay accurate).
func (q *quotaTracker) release(fileType string) {
	if counterAny, ok := q.perType.Load(fileType); ok {
		atomic.AddInt64(counterAny.(*int64), -1)
	}
	if q.globalCap > 0 {
		atomic.AddInt64(&q.global, -1)
	}
}

// nameAllocator picks a collision-free output filename within one folder,
// appending a monotonic numeric suffix (§4.7 step 5) the first time a
// base name repeats.
type nameAllocator struct {
	mu   sync.Mutex
	used map[string]int // folder/basename -> next suffix to try
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{used: map[string]int{}}
}

func (n *nameAllocator) allocate(folder, base, ext string) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := filepath.Join(folder, base) + ext
	seen, exists := n.used[key]
	if !exists {
		n.used[key] = 1
		return base + ext
	}
	name := fmt.Sprintf("%s_%d%s", base, seen, ext)
	n.used[key] = seen + 1
	return name
}
