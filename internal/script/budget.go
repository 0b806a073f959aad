// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"context"
	"errors"
	"runtime/metrics"
	"time"
)

// DefaultMaxAlloc bounds heap allocation during one script execution.
// Concatenation is not metered by the VM, so a doubling loop would
// otherwise grow until the watchdog fires.
const DefaultMaxAlloc = 32 << 20

const allocPoll = time.Millisecond

var errAllocBudget = errors.New("script exceeded its memory budget")

// heapAllocs is the process-wide cumulative heap allocation counter.
func heapAllocs(sample []metrics.Sample) uint64 {
	metrics.Read(sample)
	if sample[0].Value.Kind() != metrics.KindUint64 {
		return 0
	}
	return sample[0].Value.Uint64()
}

// watchAllocs aborts the run with errAllocBudget once more than limit bytes
// have been allocated since it started. It returns when ctx is done. The
// counter is process-wide, so limit is set well above what the server
// allocates concurrently in one execution window.
func watchAllocs(ctx context.Context, abort context.CancelCauseFunc, limit uint64) {
	sample := []metrics.Sample{{Name: "/gc/heap/allocs:bytes"}}
	base := heapAllocs(sample)
	t := time.NewTicker(allocPoll)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if heapAllocs(sample)-base > limit {
				abort(errAllocBudget)
				return
			}
		}
	}
}
