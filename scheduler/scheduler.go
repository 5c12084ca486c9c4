// Package scheduler implements the bounded-concurrency fetch scheduler
// (spec §4.6): for a single version's asset list, dispatch up to P jobs in
// parallel, back-pressured by a semaphore rather than the teacher's
// bespoke workQueue[T,U] channel pool - this scheduler drains one finite,
// known-size batch per call rather than serving a long-lived background
// queue, so an acquire/release semaphore is the better fit.
package scheduler

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/cdnmirror/mirrorctl/manifest"
)

// Job processes a single asset record. A non-nil error is the record's
// terminal outcome for this invocation.
type Job func(ctx context.Context, record manifest.AssetRecord) error

// Run dispatches one job per record, never exceeding parallelism
// concurrently outstanding, and returns once every dispatched job has
// finished; without errors, that is every record. On the first job error
// (or a cancelled ctx while waiting for a slot), Run stops acquiring new
// slots, so records not yet dispatched are never attempted, but lets
// already-dispatched jobs finish before returning (spec §4.6: "aborts the remaining in-flight jobs... not
// cancelled mid-transfer"); the first error observed is returned.
func Run(ctx context.Context, records []manifest.AssetRecord, parallelism int64, job Job) error {
	if parallelism < 1 {
		parallelism = 1
	}
	sem := semaphore.NewWeighted(parallelism)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		aborted  bool
	)

	for _, record := range records {
		mu.Lock()
		stop := aborted
		mu.Unlock()
		if stop {
			break
		}

		if err := sem.Acquire(ctx, 1); err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
			break
		}

		wg.Add(1)
		go func(record manifest.AssetRecord) {
			defer wg.Done()
			defer sem.Release(1)

			err := job(ctx, record)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				aborted = true
				mu.Unlock()
			}
		}(record)
	}

	wg.Wait()
	return firstErr
}
