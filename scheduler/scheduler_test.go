package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cdnmirror/mirrorctl/manifest"
	"github.com/cdnmirror/mirrorctl/scheduler"
)

func records(n int) []manifest.AssetRecord {
	out := make([]manifest.AssetRecord, n)
	for i := range out {
		out[i] = manifest.AssetRecord{Name: string(rune('a' + i))}
	}
	return out
}

func TestRunAttemptsEveryRecordExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]int{}

	err := scheduler.Run(context.Background(), records(10), 3, func(_ context.Context, r manifest.AssetRecord) error {
		mu.Lock()
		seen[r.Name]++
		mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 10 {
		t.Fatalf("got %d distinct records processed, want 10", len(seen))
	}
	for name, count := range seen {
		if count != 1 {
			t.Fatalf("record %q processed %d times, want 1", name, count)
		}
	}
}

func TestRunNeverExceedsConcurrencyCap(t *testing.T) {
	const cap = 2
	var current, max int64

	err := scheduler.Run(context.Background(), records(10), cap, func(_ context.Context, _ manifest.AssetRecord) error {
		n := atomic.AddInt64(&current, 1)
		for {
			old := atomic.LoadInt64(&max)
			if n <= old || atomic.CompareAndSwapInt64(&max, old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt64(&current, -1)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if max > cap {
		t.Fatalf("observed %d concurrent jobs, want at most %d", max, cap)
	}
}

func TestRunReturnsFirstErrorAndAwaitsInFlightJobs(t *testing.T) {
	var completed int64
	boom := errors.New("boom")

	err := scheduler.Run(context.Background(), records(5), 5, func(_ context.Context, r manifest.AssetRecord) error {
		defer atomic.AddInt64(&completed, 1)
		if r.Name == "a" {
			return boom
		}
		time.Sleep(time.Millisecond)
		return nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("got error %v, want %v", err, boom)
	}
	if atomic.LoadInt64(&completed) != 5 {
		t.Fatalf("got %d completed jobs, want all 5 to have been awaited", completed)
	}
}
