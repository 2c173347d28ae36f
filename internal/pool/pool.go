// Package pool dispatches independent work items across a fixed number of
// workers. Items are split into contiguous chunks so the concatenated
// result preserves the original order regardless of completion time.
package pool

import (
	"context"
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Task processes one contiguous chunk of work items and returns its
// results in item order.
type Task[T, R any] func(ctx context.Context, chunk []T) ([]R, error)

// Dispatch partitions items into at most workers contiguous, near-equal
// chunks (the last chunk absorbs the remainder), runs each chunk in its
// own worker and returns the concatenation of per-chunk results in chunk
// order.
//
// All workers are joined before Dispatch returns. On failure the first
// error is returned and no partial results are surfaced; the shared
// context is cancelled so cooperative tasks and not-yet-started work can
// stop early. Worker panics are captured with their stack trace and
// reported as errors.
func Dispatch[T, R any](ctx context.Context, items []T, workers int, task Task[T, R]) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	per := len(items) / workers
	chunks := make([][]T, workers)
	for i := 0; i < workers; i++ {
		if i < workers-1 {
			chunks[i] = items[i*per : (i+1)*per]
		} else {
			chunks[i] = items[i*per:]
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	results := make([][]R, workers)
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(i int, chunk []T) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					fail(fmt.Errorf("worker %d: panic: %v\n%s", i, p, debug.Stack()))
				}
			}()
			if ctx.Err() != nil {
				// Aborted before this worker started; the failure is
				// already recorded elsewhere.
				return
			}
			out, err := task(ctx, chunk)
			if err != nil {
				fail(fmt.Errorf("worker %d: %w", i, err))
				return
			}
			results[i] = out
		}(i, chunk)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []R
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}
