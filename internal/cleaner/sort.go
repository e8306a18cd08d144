// Package cleaner implements the buffer cleaner strategies (component F):
// sorting a filled sort buffer and appending it to a tape collection as a
// new run, either in the caller's own goroutine (Sequential) or via a
// double-buffered worker goroutine (Threaded).
package cleaner

import (
	"runtime"
	"slices"
	"sync"

	"github.com/csvquery/extsort/internal/merge"
	"github.com/csvquery/extsort/internal/order"
	"github.com/csvquery/extsort/internal/run"
)

// SortFunc sorts buf in place under cmp.
type SortFunc[T any] func(buf []T, cmp order.Comparator[T])

// DefaultSort sorts buf with the stdlib's pattern-defeating quicksort
// (slices.SortFunc).
func DefaultSort[T any](buf []T, cmp order.Comparator[T]) {
	slices.SortFunc(buf, func(a, b T) int {
		return cmp.Compare(&a, &b)
	})
}

// ParallelSort sorts buf by splitting it into GOMAXPROCS chunks, sorting
// each concurrently, then k-way merging the sorted chunks back together
// in memory with the same loser tree the disk-merge phase uses. This
// stands in for a work-stealing parallel sort: no dependency in the
// retrieved corpus offers one, so the merge machinery this repository
// already builds is reused instead.
func ParallelSort[T any](buf []T, cmp order.Comparator[T]) {
	n := len(buf)
	if n < 2 {
		return
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	if workers == 1 {
		DefaultSort(buf, cmp)
		return
	}

	chunkSize := (n + workers - 1) / workers
	var chunks [][]T
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		chunk := buf[start:end]
		chunks = append(chunks, chunk)
		wg.Add(1)
		go func(c []T) {
			defer wg.Done()
			DefaultSort(c, cmp)
		}(chunk)
	}
	wg.Wait()

	if len(chunks) <= 1 {
		return
	}

	runs := make([]run.Run[T], len(chunks))
	for i, c := range chunks {
		cp := make([]T, len(c))
		copy(cp, c)
		runs[i] = run.NewBufRun(cp)
	}

	merged := merge.NewLoserTree(runs, cmp)
	for i := 0; i < n; i++ {
		v, ok := merged.Next()
		if !ok {
			break
		}
		buf[i] = v
	}
}
