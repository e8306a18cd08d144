package extsort

import (
	"github.com/csvquery/extsort/internal/cleaner"
	"github.com/csvquery/extsort/internal/merge"
	"github.com/csvquery/extsort/internal/recordio"
	"github.com/csvquery/extsort/internal/run"
)

// Sort consumes source (a pull function returning the next element and
// whether one was available) exhaustively, sorting it under cmp with a
// bounded-memory buffer, spilling to disk as needed, and returning a
// lazy ordered result. The caller must Close the result.
func Sort[T any](source func() (T, bool), cmp Comparator[T], cfg Config) (*ResultIterator[T], error) {
	cfg = cfg.withDefaults()
	bufCap := cfg.numItems(recordio.Size[T]())
	handle := cleaner.NewSequential[T](cfg.TempFileFolder, cfg.MaxFiles, cfg.CompressWith, cmp, cleaner.DefaultSort[T], bufCap)
	return runSort(source, cmp, handle, cleaner.DefaultSort[T], bufCap)
}

// SortParallel behaves like Sort, but sorts and spills buffers on a
// separate worker goroutine while the caller's goroutine keeps filling
// the next one (double buffering), and sorts each in-flight buffer in
// parallel across GOMAXPROCS chunks.
func SortParallel[T any](source func() (T, bool), cmp Comparator[T], cfg Config) (*ResultIterator[T], error) {
	cfg = cfg.withDefaults()
	bufCap := cfg.numItems(recordio.Size[T]())
	handle := cleaner.NewThreaded[T](cfg.TempFileFolder, cfg.MaxFiles, cfg.CompressWith, cmp, cleaner.ParallelSort[T], bufCap)
	return runSort(source, cmp, handle, cleaner.ParallelSort[T], bufCap)
}

// runSort drives the shared fill/spill/finalize loop over a cleaner
// handle, regardless of which strategy it implements.
func runSort[T any](source func() (T, bool), cmp Comparator[T], handle cleaner.Handle[T], sortFn cleaner.SortFunc[T], bufCap int) (*ResultIterator[T], error) {
	// A zero-sized element occupies no buffer memory, so the buffer never
	// counts as full: the whole input lands in the fast path and no disk
	// I/O happens regardless of the element count.
	zeroSized := recordio.Size[T]() == 0

	buf := handle.GetBuffer()
	spilled := false

	for {
		exhausted := false
		for zeroSized || len(buf) < cap(buf) {
			v, ok := source()
			if !ok {
				exhausted = true
				break
			}
			buf = append(buf, v)
		}
		if exhausted {
			break
		}

		if err := handle.CleanBuffer(&buf); err != nil {
			handle.Discard()
			return nil, err
		}
		spilled = true
	}

	if !spilled {
		sortFn(buf, cmp)
		handle.Discard()
		tapes := []run.Run[T]{run.NewBufRun(buf)}
		return &ResultIterator[T]{tree: merge.NewLoserTree(tapes, cmp)}, nil
	}

	if len(buf) > 0 {
		if err := handle.CleanBuffer(&buf); err != nil {
			handle.Discard()
			return nil, err
		}
	}

	tapes, err := handle.Finalize(bufCap)
	if err != nil {
		return nil, err
	}
	return &ResultIterator[T]{tree: merge.NewLoserTree(tapes, cmp)}, nil
}
