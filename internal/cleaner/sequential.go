package cleaner

import (
	"github.com/csvquery/extsort/internal/order"
	"github.com/csvquery/extsort/internal/run"
	"github.com/csvquery/extsort/internal/tape"
)

// Handle is what the sort driver talks to: sort-and-spill a filled
// buffer, hand out fresh buffers, and finalize into the runs the merger
// will consume.
type Handle[T any] interface {
	CleanBuffer(buf *[]T) error
	GetBuffer() []T
	Finalize(readBudget int) ([]run.Run[T], error)
	// Discard abandons the sort without finalizing, closing every tape
	// spilled so far. Exactly one of Finalize or Discard must be called.
	Discard()
}

// Sequential sorts and spills a buffer in the caller's own goroutine:
// no concurrency, no double buffering.
type Sequential[T any] struct {
	tapes  *tape.Collection[T]
	cmp    order.Comparator[T]
	sortFn SortFunc[T]
	bufCap int
}

// NewSequential builds a Sequential cleaner spilling into tempDir, capped
// at maxFiles exclusive files and compressed with codec.
func NewSequential[T any](tempDir string, maxFiles int, codec tape.Codec, cmp order.Comparator[T], sortFn SortFunc[T], bufCap int) *Sequential[T] {
	return &Sequential[T]{
		tapes:  tape.NewCollection[T](tempDir, maxFiles, codec),
		cmp:    cmp,
		sortFn: sortFn,
		bufCap: bufCap,
	}
}

func (s *Sequential[T]) CleanBuffer(buf *[]T) error {
	s.sortFn(*buf, s.cmp)
	return s.tapes.AddRun(buf)
}

func (s *Sequential[T]) GetBuffer() []T {
	return make([]T, 0, s.bufCap)
}

func (s *Sequential[T]) Finalize(readBudget int) ([]run.Run[T], error) {
	return s.tapes.IntoRuns(readBudget)
}

func (s *Sequential[T]) Discard() {
	s.tapes.Discard()
}
