package extsort

import "github.com/csvquery/extsort/internal/merge"

// ResultIterator is the lazy, ordered output of a Sort or SortParallel
// call. Close must be called (typically via defer) once consumption is
// done, whether the sequence was exhausted or abandoned early, to
// release any tapes still open.
type ResultIterator[T any] struct {
	tree *merge.LoserTree[T]
}

// Next returns the next element in sorted order, or the zero value and
// false once the sequence is exhausted.
func (r *ResultIterator[T]) Next() (T, bool) {
	return r.tree.Next()
}

// Remaining reports how many elements have not yet been yielded.
func (r *ResultIterator[T]) Remaining() int {
	return r.tree.Remaining()
}

// Close releases every remaining tape's backing resources.
func (r *ResultIterator[T]) Close() error {
	return r.tree.Close()
}
