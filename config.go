// Package extsort provides out-of-core sorting for a lazy input sequence
// too large to hold in memory but small enough to spill to local disk.
// Input is pulled from a source function until exhausted; the result is
// a lazy, ordered ResultIterator with an accurate remaining-length hint.
package extsort

import (
	"cmp"
	"os"

	"github.com/csvquery/extsort/internal/order"
	"github.com/csvquery/extsort/internal/tape"
)

// Codec selects the streaming compression applied to a tape's payload.
type Codec = tape.Codec

const (
	CodecNone   = tape.CodecNone
	CodecLZ4    = tape.CodecLZ4
	CodecSnappy = tape.CodecSnappy
)

// Comparator is a strict weak order over *T, used to sort runs and drive
// the merge.
type Comparator[T any] = order.Comparator[T]

// ByOrdered builds a Comparator from T's native order.
func ByOrdered[T cmp.Ordered]() Comparator[T] {
	return order.ByOrdered[T]()
}

// ByFunc builds a Comparator from a caller-supplied binary function.
func ByFunc[T any](cmpFn func(a, b *T) int) Comparator[T] {
	return order.ByFunc(cmpFn)
}

// ByKey builds a Comparator that orders by an extracted, natively ordered
// key.
func ByKey[T any, K cmp.Ordered](keyOf func(*T) K) Comparator[T] {
	return order.ByKey[T, K](keyOf)
}

const defaultSortBufferSizeBytes = 10 * 1024 * 1024
const defaultMaxFiles = 256

// Config is the budget and policy record consumed by Sort/SortParallel.
// There is no ambient or global configuration: every knob lives here.
type Config struct {
	// SortBufferSizeBytes bounds the in-memory sort buffer. Default 10 MiB.
	SortBufferSizeBytes int
	// TempFileFolder is where spill files are created. Default os.TempDir().
	TempFileFolder string
	// CompressWith selects the tape payload codec. Default CodecNone.
	CompressWith Codec
	// MaxFiles caps the number of exclusive temp files before additional
	// runs are packed into shared segment files. Default 256.
	MaxFiles int
}

func (c Config) withDefaults() Config {
	if c.SortBufferSizeBytes <= 0 {
		c.SortBufferSizeBytes = defaultSortBufferSizeBytes
	}
	if c.TempFileFolder == "" {
		c.TempFileFolder = os.TempDir()
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = defaultMaxFiles
	}
	return c
}

// numItems returns the sort buffer's capacity in elements for a type of
// the given itemSize in bytes, clamped to at least 1.
func (c Config) numItems(itemSize int) int {
	if itemSize <= 0 {
		return 1
	}
	n := c.SortBufferSizeBytes / itemSize
	if n < 1 {
		n = 1
	}
	return n
}
