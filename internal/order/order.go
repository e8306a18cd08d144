// Package order provides the comparator abstraction the sort engine uses
// to order elements: a pure int-returning comparison, matching the
// convention of stdlib cmp.Compare and bytes.Compare.
package order

import "cmp"

// Comparator is a strict weak order over *T. Compare returns a negative
// number if a < b, zero if a == b, and a positive number if a > b.
type Comparator[T any] struct {
	compare func(a, b *T) int
}

// Compare applies the comparator to a and b.
func (c Comparator[T]) Compare(a, b *T) int {
	return c.compare(a, b)
}

// ByOrdered builds a Comparator from T's native order.
func ByOrdered[T cmp.Ordered]() Comparator[T] {
	return Comparator[T]{compare: func(a, b *T) int {
		return cmp.Compare(*a, *b)
	}}
}

// ByFunc builds a Comparator from a caller-supplied binary function.
func ByFunc[T any](cmpFn func(a, b *T) int) Comparator[T] {
	return Comparator[T]{compare: cmpFn}
}

// ByKey builds a Comparator that orders by an extracted, natively ordered
// key.
func ByKey[T any, K cmp.Ordered](keyOf func(*T) K) Comparator[T] {
	return Comparator[T]{compare: func(a, b *T) int {
		return cmp.Compare(keyOf(a), keyOf(b))
	}}
}
