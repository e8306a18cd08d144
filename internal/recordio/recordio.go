// Package recordio reinterprets slices of a generic element type as their
// raw byte image: a zero-copy cast over an arbitrary element size via
// unsafe.Slice.
package recordio

import "unsafe"

// Size returns the in-memory size of one T, in bytes. Zero for zero-sized
// types (e.g. struct{}).
func Size[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// AsBytes reinterprets s as its raw byte image with no copy. The returned
// slice aliases s's backing array and is only valid as long as s is not
// reallocated; it must not be retained past the call that produced it.
//
// Elements containing out-of-line references (pointers, slices, maps,
// strings) are not supported: only the inlined bytes of T are captured,
// so a T that owns heap allocations will serialize a nonsense byte image.
func AsBytes[T any](s []T) []byte {
	sz := Size[T]()
	if len(s) == 0 || sz == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*sz)
}
