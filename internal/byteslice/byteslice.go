// SPDX-License-Identifier: Unlicense OR MIT

// Package byteslice provides byte views of typed slices for uploading
// to GPU buffers.
package byteslice

import (
	"unsafe"
)

// Slice returns a byte view of the backing array of s. The view aliases
// s and is only valid as long as s is.
func Slice[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	n := len(s) * int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n)
}

// GoString converts a NUL-terminated C string to a Go string.
func GoString(s []byte) string {
	for i, v := range s {
		if v == 0 {
			return string(s[:i])
		}
	}
	return string(s)
}
