package inblock

import "unsafe"

// This file is the only place that reinterprets arena bytes. Everything else
// works on offsets into the buffer.

func baseAddr(buf []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}

func sizeOf[T any]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// sliceAt views n elements of T starting at buf[off].
func sliceAt[T any](buf []byte, off, n int) []T {
	return unsafe.Slice((*T)(unsafe.Pointer(&buf[off])), n)
}

// offsetOf returns the offset of s's first element within buf.
func offsetOf[T any](buf []byte, s []T) (int, bool) {
	p := uintptr(unsafe.Pointer(unsafe.SliceData(s)))
	base := baseAddr(buf)
	if p < base || p >= base+uintptr(len(buf)) {
		return 0, false
	}
	return int(p - base), true
}
