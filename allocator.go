package inblock

import (
	"math"

	"github.com/pkg/errors"
)

// Allocator hands out storage for slices of T drawn from an Arena. Several
// allocators, of any element types, may be bound to one arena; they share
// its chunks.
//
// T must not contain Go pointers: the arena buffer is plain bytes and the
// garbage collector does not scan it.
type Allocator[T any] struct {
	arena    *Arena
	elemSize int
	released bool
}

// NewAllocator binds a new allocator to a.
func NewAllocator[T any](a *Arena) *Allocator[T] {
	a.bind()
	return &Allocator[T]{arena: a, elemSize: sizeOf[T]()}
}

// Arena returns the arena the allocator draws from.
func (al *Allocator[T]) Arena() *Arena {
	return al.arena
}

// Allocate returns storage for n elements. The contents are whatever the
// arena bytes held before; use AllocateZeroed for cleared storage.
// Returns nil, nil if n <= 0, and an error wrapping ErrOutOfMemory if no
// chunk can be assembled.
func (al *Allocator[T]) Allocate(n int) ([]T, error) {
	if n <= 0 {
		return nil, nil
	}
	al.panicIfReleased()
	bytes, err := al.bytesFor(n)
	if err != nil {
		return nil, err
	}
	c, err := al.arena.heap.allocate(bytes)
	if err != nil {
		return nil, err
	}
	return sliceAt[T](al.arena.buf, payloadOffset(c), n), nil
}

// AllocateZeroed is Allocate with the storage cleared to zero values.
func (al *Allocator[T]) AllocateZeroed(n int) ([]T, error) {
	s, err := al.Allocate(n)
	if err != nil {
		return nil, err
	}
	clear(s)
	return s, nil
}

// Deallocate returns s to the arena. n must be the count s was allocated
// with. s must be a slice returned by Allocate: a foreign slice is rejected,
// but a slice into the middle of an allocation is only caught when the bytes
// in front of it do not look like a chunk header.
func (al *Allocator[T]) Deallocate(s []T, n int) error {
	if n <= 0 || cap(s) == 0 {
		return nil
	}
	al.panicIfReleased()
	if al.elemSize > 0 && n > (math.MaxInt-Alignment)/al.elemSize {
		return errors.Wrapf(ErrSizeMismatch, "%d elements of %d bytes", n, al.elemSize)
	}
	bytes := n * al.elemSize
	off, ok := offsetOf(al.arena.buf, s[:1])
	if !ok {
		return errors.Wrap(ErrInvalidPointer, "slice outside arena buffer")
	}
	return al.arena.heap.free(off, bytes)
}

// Release unbinds the allocator from its arena. Memory it handed out stays
// allocated.
func (al *Allocator[T]) Release() {
	if al.released {
		return
	}
	al.released = true
	al.arena.unbind()
}

func (al *Allocator[T]) bytesFor(n int) (int, error) {
	if al.elemSize > 0 && n > (math.MaxInt-Alignment)/al.elemSize {
		return 0, errors.Wrapf(ErrOutOfMemory, "%d elements of %d bytes", n, al.elemSize)
	}
	return n * al.elemSize, nil
}

func (al *Allocator[T]) panicIfReleased() {
	if al.released {
		panic("inblock: allocator used after Release()")
	}
	al.arena.panicIfReleased()
}
