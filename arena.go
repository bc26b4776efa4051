package inblock

import (
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"
)

// Alignment is the byte boundary of every chunk and every payload.
const Alignment = 8

// Arena describes the aligned byte range an allocator manages together with
// the chunk bookkeeping stored inside it. Every Allocator bound to the same
// Arena shares that bookkeeping.
//
// Arena is not goroutine-safe. Use SafeAllocator when allocators bound to
// one arena run on several goroutines.
type Arena struct {
	mu         sync.Mutex
	buf        []byte
	start, end int
	opts       options
	heap       *heap
	allocators int
}

// Bind carves buf into chunks and returns the arena managing it. The start
// of buf is aligned up and its end aligned down to Alignment; Bind fails
// with ErrArenaTooSmall if what is left cannot hold one minimal chunk.
//
// The caller must not touch buf directly while the arena is in use.
func Bind(buf []byte, opts ...Option) (*Arena, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	base := baseAddr(buf)
	start := int(alignUp(base, Alignment) - base)
	end := int(alignDown(base+uintptr(len(buf)), Alignment) - base)
	if len(buf) == 0 || end-start < MinChunkSize {
		return nil, errors.Wrapf(ErrArenaTooSmall, "%d bytes, need at least %d aligned", len(buf), MinChunkSize)
	}

	a := &Arena{buf: buf, start: start, end: end, opts: o}
	a.heap = newHeap(memory(buf), start, end, &a.opts)
	o.logger.Debug("Bound arena", "size", end-start, "covered", a.heap.end-a.heap.start,
		"coalescing", o.coalescing.Name())
	return a, nil
}

// Start returns the offset of the first aligned byte of the buffer.
func (a *Arena) Start() int { return a.start }

// End returns the offset just past the last aligned byte of the buffer.
func (a *Arena) End() int { return a.end }

// Size returns End() - Start().
func (a *Arena) Size() int { return a.end - a.start }

// Allocators returns the number of allocators currently bound to a.
func (a *Arena) Allocators() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocators
}

func (a *Arena) bind() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panicIfReleased()
	a.allocators++
}

func (a *Arena) unbind() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.allocators > 0 {
		a.allocators--
	}
}

// AllocBytes returns n bytes from the arena. The slice aliases the arena
// buffer and stays valid until it is passed to FreeBytes.
// Returns nil, nil if n <= 0.
func (a *Arena) AllocBytes(n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	a.panicIfReleased()
	c, err := a.heap.allocate(n)
	if err != nil {
		return nil, err
	}
	return a.buf[payloadOffset(c) : payloadOffset(c)+n : payloadOffset(c)+n], nil
}

// FreeBytes returns b, obtained from AllocBytes(n), to the arena.
func (a *Arena) FreeBytes(b []byte, n int) error {
	if len(b) == 0 {
		return nil
	}
	a.panicIfReleased()
	off, ok := offsetOf(a.buf, b)
	if !ok {
		return errors.Wrap(ErrInvalidPointer, "slice outside arena buffer")
	}
	return a.heap.free(off, n)
}

// Reset discards every allocation and carves the arena again as Bind did.
// Slices handed out before Reset must no longer be used. Reset takes the
// arena lock, so it is safe against concurrent SafeAllocator calls.
func (a *Arena) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.panicIfReleased()
	a.heap = newHeap(memory(a.buf), a.start, a.end, &a.opts)
	a.opts.logger.Debug("Reset arena", "covered", a.heap.end-a.heap.start)
}

// Release drops the buffer and makes the arena unusable; any subsequent
// allocation panics. It fails with ErrArenaInUse while allocators are still
// bound. Releasing twice is a no-op.
func (a *Arena) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.allocators > 0 {
		return errors.Wrapf(ErrArenaInUse, "%d allocators still bound", a.allocators)
	}
	a.heap = nil
	a.buf = nil
	return nil
}

func (a *Arena) panicIfReleased() {
	if a.heap == nil {
		panic("inblock: use after Release()")
	}
}

func alignUp[T constraints.Integer](v, align T) T {
	return (v + align - 1) &^ (align - 1)
}

func alignDown[T constraints.Integer](v, align T) T {
	return v &^ (align - 1)
}
