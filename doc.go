// Package inblock implements a general-purpose dynamic memory allocator that
// manages a single caller-provided byte buffer and never asks the Go runtime
// for more memory.
//
// # Overview
//
// The buffer is cut into chunks: a 32-byte header followed by a payload.
// Chunks tile the buffer without gaps. Free chunks live on one of two kinds
// of free list:
//
//   - Small bins: one list per size class (16, 24, 32, 40 and 48 bytes by
//     default) giving O(1) lookup for common small requests
//   - The large bin: one unordered list for everything else, including split
//     residue and every deallocated chunk
//
// A request is served by the small bin of its exact size, then by a bigger
// small bin, then by the first large-bin chunk big enough (split when it has
// room to spare). When all of that fails the allocator consolidates: it scans
// the buffer for a run of adjacent free chunks that together are large
// enough and merges them. Only when no such run exists does allocation fail
// with ErrOutOfMemory.
//
// # Basic Usage
//
//	buf := make([]byte, 64<<10)
//	a, err := inblock.Bind(buf)
//	if err != nil {
//		return err
//	}
//
//	al := inblock.NewAllocator[int64](a)
//	defer al.Release()
//
//	s, err := al.Allocate(100) // []int64 of length 100 inside buf
//	if err != nil {
//		return err
//	}
//	defer al.Deallocate(s, 100)
//
// # Coalescing
//
// Deallocate is O(1) by default: the chunk goes to the large bin and merging
// with free neighbours is deferred until an allocation misses
// (DeferredCoalescing). EagerCoalescing merges a freed chunk with the free
// chunks after it right away.
//
// # Thread Safety
//
// Arena and Allocator are not goroutine-safe. Several allocators bound to
// one arena share its free lists; use SafeAllocator, which locks the arena,
// when they run on different goroutines. Arena.Reset, Arena.Release and
// Arena.Metrics take the same lock. Release refuses to drop an arena that
// still has allocators bound.
//
// # Important Notes
//
//   - Element types must not contain Go pointers
//   - Deallocate must be given the count used at Allocate
//   - Freeing a chunk twice is detected and reported as ErrDoubleFree
//   - Slices not obtained from the arena are rejected with ErrInvalidPointer;
//     a slice into the middle of an allocation is only caught on a
//     best-effort basis
//   - Verify checks the whole chunk bookkeeping and is meant for tests and
//     debugging
package inblock
