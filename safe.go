package inblock

// SafeAllocator is a mutex-protected wrapper around Allocator. The lock is
// the arena's own, so every SafeAllocator bound to one arena is serialized
// against the others, whatever their element types.
type SafeAllocator[T any] struct {
	al *Allocator[T]
}

// NewSafeAllocator binds a new goroutine-safe allocator to a.
func NewSafeAllocator[T any](a *Arena) *SafeAllocator[T] {
	return &SafeAllocator[T]{al: NewAllocator[T](a)}
}

// Allocate thread-safely allocates storage for n elements.
func (s *SafeAllocator[T]) Allocate(n int) ([]T, error) {
	s.al.arena.mu.Lock()
	defer s.al.arena.mu.Unlock()
	return s.al.Allocate(n)
}

// Deallocate thread-safely returns storage obtained from Allocate(n).
func (s *SafeAllocator[T]) Deallocate(p []T, n int) error {
	s.al.arena.mu.Lock()
	defer s.al.arena.mu.Unlock()
	return s.al.Deallocate(p, n)
}

// AllocateZeroed thread-safely allocates zeroed storage for n elements.
func (s *SafeAllocator[T]) AllocateZeroed(n int) ([]T, error) {
	s.al.arena.mu.Lock()
	defer s.al.arena.mu.Unlock()
	return s.al.AllocateZeroed(n)
}

// Metrics thread-safely returns a snapshot of the arena statistics.
func (s *SafeAllocator[T]) Metrics() Metrics {
	return s.al.arena.Metrics()
}

// Reset thread-safely discards every allocation of the shared arena,
// including those made through other allocators.
func (s *SafeAllocator[T]) Reset() {
	s.al.arena.Reset()
}

// Verify thread-safely checks the arena bookkeeping.
func (s *SafeAllocator[T]) Verify() error {
	s.al.arena.mu.Lock()
	defer s.al.arena.mu.Unlock()
	return s.al.arena.Verify()
}

// Release unbinds the allocator from its arena.
func (s *SafeAllocator[T]) Release() {
	s.al.Release()
}
