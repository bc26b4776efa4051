package inblock

// Vector is a growable sequence whose storage comes from an Allocator.
// Growing allocates a chunk twice the size, copies and frees the old one,
// the way a standard vector drives its allocator.
type Vector[T any] struct {
	alloc *Allocator[T]
	data  []T
	n     int
}

// NewVector returns an empty vector backed by al.
func NewVector[T any](al *Allocator[T]) *Vector[T] {
	return &Vector[T]{alloc: al}
}

// Len returns the number of elements.
func (v *Vector[T]) Len() int { return v.n }

// Cap returns the number of elements the current storage holds.
func (v *Vector[T]) Cap() int { return len(v.data) }

// Push appends x, growing the storage if needed.
func (v *Vector[T]) Push(x T) error {
	if v.n == len(v.data) {
		if err := v.Reserve(max(1, 2*len(v.data))); err != nil {
			return err
		}
	}
	v.data[v.n] = x
	v.n++
	return nil
}

// Reserve makes room for at least n elements.
func (v *Vector[T]) Reserve(n int) error {
	if n <= len(v.data) {
		return nil
	}
	data, err := v.alloc.Allocate(n)
	if err != nil {
		return err
	}
	copy(data, v.data[:v.n])
	if err := v.release(); err != nil {
		return err
	}
	v.data = data
	return nil
}

// At returns element i. It panics if i is out of range.
func (v *Vector[T]) At(i int) T {
	return v.data[:v.n][i]
}

// Set overwrites element i. It panics if i is out of range.
func (v *Vector[T]) Set(i int, x T) {
	v.data[:v.n][i] = x
}

// Slice returns the elements as a slice aliasing the vector storage.
func (v *Vector[T]) Slice() []T {
	return v.data[:v.n]
}

// Clear drops the elements but keeps the storage.
func (v *Vector[T]) Clear() {
	v.n = 0
}

// Free clears the vector and returns its storage to the allocator.
func (v *Vector[T]) Free() error {
	v.n = 0
	err := v.release()
	v.data = nil
	return err
}

func (v *Vector[T]) release() error {
	if v.data == nil {
		return nil
	}
	return v.alloc.Deallocate(v.data, len(v.data))
}
