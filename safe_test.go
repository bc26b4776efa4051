package inblock

import (
	"runtime"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestSafeAllocatorBasics(t *testing.T) {
	a := bindTest(t, 4<<10)
	s := NewSafeAllocator[int32](a)

	p, err := s.Allocate(10)
	require.NoError(t, err)
	require.Len(t, p, 10)
	require.Equal(t, 1, s.Metrics().UsedChunks)

	z, err := s.AllocateZeroed(6)
	require.NoError(t, err)
	require.Equal(t, make([]int32, 6), z)
	require.NoError(t, s.Deallocate(z, 6))

	nothing, err := s.Allocate(0)
	require.NoError(t, err)
	require.Nil(t, nothing)

	require.NoError(t, s.Deallocate(p, 10))
	require.ErrorIs(t, s.Deallocate(p, 10), ErrDoubleFree)
	require.NoError(t, s.Verify())

	s.Release()
	require.Zero(t, a.Allocators())
}

func TestSafeAllocatorConcurrent(t *testing.T) {
	a := bindTest(t, 256<<10)

	workers := runtime.NumCPU()
	if workers < 4 {
		workers = 4
	}
	const rounds = 200

	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s := NewSafeAllocator[int64](a)
			defer s.Release()

			live := make([][]int64, 0, 4)
			for i := 0; i < rounds; i++ {
				n := 1 + (i*7+int(id))%64
				p, err := s.Allocate(n)
				if err != nil {
					errs <- err
					return
				}
				for j := range p {
					p[j] = id
				}
				live = append(live, p)
				if len(live) == cap(live) {
					for _, q := range live {
						for _, v := range q {
							if v != id {
								t.Errorf("worker %d found %d in its storage", id, v)
								return
							}
						}
						if err := s.Deallocate(q, len(q)); err != nil {
							errs <- err
							return
						}
					}
					live = live[:0]
				}
			}
			for _, q := range live {
				if err := s.Deallocate(q, len(q)); err != nil {
					errs <- err
					return
				}
			}
		}(int64(w + 1))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.NoError(t, a.Verify())
	m := a.Metrics()
	require.Zero(t, m.UsedChunks)
	require.Zero(t, m.Allocators)
	require.Equal(t, uint64(workers*rounds), m.Allocations)
	require.Equal(t, m.Allocations, m.Deallocations)
}

func TestSafeAllocatorsOfDifferentTypesShareLock(t *testing.T) {
	a := bindTest(t, 64<<10)
	ints := NewSafeAllocator[int](a)
	bytes := NewSafeAllocator[byte](a)
	require.Equal(t, 2, a.Allocators())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			p, err := ints.Allocate(3)
			if err == nil {
				err = ints.Deallocate(p, 3)
			}
			if err != nil {
				t.Error(err)
				return
			}
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			p, err := bytes.Allocate(100)
			if err == nil {
				err = bytes.Deallocate(p, 100)
			}
			if err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()
	require.NoError(t, ints.Verify())
	require.Zero(t, ints.Metrics().UsedChunks)
}

func TestSafeAllocatorResetWhileAllocating(t *testing.T) {
	a := bindTest(t, 64<<10)
	owner := NewSafeAllocator[byte](a)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s := NewSafeAllocator[int64](a)
			defer s.Release()
			for i := 0; ; i++ {
				select {
				case <-stop:
					return
				default:
				}
				// Nothing is kept across iterations: a Reset may reclaim it.
				if _, err := s.AllocateZeroed(1 + i%40); err != nil && !errors.Is(err, ErrOutOfMemory) {
					t.Error(err)
					return
				}
				if err := s.Verify(); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}

	for i := 0; i < 100; i++ {
		if i%2 == 0 {
			a.Reset()
		} else {
			owner.Reset()
		}
		runtime.Gosched()
	}
	close(stop)
	wg.Wait()

	require.ErrorIs(t, a.Release(), ErrArenaInUse)
	owner.Reset()
	require.NoError(t, owner.Verify())
	m := owner.Metrics()
	require.Zero(t, m.UsedChunks)
	require.Equal(t, 1, m.Allocators)

	owner.Release()
	require.NoError(t, a.Release())
}
