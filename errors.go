package inblock

import "github.com/pkg/errors"

var (
	// ErrArenaTooSmall is returned by Bind when the aligned buffer cannot hold
	// a single minimal chunk.
	ErrArenaTooSmall = errors.New("inblock: arena too small")

	// ErrOutOfMemory is returned when neither the bins nor consolidation can
	// produce a chunk large enough.
	ErrOutOfMemory = errors.New("inblock: run out of memory")

	ErrDoubleFree     = errors.New("inblock: chunk is already free")
	ErrInvalidPointer = errors.New("inblock: pointer does not belong to the arena")
	ErrSizeMismatch   = errors.New("inblock: deallocation size exceeds the chunk")
	ErrInvalidConfig  = errors.New("inblock: invalid configuration")

	// ErrArenaInUse is returned by Release while allocators are bound.
	ErrArenaInUse = errors.New("inblock: arena still has bound allocators")

	// ErrCorrupted is returned by Verify when the chunk bookkeeping is
	// inconsistent.
	ErrCorrupted = errors.New("inblock: arena bookkeeping corrupted")
)
