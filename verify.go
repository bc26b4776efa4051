package inblock

import "github.com/pkg/errors"

// ChunkInfo describes one chunk of the arena region.
type ChunkInfo struct {
	Offset      int // Header offset in the buffer
	PayloadSize int
	Used        bool
}

// Walk calls fn for every chunk in address order until fn returns false.
func (a *Arena) Walk(fn func(ChunkInfo) bool) {
	a.panicIfReleased()
	h := a.heap
	h.walk(func(c chunk) bool {
		return fn(ChunkInfo{Offset: int(c), PayloadSize: h.mem.payloadSize(c), Used: h.mem.used(c)})
	})
}

// Verify checks the chunk bookkeeping: chunks tile the covered region
// exactly, payloads are aligned and at least MinPayloadSize, every free
// chunk sits on exactly one free list of the right kind and no used chunk
// sits on any. It returns an error wrapping ErrCorrupted on the first
// violation.
func (a *Arena) Verify() error {
	a.panicIfReleased()
	h := a.heap
	base := baseAddr(a.buf)

	free := make(map[chunk]bool)
	total := 0
	var err error
	h.walk(func(c chunk) bool {
		n := h.mem.payloadSize(c)
		switch {
		case n < MinPayloadSize:
			err = errors.Wrapf(ErrCorrupted, "chunk %d has payload %d", c, n)
		case (base+uintptr(payloadOffset(c)))%Alignment != 0:
			err = errors.Wrapf(ErrCorrupted, "chunk %d payload is misaligned", c)
		case int(c)+h.mem.chunkSize(c) > h.end:
			err = errors.Wrapf(ErrCorrupted, "chunk %d overruns the region", c)
		}
		if err != nil {
			return false
		}
		total += h.mem.chunkSize(c)
		if !h.mem.used(c) {
			free[c] = false
		}
		return true
	})
	if err != nil {
		return err
	}
	if total != h.end-h.start {
		return errors.Wrapf(ErrCorrupted, "chunks cover %d of %d bytes", total, h.end-h.start)
	}

	visit := func(kind string, want func(n int) bool) func(chunk) bool {
		return func(c chunk) bool {
			seen, ok := free[c]
			switch {
			case !ok:
				err = errors.Wrapf(ErrCorrupted, "%s lists chunk %d which is not a free chunk", kind, c)
			case seen:
				err = errors.Wrapf(ErrCorrupted, "chunk %d is listed twice", c)
			case !want(h.mem.payloadSize(c)):
				err = errors.Wrapf(ErrCorrupted, "%s holds chunk %d of payload %d", kind, c, h.mem.payloadSize(c))
			}
			if err != nil {
				return false
			}
			free[c] = true
			return true
		}
	}
	for i := range h.small.bins {
		size := h.small.bins[i].chunkSize
		h.small.bins[i].list.traverse(visit("small bin", func(n int) bool { return n == size }))
		if err != nil {
			return err
		}
	}
	h.large.list.traverse(visit("large bin", func(int) bool { return true }))
	if err != nil {
		return err
	}
	for c, seen := range free {
		if !seen {
			return errors.Wrapf(ErrCorrupted, "free chunk %d is on no free list", c)
		}
	}
	return nil
}
