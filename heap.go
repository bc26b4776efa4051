package inblock

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
)

// heap is the free-space engine shared by every allocator bound to one
// arena. Chunks cover [start, end) without gaps.
type heap struct {
	mem        memory
	start, end int
	small      *smallBins
	large      *largeBin
	coalescing CoalescePolicy
	log        *slog.Logger
	stats      counters
}

type counters struct {
	allocations    uint64
	deallocations  uint64
	consolidations uint64
	refills        uint64
	failures       uint64
}

// newHeap carves [start, end): the small-bin share is tiled first, the rest
// becomes one large chunk. A tail too short for a chunk stays uncovered.
func newHeap(mem memory, start, end int, o *options) *heap {
	h := &heap{
		mem:        mem,
		start:      start,
		end:        start,
		large:      newLargeBin(mem),
		coalescing: o.coalescing,
		log:        o.logger,
	}
	h.small = newSmallBins(mem, o.classes, o.refillRounds, h.large)

	limit := start + alignDown(int(float64(end-start)*o.share), Alignment)
	tiled := h.small.initializeMemory(start, limit)
	h.end = tiled
	if end-tiled >= MinChunkSize {
		h.large.storeChunk(mem.initChunk(chunk(tiled), end-tiled-HeaderSize))
		h.end = end
	}
	return h
}

// requestSize turns a byte count into the payload size actually looked for.
func requestSize(n int) int {
	return max(alignUp(n, Alignment), MinPayloadSize)
}

// allocate returns a used chunk with at least n payload bytes.
func (h *heap) allocate(n int) (chunk, error) {
	size := requestSize(n)
	small := h.small.containsBinWithSize(size)
	if small {
		if c := h.small.allocateChunk(size); c != nilChunk {
			return h.use(c), nil
		}
	}
	c := h.findChunkWithSizeAtLeast(size)
	if c == nilChunk {
		h.stats.failures++
		h.log.Warn("Arena exhausted", "size", size, "region", h.end-h.start)
		return nilChunk, errors.Wrapf(ErrOutOfMemory, "allocate %d bytes", size)
	}
	if small {
		h.refillSmallBins()
	}
	return h.use(c), nil
}

func (h *heap) use(c chunk) chunk {
	h.mem.setUsed(c, true)
	h.mem.clearLinks(c)
	h.stats.allocations++
	return c
}

func (h *heap) findChunkWithSizeAtLeast(size int) chunk {
	if c := h.large.popChunkWithSizeAtLeast(size); c != nilChunk {
		return c
	}
	return h.consolidate(size)
}

// consolidate scans the region for the first run of adjacent free chunks
// that can hold size bytes once merged, unlinks the run from whatever lists
// own its members and joins it into one chunk.
func (h *heap) consolidate(size int) chunk {
	runStart, runEnd := nilChunk, nilChunk
	total := 0
	for c := chunk(h.start); int(c) < h.end; c = h.mem.nextInMemory(c) {
		if h.mem.used(c) {
			runStart, total = nilChunk, 0
			continue
		}
		if runStart == nilChunk {
			runStart = c
		}
		total += h.mem.chunkSize(c)
		if total-HeaderSize >= size {
			runEnd = h.mem.nextInMemory(c)
			break
		}
	}
	if runEnd == nilChunk {
		return nilChunk
	}

	merged := 0
	for c := runStart; c != runEnd; c = h.mem.nextInMemory(c) {
		h.detach(c)
		merged++
	}
	for c := h.mem.nextInMemory(runStart); c != runEnd; {
		next := h.mem.nextInMemory(c)
		h.mem.join(runStart, c)
		c = next
	}
	h.stats.consolidations++
	h.log.Debug("Consolidated free chunks", "offset", int(runStart), "chunks", merged, "payload", h.mem.payloadSize(runStart), "wanted", size)

	if !h.mem.splittable(runStart, size) {
		return runStart
	}
	tail := h.mem.split(runStart, size)
	h.large.storeChunk(runStart)
	return tail
}

// detach removes a free chunk from the list that owns it. Ownership is not
// tracked, so the small bin of its size is tried before the large bin.
func (h *heap) detach(c chunk) {
	if h.small.tryRemove(c) || h.large.tryRemoveChunkFromList(c) {
		return
	}
	panic(fmt.Sprintf("inblock: free chunk at offset %d is on no free list", c))
}

// refillSmallBins disperses one large chunk over the size classes after a
// small request had to fall back to the large bin.
func (h *heap) refillSmallBins() {
	c := h.large.popFirstChunk()
	if c == nilChunk {
		return
	}
	payload := h.mem.payloadSize(c)
	if rest := h.small.addChunk(c); rest != nilChunk {
		h.large.storeChunk(rest)
	}
	h.stats.refills++
	h.log.Debug("Refilled small bins", "offset", int(c), "payload", payload)
}

// chunkAt maps a payload offset back to its used chunk, rejecting anything
// that cannot be a live allocation.
func (h *heap) chunkAt(payload int) (chunk, error) {
	c := chunkFromPayload(payload)
	if int(c) < h.start || payload >= h.end || (int(c)-h.start)%Alignment != 0 {
		return nilChunk, errors.Wrapf(ErrInvalidPointer, "payload offset %d", payload)
	}
	if n := h.mem.payloadSize(c); n < MinPayloadSize || payload+n > h.end {
		return nilChunk, errors.Wrapf(ErrInvalidPointer, "payload offset %d", payload)
	}
	return c, nil
}

// free releases the chunk whose payload starts at payload. n is the byte
// size the caller asked for; it may not exceed the chunk.
func (h *heap) free(payload, n int) error {
	c, err := h.chunkAt(payload)
	if err != nil {
		return err
	}
	if !h.mem.used(c) {
		h.log.Warn("Double free", "offset", payload)
		return errors.Wrapf(ErrDoubleFree, "payload offset %d", payload)
	}
	if size := requestSize(n); size > h.mem.payloadSize(c) {
		return errors.Wrapf(ErrSizeMismatch, "%d bytes freed from a %d byte chunk", size, h.mem.payloadSize(c))
	}
	h.mem.setUsed(c, false)
	h.mem.clearLinks(c)
	h.large.storeChunk(h.coalescing.coalesce(h, c))
	h.stats.deallocations++
	return nil
}

// walk visits every chunk of the region in address order.
func (h *heap) walk(fn func(c chunk) bool) {
	for c := chunk(h.start); int(c) < h.end; c = h.mem.nextInMemory(c) {
		if !fn(c) {
			return
		}
	}
}
