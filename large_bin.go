package inblock

// largeBin is the unordered catch-all free list: big chunks, split residue
// and everything returned by Deallocate.
type largeBin struct {
	mem  memory
	list chunkList
}

func newLargeBin(mem memory) *largeBin {
	return &largeBin{mem: mem, list: newChunkList(mem)}
}

func (b *largeBin) storeChunk(c chunk) {
	b.list.append(c)
}

func (b *largeBin) popFirstChunk() chunk {
	return b.list.popFirst()
}

// popChunkWithSizeAtLeast takes the first chunk with at least n payload
// bytes. A chunk with room to spare is split and only the n-byte tail is
// returned; a chunk that would leave an unusable sliver is returned whole.
func (b *largeBin) popChunkWithSizeAtLeast(n int) chunk {
	c := b.list.popChunkWithSizeAtLeast(n)
	if c == nilChunk {
		return nilChunk
	}
	if !b.mem.splittable(c, n) {
		return c
	}
	tail := b.mem.split(c, n)
	b.storeChunk(c)
	return tail
}

func (b *largeBin) tryRemoveChunkFromList(c chunk) bool {
	return b.list.tryRemove(c)
}

func (b *largeBin) len() int {
	return b.list.size()
}
