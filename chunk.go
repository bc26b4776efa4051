package inblock

import "fmt"

const (
	// MinPayloadSize is the smallest payload a chunk may carry.
	MinPayloadSize = 16

	// MinChunkSize is the footprint of the smallest valid chunk.
	MinChunkSize = HeaderSize + MinPayloadSize
)

// initChunk writes a fresh free header at c.
func (m memory) initChunk(c chunk, payloadSize int) chunk {
	if payloadSize < MinPayloadSize {
		panic(fmt.Sprintf("inblock: payload size %d below minimum %d", payloadSize, MinPayloadSize))
	}
	m.clearLinks(c)
	m.setPayloadSize(c, payloadSize)
	m.setWord(c, flagsField, 0)
	return c
}

// chunkSize is the total footprint of c, header included.
func (m memory) chunkSize(c chunk) int {
	return HeaderSize + m.payloadSize(c)
}

func payloadOffset(c chunk) int {
	return int(c) + HeaderSize
}

func chunkFromPayload(off int) chunk {
	return chunk(off - HeaderSize)
}

// nextInMemory returns the chunk that physically follows c. It does not look
// at free-list links.
func (m memory) nextInMemory(c chunk) chunk {
	return chunk(int(c) + m.chunkSize(c))
}

// splittable reports whether a chunk with payload n can be carved out of c
// while leaving a valid chunk behind.
func (m memory) splittable(c chunk, n int) bool {
	return m.payloadSize(c) >= MinPayloadSize+HeaderSize+n
}

// split carves a new chunk with payload n from the tail of c and returns it.
// c keeps its offset, so any list still referencing it stays consistent, but
// its size shrinks and the caller must re-file it.
func (m memory) split(c chunk, n int) chunk {
	if !m.splittable(c, n) {
		panic(fmt.Sprintf("inblock: chunk %d with payload %d cannot give %d bytes", c, m.payloadSize(c), n))
	}
	end := int(c) + m.chunkSize(c)
	tail := m.initChunk(chunk(end-n-HeaderSize), n)
	m.setPayloadSize(c, m.payloadSize(c)-HeaderSize-n)
	return tail
}

// join merges second into first. Both must be free, already unlinked from
// every list, and second must directly follow first in memory.
func (m memory) join(first, second chunk) {
	if m.nextInMemory(first) != second {
		panic(fmt.Sprintf("inblock: chunks %d and %d are not adjacent", first, second))
	}
	if m.used(first) || m.used(second) {
		panic("inblock: join of a used chunk")
	}
	m.setPayloadSize(first, m.payloadSize(first)+m.chunkSize(second))
	m.clearLinks(second)
}
