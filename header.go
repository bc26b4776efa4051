package inblock

import "encoding/binary"

// Chunk header layout. Every field is a little-endian 64-bit word so the
// header keeps payloads on an 8-byte boundary.
const (
	prevField    = 0
	nextField    = 8
	payloadField = 16
	flagsField   = 24

	// HeaderSize is the number of bytes every chunk header occupies in front
	// of its payload.
	HeaderSize = 32
)

const flagUsed uint64 = 1

// chunk is the byte offset of a chunk header inside the arena buffer.
type chunk int

// nilChunk terminates links and marks "no chunk".
const nilChunk chunk = -1

// memory is the arena buffer seen as a sequence of chunk headers. All header
// reads and writes go through these accessors.
type memory []byte

func (m memory) word(c chunk, field int) uint64 {
	return binary.LittleEndian.Uint64(m[int(c)+field:])
}

func (m memory) setWord(c chunk, field int, v uint64) {
	binary.LittleEndian.PutUint64(m[int(c)+field:], v)
}

func (m memory) prev(c chunk) chunk {
	return chunk(int64(m.word(c, prevField)))
}

func (m memory) setPrev(c, p chunk) {
	m.setWord(c, prevField, uint64(int64(p)))
}

func (m memory) next(c chunk) chunk {
	return chunk(int64(m.word(c, nextField)))
}

func (m memory) setNext(c, n chunk) {
	m.setWord(c, nextField, uint64(int64(n)))
}

func (m memory) payloadSize(c chunk) int {
	return int(m.word(c, payloadField))
}

func (m memory) setPayloadSize(c chunk, n int) {
	m.setWord(c, payloadField, uint64(n))
}

func (m memory) used(c chunk) bool {
	return m.word(c, flagsField)&flagUsed != 0
}

func (m memory) setUsed(c chunk, used bool) {
	flags := m.word(c, flagsField)
	if used {
		flags |= flagUsed
	} else {
		flags &^= flagUsed
	}
	m.setWord(c, flagsField, flags)
}

// clearLinks detaches c from whatever list it pointed into.
func (m memory) clearLinks(c chunk) {
	m.setPrev(c, nilChunk)
	m.setNext(c, nilChunk)
}
