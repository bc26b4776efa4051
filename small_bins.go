package inblock

import "github.com/pkg/errors"

// SizeClasses describes the small-bin payload sizes: Min, Min+Gap, ... for
// Count classes.
type SizeClasses struct {
	Min   int
	Gap   int
	Count int
}

// DefaultSizeClasses are five classes of 16 to 48 bytes.
var DefaultSizeClasses = SizeClasses{Min: 16, Gap: 8, Count: 5}

// Max returns the largest class size.
func (s SizeClasses) Max() int {
	return s.Min + (s.Count-1)*s.Gap
}

// Contains reports whether n is exactly one of the class sizes.
func (s SizeClasses) Contains(n int) bool {
	return n >= s.Min && n <= s.Max() && (n-s.Min)%s.Gap == 0
}

func (s SizeClasses) index(n int) int {
	return (n - s.Min) / s.Gap
}

func (s SizeClasses) validate() error {
	switch {
	case s.Count <= 0:
		return errors.Wrapf(ErrInvalidConfig, "size class count %d", s.Count)
	case s.Min < MinPayloadSize || s.Min%Alignment != 0:
		return errors.Wrapf(ErrInvalidConfig, "smallest size class %d", s.Min)
	case s.Gap <= 0 || s.Gap%Alignment != 0:
		return errors.Wrapf(ErrInvalidConfig, "size class gap %d", s.Gap)
	}
	return nil
}

type bin struct {
	chunkSize int
	list      chunkList
}

// smallBins keeps one exact-size free list per size class. Chunks whose size
// matches no class are handed to overflow.
type smallBins struct {
	mem      memory
	classes  SizeClasses
	bins     []bin
	rounds   int
	overflow *largeBin
}

func newSmallBins(mem memory, classes SizeClasses, rounds int, overflow *largeBin) *smallBins {
	s := &smallBins{
		mem:      mem,
		classes:  classes,
		bins:     make([]bin, classes.Count),
		rounds:   rounds,
		overflow: overflow,
	}
	for i := range s.bins {
		s.bins[i] = bin{chunkSize: classes.Min + i*classes.Gap, list: newChunkList(mem)}
	}
	return s
}

func (s *smallBins) containsBinWithSize(n int) bool {
	return s.classes.Contains(n)
}

func (s *smallBins) binFor(n int) *bin {
	return &s.bins[s.classes.index(n)]
}

// initializeMemory tiles [start, end) round-robin with one chunk of every
// class per round until the next tile no longer fits. It returns the offset
// where tiling stopped, which may be short of end.
func (s *smallBins) initializeMemory(start, end int) int {
	for {
		for i := range s.bins {
			size := s.bins[i].chunkSize
			if start+HeaderSize+size > end {
				return start
			}
			c := s.mem.initChunk(chunk(start), size)
			s.bins[i].list.append(c)
			start += s.mem.chunkSize(c)
		}
	}
}

// allocateChunk pops a chunk of exactly n bytes. When that class is empty
// the next non-empty bigger class is used: its chunk is split when possible,
// the smaller remainder being re-filed, and handed out whole otherwise.
func (s *smallBins) allocateChunk(n int) chunk {
	b := s.binFor(n)
	if c := b.list.findFreeChunk(); c != nilChunk {
		b.list.remove(c)
		return c
	}
	for i := s.classes.index(n) + 1; i < len(s.bins); i++ {
		c := s.bins[i].list.findFreeChunk()
		if c == nilChunk {
			continue
		}
		s.bins[i].list.remove(c)
		if !s.mem.splittable(c, n) {
			return c
		}
		tail := s.mem.split(c, n)
		s.file(c)
		return tail
	}
	return nilChunk
}

// file puts a free chunk on the list its size belongs to.
func (s *smallBins) file(c chunk) {
	if n := s.mem.payloadSize(c); s.containsBinWithSize(n) {
		s.binFor(n).list.prepend(c)
		return
	}
	s.overflow.storeChunk(c)
}

// tryRemove detaches c from the bin of its size, if it is there.
func (s *smallBins) tryRemove(c chunk) bool {
	n := s.mem.payloadSize(c)
	if !s.containsBinWithSize(n) {
		return false
	}
	return s.binFor(n).list.tryRemove(c)
}

func (s *smallBins) addChunk(c chunk) chunk {
	return s.disperseChunkIntoAllBins(c)
}

// disperseChunkIntoAllBins slices one chunk per class off c, for the
// configured number of rounds and as long as c stays splittable. The
// residue joins its own class when it has one; otherwise it is returned so
// the caller can store it elsewhere.
func (s *smallBins) disperseChunkIntoAllBins(c chunk) chunk {
slicing:
	for r := 0; r < s.rounds; r++ {
		for i := range s.bins {
			size := s.bins[i].chunkSize
			if !s.mem.splittable(c, size) {
				break slicing
			}
			s.bins[i].list.prepend(s.mem.split(c, size))
		}
	}
	if s.containsBinWithSize(s.mem.payloadSize(c)) {
		s.binFor(s.mem.payloadSize(c)).list.prepend(c)
		return nilChunk
	}
	return c
}

func (s *smallBins) lengths() []BinMetrics {
	out := make([]BinMetrics, len(s.bins))
	for i := range s.bins {
		out[i] = BinMetrics{ChunkSize: s.bins[i].chunkSize, Chunks: s.bins[i].list.size()}
	}
	return out
}
