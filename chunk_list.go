package inblock

// chunkList is a circular doubly linked list of free chunks. The links live
// in the chunk headers, so the list itself only remembers its first member.
// A single-member list is a self-linked chunk.
type chunkList struct {
	mem   memory
	first chunk
}

func newChunkList(mem memory) chunkList {
	return chunkList{mem: mem, first: nilChunk}
}

func (l *chunkList) empty() bool {
	return l.first == nilChunk
}

func (l *chunkList) link(a, b chunk) {
	l.mem.setNext(a, b)
	l.mem.setPrev(b, a)
}

// append inserts c in front of the first member, which in a circular list is
// the tail position.
func (l *chunkList) append(c chunk) {
	if l.first == nilChunk {
		l.link(c, c)
		l.first = c
		return
	}
	last := l.mem.prev(l.first)
	l.link(last, c)
	l.link(c, l.first)
}

func (l *chunkList) prepend(c chunk) {
	l.append(c)
	l.first = c
}

// findFreeChunk returns some member without removing it, or nilChunk.
func (l *chunkList) findFreeChunk() chunk {
	return l.first
}

// remove unlinks c, which must be a member of l.
func (l *chunkList) remove(c chunk) {
	next := l.mem.next(c)
	if next == c {
		l.first = nilChunk
	} else {
		l.link(l.mem.prev(c), next)
		if l.first == c {
			l.first = next
		}
	}
	l.mem.clearLinks(c)
}

// tryRemove unlinks c if it is a member of l and reports whether it was.
func (l *chunkList) tryRemove(c chunk) bool {
	found := false
	l.traverse(func(member chunk) bool {
		found = member == c
		return !found
	})
	if found {
		l.remove(c)
	}
	return found
}

func (l *chunkList) popFirst() chunk {
	c := l.first
	if c != nilChunk {
		l.remove(c)
	}
	return c
}

// popChunkWithSizeAtLeast removes and returns the first member whose payload
// is at least n bytes, or nilChunk.
func (l *chunkList) popChunkWithSizeAtLeast(n int) chunk {
	match := nilChunk
	l.traverse(func(member chunk) bool {
		if l.mem.payloadSize(member) >= n {
			match = member
			return false
		}
		return true
	})
	if match != nilChunk {
		l.remove(match)
	}
	return match
}

func (l *chunkList) size() int {
	n := 0
	l.traverse(func(chunk) bool {
		n++
		return true
	})
	return n
}

// traverse calls fn for each member starting at the first one until fn
// returns false. fn must not modify the list.
func (l *chunkList) traverse(fn func(chunk) bool) {
	if l.first == nilChunk {
		return
	}
	c := l.first
	for {
		next := l.mem.next(c)
		if !fn(c) {
			return
		}
		if next == l.first {
			return
		}
		c = next
	}
}
