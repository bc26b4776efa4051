package inblock

// BinMetrics describes one small bin.
type BinMetrics struct {
	ChunkSize int // Payload size of the class
	Chunks    int // Free chunks currently in the bin
}

// Metrics contains statistical information about an arena.
type Metrics struct {
	Size           int          // Aligned arena size in bytes
	CoveredSize    int          // Bytes covered by chunks
	Chunks         int          // Chunks in the region
	UsedChunks     int          // Chunks handed out
	FreeChunks     int          // Chunks on a free list
	UsedBytes      int          // Payload bytes handed out
	FreeBytes      int          // Payload bytes on free lists
	LargestFree    int          // Largest free payload
	SmallBins      []BinMetrics // Per size class
	LargeBinChunks int          // Free chunks in the large bin
	Allocations    uint64
	Deallocations  uint64
	Consolidations uint64
	Refills        uint64
	Failures       uint64
	Allocators     int     // Allocators bound to the arena
	Utilization    float64 // UsedBytes / CoveredSize (0.0-1.0)
}

// SizeInUse returns the payload bytes currently handed out.
func (a *Arena) SizeInUse() int {
	if a.heap == nil {
		return 0
	}
	sum := 0
	a.heap.walk(func(c chunk) bool {
		if a.heap.mem.used(c) {
			sum += a.heap.mem.payloadSize(c)
		}
		return true
	})
	return sum
}

// Utilization returns the ratio of payload bytes in use to the bytes
// covered by chunks (0.0 to 1.0).
func (a *Arena) Utilization() float64 {
	if a.heap == nil || a.heap.end == a.heap.start {
		return 0
	}
	return float64(a.SizeInUse()) / float64(a.heap.end-a.heap.start)
}

// Metrics returns a snapshot of arena statistics. It walks the whole
// region and every free list under the arena lock.
func (a *Arena) Metrics() Metrics {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.metrics()
}

// metrics expects a.mu to be held.
func (a *Arena) metrics() Metrics {
	if a.heap == nil {
		return Metrics{}
	}
	h := a.heap
	m := Metrics{
		Size:           a.Size(),
		CoveredSize:    h.end - h.start,
		SmallBins:      h.small.lengths(),
		LargeBinChunks: h.large.len(),
		Allocations:    h.stats.allocations,
		Deallocations:  h.stats.deallocations,
		Consolidations: h.stats.consolidations,
		Refills:        h.stats.refills,
		Failures:       h.stats.failures,
		Allocators:     a.allocators,
	}
	h.walk(func(c chunk) bool {
		m.Chunks++
		n := h.mem.payloadSize(c)
		if h.mem.used(c) {
			m.UsedChunks++
			m.UsedBytes += n
		} else {
			m.FreeChunks++
			m.FreeBytes += n
			m.LargestFree = max(m.LargestFree, n)
		}
		return true
	})
	if m.CoveredSize > 0 {
		m.Utilization = float64(m.UsedBytes) / float64(m.CoveredSize)
	}
	return m
}
