package inblock

import (
	"testing"
	"unsafe"

	"github.com/pkg/errors"
)

func aligned[T any](s []T) bool {
	return uintptr(unsafe.Pointer(&s[0]))%Alignment == 0
}

func TestBind(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"empty", 0, ErrArenaTooSmall},
		{"below one chunk", MinChunkSize - Alignment, ErrArenaTooSmall},
		{"exactly one chunk", MinChunkSize, nil},
		{"10 KiB", 10 << 10, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Bind(make([]byte, tt.size))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Bind(%d) error = %v, want %v", tt.size, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if a.Size() != tt.size {
				t.Errorf("Size() = %d, want %d", a.Size(), tt.size)
			}
			if err := a.Verify(); err != nil {
				t.Errorf("Verify() = %v", err)
			}
		})
	}
}

func TestBindMisaligned(t *testing.T) {
	buf := make([]byte, 1024)[3:]
	a, err := Bind(buf)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if a.Start() != 5 || a.End() != 1021 || a.Size() != 1016 {
		t.Errorf("Start/End/Size = %d/%d/%d, want 5/1021/1016", a.Start(), a.End(), a.Size())
	}
	for _, n := range []int{1, 23, 48, 100} {
		b, err := a.AllocBytes(n)
		if err != nil {
			t.Fatalf("AllocBytes(%d): %v", n, err)
		}
		if !aligned(b) {
			t.Errorf("AllocBytes(%d) returned a misaligned slice", n)
		}
	}
	if err := a.Verify(); err != nil {
		t.Errorf("Verify() = %v", err)
	}
}

func TestBindMisalignedTooSmall(t *testing.T) {
	_, err := Bind(make([]byte, 64)[1 : 1+MinChunkSize])
	if !errors.Is(err, ErrArenaTooSmall) {
		t.Errorf("Bind error = %v, want ErrArenaTooSmall", err)
	}
}

func TestBindInvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"share above one", WithSmallBinShare(1.5)},
		{"negative share", WithSmallBinShare(-0.1)},
		{"negative rounds", WithRefillRounds(-1)},
		{"no classes", WithSizeClasses(SizeClasses{Min: 16, Gap: 8, Count: 0})},
		{"unaligned gap", WithSizeClasses(SizeClasses{Min: 16, Gap: 12, Count: 2})},
		{"tiny class", WithSizeClasses(SizeClasses{Min: 8, Gap: 8, Count: 2})},
		{"nil policy", WithCoalescing(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Bind(make([]byte, 1024), tt.opt); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Bind error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestArenaCarving(t *testing.T) {
	tests := []struct {
		name       string
		share      float64
		chunks     int
		largeBin   int
		perBin     int
		coveredEnd int
	}{
		// 2560 bytes hold eight 320-byte rounds; the rest is one chunk.
		{"default share", DefaultSmallBinShare, 41, 1, 8, 10 << 10},
		{"no small bins", 0, 1, 1, 0, 10 << 10},
		{"all small bins", 1, 160, 0, 32, 10 << 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Bind(make([]byte, 10<<10), WithSmallBinShare(tt.share))
			if err != nil {
				t.Fatalf("Bind: %v", err)
			}
			m := a.Metrics()
			if m.Chunks != tt.chunks || m.FreeChunks != tt.chunks {
				t.Errorf("chunks = %d (free %d), want %d", m.Chunks, m.FreeChunks, tt.chunks)
			}
			if m.LargeBinChunks != tt.largeBin {
				t.Errorf("large bin = %d, want %d", m.LargeBinChunks, tt.largeBin)
			}
			for _, b := range m.SmallBins {
				if b.Chunks != tt.perBin {
					t.Errorf("bin %d = %d chunks, want %d", b.ChunkSize, b.Chunks, tt.perBin)
				}
			}
			if m.CoveredSize != tt.coveredEnd {
				t.Errorf("covered = %d, want %d", m.CoveredSize, tt.coveredEnd)
			}
		})
	}
}

func TestArenaAllocBytes(t *testing.T) {
	a, err := Bind(make([]byte, 1024))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}

	b1, err := a.AllocBytes(100)
	if err != nil || len(b1) != 100 || cap(b1) != 100 {
		t.Errorf("AllocBytes(100) = len %d cap %d, err %v", len(b1), cap(b1), err)
	}

	for _, n := range []int{0, -1} {
		if b, err := a.AllocBytes(n); b != nil || err != nil {
			t.Errorf("AllocBytes(%d) = %v, %v, want nil, nil", n, b, err)
		}
	}

	if _, err := a.AllocBytes(2048); !errors.Is(err, ErrOutOfMemory) {
		t.Errorf("AllocBytes(2048) error = %v, want ErrOutOfMemory", err)
	}

	if err := a.FreeBytes(b1, 100); err != nil {
		t.Errorf("FreeBytes: %v", err)
	}
	if err := a.FreeBytes(make([]byte, 16), 16); !errors.Is(err, ErrInvalidPointer) {
		t.Errorf("FreeBytes(foreign slice) error = %v, want ErrInvalidPointer", err)
	}
}

func TestArenaReset(t *testing.T) {
	a, err := Bind(make([]byte, 4096))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	fresh := a.Metrics()

	a.AllocBytes(100)
	a.AllocBytes(3000)
	if a.SizeInUse() == 0 {
		t.Error("Expected non-zero size in use after allocations")
	}

	a.Reset()
	m := a.Metrics()
	if a.SizeInUse() != 0 || m.Chunks != fresh.Chunks || m.FreeBytes != fresh.FreeBytes {
		t.Errorf("after Reset: in use %d, chunks %d, free %d; want 0, %d, %d",
			a.SizeInUse(), m.Chunks, m.FreeBytes, fresh.Chunks, fresh.FreeBytes)
	}
}

func TestArenaRelease(t *testing.T) {
	a, err := Bind(make([]byte, 1024))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	a.AllocBytes(100)

	if err := a.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if a.heap != nil || a.buf != nil {
		t.Error("Expected heap and buffer to be dropped after Release()")
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic on use after Release()")
		}
	}()
	a.AllocBytes(100)
}

func TestArenaReleaseWhileBound(t *testing.T) {
	a, err := Bind(make([]byte, 1024))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	al := NewAllocator[int](a)

	if err := a.Release(); !errors.Is(err, ErrArenaInUse) {
		t.Fatalf("Release with a bound allocator = %v, want ErrArenaInUse", err)
	}
	if _, err := al.Allocate(4); err != nil {
		t.Fatalf("Allocate after refused Release: %v", err)
	}

	al.Release()
	if err := a.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if err := a.Release(); err != nil {
		t.Errorf("second Release: %v", err)
	}
	if a.heap != nil {
		t.Error("Expected heap to be dropped after Release()")
	}
}

func TestArenaWalk(t *testing.T) {
	a, err := Bind(make([]byte, 10<<10), WithSmallBinShare(0))
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	b, _ := a.AllocBytes(64)

	var infos []ChunkInfo
	a.Walk(func(ci ChunkInfo) bool {
		infos = append(infos, ci)
		return true
	})
	if len(infos) != 2 {
		t.Fatalf("Walk visited %d chunks, want 2", len(infos))
	}
	// The allocation is carved from the tail of the single large chunk.
	if infos[0].Used || !infos[1].Used || infos[1].PayloadSize != 64 {
		t.Errorf("chunks = %+v", infos)
	}
	if off, _ := offsetOf(a.buf, b); off != infos[1].Offset+HeaderSize {
		t.Errorf("payload offset = %d, want %d", off, infos[1].Offset+HeaderSize)
	}
}

func TestAlignUp(t *testing.T) {
	tests := []struct {
		input    uintptr
		expected uintptr
	}{
		{0, 0},
		{1, Alignment},
		{Alignment, Alignment},
		{Alignment + 1, Alignment * 2},
	}

	for _, tt := range tests {
		if result := alignUp(tt.input, Alignment); result != tt.expected {
			t.Errorf("alignUp(%d) = %d, want %d", tt.input, result, tt.expected)
		}
		if result := alignDown(tt.expected+Alignment-1, Alignment); result != tt.expected {
			t.Errorf("alignDown(%d) = %d, want %d", tt.expected+Alignment-1, result, tt.expected)
		}
	}
}

func TestRequestSize(t *testing.T) {
	tests := []struct{ n, want int }{
		{0, MinPayloadSize},
		{1, MinPayloadSize},
		{17, 24},
		{23, 24},
		{28, 32},
		{5 << 10, 5 << 10},
	}
	for _, tt := range tests {
		if got := requestSize(tt.n); got != tt.want {
			t.Errorf("requestSize(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}
