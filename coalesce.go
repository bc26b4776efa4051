package inblock

import (
	"strings"

	"github.com/pkg/errors"
)

// CoalescePolicy decides what happens to a chunk's free neighbours when it
// is deallocated. Whatever the policy, the resulting chunk goes to the
// large bin, and consolidation still runs on an allocation miss.
type CoalescePolicy interface {
	// Name identifies the policy in configuration and logs.
	Name() string

	coalesce(h *heap, c chunk) chunk
}

var (
	// DeferredCoalescing keeps Deallocate O(1): nothing is merged until an
	// allocation misses every bin and triggers consolidation.
	DeferredCoalescing CoalescePolicy = deferredCoalescing{}

	// EagerCoalescing merges a freed chunk with every free chunk that
	// follows it in memory. Chunks before it are left to consolidation,
	// since a header does not know its memory predecessor.
	EagerCoalescing CoalescePolicy = eagerCoalescing{}
)

type deferredCoalescing struct{}

func (deferredCoalescing) Name() string { return "deferred" }

func (deferredCoalescing) coalesce(_ *heap, c chunk) chunk { return c }

type eagerCoalescing struct{}

func (eagerCoalescing) Name() string { return "eager" }

func (eagerCoalescing) coalesce(h *heap, c chunk) chunk {
	for {
		next := h.mem.nextInMemory(c)
		if int(next) >= h.end || h.mem.used(next) {
			return c
		}
		h.detach(next)
		h.mem.join(c, next)
	}
}

// CoalescePolicyByName resolves "deferred" or "eager".
func CoalescePolicyByName(name string) (CoalescePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", DeferredCoalescing.Name():
		return DeferredCoalescing, nil
	case EagerCoalescing.Name():
		return EagerCoalescing, nil
	}
	return nil, errors.Wrapf(ErrInvalidConfig, "unknown coalescing policy %q", name)
}
