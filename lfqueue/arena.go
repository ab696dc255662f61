// arena.go
//
// Segmented node arena backing one Queue. Nodes are addressed by a 32-bit
// index (0 is the null index) so a link and its ABA tag fit a single
// tagptr.Pointer. Segments are appended through a copy-on-write table and
// never move, so an index stays valid for the life of the queue. Released
// nodes go onto a tagged Treiber stack and are reused before any fresh
// index is handed out.

package lfqueue

import (
	"errors"
	"math"
	"sync/atomic"

	"concore/constants"
	"concore/tagptr"
)

// ErrExhausted is returned by Push once every 32-bit node index is in use.
var ErrExhausted = errors.New("lfqueue: node index space exhausted")

const segMask = constants.NodeSegmentSize - 1

// node is one queue cell. next carries the queue link; freeNext links the
// node while it sits on the free stack. Both stay tagged across reuse.
type node[T any] struct {
	next     tagptr.Pointer
	freeNext tagptr.Pointer
	val      atomic.Pointer[T]
}

type segment[T any] [constants.NodeSegmentSize]node[T]

type arena[T any] struct {
	segs  atomic.Pointer[[]*segment[T]]
	free  tagptr.Pointer
	fresh atomic.Uint64 // last index handed out from never-used space
}

// at resolves an index returned by alloc.
//
//go:nosplit
//go:inline
func (a *arena[T]) at(idx uint32) *node[T] {
	segs := *a.segs.Load()
	return &segs[idx>>constants.NodeSegmentBits][idx&segMask]
}

// alloc returns an unused node index, recycling freed nodes first.
func (a *arena[T]) alloc() (uint32, error) {
	for {
		top := a.free.Load()
		if top.IsNil() {
			break
		}
		next := a.at(top.Index()).freeNext.Get()
		if a.free.Swing(top, next) {
			return top.Index(), nil
		}
	}

	n := a.fresh.Add(1)
	if n > math.MaxUint32 {
		return 0, ErrExhausted
	}
	idx := uint32(n)
	a.ensure(int(idx>>constants.NodeSegmentBits) + 1)
	return idx, nil
}

// ensure grows the segment table to at least want segments.
func (a *arena[T]) ensure(want int) {
	for {
		cur := a.segs.Load()
		if cur != nil && len(*cur) >= want {
			return
		}
		var grown []*segment[T]
		if cur != nil {
			grown = make([]*segment[T], len(*cur), want)
			copy(grown, *cur)
		}
		for len(grown) < want {
			grown = append(grown, new(segment[T]))
		}
		if a.segs.CompareAndSwap(cur, &grown) {
			return
		}
	}
}

// release pushes idx onto the free stack. The node's value must already be
// cleared.
func (a *arena[T]) release(idx uint32) {
	n := a.at(idx)
	for {
		top := a.free.Load()
		n.freeNext.Set(top.Index(), n.freeNext.Tag()+1)
		if a.free.Swing(top, idx) {
			return
		}
	}
}

// capacity returns the number of node slots currently backed by segments.
func (a *arena[T]) capacity() int {
	segs := a.segs.Load()
	if segs == nil {
		return 0
	}
	return len(*segs) * constants.NodeSegmentSize
}
