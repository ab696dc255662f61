// ============================================================================
// LOCK-FREE MPMC QUEUE
// ============================================================================
//
// Michael-Scott queue over a per-queue node arena.
//
// Structure:
//   - head always points at a dummy node; the first value lives in head.next
//   - tail points at the last or second-to-last node (it may lag by one)
//   - every link (head, tail, node.next) is a tagged index, bumped on each
//     successful update, so a recycled node can not satisfy a stale CAS
//
// Progress:
//   - Push and Pop never block or take a lock
//   - a thread that finds tail lagging swings it forward before retrying,
//     so some thread always completes
//
// Values are boxed per push. A consumer reads the box before its head CAS
// and dereferences it only after winning, so losing consumers never touch
// a value that may already belong to a recycled node.
//
// Nodes come from the queue's own typed arena, not from the shared
// small-object allocator. Values may hold Go pointers, which the garbage
// collector only scans in Go-heap memory, and the allocator's mutex would
// make Push and Pop blocking.

package lfqueue

import (
	"sync/atomic"

	"concore/tagptr"
)

// Queue is an unbounded multi-producer multi-consumer FIFO. The zero value
// is not usable; call New.
type Queue[T any] struct {
	_    [64]byte
	head tagptr.Pointer
	//lint:ignore U1000 padding to keep head & tail on different cache-lines
	_pad1 [56]byte
	tail  tagptr.Pointer
	//lint:ignore U1000 padding to keep hot fields from colliding with metadata
	_pad2 [56]byte
	size  atomic.Int64
	nodes arena[T]
}

// New returns an empty queue holding only its dummy node.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	dummy, _ := q.nodes.alloc() // index 1 of a fresh arena
	q.head.Set(dummy, 0)
	q.tail.Set(dummy, 0)
	return q
}

// Push appends v. It fails only with ErrExhausted.
func (q *Queue[T]) Push(v T) error {
	idx, err := q.nodes.alloc()
	if err != nil {
		return err
	}
	n := q.nodes.at(idx)
	n.val.Store(&v)
	n.next.Set(tagptr.Null, n.next.Tag())

	for {
		tail := q.tail.Load()
		tn := q.nodes.at(tail.Index())
		next := tn.next.Load()
		if tail != q.tail.Load() {
			continue
		}
		if !next.IsNil() {
			q.tail.Swing(tail, next.Index())
			continue
		}
		if tn.next.Swing(next, idx) {
			q.tail.Swing(tail, idx)
			q.size.Add(1)
			return nil
		}
	}
}

// Pop removes and returns the oldest value. ok is false when the queue is
// empty, which is a normal outcome.
func (q *Queue[T]) Pop() (v T, ok bool) {
	for {
		head := q.head.Load()
		tail := q.tail.Load()
		hn := q.nodes.at(head.Index())
		next := hn.next.Load()
		if head != q.head.Load() {
			continue
		}
		if head.Index() == tail.Index() {
			if next.IsNil() {
				return v, false
			}
			q.tail.Swing(tail, next.Index())
			continue
		}

		nn := q.nodes.at(next.Index())
		box := nn.val.Load()
		if q.head.Swing(head, next.Index()) {
			v = *box
			// nn is the new dummy. CAS rather than Store: once head moved
			// past it, nn may already be recycled with a fresh box.
			nn.val.CompareAndSwap(box, nil)
			q.nodes.release(head.Index())
			q.size.Add(-1)
			return v, true
		}
	}
}

// Len returns the number of queued values. Under concurrent use it is a
// snapshot that may be stale by the time it is read.
func (q *Queue[T]) Len() int {
	return int(max(q.size.Load(), 0))
}

// Empty reports whether the queue held no values at the instant of the
// check.
func (q *Queue[T]) Empty() bool {
	head := q.head.Load()
	return q.nodes.at(head.Index()).next.Load().IsNil()
}
