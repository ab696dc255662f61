// ============================================================================
// REFERENCE-COUNTING STRATEGIES
// ============================================================================
//
// Two interchangeable ways to keep a pointee's owner count:
//
//   - External: a separate 4-byte cell taken from the process-wide
//     small-object allocator on Init and returned on the destroying
//     Decrement. Works for any T.
//   - Intrusive: the pointee carries its own counter (embed Embedded) and
//     nothing is allocated.
//
// Increment and Decrement are CAS retry loops rather than atomic adds: the
// loop observes the exact value it replaced, which is how Decrement knows
// it was the one that reached zero. Neither loop exits without succeeding.

package refcount

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"concore/alloc"
	"concore/atomicx"
)

const cellSize = 4

// Strategy keeps the owner count of pointees of type T.
type Strategy[T any] interface {
	// Init sets the count to one. Called once, by the first owner.
	Init(p *T) error
	// Increment adds an owner. The count must be non-zero.
	Increment(p *T)
	// Decrement drops an owner and reports whether the count reached zero,
	// which is the single signal to destroy the pointee.
	Decrement(p *T) bool
	// Count is a racy snapshot for diagnostics.
	Count(p *T) int32
}

// increment and decrement operate on any counter cell.
func increment(c *uint32) {
	for {
		cur := atomicx.Load32(c)
		if cur == 0 {
			panic("refcount: increment of a released counter")
		}
		if atomicx.CompareAndSwap32(c, cur, cur+1) == cur {
			return
		}
	}
}

func decrement(c *uint32) bool {
	for {
		cur := atomicx.Load32(c)
		if cur == 0 {
			panic("refcount: decrement below zero")
		}
		if atomicx.CompareAndSwap32(c, cur, cur-1) == cur {
			return cur == 1
		}
	}
}

// ───────────────────────────── External ─────────────────────────────

// External keeps the count in a cell outside the pointee. One External
// value serves one pointee; share it by pointer between owners. The cell
// reference is published atomically by Init and cleared atomically by the
// destroying Decrement, so owners never race on the field itself.
type External[T any] struct {
	cell atomic.Pointer[uint32]
}

// Init allocates the counter cell and sets it to one.
func (e *External[T]) Init(*T) error {
	b, err := alloc.Default().Allocate(cellSize)
	if err != nil {
		return fmt.Errorf("refcount: counter cell: %w", err)
	}
	c := (*uint32)(unsafe.Pointer(unsafe.SliceData(b)))
	atomicx.Store(c, 1)
	e.cell.Store(c)
	return nil
}

// Increment implements Strategy.
func (e *External[T]) Increment(*T) {
	c := e.cell.Load()
	if c == nil {
		panic("refcount: increment of a released counter")
	}
	increment(c)
}

// Decrement implements Strategy. The destroying decrement frees the cell.
func (e *External[T]) Decrement(*T) bool {
	c := e.cell.Load()
	if c == nil {
		panic("refcount: decrement below zero")
	}
	if !decrement(c) {
		return false
	}
	e.cell.Store(nil)
	alloc.Default().Deallocate(unsafe.Slice((*byte)(unsafe.Pointer(c)), cellSize), cellSize)
	return true
}

// Count implements Strategy. It is zero once the cell has been freed.
func (e *External[T]) Count(*T) int32 {
	c := e.cell.Load()
	if c == nil {
		return 0
	}
	return int32(atomicx.Load32(c))
}

// ───────────────────────────── Intrusive ─────────────────────────────

// Counted is implemented by pointees that carry their own counter.
type Counted interface {
	RefCount() *uint32
}

// Embedded provides Counted when embedded in a struct.
type Embedded struct {
	refs uint32
}

// RefCount returns the embedded counter.
func (e *Embedded) RefCount() *uint32 { return &e.refs }

// Intrusive keeps the count inside the pointee. It is stateless; the zero
// value is ready to use.
type Intrusive[T any, PT interface {
	*T
	Counted
}] struct{}

// Init implements Strategy.
func (Intrusive[T, PT]) Init(p *T) error {
	atomicx.Store(PT(p).RefCount(), 1)
	return nil
}

// Increment implements Strategy.
func (Intrusive[T, PT]) Increment(p *T) { increment(PT(p).RefCount()) }

// Decrement implements Strategy.
func (Intrusive[T, PT]) Decrement(p *T) bool { return decrement(PT(p).RefCount()) }

// Count implements Strategy.
func (Intrusive[T, PT]) Count(p *T) int32 { return int32(atomicx.Load32(PT(p).RefCount())) }
