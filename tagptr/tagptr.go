// ============================================================================
// ABA-SAFE TAGGED INDEX POINTER
// ============================================================================
//
// A Tagged value bundles a 32-bit arena index ("pointer", 0 = null) with a
// 32-bit tag. A Pointer slot stores both halves side by side in one 8-byte
// aligned word and only ever changes them together through
// atomicx.CompareAndSwapPair32.
//
// Every successful update through Swing bumps the tag, so a delayed thread
// holding a stale Tagged can not win a CAS against a slot whose index was
// replaced and later restored (the ABA problem). Because the "pointer" is an
// index into a typed arena rather than a machine address, index and tag
// always fit one native 64-bit CAS on every platform Go supports: the guard
// is absolute until one slot sees 2^32 updates between a thread's read and
// its CAS.
//
// Equality: two Tagged values are equal iff index and tag are both equal;
// compare with ==. Comparing indices alone is not an ABA-safe test.

package tagptr

import (
	"sync/atomic"

	"concore/atomicx"
)

// Null is the index that means "no node".
const Null uint32 = 0

// Tagged is an immutable {index, tag} pair.
type Tagged struct {
	index uint32
	tag   uint32
}

// Make builds a Tagged value.
//
//go:nosplit
//go:inline
func Make(index, tag uint32) Tagged { return Tagged{index: index, tag: tag} }

// Index returns the pointer half.
//
//go:nosplit
//go:inline
func (t Tagged) Index() uint32 { return t.index }

// Tag returns the counter half.
//
//go:nosplit
//go:inline
func (t Tagged) Tag() uint32 { return t.tag }

// IsNil reports whether the pointer half is Null.
//
//go:nosplit
//go:inline
func (t Tagged) IsNil() bool { return t.index == Null }

// Pointer is a shared slot holding a Tagged value. The zero value holds
// {Null, 0}. A Pointer must not be copied after first use.
type Pointer struct {
	_    [0]atomic.Uint64 // 8-byte alignment on every platform
	cell [2]uint32        // cell[0] = index, cell[1] = tag
}

// Load atomically reads the slot.
//
//go:nosplit
func (p *Pointer) Load() Tagged {
	idx, tag := atomicx.LoadPair32(&p.cell[0])
	return Tagged{index: idx, tag: tag}
}

// Get returns the current index.
//
//go:nosplit
//go:inline
func (p *Pointer) Get() uint32 { return p.Load().index }

// Tag returns the current tag.
//
//go:nosplit
//go:inline
func (p *Pointer) Tag() uint32 { return p.Load().tag }

// Set stores index and tag unconditionally. Use it only while the slot is
// not yet shared, or to re-initialise a slot that no other thread can
// observe; shared updates go through CompareAndSwap or Swing.
func (p *Pointer) Set(index, tag uint32) {
	atomicx.StorePair32(&p.cell[0], index, tag)
}

// CompareAndSwap replaces the slot with new iff it still equals expected
// (both halves).
//
//go:nosplit
func (p *Pointer) CompareAndSwap(expected, new Tagged) bool {
	return atomicx.CompareAndSwapPair32(&p.cell[0], expected.index, expected.tag, new.index, new.tag)
}

// Swing points the slot at index iff it still equals expected, bumping the
// tag. This is the update used by lock-free structures.
//
//go:nosplit
func (p *Pointer) Swing(expected Tagged, index uint32) bool {
	return p.CompareAndSwap(expected, Tagged{index: index, tag: expected.tag + 1})
}
