// ============================================================================
// DOUBLE-WORD ("PAIR") COMPARE-AND-SWAP
// ============================================================================
//
// CompareAndSwapPairW treats dest1 and the W-byte cell directly after it as
// one 2W-byte location and swaps both halves iff both match. dest1 must be
// aligned to 2W. The 8-byte variant needs a 16-byte CAS and is only built
// on platforms that have one (pair_amd64.go).

package atomicx

import (
	"sync/atomic"
	"unsafe"
)

// join16 packs (first, second) the way they lie in memory at dest1, dest1+1.
//
//go:nosplit
//go:inline
func join16(first, second uint8) uint16 {
	if littleEndian {
		return uint16(first) | uint16(second)<<8
	}
	return uint16(first)<<8 | uint16(second)
}

//go:nosplit
//go:inline
func join32(first, second uint16) uint32 {
	if littleEndian {
		return uint32(first) | uint32(second)<<16
	}
	return uint32(first)<<16 | uint32(second)
}

//go:nosplit
//go:inline
func join64(first, second uint32) uint64 {
	if littleEndian {
		return uint64(first) | uint64(second)<<32
	}
	return uint64(first)<<32 | uint64(second)
}

// Split64 is the inverse of the packing used by CompareAndSwapPair32: it
// returns the halves stored at dest1 and dest1+1 for a packed 8-byte value.
//
//go:nosplit
//go:inline
func Split64(v uint64) (first, second uint32) {
	if littleEndian {
		return uint32(v), uint32(v >> 32)
	}
	return uint32(v >> 32), uint32(v)
}

// Join64 packs two 4-byte halves the way CompareAndSwapPair32 sees them.
//
//go:nosplit
//go:inline
func Join64(first, second uint32) uint64 { return join64(first, second) }

// CompareAndSwapPair8 swaps (*dest1, *(dest1+1)) from (exp1, exp2) to
// (new1, new2) atomically. dest1 must be 2-byte aligned.
func CompareAndSwapPair8(dest1 *uint8, exp1, exp2, new1, new2 uint8) bool {
	old := join16(exp1, exp2)
	return CompareAndSwap16((*uint16)(unsafe.Pointer(dest1)), old, join16(new1, new2)) == old
}

// CompareAndSwapPair16 swaps (*dest1, *(dest1+1)) atomically. dest1 must be
// 4-byte aligned.
func CompareAndSwapPair16(dest1 *uint16, exp1, exp2, new1, new2 uint16) bool {
	if uintptr(unsafe.Pointer(dest1))&3 != 0 {
		panic("atomicx: unaligned 16-bit pair")
	}
	return atomic.CompareAndSwapUint32((*uint32)(unsafe.Pointer(dest1)), join32(exp1, exp2), join32(new1, new2))
}

// CompareAndSwapPair32 swaps (*dest1, *(dest1+1)) atomically. dest1 must be
// 8-byte aligned.
func CompareAndSwapPair32(dest1 *uint32, exp1, exp2, new1, new2 uint32) bool {
	if uintptr(unsafe.Pointer(dest1))&7 != 0 {
		panic("atomicx: unaligned 32-bit pair")
	}
	return atomic.CompareAndSwapUint64((*uint64)(unsafe.Pointer(dest1)), join64(exp1, exp2), join64(new1, new2))
}

// LoadPair32 atomically reads both halves of an 8-byte aligned pair.
func LoadPair32(dest1 *uint32) (first, second uint32) {
	return Split64(atomic.LoadUint64((*uint64)(unsafe.Pointer(dest1))))
}

// StorePair32 atomically writes both halves of an 8-byte aligned pair.
func StorePair32(dest1 *uint32, first, second uint32) {
	atomic.StoreUint64((*uint64)(unsafe.Pointer(dest1)), join64(first, second))
}
