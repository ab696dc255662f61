// ============================================================================
// 8-BIT AND 16-BIT PRIMITIVES
// ============================================================================
//
// sync/atomic has no sub-word operations. A 1- or 2-byte cell is updated by
// a CAS on the aligned 32-bit word containing it; only the cell's own bits
// change, neighbouring bytes are carried over unchanged. Go allocations are
// at least 8-byte aligned and sized, so the containing word never leaves
// the cell's allocation.

package atomicx

import (
	"sync/atomic"
	"unsafe"
)

// littleEndian is resolved once; it decides where a sub-word cell sits
// inside its containing word and how pair halves are joined.
var littleEndian = func() bool {
	x := uint16(1)
	return *(*byte)(unsafe.Pointer(&x)) == 1
}()

// container returns the aligned 32-bit word holding the size-byte cell at p
// and the bit shift of the cell inside that word.
//
//go:nosplit
func container(p unsafe.Pointer, size uintptr) (*uint32, uint) {
	addr := uintptr(p)
	if addr&(size-1) != 0 {
		panic("atomicx: unaligned sub-word cell")
	}
	off := addr & 3
	word := (*uint32)(unsafe.Add(p, -int(off)))
	if littleEndian {
		return word, uint(off * 8)
	}
	return word, uint((4 - size - off) * 8)
}

// updateSub runs one CAS attempt loop over the sub-word cell described by
// (word, shift, mask). fn receives the current cell value and returns the
// replacement and whether to store it; the observed value is returned.
//
//go:nosplit
func updateSub(word *uint32, shift uint, mask uint32, fn func(cur uint32) (uint32, bool)) uint32 {
	for {
		w := atomic.LoadUint32(word)
		cur := (w >> shift) & mask
		next, ok := fn(cur)
		if !ok {
			return cur
		}
		nw := w&^(mask<<shift) | (next&mask)<<shift
		if atomic.CompareAndSwapUint32(word, w, nw) {
			return cur
		}
	}
}

// CompareAndSwap8 is the 1-byte CompareAndSwap.
func CompareAndSwap8(dest *uint8, old, new uint8) uint8 {
	word, shift := container(unsafe.Pointer(dest), 1)
	return uint8(updateSub(word, shift, 0xFF, func(cur uint32) (uint32, bool) {
		return uint32(new), cur == uint32(old)
	}))
}

// CompareAndSwap16 is the 2-byte CompareAndSwap. dest must be 2-byte aligned.
func CompareAndSwap16(dest *uint16, old, new uint16) uint16 {
	word, shift := container(unsafe.Pointer(dest), 2)
	return uint16(updateSub(word, shift, 0xFFFF, func(cur uint32) (uint32, bool) {
		return uint32(new), cur == uint32(old)
	}))
}

// Increment8 atomically adds one to *dest (mod 256).
func Increment8(dest *uint8) {
	word, shift := container(unsafe.Pointer(dest), 1)
	updateSub(word, shift, 0xFF, func(cur uint32) (uint32, bool) { return cur + 1, true })
}

// Decrement8 atomically subtracts one from *dest (mod 256).
func Decrement8(dest *uint8) {
	word, shift := container(unsafe.Pointer(dest), 1)
	updateSub(word, shift, 0xFF, func(cur uint32) (uint32, bool) { return cur - 1, true })
}

// Increment16 atomically adds one to *dest (mod 65536).
func Increment16(dest *uint16) {
	word, shift := container(unsafe.Pointer(dest), 2)
	updateSub(word, shift, 0xFFFF, func(cur uint32) (uint32, bool) { return cur + 1, true })
}

// Decrement16 atomically subtracts one from *dest (mod 65536).
func Decrement16(dest *uint16) {
	word, shift := container(unsafe.Pointer(dest), 2)
	updateSub(word, shift, 0xFFFF, func(cur uint32) (uint32, bool) { return cur - 1, true })
}

// Load8 atomically reads *dest.
func Load8(dest *uint8) uint8 {
	word, shift := container(unsafe.Pointer(dest), 1)
	return uint8(atomic.LoadUint32(word) >> shift)
}

// Load16 atomically reads *dest.
func Load16(dest *uint16) uint16 {
	word, shift := container(unsafe.Pointer(dest), 2)
	return uint16(atomic.LoadUint32(word) >> shift)
}

// Store8 atomically writes v to *dest.
func Store8(dest *uint8, v uint8) {
	word, shift := container(unsafe.Pointer(dest), 1)
	updateSub(word, shift, 0xFF, func(uint32) (uint32, bool) { return uint32(v), true })
}

// Store16 atomically writes v to *dest.
func Store16(dest *uint16, v uint16) {
	word, shift := container(unsafe.Pointer(dest), 2)
	updateSub(word, shift, 0xFFFF, func(uint32) (uint32, bool) { return uint32(v), true })
}
