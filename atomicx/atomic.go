// ============================================================================
// PORTABLE ATOMIC PRIMITIVES
// ============================================================================
//
// Per-width (1/2/4/8 byte) compare-and-swap, increment, decrement, load and
// store, plus the double-word "pair" CAS that updates a value and its
// directly adjacent companion as one unit.
//
// Core capabilities:
//   - CompareAndSwap returns the observed old value, not a bool; callers test
//     observed == expected for success
//   - 1- and 2-byte widths run on a CAS of the containing aligned 32-bit word
//   - A single generic entry point selects the width from the operand type
//
// Memory ordering:
//   - Every operation is sequentially consistent (sync/atomic semantics), so
//     consumers never need separate fences
//
// Safety model:
//   - A cell accessed through this package must never be read or written
//     with plain loads/stores once it is shared
//   - 2-byte cells must be 2-byte aligned, pair destinations 2W-aligned;
//     misalignment panics

package atomicx

import (
	"sync/atomic"
	"unsafe"
)

// ============================================================================
// WIDTH-GENERIC ENTRY POINTS
// ============================================================================

// Word is the set of cell types the primitives operate on.
type Word interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// CompareAndSwap replaces *dest with new iff *dest == old, and returns the
// value *dest held immediately before the attempt.
//
//go:nosplit
func CompareAndSwap[T Word](dest *T, old, new T) T {
	p := unsafe.Pointer(dest)
	switch unsafe.Sizeof(old) {
	case 1:
		return T(CompareAndSwap8((*uint8)(p), uint8(old), uint8(new)))
	case 2:
		return T(CompareAndSwap16((*uint16)(p), uint16(old), uint16(new)))
	case 4:
		return T(CompareAndSwap32((*uint32)(p), uint32(old), uint32(new)))
	default:
		return T(CompareAndSwap64((*uint64)(p), uint64(old), uint64(new)))
	}
}

// Increment atomically adds one to *dest.
//
//go:nosplit
func Increment[T Word](dest *T) {
	p := unsafe.Pointer(dest)
	switch unsafe.Sizeof(*dest) {
	case 1:
		Increment8((*uint8)(p))
	case 2:
		Increment16((*uint16)(p))
	case 4:
		Increment32((*uint32)(p))
	default:
		Increment64((*uint64)(p))
	}
}

// Decrement atomically subtracts one from *dest.
//
//go:nosplit
func Decrement[T Word](dest *T) {
	p := unsafe.Pointer(dest)
	switch unsafe.Sizeof(*dest) {
	case 1:
		Decrement8((*uint8)(p))
	case 2:
		Decrement16((*uint16)(p))
	case 4:
		Decrement32((*uint32)(p))
	default:
		Decrement64((*uint64)(p))
	}
}

// Load atomically reads *dest.
//
//go:nosplit
func Load[T Word](dest *T) T {
	p := unsafe.Pointer(dest)
	switch unsafe.Sizeof(*dest) {
	case 1:
		return T(Load8((*uint8)(p)))
	case 2:
		return T(Load16((*uint16)(p)))
	case 4:
		return T(atomic.LoadUint32((*uint32)(p)))
	default:
		return T(atomic.LoadUint64((*uint64)(p)))
	}
}

// Store atomically writes v to *dest.
//
//go:nosplit
func Store[T Word](dest *T, v T) {
	p := unsafe.Pointer(dest)
	switch unsafe.Sizeof(v) {
	case 1:
		Store8((*uint8)(p), uint8(v))
	case 2:
		Store16((*uint16)(p), uint16(v))
	case 4:
		atomic.StoreUint32((*uint32)(p), uint32(v))
	default:
		atomic.StoreUint64((*uint64)(p), uint64(v))
	}
}

// ============================================================================
// 32-BIT AND 64-BIT PRIMITIVES
// ============================================================================

// CompareAndSwap32 is the 4-byte CompareAndSwap.
//
//go:nosplit
func CompareAndSwap32(dest *uint32, old, new uint32) uint32 {
	for {
		cur := atomic.LoadUint32(dest)
		if cur != old {
			return cur
		}
		if atomic.CompareAndSwapUint32(dest, old, new) {
			return old
		}
	}
}

// CompareAndSwap64 is the 8-byte CompareAndSwap.
//
//go:nosplit
func CompareAndSwap64(dest *uint64, old, new uint64) uint64 {
	for {
		cur := atomic.LoadUint64(dest)
		if cur != old {
			return cur
		}
		if atomic.CompareAndSwapUint64(dest, old, new) {
			return old
		}
	}
}

// Increment32 atomically adds one to *dest.
//
//go:nosplit
//go:inline
func Increment32(dest *uint32) { atomic.AddUint32(dest, 1) }

// Decrement32 atomically subtracts one from *dest.
//
//go:nosplit
//go:inline
func Decrement32(dest *uint32) { atomic.AddUint32(dest, ^uint32(0)) }

// Increment64 atomically adds one to *dest.
//
//go:nosplit
//go:inline
func Increment64(dest *uint64) { atomic.AddUint64(dest, 1) }

// Decrement64 atomically subtracts one from *dest.
//
//go:nosplit
//go:inline
func Decrement64(dest *uint64) { atomic.AddUint64(dest, ^uint64(0)) }

// Load32 atomically reads *dest.
//
//go:nosplit
//go:inline
func Load32(dest *uint32) uint32 { return atomic.LoadUint32(dest) }

// Load64 atomically reads *dest.
//
//go:nosplit
//go:inline
func Load64(dest *uint64) uint64 { return atomic.LoadUint64(dest) }
