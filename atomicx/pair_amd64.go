//go:build amd64 && !noasm

// ════════════════════════════════════════════════════════════════════════════════════════════════
// 16-Byte Pair CAS - AMD64 Architecture
// ────────────────────────────────────────────────────────────────────────────────────────────────
// Implements the 8-byte-width pair CAS with LOCK CMPXCHG16B. Platforms
// without this file have no CompareAndSwapPair64: using it there is a build
// error, never a runtime one.
// ════════════════════════════════════════════════════════════════════════════════════════════════

package atomicx

import "unsafe"

// cas128 is implemented in pair_amd64.s.
//
//go:noescape
func cas128(addr *uint64, old1, old2, new1, new2 uint64) bool

// load128 is implemented in pair_amd64.s.
//
//go:noescape
func load128(addr *uint64) (lo, hi uint64)

// CompareAndSwapPair64 swaps (*dest1, *(dest1+1)) from (exp1, exp2) to
// (new1, new2) atomically. dest1 must be 16-byte aligned; Pair128 provides
// such a location.
func CompareAndSwapPair64(dest1 *uint64, exp1, exp2, new1, new2 uint64) bool {
	if uintptr(unsafe.Pointer(dest1))&15 != 0 {
		panic("atomicx: unaligned 64-bit pair")
	}
	return cas128(dest1, exp1, exp2, new1, new2)
}

// Pair128 is a 16-byte aligned pair of 8-byte cells. The zero value holds
// (0, 0) and is ready to use. A Pair128 must not be copied after first use.
type Pair128 struct {
	raw [3]uint64
}

// words returns the 16-byte aligned window inside raw. Go only guarantees
// 8-byte alignment, so one of the two candidate windows always fits.
//
//go:nosplit
//go:inline
func (p *Pair128) words() *uint64 {
	if uintptr(unsafe.Pointer(&p.raw[0]))&15 == 0 {
		return &p.raw[0]
	}
	return &p.raw[1]
}

// Load atomically reads both halves.
func (p *Pair128) Load() (first, second uint64) {
	return load128(p.words())
}

// CompareAndSwap swaps both halves iff both match.
func (p *Pair128) CompareAndSwap(exp1, exp2, new1, new2 uint64) bool {
	return cas128(p.words(), exp1, exp2, new1, new2)
}
