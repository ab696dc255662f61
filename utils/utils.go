// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: utils.go - Small allocation-light helpers
//
// Purpose:
//   - Integer formatting for diagnostics without fmt.
//   - Direct stderr writes for the debug package.
//   - Zero-copy byte/string view and power-of-two rounding for mappings.
// ─────────────────────────────────────────────────────────────────────────────

package utils

import (
	"os"
	"unsafe"
)

// B2s converts a byte slice to a string without copying. The slice must not
// be modified afterwards.
//
//go:nosplit
//go:inline
func B2s(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// Itoa formats a signed integer in base 10 using a stack buffer.
func Itoa(n int) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	neg := n < 0
	u := uint64(n)
	if neg {
		u = uint64(-n)
	}
	for u > 0 {
		i--
		buf[i] = byte('0' + u%10)
		u /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// PrintWarning writes msg to stderr. Write errors are dropped: there is
// nowhere left to report them.
func PrintWarning(msg string) {
	_, _ = os.Stderr.WriteString(msg)
}

// AlignUp rounds n up to a multiple of align, which must be a power of two.
//
//go:nosplit
//go:inline
func AlignUp(n, align uintptr) uintptr {
	return (n + align - 1) &^ (align - 1)
}
