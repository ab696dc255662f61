package alloc

import "fmt"

// Source supplies and reclaims the raw memory of chunks.
type Source interface {
	// Acquire returns a zeroed region of exactly size bytes.
	Acquire(size int) ([]byte, error)
	// Release returns a region obtained from Acquire.
	Release(b []byte) error
}

// HeapSource allocates chunks on the Go heap. Release drops the reference
// and lets the garbage collector reclaim the region.
type HeapSource struct{}

// Acquire implements Source.
func (HeapSource) Acquire(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk of %d bytes", ErrInvalidSize, size)
	}
	return make([]byte, size), nil
}

// Release implements Source.
func (HeapSource) Release([]byte) error { return nil }
