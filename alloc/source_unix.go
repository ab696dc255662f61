//go:build unix

package alloc

import (
	"fmt"

	"golang.org/x/sys/unix"

	"concore/utils"
)

// MmapSource maps anonymous private memory for every chunk. Chunk memory
// then lives outside the garbage-collected heap and is returned to the OS
// as soon as a chunk is released.
type MmapSource struct{}

// Acquire implements Source. The mapping is rounded up to whole pages; the
// returned slice has length size and spans the mapping in its capacity.
func (MmapSource) Acquire(size int) ([]byte, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%w: chunk of %d bytes", ErrInvalidSize, size)
	}
	mapped := int(utils.AlignUp(uintptr(size), uintptr(unix.Getpagesize())))
	data, err := unix.Mmap(-1, 0, mapped, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", mapped, err)
	}
	return data[:size], nil
}

// Release implements Source.
func (MmapSource) Release(b []byte) error {
	if cap(b) == 0 {
		return nil
	}
	return unix.Munmap(b[:cap(b)])
}

// DefaultSource returns the source used by allocators built without an
// explicit one: anonymous mappings on unix.
func DefaultSource() Source { return MmapSource{} }
