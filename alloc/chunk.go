package alloc

import (
	"fmt"
	"unsafe"
)

// chunk is one contiguous region split into equally sized blocks. The free
// list is intrusive: a free block's first byte holds the index of the next
// free block.
type chunk struct {
	data       []byte
	base       uintptr // address of data[0]; chunk memory never moves
	blocks     uint8   // capacity in blocks
	firstAvail uint8   // head of the free list
	avail      uint8   // number of free blocks
}

// newChunk threads the free list through a fresh region.
func newChunk(data []byte, blockSize int, blocks uint8) *chunk {
	c := &chunk{
		data:   data,
		base:   uintptr(unsafe.Pointer(unsafe.SliceData(data))),
		blocks: blocks,
		avail:  blocks,
	}
	for i := 0; i < int(blocks); i++ {
		data[i*blockSize] = byte(i + 1)
	}
	return c
}

//go:nosplit
//go:inline
func (c *chunk) full() bool { return c.avail == 0 }

//go:nosplit
//go:inline
func (c *chunk) empty() bool { return c.avail == c.blocks }

// contains reports whether p lies inside this chunk's blocks.
//
//go:nosplit
//go:inline
func (c *chunk) contains(p uintptr, blockSize int) bool {
	return p >= c.base && p < c.base+uintptr(int(c.blocks)*blockSize)
}

// allocate pops the free list head. The chunk must not be full.
func (c *chunk) allocate(blockSize int) []byte {
	off := int(c.firstAvail) * blockSize
	c.firstAvail = c.data[off]
	c.avail--
	b := c.data[off : off+blockSize : off+blockSize]
	clear(b)
	return b
}

// deallocate pushes the block at p back on the free list.
func (c *chunk) deallocate(p uintptr, blockSize int) {
	off := int(p - c.base)
	if off%blockSize != 0 {
		panic("alloc: pointer is not at a block boundary")
	}
	c.data[off] = c.firstAvail
	c.firstAvail = uint8(off / blockSize)
	c.avail++
}

// verify walks the free list and checks it visits avail distinct blocks.
func (c *chunk) verify(blockSize int) error {
	if c.avail > c.blocks {
		return fmt.Errorf("%w: %d free of %d blocks", ErrCorrupt, c.avail, c.blocks)
	}
	var seen [4]uint64
	idx := c.firstAvail
	for n := 0; n < int(c.avail); n++ {
		if idx >= c.blocks {
			return fmt.Errorf("%w: free index %d out of %d", ErrCorrupt, idx, c.blocks)
		}
		word, bit := idx/64, uint64(1)<<(idx%64)
		if seen[word]&bit != 0 {
			return fmt.Errorf("%w: free list revisits block %d", ErrCorrupt, idx)
		}
		seen[word] |= bit
		idx = c.data[int(idx)*blockSize]
	}
	return nil
}

// blockAddr returns the address of the first byte of b.
//
//go:nosplit
//go:inline
func blockAddr(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// vicinityFind searches indices [0, n) outward from start, alternating one
// step down and one step up, and returns the first index for which match
// is true, or -1.
func vicinityFind(n, start int, match func(i int) bool) int {
	if n == 0 {
		return -1
	}
	if start < 0 || start >= n {
		start = 0
	}
	lo, hi := start, start+1
	for lo >= 0 || hi < n {
		if lo >= 0 {
			if match(lo) {
				return lo
			}
			lo--
		}
		if hi < n {
			if match(hi) {
				return hi
			}
			hi++
		}
	}
	return -1
}
