package alloc

import (
	"fmt"
	"slices"

	"concore/constants"
	"concore/debug"
)

// FixedAllocator manages blocks of one size. It is not safe for concurrent
// use; SmallObjectAllocator serializes access to its pools.
type FixedAllocator struct {
	blockSize  int
	src        Source
	chunks     []*chunk
	allocHint  int // chunk that served the last allocation, -1 if none
	freeHint   int // chunk that served the last deallocation, -1 if none
	emptyChunk int // the single fully free chunk kept in reserve, -1 if none
	nextBlocks int // block count of the next appended chunk

	allocs uint64
	frees  uint64
}

// NewFixedAllocator returns an allocator for blockSize-byte blocks. The
// first chunk holds about chunkSize bytes (clamped to
// [constants.MinChunkBlocks, constants.MaxChunkBlocks] blocks). A nil src
// selects DefaultSource().
func NewFixedAllocator(blockSize, chunkSize int, src Source) (*FixedAllocator, error) {
	if blockSize < 1 {
		return nil, fmt.Errorf("%w: block size %d", ErrInvalidSize, blockSize)
	}
	if src == nil {
		src = DefaultSource()
	}
	blocks := chunkSize / blockSize
	blocks = max(blocks, constants.MinChunkBlocks)
	blocks = min(blocks, constants.MaxChunkBlocks)
	return &FixedAllocator{
		blockSize:  blockSize,
		src:        src,
		allocHint:  -1,
		freeHint:   -1,
		emptyChunk: -1,
		nextBlocks: blocks,
	}, nil
}

// BlockSize returns the size of every block.
func (f *FixedAllocator) BlockSize() int { return f.blockSize }

// Allocate returns a zeroed block of BlockSize bytes. The error is
// ErrOutOfMemory-wrapped when a new chunk is needed and the source fails.
func (f *FixedAllocator) Allocate() ([]byte, error) {
	if f.allocHint < 0 || f.chunks[f.allocHint].full() {
		f.allocHint = slices.IndexFunc(f.chunks, func(c *chunk) bool { return !c.full() })
		if f.allocHint < 0 {
			if err := f.grow(); err != nil {
				return nil, err
			}
		}
	}
	if f.allocHint == f.emptyChunk {
		f.emptyChunk = -1
	}
	f.allocs++
	return f.chunks[f.allocHint].allocate(f.blockSize), nil
}

// grow appends a chunk and points the allocation hint at it. Block counts
// double per chunk until they reach the one-byte index limit.
func (f *FixedAllocator) grow() error {
	blocks := f.nextBlocks
	data, err := f.src.Acquire(blocks * f.blockSize)
	if err != nil {
		return fmt.Errorf("%w: chunk of %d x %d bytes: %v", ErrOutOfMemory, blocks, f.blockSize, err)
	}
	f.chunks = append(f.chunks, newChunk(data, f.blockSize, uint8(blocks)))
	f.allocHint = len(f.chunks) - 1
	if f.freeHint < 0 {
		f.freeHint = f.allocHint
	}
	f.nextBlocks = min(blocks*2, constants.MaxChunkBlocks)
	return nil
}

// Deallocate returns b to its chunk. b must have been returned by Allocate
// on this allocator and not freed since.
func (f *FixedAllocator) Deallocate(b []byte) {
	p := blockAddr(b)
	i := vicinityFind(len(f.chunks), f.freeHint, func(i int) bool {
		return f.chunks[i].contains(p, f.blockSize)
	})
	if i < 0 {
		panic("alloc: deallocating a block this allocator does not own")
	}
	f.freeHint = i
	c := f.chunks[i]
	c.deallocate(p, f.blockSize)
	f.frees++

	if !c.empty() {
		return
	}
	if f.emptyChunk >= 0 && f.emptyChunk != i {
		prev := f.emptyChunk
		f.releaseChunk(prev)
		if i > prev {
			i--
		}
	}
	f.emptyChunk = i
	f.allocHint = i
}

// releaseChunk removes chunk j and returns its memory to the source.
func (f *FixedAllocator) releaseChunk(j int) {
	c := f.chunks[j]
	f.chunks = slices.Delete(f.chunks, j, j+1)
	shift := func(h int) int {
		switch {
		case h == j:
			return -1
		case h > j:
			return h - 1
		}
		return h
	}
	f.allocHint = shift(f.allocHint)
	f.freeHint = shift(f.freeHint)
	f.emptyChunk = shift(f.emptyChunk)
	if err := f.src.Release(c.data); err != nil {
		debug.DropError("ALLOC_RELEASE", err)
	}
}

// Release returns every chunk to the source. Outstanding blocks become
// invalid. The allocator stays usable and grows again on demand.
func (f *FixedAllocator) Release() {
	for len(f.chunks) > 0 {
		f.releaseChunk(len(f.chunks) - 1)
	}
	f.allocHint, f.freeHint, f.emptyChunk = -1, -1, -1
}

// Verify checks every chunk's free list and the allocator-level
// invariants: at most one empty chunk, hints in range.
func (f *FixedAllocator) Verify() error {
	n := len(f.chunks)
	for _, h := range []int{f.allocHint, f.freeHint, f.emptyChunk} {
		if h < -1 || h >= n {
			return fmt.Errorf("%w: hint %d with %d chunks", ErrCorrupt, h, n)
		}
	}
	empties := 0
	for i, c := range f.chunks {
		if err := c.verify(f.blockSize); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
		if c.empty() {
			empties++
			if i != f.emptyChunk {
				return fmt.Errorf("%w: chunk %d empty but not tracked", ErrCorrupt, i)
			}
		}
	}
	if empties > 1 {
		return fmt.Errorf("%w: %d empty chunks retained", ErrCorrupt, empties)
	}
	if f.emptyChunk >= 0 && !f.chunks[f.emptyChunk].empty() {
		return fmt.Errorf("%w: tracked empty chunk %d is in use", ErrCorrupt, f.emptyChunk)
	}
	return nil
}

// Stats returns a snapshot of the allocator's bookkeeping.
func (f *FixedAllocator) Stats() FixedStats {
	s := FixedStats{
		BlockSize:     f.blockSize,
		Chunks:        len(f.chunks),
		Allocations:   f.allocs,
		Deallocations: f.frees,
	}
	for _, c := range f.chunks {
		s.Blocks += int(c.blocks)
		s.FreeBlocks += int(c.avail)
	}
	s.InUse = s.Blocks - s.FreeBlocks
	return s
}
