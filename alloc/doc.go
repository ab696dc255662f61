// Package alloc implements the chunked fixed-block allocator and the
// small-object allocator built on top of it.
//
// Overview
//
// A FixedAllocator hands out blocks of one size. Blocks are carved from
// chunks of at most 255 blocks; every free block stores, in its first byte,
// the index of the next free block of its chunk, so the free list costs no
// memory beyond the payload. Allocation and deallocation are O(1)
// amortized:
//
//   - Allocate tries the chunk that served the previous allocation, then
//     scans, then appends a chunk whose block count doubles up to 255.
//   - Deallocate searches outward from the chunk that served the previous
//     deallocation. Alternating allocate/free patterns almost always hit on
//     the first probe.
//   - At most one fully free chunk is kept; a second one is returned to the
//     memory Source.
//
// A SmallObjectAllocator keeps one FixedAllocator per distinct request size
// up to a ceiling (256 bytes by default) and forwards larger requests to
// the Go heap. It is safe for concurrent use; the FixedAllocator is not.
//
// Memory sources
//
// Chunks come from a Source. On unix the default source maps anonymous
// memory with golang.org/x/sys/unix, which keeps chunk memory outside the
// garbage-collected heap; elsewhere chunks are ordinary byte slices.
//
// Blocks must not hold Go pointers: mapped memory is invisible to the
// garbage collector.
//
// Preconditions
//
// Passing Deallocate a slice that this allocator did not return is a
// programming error. It is detected only when the owning chunk can not be
// found at all, and then it panics.
package alloc
