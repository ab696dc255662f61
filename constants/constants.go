// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: constants.go - Global tunables for the concurrency core
//
// Purpose:
//   - Sizes the allocator chunks, the queue node arena and the spin loops.
//   - Defines the small-object ceiling shared by alloc and refcount.
//
// Notes:
//   - Chunk block counts are bounded by a one-byte free-list index.
//   - Node indices are 32-bit so a tagged index fits one 64-bit CAS.
//
// ⚠️ No runtime logic here - all values must be compile-time resolvable
// ─────────────────────────────────────────────────────────────────────────────

package constants

import "time"

// ───────────────────────────── Small-object allocator ──────────────────────

const (
	// DefaultChunkSize is the byte budget of the first chunk a fixed-block
	// allocator creates. Later chunks double their block count up to
	// MaxChunkBlocks.
	DefaultChunkSize = 4096

	// MaxChunkBlocks caps blocks per chunk: the in-payload free list stores
	// the next free index in a single byte.
	MaxChunkBlocks = 255

	// MinChunkBlocks keeps large block sizes from producing one-block chunks.
	MinChunkBlocks = 8

	// MaxSmallObjectSize is the largest request served from fixed-block
	// pools. Anything larger goes to the Go heap.
	MaxSmallObjectSize = 256
)

// ───────────────────────────── Lock-free queue ─────────────────────────────

const (
	// NodeSegmentBits sizes one node arena segment: 2^10 = 1024 nodes.
	NodeSegmentBits = 10

	// NodeSegmentSize is the number of nodes appended per arena growth.
	NodeSegmentSize = 1 << NodeSegmentBits

	// MaxNodeSegments bounds the arena so every index fits in 32 bits
	// (index 0 is reserved as the null index).
	MaxNodeSegments = 1 << (32 - NodeSegmentBits)
)

// ───────────────────────────── Thread pool ─────────────────────────────────

const (
	// SpinBudget is the number of failed polls before a spinning thread
	// yields its processor once.
	SpinBudget = 224

	// DefaultPollInterval bounds every blocking wait of the signaled idle
	// policy so a missed wake-up costs at most one interval.
	DefaultPollInterval = 10 * time.Millisecond

	// LowCPUQueueBound is the task queue bound of the low-CPU configuration.
	LowCPUQueueBound = 1024
)
