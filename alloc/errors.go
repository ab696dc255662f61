package alloc

import "errors"

var (
	// ErrOutOfMemory indicates the memory source could not supply a chunk.
	ErrOutOfMemory = errors.New("alloc: out of memory")

	// ErrInvalidSize indicates a negative request or a block size below one byte.
	ErrInvalidSize = errors.New("alloc: invalid size")

	// ErrCorrupt is returned by Verify when allocator metadata is inconsistent.
	ErrCorrupt = errors.New("alloc: corrupt allocator metadata")
)
