package alloc

import (
	"fmt"
	"slices"
	"sync"

	"concore/constants"
)

// SmallObjectAllocator serves requests up to MaxObjectSize bytes from one
// FixedAllocator per distinct size, and larger requests from the Go heap.
// It is safe for concurrent use.
type SmallObjectAllocator struct {
	mu          sync.Mutex
	pools       []*FixedAllocator // sorted by block size
	lastAlloc   *FixedAllocator
	lastDealloc *FixedAllocator
	largeAllocs uint64

	maxObjectSize int
	chunkSize     int
	src           Source
}

// Option configures a SmallObjectAllocator.
type Option func(*SmallObjectAllocator)

// WithMaxObjectSize sets the largest request served from fixed-block pools.
func WithMaxObjectSize(n int) Option {
	return func(a *SmallObjectAllocator) { a.maxObjectSize = n }
}

// WithChunkSize sets the byte budget of each pool's first chunk.
func WithChunkSize(n int) Option {
	return func(a *SmallObjectAllocator) { a.chunkSize = n }
}

// WithSource sets the chunk memory source.
func WithSource(src Source) Option {
	return func(a *SmallObjectAllocator) { a.src = src }
}

// NewSmallObjectAllocator returns an allocator with the given options
// applied over the constants package defaults.
func NewSmallObjectAllocator(opts ...Option) *SmallObjectAllocator {
	a := &SmallObjectAllocator{
		maxObjectSize: constants.MaxSmallObjectSize,
		chunkSize:     constants.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.src == nil {
		a.src = DefaultSource()
	}
	return a
}

// MaxObjectSize returns the small-object ceiling.
func (a *SmallObjectAllocator) MaxObjectSize() int { return a.maxObjectSize }

// Allocate returns a zeroed block of size bytes. A zero size is served as
// one byte.
func (a *SmallObjectAllocator) Allocate(size int) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidSize, size)
	}
	if size == 0 {
		size = 1
	}
	if size > a.maxObjectSize {
		a.mu.Lock()
		a.largeAllocs++
		a.mu.Unlock()
		return make([]byte, size), nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastAlloc == nil || a.lastAlloc.blockSize != size {
		pool, err := a.poolFor(size)
		if err != nil {
			return nil, err
		}
		a.lastAlloc = pool
	}
	return a.lastAlloc.Allocate()
}

// Deallocate returns b, which must come from Allocate(size) on this
// allocator. Blocks above the small-object ceiling are left to the garbage
// collector.
func (a *SmallObjectAllocator) Deallocate(b []byte, size int) {
	if size == 0 {
		size = 1
	}
	if size > a.maxObjectSize {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.lastDealloc == nil || a.lastDealloc.blockSize != size {
		i, ok := a.search(size)
		if !ok {
			panic("alloc: deallocating a size that was never allocated")
		}
		a.lastDealloc = a.pools[i]
	}
	a.lastDealloc.Deallocate(b)
}

// search finds the pool for size by binary search.
func (a *SmallObjectAllocator) search(size int) (int, bool) {
	return slices.BinarySearchFunc(a.pools, size, func(f *FixedAllocator, size int) int {
		return f.blockSize - size
	})
}

// poolFor returns the pool for size, creating it in sorted position.
func (a *SmallObjectAllocator) poolFor(size int) (*FixedAllocator, error) {
	i, ok := a.search(size)
	if ok {
		return a.pools[i], nil
	}
	f, err := NewFixedAllocator(size, a.chunkSize, a.src)
	if err != nil {
		return nil, err
	}
	a.pools = slices.Insert(a.pools, i, f)
	return f, nil
}

// Release returns every chunk of every pool to the source. Outstanding
// small blocks become invalid.
func (a *SmallObjectAllocator) Release() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, f := range a.pools {
		f.Release()
	}
	a.pools = nil
	a.lastAlloc, a.lastDealloc = nil, nil
}

// Verify runs FixedAllocator.Verify on every pool and checks the pools are
// strictly sorted by block size.
func (a *SmallObjectAllocator) Verify() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, f := range a.pools {
		if i > 0 && a.pools[i-1].blockSize >= f.blockSize {
			return fmt.Errorf("%w: pools out of order at %d", ErrCorrupt, i)
		}
		if err := f.Verify(); err != nil {
			return fmt.Errorf("pool %d bytes: %w", f.blockSize, err)
		}
	}
	return nil
}

// Stats returns a snapshot of every pool.
func (a *SmallObjectAllocator) Stats() Stats {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := Stats{
		MaxObjectSize: a.maxObjectSize,
		LargeAllocs:   a.largeAllocs,
		Pools:         make([]FixedStats, 0, len(a.pools)),
	}
	for _, f := range a.pools {
		s.Pools = append(s.Pools, f.Stats())
	}
	return s
}
