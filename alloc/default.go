package alloc

import "concore/singleton"

// defaultAllocator is the process-wide instance. It sits at the lowest
// destruction priority so every user-level singleton that may still hold
// blocks is torn down before the chunks are unmapped.
var defaultAllocator = singleton.NewHolder(
	singleton.PriorityAllocator,
	func() *SmallObjectAllocator { return NewSmallObjectAllocator() },
	singleton.WithName[SmallObjectAllocator]("alloc.Default"),
	singleton.WithDestroy((*SmallObjectAllocator).Release),
)

// Default returns the process-wide SmallObjectAllocator, creating it on
// first use. Calling it after the singleton registry has shut down panics.
func Default() *SmallObjectAllocator {
	return defaultAllocator.Get()
}
