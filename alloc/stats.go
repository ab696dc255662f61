package alloc

// FixedStats describes one FixedAllocator.
type FixedStats struct {
	BlockSize     int    `json:"block_size"`
	Chunks        int    `json:"chunks"`
	Blocks        int    `json:"blocks"`
	FreeBlocks    int    `json:"free_blocks"`
	InUse         int    `json:"in_use"`
	Allocations   uint64 `json:"allocations"`
	Deallocations uint64 `json:"deallocations"`
}

// Stats describes a SmallObjectAllocator.
type Stats struct {
	MaxObjectSize int          `json:"max_object_size"`
	LargeAllocs   uint64       `json:"large_allocs"`
	Pools         []FixedStats `json:"pools"`
}

// InUse sums the in-use blocks over all pools.
func (s Stats) InUse() int {
	n := 0
	for _, p := range s.Pools {
		n += p.InUse
	}
	return n
}
