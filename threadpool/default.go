package threadpool

import "concore/singleton"

// defaultPool outlives user singletons so their destructors may still
// submit work, and dies before the allocator it indirectly uses.
var defaultPool = singleton.NewHolder(
	singleton.PriorityThreadPool,
	func() *Pool[Task, Runner] {
		p, err := NewFunc(LowCPU())
		if err != nil {
			panic(err) // LowCPU is always valid
		}
		return p
	},
	singleton.WithName[Pool[Task, Runner]]("threadpool.Default"),
	singleton.WithDestroy(func(p *Pool[Task, Runner]) { p.Close() }),
)

// Default returns the process-wide low-CPU pool of plain functions,
// created on first use and closed at process exit.
func Default() *Pool[Task, Runner] { return defaultPool.Get() }
