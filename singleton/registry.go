// ============================================================================
// PRIORITY-ORDERED SINGLETON TEARDOWN
// ============================================================================
//
// Process-wide instances are created lazily and destroyed exactly once, in
// descending destruction priority, when the process ends (control.Exit or a
// caught SIGINT/SIGTERM) or when Shutdown is called explicitly.
//
// Priority range:
//   - Closed range [PriorityMin, PriorityMax]
//   - Infrastructure (allocator, thread-local cleanup, pools) reserves the
//     low end so it outlives every user singleton that may depend on it
//   - User singletons default to PriorityMax and die first
//   - Equal priorities are destroyed newest-registration first
//
// After teardown the registry is permanently dead: any attempt to create or
// fetch a singleton is reported through debug and fails with ErrDead
// instead of resurrecting a destroyed instance.

package singleton

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"concore/control"
	"concore/debug"
	"concore/utils"
)

// Destruction priorities.
const (
	PriorityMin         = 0
	PriorityAllocator   = 0
	PriorityThreadLocal = 16
	PriorityThreadPool  = 64
	PriorityDefault     = PriorityMax
	PriorityMax         = 65535
)

var (
	// ErrDead indicates access to a singleton after registry teardown.
	ErrDead = errors.New("singleton: accessed after teardown")

	// ErrPriorityRange indicates a priority outside [PriorityMin, PriorityMax].
	ErrPriorityRange = errors.New("singleton: priority out of range")
)

// slot is one registered teardown entry.
type slot struct {
	name     string
	priority int
	seq      uint64
	destroy  func()
}

// Registry destroys registered entries in descending priority. The zero
// value is not usable; call NewRegistry.
type Registry struct {
	mu    sync.Mutex
	slots []slot // ascending (priority, seq); teardown pops from the end
	seq   uint64
	dead  bool
	once  sync.Once
}

// NewRegistry returns an empty, live registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// defaultRegistry is built without going through any Holder, so the
// registry that governs singletons is not itself one.
var defaultRegistry = func() *Registry {
	r := NewRegistry()
	control.OnExit(r.Shutdown)
	return r
}()

// Default returns the process-wide registry, which is shut down by the
// control package's exit hooks.
func Default() *Registry { return defaultRegistry }

// Shutdown tears down the process-wide registry.
func Shutdown() { defaultRegistry.Shutdown() }

// Register schedules destroy to run at teardown. name is used in
// diagnostics only.
func (r *Registry) Register(name string, priority int, destroy func()) error {
	if priority < PriorityMin || priority > PriorityMax {
		return fmt.Errorf("%w: %d", ErrPriorityRange, priority)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.dead {
		return fmt.Errorf("%w: register %s", ErrDead, name)
	}
	r.seq++
	s := slot{name: name, priority: priority, seq: r.seq, destroy: destroy}
	i := sort.Search(len(r.slots), func(i int) bool { return r.slots[i].priority > priority })
	r.slots = append(r.slots, slot{})
	copy(r.slots[i+1:], r.slots[i:])
	r.slots[i] = s
	return nil
}

// Shutdown destroys every registered entry, highest priority first, then
// marks the registry dead. Entries registered by a destructor while the
// teardown runs are destroyed in the same pass. Only the first call does
// anything.
func (r *Registry) Shutdown() {
	r.once.Do(func() {
		for {
			r.mu.Lock()
			n := len(r.slots)
			if n == 0 {
				r.dead = true
				r.mu.Unlock()
				return
			}
			s := r.slots[n-1]
			r.slots = r.slots[:n-1]
			r.mu.Unlock()
			destroySlot(s)
		}
	})
}

// destroySlot runs one destructor; a panic is reported and swallowed so the
// remaining entries still get destroyed.
func destroySlot(s slot) {
	defer func() {
		if rec := recover(); rec != nil {
			debug.DropMessage("SINGLETON", "destructor of "+s.name+" (priority "+utils.Itoa(s.priority)+") panicked")
		}
	}()
	s.destroy()
}

// Dead reports whether teardown has completed.
func (r *Registry) Dead() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dead
}

// Len returns the number of entries awaiting teardown.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}
