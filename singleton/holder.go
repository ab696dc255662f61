package singleton

import (
	"io"
	"reflect"
	"sync"
	"sync/atomic"

	"concore/debug"
)

// Holder owns one lazily created process-wide instance of T.
type Holder[T any] struct {
	mu       sync.Mutex
	inst     atomic.Pointer[T]
	dead     atomic.Bool
	priority int
	name     string
	ctor     func() *T
	destroy  func(*T)
	registry *Registry
}

// Option configures a Holder.
type Option[T any] func(*Holder[T])

// WithDestroy sets the teardown function. Without it, teardown calls
// Destroy() or Close() when *T implements either.
func WithDestroy[T any](fn func(*T)) Option[T] {
	return func(h *Holder[T]) { h.destroy = fn }
}

// WithRegistry registers the instance with r instead of Default().
func WithRegistry[T any](r *Registry) Option[T] {
	return func(h *Holder[T]) { h.registry = r }
}

// WithName sets the name used in diagnostics.
func WithName[T any](name string) Option[T] {
	return func(h *Holder[T]) { h.name = name }
}

// NewHolder declares a singleton. Nothing is constructed until the first
// Get. A priority outside [PriorityMin, PriorityMax] panics.
func NewHolder[T any](priority int, ctor func() *T, opts ...Option[T]) *Holder[T] {
	if priority < PriorityMin || priority > PriorityMax {
		panic(ErrPriorityRange)
	}
	h := &Holder[T]{
		priority: priority,
		name:     reflect.TypeOf((*T)(nil)).Elem().String(),
		ctor:     ctor,
		destroy:  destroyDefault[T],
		registry: defaultRegistry,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// TryGet returns the instance, constructing and registering it on first
// use. Construction is mutually exclusive: concurrent first callers all
// receive the same instance. After teardown it returns ErrDead.
func (h *Holder[T]) TryGet() (*T, error) {
	if p := h.inst.Load(); p != nil {
		return p, nil
	}
	if h.dead.Load() {
		return nil, ErrDead
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if p := h.inst.Load(); p != nil {
		return p, nil
	}
	if h.dead.Load() || h.registry.Dead() {
		return nil, ErrDead
	}
	p := h.ctor()
	if err := h.registry.Register(h.name, h.priority, h.teardown); err != nil {
		// The registry died while ctor ran; nothing would ever tear p down.
		h.destroy(p)
		return nil, err
	}
	h.inst.Store(p)
	return p, nil
}

// Get is TryGet for callers that treat post-teardown access as the
// programming error it is: the failure is logged and Get panics.
func (h *Holder[T]) Get() *T {
	p, err := h.TryGet()
	if err != nil {
		debug.DropError("SINGLETON "+h.name, err)
		panic(err)
	}
	return p
}

// Alive reports whether the instance exists right now.
func (h *Holder[T]) Alive() bool { return h.inst.Load() != nil }

// teardown is the registered destructor.
func (h *Holder[T]) teardown() {
	h.mu.Lock()
	p := h.inst.Swap(nil)
	h.dead.Store(true)
	h.mu.Unlock()
	if p != nil {
		h.destroy(p)
	}
}

// destroyDefault calls Destroy or Close when *T provides one.
func destroyDefault[T any](p *T) {
	switch v := any(p).(type) {
	case interface{ Destroy() }:
		v.Destroy()
	case io.Closer:
		if err := v.Close(); err != nil {
			debug.DropError("SINGLETON close", err)
		}
	}
}

// ============================================================================
// TYPE-KEYED INSTANCES
// ============================================================================

type instanceKey struct {
	typ      reflect.Type
	priority int
}

var instances sync.Map // instanceKey -> *Holder[T]

// Instance returns the process-wide default-constructed T for priority.
// Each distinct (T, priority) pair is its own singleton.
func Instance[T any](priority int) *T {
	key := instanceKey{typ: reflect.TypeOf((*T)(nil)).Elem(), priority: priority}
	if h, ok := instances.Load(key); ok {
		return h.(*Holder[T]).Get()
	}
	h, _ := instances.LoadOrStore(key, NewHolder(priority, func() *T { return new(T) }))
	return h.(*Holder[T]).Get()
}
