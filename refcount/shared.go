package refcount

// Shared is a counted owning handle to a *T. Copies made with Clone share
// the pointee; the destroy function runs once, when the last handle is
// released. A Shared value must be released at most once; Release clears it.
type Shared[T any, S any, PS interface {
	*S
	Strategy[T]
}] struct {
	ptr     *T
	strat   PS
	destroy func(*T)
}

// NewExternal returns the first handle to p with an externally allocated
// counter. destroy may be nil.
func NewExternal[T any](p *T, destroy func(*T)) (Shared[T, External[T], *External[T]], error) {
	return newShared[T, External[T]](p, destroy)
}

// NewIntrusive returns the first handle to p, counting through p's own
// counter. destroy may be nil.
func NewIntrusive[T any, PT interface {
	*T
	Counted
}](p PT, destroy func(*T)) Shared[T, Intrusive[T, PT], *Intrusive[T, PT]] {
	s, _ := newShared[T, Intrusive[T, PT]]((*T)(p), destroy) // Init never fails
	return s
}

func newShared[T any, S any, PS interface {
	*S
	Strategy[T]
}](p *T, destroy func(*T)) (Shared[T, S, PS], error) {
	strat := PS(new(S))
	if err := strat.Init(p); err != nil {
		return Shared[T, S, PS]{}, err
	}
	return Shared[T, S, PS]{ptr: p, strat: strat, destroy: destroy}, nil
}

// Get returns the pointee, or nil for a released or zero handle.
func (s *Shared[T, S, PS]) Get() *T { return s.ptr }

// Clone returns a new handle to the same pointee.
func (s *Shared[T, S, PS]) Clone() Shared[T, S, PS] {
	if s.ptr == nil {
		panic("refcount: clone of a released handle")
	}
	s.strat.Increment(s.ptr)
	return *s
}

// Release drops this handle. It reports whether it was the last one, in
// which case destroy has run. Releasing a zero or already released handle
// does nothing.
func (s *Shared[T, S, PS]) Release() bool {
	p := s.ptr
	if p == nil {
		return false
	}
	s.ptr = nil
	if !s.strat.Decrement(p) {
		return false
	}
	if s.destroy != nil {
		s.destroy(p)
	}
	return true
}

// UseCount returns a snapshot of the owner count.
func (s *Shared[T, S, PS]) UseCount() int32 {
	if s.ptr == nil {
		return 0
	}
	return s.strat.Count(s.ptr)
}
