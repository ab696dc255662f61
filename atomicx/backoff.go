package atomicx

import (
	"runtime"

	"concore/constants"
)

// Backoff paces a busy-wait loop: every call issues a Relax hint, and every
// constants.SpinBudget calls the goroutine yields its processor once so a
// spinning thread can not starve the one it is waiting for.
// The zero value is ready to use.
type Backoff struct {
	miss int
}

// Spin records one failed poll.
//
//go:nosplit
func (b *Backoff) Spin() {
	Relax()
	if b.miss++; b.miss >= constants.SpinBudget {
		b.miss = 0
		runtime.Gosched()
	}
}

// Reset is called after a successful poll.
//
//go:nosplit
//go:inline
func (b *Backoff) Reset() { b.miss = 0 }
