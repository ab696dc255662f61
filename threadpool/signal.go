package threadpool

import (
	"sync"
	"sync/atomic"
	"time"
)

// Signal is a broadcast event. A waiter arms it, re-checks its condition,
// then waits on the armed channel; Broadcast wakes every armed waiter. If
// nobody is armed Broadcast costs one atomic load, so producers can call
// it on every push.
type Signal struct {
	waiters atomic.Int32
	mu      sync.Mutex
	ch      chan struct{}
}

// NewSignal returns an unsignaled event.
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Arm registers a waiter and returns the channel the next Broadcast
// closes. Every Arm must be paired with Disarm.
func (s *Signal) Arm() <-chan struct{} {
	s.waiters.Add(1)
	s.mu.Lock()
	ch := s.ch
	s.mu.Unlock()
	return ch
}

// Disarm unregisters a waiter.
func (s *Signal) Disarm() { s.waiters.Add(-1) }

// Broadcast wakes all armed waiters.
func (s *Signal) Broadcast() {
	if s.waiters.Load() == 0 {
		return
	}
	s.mu.Lock()
	close(s.ch)
	s.ch = make(chan struct{})
	s.mu.Unlock()
}

// Wait blocks until ch is closed or timeout elapses and reports which: true
// when signaled, false on timeout. A non-positive timeout only polls.
func Wait(ch <-chan struct{}, timeout time.Duration) bool {
	if timeout <= 0 {
		select {
		case <-ch:
			return true
		default:
			return false
		}
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
		return true
	case <-timer.C:
		return false
	}
}
